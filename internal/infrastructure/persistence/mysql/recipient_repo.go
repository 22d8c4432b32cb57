package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookorder/internal/domain/order"
)

// recipientRepository 收件人仓储实现,按小写邮箱去重
type recipientRepository struct {
	db *gorm.DB
}

// NewRecipientRepository 创建收件人仓储
func NewRecipientRepository(db *gorm.DB) order.RecipientRepository {
	return &recipientRepository{db: db}
}

// FindByEmail 按邮箱查找收件人(忽略大小写),不存在返回nil, nil
func (r *recipientRepository) FindByEmail(ctx context.Context, email string) (*order.Recipient, error) {
	model, err := r.findByKey(dbFrom(ctx, r.db), emailKey(email))
	if err != nil || model == nil {
		return nil, err
	}
	return toRecipientEntity(model), nil
}

// Create 创建收件人
// 并发下单时同一邮箱可能被另一个事务先插入,此时回填已有记录的ID
func (r *recipientRepository) Create(ctx context.Context, rc *order.Recipient) error {
	db := dbFrom(ctx, r.db)
	model := &RecipientModel{
		Name:     rc.Name,
		Phone:    rc.Phone,
		Street:   rc.Street,
		City:     rc.City,
		ZipCode:  rc.ZipCode,
		Email:    rc.Email,
		EmailKey: emailKey(rc.Email),
	}

	if err := db.Create(model).Error; err != nil {
		if !isDuplicateError(err) {
			return dbError(err, "创建收件人失败")
		}
		// 加锁读取最新提交的记录,普通读在REPEATABLE READ下仍使用事务开始时的快照
		existing, findErr := r.findByKey(db.Clauses(clause.Locking{Strength: "UPDATE"}), model.EmailKey)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return dbError(err, "创建收件人失败")
		}
		rc.ID = existing.ID
		return nil
	}

	rc.ID = model.ID
	return nil
}

func (r *recipientRepository) findByKey(db *gorm.DB, key string) (*RecipientModel, error) {
	var model RecipientModel
	err := db.Where("email_key = ?", key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "查询收件人失败")
	}
	return &model, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toRecipientEntity(model *RecipientModel) *order.Recipient {
	return &order.Recipient{
		ID:      model.ID,
		Name:    model.Name,
		Phone:   model.Phone,
		Street:  model.Street,
		City:    model.City,
		ZipCode: model.ZipCode,
		Email:   model.Email,
	}
}
