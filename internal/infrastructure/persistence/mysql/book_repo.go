package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookorder/internal/domain/book"
)

// bookRepository 图书仓储实现
// 负责domain实体与GORM模型之间的转换,事务通过context传递
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		Title:     b.Title,
		Author:    b.Author,
		Price:     b.Price,
		Available: b.Available,
	}
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return dbError(err, "创建图书失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.find(dbFrom(ctx, r.db), id)
}

// LockByID 悲观锁查询图书
// SELECT ... FOR UPDATE,锁持有到事务结束;SQLite方言会忽略锁子句
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.find(dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *bookRepository) find(db *gorm.DB, id uint) (*book.Book, error) {
	var model BookModel
	if err := db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &book.NotFoundError{BookID: id}
		}
		return nil, dbError(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// UpdateAvailable 原子地调整可售数量
// UPDATE books SET available = available + ? WHERE id = ? AND available + ? >= 0
func (r *bookRepository) UpdateAvailable(ctx context.Context, id uint, delta int) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("available + ? >= 0", delta).
		Update("available", gorm.Expr("available + ?", delta))
	if result.Error != nil {
		return dbError(result.Error, "更新库存失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// 图书不存在或库存不足,再查一次确定原因
	current, err := r.find(db, id)
	if err != nil {
		return err
	}
	return &book.InsufficientStockError{BookID: id, Requested: -delta, Available: current.Available}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:        model.ID,
		Title:     model.Title,
		Author:    model.Author,
		Price:     model.Price,
		Available: model.Available,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
