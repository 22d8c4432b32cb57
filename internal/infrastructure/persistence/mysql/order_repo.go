package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookorder/internal/domain/order"
)

// orderRepository 订单仓储实现
// 1. Order和OrderItem是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 事务通过context传递
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单,GORM会同时插入关联的Items
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return dbError(err, "创建订单失败")
	}

	// 回填自增ID
	o.ID = model.ID
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
		o.Items[i].OrderID = model.ID
	}
	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.find(dbFrom(ctx, r.db), id)
}

// LockByID 悲观锁查询订单(SELECT FOR UPDATE),同一订单的状态修改串行执行
func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.find(dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepository) find(db *gorm.DB, id uint) (*order.Order, error) {
	var model OrderModel
	// 1. SELECT * FROM orders WHERE id = ?
	// 2. SELECT * FROM order_items WHERE order_id IN (?)
	if err := db.Preload("Items", orderItems).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, dbError(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// UpdateStatus 只更新状态和更新时间
// WHERE status = from 保证不会覆盖其他请求已经提交的状态
func (r *orderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&OrderModel{}).
		Where("id = ? AND status = ?", o.ID, int(from)).
		Updates(map[string]interface{}{
			"status":     int(o.Status),
			"updated_at": o.UpdatedAt,
		})
	if result.Error != nil {
		return dbError(result.Error, "更新订单状态失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
		return dbError(err, "查询订单失败")
	}
	if count == 0 {
		return order.ErrOrderNotFound
	}
	return order.ErrStaleOrder
}

// List 查询全部订单,按创建时间倒序
func (r *orderRepository) List(ctx context.Context) ([]*order.Order, error) {
	var models []OrderModel
	err := dbFrom(ctx, r.db).
		Preload("Items", orderItems).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "查询订单列表失败")
	}
	return toOrderEntities(models), nil
}

// FindByStatusCreatedBefore 查询指定状态且创建时间不晚于cutoff的订单
func (r *orderRepository) FindByStatusCreatedBefore(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error) {
	var models []OrderModel
	err := dbFrom(ctx, r.db).
		Preload("Items", orderItems).
		Where("status = ? AND created_at <= ?", int(status), cutoff).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "查询超时订单失败")
	}
	return toOrderEntities(models), nil
}

// Delete 删除订单及其明细,订单不存在时不报错
func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&OrderModel{}, id).Error
	})
	if err != nil {
		return dbError(err, "删除订单失败")
	}
	return nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   item.OrderID,
			BookID:    item.BookID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	return &OrderModel{
		ID:          o.ID,
		Status:      int(o.Status),
		Delivery:    string(o.Delivery),
		RecipientID: o.Recipient.ID,
		Recipient: RecipientSnapshot{
			Name:    o.Recipient.Name,
			Phone:   o.Recipient.Phone,
			Street:  o.Recipient.Street,
			City:    o.Recipient.City,
			ZipCode: o.Recipient.ZipCode,
			Email:   o.Recipient.Email,
		},
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]order.OrderItem, len(model.Items))
	for i, item := range model.Items {
		items[i] = order.OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			BookID:    item.BookID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	return &order.Order{
		ID:     model.ID,
		Status: order.Status(model.Status),
		Recipient: order.Recipient{
			ID:      model.RecipientID,
			Name:    model.Recipient.Name,
			Phone:   model.Recipient.Phone,
			Street:  model.Recipient.Street,
			City:    model.Recipient.City,
			ZipCode: model.Recipient.ZipCode,
			Email:   model.Recipient.Email,
		},
		Items:     items,
		Delivery:  order.Delivery(model.Delivery),
		CreatedAt: model.CreatedAt.UTC(),
		UpdatedAt: model.UpdatedAt.UTC(),
	}
}

func toOrderEntities(models []OrderModel) []*order.Order {
	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders
}
