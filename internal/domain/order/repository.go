package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 事务通过context传递,在TxManager.Transaction内调用时所有操作属于同一事务
type Repository interface {
	// Create 创建订单(包含订单明细),回填ID
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单(包含订单明细)
	FindByID(ctx context.Context, id uint) (*Order, error)

	// LockByID 悲观锁查询订单,串行化同一订单的状态变更
	LockByID(ctx context.Context, id uint) (*Order, error)

	// UpdateStatus 更新状态,仅当数据库中的状态仍为from时生效,否则返回ErrStaleOrder
	UpdateStatus(ctx context.Context, order *Order, from Status) error

	// List 查询全部订单,按创建时间倒序
	List(ctx context.Context) ([]*Order, error)

	// FindByStatusCreatedBefore 查询指定状态且创建时间不晚于cutoff的订单
	FindByStatusCreatedBefore(ctx context.Context, status Status, cutoff time.Time) ([]*Order, error)

	// Delete 删除订单及明细,订单不存在时不报错
	Delete(ctx context.Context, id uint) error
}

// RecipientRepository 收件人仓储接口
type RecipientRepository interface {
	// FindByEmail 按邮箱查找(忽略大小写),不存在返回nil, nil
	FindByEmail(ctx context.Context, email string) (*Recipient, error)

	// Create 创建收件人记录,回填ID
	Create(ctx context.Context, recipient *Recipient) error
}
