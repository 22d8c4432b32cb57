package book

import (
	"context"
)

// Repository 图书仓储接口
// 下单和撤单只通过这里读写可售数量
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回*NotFoundError
	FindByID(ctx context.Context, id uint) (*Book, error)

	// LockByID 悲观锁查询图书(SELECT FOR UPDATE),必须在事务内调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateAvailable 原子地调整可售数量,delta为负表示扣减
	// 调整后小于0时返回*InsufficientStockError,不做任何修改
	UpdateAvailable(ctx context.Context, id uint, delta int) error
}
