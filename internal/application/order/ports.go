package order

import (
	"context"
	"time"
)

// TxManager 事务管理器
// fn内通过ctx调用的仓储操作属于同一事务,fn返回error时整体回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderCache 订单视图缓存
// 缓存失败不影响主流程,实现应自行降级
type OrderCache interface {
	Get(ctx context.Context, id uint) (*OrderView, bool)
	Set(ctx context.Context, view *OrderView, ttl time.Duration)
	Delete(ctx context.Context, id uint)
}

// NoopCache 不做任何缓存
type NoopCache struct{}

func (NoopCache) Get(context.Context, uint) (*OrderView, bool) { return nil, false }

func (NoopCache) Set(context.Context, *OrderView, time.Duration) {}

func (NoopCache) Delete(context.Context, uint) {}

const tracerName = "application/order"
