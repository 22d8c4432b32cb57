package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/bookorder/internal/application/order"
	"github.com/xiebiao/bookorder/pkg/circuitbreaker"
	"github.com/xiebiao/bookorder/pkg/metrics"
)

// OrderCache 订单视图缓存
// 1. Key设计:order:view:{id}
// 2. 值为JSON序列化的OrderView
// 3. Redis不可用时只记日志,查询回落到数据库
// 4. 连续出错后熔断,熔断期间直接跳过Redis
type OrderCache struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewOrderCache 创建订单视图缓存
func NewOrderCache(client *redis.Client, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *OrderCache {
	return &OrderCache{client: client, breaker: breaker, logger: logger.Named("order_cache")}
}

// NewBreaker 创建Redis熔断器,redis.Nil不计入失败
func NewBreaker(maxFailures int, timeout time.Duration, logger *zap.Logger) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New("redis", circuitbreaker.Config{
		MaxFailures: maxFailures,
		Timeout:     timeout,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}

var _ apporder.OrderCache = (*OrderCache)(nil)

func orderKey(id uint) string {
	return fmt.Sprintf("order:view:%d", id)
}

// Get 读取缓存,未命中或出错返回false
func (c *OrderCache) Get(ctx context.Context, id uint) (*apporder.OrderView, bool) {
	var data []byte
	err := c.breaker.Execute(func() (err error) {
		data, err = c.client.Get(ctx, orderKey(id)).Bytes()
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		metrics.RecordCacheResult("skipped")
		return nil, false
	}
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheResult("miss")
		return nil, false
	}
	if err != nil {
		metrics.RecordCacheResult("error")
		c.logger.Warn("读取订单缓存失败", zap.Uint("order_id", id), zap.Error(err))
		return nil, false
	}

	var view apporder.OrderView
	if err := json.Unmarshal(data, &view); err != nil {
		metrics.RecordCacheResult("error")
		c.logger.Warn("订单缓存格式错误", zap.Uint("order_id", id), zap.Error(err))
		return nil, false
	}

	metrics.RecordCacheResult("hit")
	return &view, true
}

// Set 写入缓存,ttl<=0时不缓存
func (c *OrderCache) Set(ctx context.Context, view *apporder.OrderView, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("序列化订单视图失败", zap.Uint("order_id", view.ID), zap.Error(err))
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, orderKey(view.ID), data, ttl).Err()
	})
	if err != nil && !errors.Is(err, circuitbreaker.ErrOpenState) {
		c.logger.Warn("写入订单缓存失败", zap.Uint("order_id", view.ID), zap.Error(err))
	}
}

// Delete 删除缓存
func (c *OrderCache) Delete(ctx context.Context, id uint) {
	err := c.breaker.Execute(func() error {
		return c.client.Del(ctx, orderKey(id)).Err()
	})
	// 熔断期间无法删除,依赖TTL过期
	if err != nil && !errors.Is(err, circuitbreaker.ErrOpenState) {
		c.logger.Warn("删除订单缓存失败", zap.Uint("order_id", id), zap.Error(err))
	}
}
