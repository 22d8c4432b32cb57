package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apporder "github.com/xiebiao/bookorder/internal/application/order"
	"github.com/xiebiao/bookorder/pkg/circuitbreaker"
)

func newTestCache(t *testing.T) (*OrderCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	log := zaptest.NewLogger(t)
	return NewOrderCache(client, NewBreaker(3, time.Minute, log), log), mr
}

func sampleView() *apporder.OrderView {
	return &apporder.OrderView{
		ID:       3,
		Status:   "NEW",
		Delivery: "COURIER",
		Recipient: apporder.RecipientView{
			Name:  "Jan",
			Email: "jan@example.org",
		},
		Items: []apporder.ItemView{{BookID: 1, Title: "Go", UnitPrice: "29.90", Quantity: 2}},
		Price: apporder.PriceView{
			ItemsPrice:    "59.80",
			DeliveryPrice: "9.90",
			Discount:      "0.00",
			FinalPrice:    "69.70",
		},
		CreatedAt: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
	}
}

func TestOrderCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	_, ok := cache.Get(ctx, 3)
	assert.False(t, ok)

	cache.Set(ctx, sampleView(), time.Minute)
	assert.True(t, mr.Exists("order:view:3"))
	assert.Equal(t, time.Minute, mr.TTL("order:view:3"))

	got, ok := cache.Get(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, sampleView(), got)

	cache.Delete(ctx, 3)
	_, ok = cache.Get(ctx, 3)
	assert.False(t, ok)
}

func TestOrderCache_Expires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	cache.Set(ctx, sampleView(), time.Minute)
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, 3)
	assert.False(t, ok)
}

func TestOrderCache_ZeroTTLSkipsWrite(t *testing.T) {
	cache, mr := newTestCache(t)

	cache.Set(context.Background(), sampleView(), 0)
	assert.False(t, mr.Exists("order:view:3"))
}

func TestOrderCache_CorruptValueIsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("order:view:3", "not-json"))

	_, ok := cache.Get(context.Background(), 3)
	assert.False(t, ok)
}

func TestOrderCache_RedisDownDegrades(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	cache.Set(ctx, sampleView(), time.Minute)
	_, ok := cache.Get(ctx, 3)
	assert.False(t, ok)
	cache.Delete(ctx, 3)
}

func TestOrderCache_MissDoesNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	for i := 0; i < 5; i++ {
		_, ok := cache.Get(ctx, 3)
		assert.False(t, ok)
	}
	assert.Equal(t, circuitbreaker.StateClosed, cache.breaker.State())
}

func TestOrderCache_BreakerOpensWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	for i := 0; i < 3; i++ {
		_, ok := cache.Get(ctx, 3)
		assert.False(t, ok)
	}
	assert.Equal(t, circuitbreaker.StateOpen, cache.breaker.State())

	// 熔断期间不访问Redis
	_, ok := cache.Get(ctx, 3)
	assert.False(t, ok)
	cache.Set(ctx, sampleView(), time.Minute)
	cache.Delete(ctx, 3)
	assert.Equal(t, circuitbreaker.StateOpen, cache.breaker.State())
}
