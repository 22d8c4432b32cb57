package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xiebiao/bookorder/internal/domain/book"
	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/internal/domain/price"
	"github.com/xiebiao/bookorder/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookorder/pkg/clock"
)

var openedAt = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	clock   *clock.Mock
	cache   *recordingCache
	place   *PlaceOrderUseCase
	status  *UpdateStatusUseCase
	query   *QueryOrderUseCase
	abandon *AbandonOrdersJob
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	clk := clock.NewMock(openedAt)
	cache := newRecordingCache()

	f := &fixture{store: store, clock: clk, cache: cache}
	f.place = NewPlaceOrderUseCase(store.Orders(), store.Recipients(), store.Books(), store, clk, logger)
	f.status = NewUpdateStatusUseCase(store.Orders(), store.Books(), store, cache, clk, logger)
	f.query = NewQueryOrderUseCase(store.Orders(), price.NewEngine(price.DefaultDeliveryFees(), price.DefaultStrategies()...),
		cache, QueryOptions{CacheTTL: time.Minute}, logger)
	f.abandon = NewAbandonOrdersJob(store.Orders(), f.status, clk,
		AbandonOptions{PaymentPeriod: 2 * time.Minute, Interval: 10 * time.Millisecond}, logger)
	return f
}

func (f *fixture) addBook(t *testing.T, title, unitPrice string, available int) uint {
	t.Helper()
	b, err := book.NewBook(title, "author", decimal.RequireFromString(unitPrice), available)
	require.NoError(t, err)
	require.NoError(t, f.store.Books().Create(context.Background(), b))
	return b.ID
}

func (f *fixture) available(t *testing.T, id uint) int {
	t.Helper()
	b, err := f.store.Books().FindByID(context.Background(), id)
	require.NoError(t, err)
	return b.Available
}

func (f *fixture) placeOrder(t *testing.T, email string, items ...PlaceOrderItem) uint {
	t.Helper()
	resp, err := f.place.Execute(context.Background(), PlaceOrderRequest{
		Recipient: recipient(email),
		Items:     items,
	})
	require.NoError(t, err)
	return resp.OrderID
}

func recipient(email string) order.Recipient {
	return order.Recipient{
		Name:    "Jan Kowalski",
		Phone:   "123456789",
		Street:  "Main 1",
		City:    "Warsaw",
		ZipCode: "00-001",
		Email:   email,
	}
}

func user(email string) order.Actor {
	return order.Actor{Email: email, Role: order.RoleUser}
}

var admin = order.Actor{Email: "admin@bookstore.local", Role: order.RoleAdmin}

// recordingCache 内存缓存,记录删除过的订单
type recordingCache struct {
	mu      sync.Mutex
	views   map[uint]*OrderView
	deleted []uint
}

func newRecordingCache() *recordingCache {
	return &recordingCache{views: make(map[uint]*OrderView)}
}

func (c *recordingCache) Get(_ context.Context, id uint) (*OrderView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[id]
	return v, ok
}

func (c *recordingCache) Set(_ context.Context, view *OrderView, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[view.ID] = view
}

func (c *recordingCache) Delete(_ context.Context, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, id)
	c.deleted = append(c.deleted, id)
}

func (c *recordingCache) wasDeleted(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.deleted {
		if d == id {
			return true
		}
	}
	return false
}
