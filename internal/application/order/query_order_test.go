package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xiebiao/bookorder/internal/domain/order"
)

func TestQueryOrder_GetOrderWithPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "29.90", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 2})

	view, err := f.query.GetOrder(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "NEW", view.Status)
	assert.Equal(t, "COURIER", view.Delivery)
	assert.Equal(t, "jan@example.org", view.Recipient.Email)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "29.90", view.Items[0].UnitPrice)
	assert.Equal(t, "59.80", view.Price.ItemsPrice)
	assert.Equal(t, "9.90", view.Price.DeliveryPrice)
	assert.Equal(t, "0.00", view.Price.Discount)
	assert.Equal(t, "69.70", view.Price.FinalPrice)
	assert.Empty(t, view.Price.Discounts)
}

func TestQueryOrder_DiscountsListed(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(t, "Go", "49.90", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 3})

	view, err := f.query.GetOrder(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "149.70", view.Price.ItemsPrice)
	assert.Equal(t, "149.70", view.Price.FinalPrice)
	require.Len(t, view.Price.Discounts, 1)
	assert.Equal(t, "free_delivery", view.Price.Discounts[0].Name)
	assert.Equal(t, "9.90", view.Price.Discounts[0].Amount)
}

func TestQueryOrder_CacheInvalidatedOnStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 1})

	_, err := f.query.GetOrder(ctx, id)
	require.NoError(t, err)
	cached, ok := f.cache.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "NEW", cached.Status)

	_, err = f.status.Execute(ctx, UpdateStatusRequest{OrderID: id, Status: order.StatusPaid, Actor: admin})
	require.NoError(t, err)

	view, err := f.query.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PAID", view.Status)
}

func TestQueryOrder_ListNewestFirst(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(t, "Go", "10.00", 5)
	first := f.placeOrder(t, "a@example.org", PlaceOrderItem{BookID: bookID, Quantity: 1})
	f.clock.Tick(time.Second)
	second := f.placeOrder(t, "b@example.org", PlaceOrderItem{BookID: bookID, Quantity: 1})

	views, err := f.query.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second, views[0].ID)
	assert.Equal(t, first, views[1].ID)
}

func TestQueryOrder_DeleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 2})
	_, err := f.query.GetOrder(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.query.DeleteOrder(ctx, id))
	require.NoError(t, f.query.DeleteOrder(ctx, id))

	_, err = f.query.GetOrder(ctx, id)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	// 删除不归还库存
	assert.Equal(t, 3, f.available(t, bookID))
}

// pausingOrders 第一次FindByID读到订单后暂停,直到resume关闭
type pausingOrders struct {
	order.Repository
	once   sync.Once
	loaded chan struct{}
	resume chan struct{}
}

func newPausingOrders(repo order.Repository) *pausingOrders {
	return &pausingOrders{Repository: repo, loaded: make(chan struct{}), resume: make(chan struct{})}
}

func (r *pausingOrders) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	o, err := r.Repository.FindByID(ctx, id)
	r.once.Do(func() {
		close(r.loaded)
		<-r.resume
	})
	return o, err
}

// getPaused 在后台查询订单,读库后暂停;返回等待查询结束的函数
func getPaused(t *testing.T, f *fixture, id uint) (*pausingOrders, *QueryOrderUseCase, func() *OrderView) {
	t.Helper()
	orders := newPausingOrders(f.store.Orders())
	query := NewQueryOrderUseCase(orders, f.query.engine, f.cache, QueryOptions{CacheTTL: time.Minute}, zaptest.NewLogger(t))

	done := make(chan *OrderView, 1)
	go func() {
		view, err := query.GetOrder(context.Background(), id)
		assert.NoError(t, err)
		done <- view
	}()
	<-orders.loaded
	return orders, query, func() *OrderView { return <-done }
}

func TestQueryOrder_CacheNotStaleAfterConcurrentStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 1})

	orders, query, wait := getPaused(t, f, id)

	// 查询读库之后、写缓存之前,订单被取消
	_, err := f.status.Execute(ctx, UpdateStatusRequest{OrderID: id, Status: order.StatusCanceled, Actor: admin})
	require.NoError(t, err)
	close(orders.resume)

	assert.Equal(t, "NEW", wait().Status)
	_, ok := f.cache.Get(ctx, id)
	assert.False(t, ok)

	view, err := query.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", view.Status)
}

func TestQueryOrder_CacheNotRefilledAfterConcurrentDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 1})

	orders, query, wait := getPaused(t, f, id)

	require.NoError(t, f.query.DeleteOrder(ctx, id))
	close(orders.resume)
	wait()

	_, ok := f.cache.Get(ctx, id)
	assert.False(t, ok)
	_, err := query.GetOrder(ctx, id)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
