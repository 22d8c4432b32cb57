package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookorder/internal/domain/order"
	apperrors "github.com/xiebiao/bookorder/pkg/errors"
)

func TestUpdateStatus_OwnerCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addBook(t, "Go", "10.00", 10)
	b := f.addBook(t, "Rust", "20.00", 4)
	id := f.placeOrder(t, "jan@example.org",
		PlaceOrderItem{BookID: a, Quantity: 3}, PlaceOrderItem{BookID: b, Quantity: 4})
	require.Equal(t, 0, f.available(t, b))

	f.clock.Tick(time.Minute)
	resp, err := f.status.Execute(ctx, UpdateStatusRequest{
		OrderID: id,
		Status:  order.StatusCanceled,
		Actor:   user("JAN@example.org"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.Status)
	assert.Equal(t, 7, resp.Released)

	assert.Equal(t, 10, f.available(t, a))
	assert.Equal(t, 4, f.available(t, b))

	stored, _ := f.store.Orders().FindByID(ctx, id)
	assert.Equal(t, order.StatusCanceled, stored.Status)
	assert.Equal(t, openedAt.Add(time.Minute), stored.UpdatedAt)
	assert.True(t, f.cache.wasDeleted(id))
}

func TestUpdateStatus_CanceledCannotBePaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 2})

	_, err := f.status.Execute(ctx, UpdateStatusRequest{OrderID: id, Status: order.StatusCanceled, Actor: admin})
	require.NoError(t, err)

	_, err = f.status.Execute(ctx, UpdateStatusRequest{OrderID: id, Status: order.StatusPaid, Actor: admin})
	var transitionErr *order.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, order.StatusCanceled, transitionErr.From)
	assert.Equal(t, order.StatusPaid, transitionErr.To)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, 5, f.available(t, bookID))
}

func TestUpdateStatus_ForbiddenForOtherUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 2})

	_, err := f.status.Execute(ctx, UpdateStatusRequest{
		OrderID: id,
		Status:  order.StatusCanceled,
		Actor:   user("eve@example.org"),
	})
	require.ErrorIs(t, err, order.ErrForbidden)
	assert.Equal(t, 403, apperrors.GetAppError(err).HTTPStatus())

	assert.Equal(t, 3, f.available(t, bookID))
	stored, _ := f.store.Orders().FindByID(ctx, id)
	assert.Equal(t, order.StatusNew, stored.Status)
	assert.False(t, f.cache.wasDeleted(id))
}

func TestUpdateStatus_AdminPaysAndShips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 2})

	for _, target := range []order.Status{order.StatusPaid, order.StatusShipped} {
		resp, err := f.status.Execute(ctx, UpdateStatusRequest{OrderID: id, Status: target, Actor: admin})
		require.NoError(t, err)
		assert.Equal(t, target.String(), resp.Status)
		assert.Zero(t, resp.Released)
	}
	assert.Equal(t, 3, f.available(t, bookID))

	_, err := f.status.Execute(ctx, UpdateStatusRequest{OrderID: id, Status: order.StatusCanceled, Actor: admin})
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestUpdateStatus_SameStatusRejected(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 1})

	_, err := f.status.Execute(context.Background(), UpdateStatusRequest{OrderID: id, Status: order.StatusNew, Actor: admin})
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.status.Execute(context.Background(), UpdateStatusRequest{OrderID: 42, Status: order.StatusPaid, Actor: admin})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestUpdateStatus_SkipsDeletedBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Go", "10.00", 5)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 2})

	// 订单引用一本已不存在的书
	stored, _ := f.store.Orders().FindByID(ctx, id)
	require.NoError(t, f.store.Orders().Delete(ctx, id))
	stored.Items = append(stored.Items, order.OrderItem{BookID: 999, Quantity: 1, UnitPrice: stored.Items[0].UnitPrice})
	require.NoError(t, f.store.Orders().Create(ctx, stored))

	resp, err := f.status.Execute(ctx, UpdateStatusRequest{OrderID: stored.ID, Status: order.StatusCanceled, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Released)
	assert.Equal(t, 5, f.available(t, bookID))
}

func TestUpdateStatus_ConcurrentCancelReleasesOnce(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(t, "Go", "10.00", 10)
	id := f.placeOrder(t, "jan@example.org", PlaceOrderItem{BookID: bookID, Quantity: 4})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.status.Execute(context.Background(), UpdateStatusRequest{
				OrderID: id,
				Status:  order.StatusCanceled,
				Actor:   user("jan@example.org"),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 10, f.available(t, bookID))
}
