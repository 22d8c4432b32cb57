package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xiebiao/bookorder/internal/domain/book"
	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/internal/infrastructure/config"
	"github.com/xiebiao/bookorder/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookorder/pkg/clock"
)

// sqlPlacement 基于GORM仓储(SQLite内存库)的下单用例
type sqlPlacement struct {
	books  book.Repository
	orders order.Repository
	place  *PlaceOrderUseCase
}

func newSQLPlacement(t *testing.T, wrapBooks func(book.Repository) book.Repository) *sqlPlacement {
	t.Helper()
	logger := zaptest.NewLogger(t)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := mysql.NewDB(&config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			Path:         "file:" + name + "?mode=memory&cache=shared",
			MaxOpenConns: 1,
		},
	}, logger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	p := &sqlPlacement{
		books:  mysql.NewBookRepository(db),
		orders: mysql.NewOrderRepository(db),
	}
	books := p.books
	if wrapBooks != nil {
		books = wrapBooks(books)
	}
	p.place = NewPlaceOrderUseCase(p.orders, mysql.NewRecipientRepository(db), books,
		mysql.NewTxManager(db), clock.NewMock(openedAt), logger)
	return p
}

func (p *sqlPlacement) addBook(t *testing.T, available int) uint {
	t.Helper()
	b, err := book.NewBook("Go", "Rob", decimal.RequireFromString("10.00"), available)
	require.NoError(t, err)
	require.NoError(t, p.books.Create(context.Background(), b))
	return b.ID
}

// placeConcurrently 10个请求并发下单,每单5本
func (p *sqlPlacement) placeConcurrently(t *testing.T, bookID uint) (succeeded, rejected int32) {
	t.Helper()
	var (
		wg       sync.WaitGroup
		ok, fail atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.place.Execute(context.Background(), PlaceOrderRequest{
				Recipient: recipient("jan@example.org"),
				Items:     []PlaceOrderItem{{BookID: bookID, Quantity: 5}},
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, book.ErrInsufficientStock):
				fail.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	return ok.Load(), fail.Load()
}

func (p *sqlPlacement) assertStock(t *testing.T, bookID uint, available, orders int) {
	t.Helper()
	b, err := p.books.FindByID(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, available, b.Available)

	list, err := p.orders.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, orders)
}

func TestPlaceOrder_SQLConcurrentDoesNotOversell(t *testing.T) {
	p := newSQLPlacement(t, nil)
	id := p.addBook(t, 20)

	succeeded, rejected := p.placeConcurrently(t, id)

	assert.Equal(t, int32(4), succeeded)
	assert.Equal(t, int32(6), rejected)
	p.assertStock(t, id, 0, 4)
}

// staleBooks LockByID返回的库存偏大,模拟检查时读到了过期的库存
type staleBooks struct {
	book.Repository
}

func (r staleBooks) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	b, err := r.Repository.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Available += 1000
	return b, nil
}

func TestPlaceOrder_SQLGuardedDecrementRejectsOversell(t *testing.T) {
	p := newSQLPlacement(t, func(books book.Repository) book.Repository {
		return staleBooks{Repository: books}
	})
	id := p.addBook(t, 20)

	// 库存检查全部通过,只能靠 available + delta >= 0 的条件更新拦截
	succeeded, rejected := p.placeConcurrently(t, id)

	assert.Equal(t, int32(4), succeeded)
	assert.Equal(t, int32(6), rejected)
	p.assertStock(t, id, 0, 4)
}
