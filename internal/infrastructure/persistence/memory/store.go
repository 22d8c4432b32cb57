// Package memory 内存版仓储实现
// Store的一把锁串行化所有事务,事务内的修改在fn返回错误时整体回滚
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/bookorder/internal/domain/book"
	"github.com/xiebiao/bookorder/internal/domain/order"
)

type txKey struct{}

// Store 内存存储,同时实现事务管理器
type Store struct {
	mu         sync.Mutex
	books      map[uint]book.Book
	orders     map[uint]*order.Order
	recipients map[uint]order.Recipient
	seq        struct{ book, order, item, recipient uint }
}

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		books:      make(map[uint]book.Book),
		orders:     make(map[uint]*order.Order),
		recipients: make(map[uint]order.Recipient),
	}
}

// Transaction 在存储锁内执行fn,fn返回错误或panic时恢复到执行前的快照
// 嵌套调用直接复用外层事务
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// Books 图书仓储
func (s *Store) Books() book.Repository { return &bookRepository{s: s} }

// Orders 订单仓储
func (s *Store) Orders() order.Repository { return &orderRepository{s: s} }

// Recipients 收件人仓储
func (s *Store) Recipients() order.RecipientRepository { return &recipientRepository{s: s} }

func (s *Store) inTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey{}).(*Store)
	return ok && tx == s
}

// with 事务内直接执行(锁已由Transaction持有),否则单独加锁
func (s *Store) with(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	books      map[uint]book.Book
	orders     map[uint]*order.Order
	recipients map[uint]order.Recipient
	seq        struct{ book, order, item, recipient uint }
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		books:      make(map[uint]book.Book, len(s.books)),
		orders:     make(map[uint]*order.Order, len(s.orders)),
		recipients: make(map[uint]order.Recipient, len(s.recipients)),
		seq:        s.seq,
	}
	for id, b := range s.books {
		snap.books[id] = b
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for id, r := range s.recipients {
		snap.recipients[id] = r
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.books = snap.books
	s.orders = snap.orders
	s.recipients = snap.recipients
	s.seq = snap.seq
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.Items = append([]order.OrderItem(nil), o.Items...)
	return &c
}

// =========================================
// 图书
// =========================================

type bookRepository struct{ s *Store }

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	return r.s.with(ctx, func() error {
		r.s.seq.book++
		b.ID = r.s.seq.book
		r.s.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var found *book.Book
	err := r.s.with(ctx, func() error {
		b, ok := r.s.books[id]
		if !ok {
			return &book.NotFoundError{BookID: id}
		}
		found = &b
		return nil
	})
	return found, err
}

// LockByID 事务内整个存储已加锁,等同于FindByID
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *bookRepository) UpdateAvailable(ctx context.Context, id uint, delta int) error {
	return r.s.with(ctx, func() error {
		b, ok := r.s.books[id]
		if !ok {
			return &book.NotFoundError{BookID: id}
		}
		if b.Available+delta < 0 {
			return &book.InsufficientStockError{BookID: id, Requested: -delta, Available: b.Available}
		}
		b.Available += delta
		r.s.books[id] = b
		return nil
	})
}

// =========================================
// 订单
// =========================================

type orderRepository struct{ s *Store }

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.s.with(ctx, func() error {
		r.s.seq.order++
		o.ID = r.s.seq.order
		for i := range o.Items {
			r.s.seq.item++
			o.Items[i].ID = r.s.seq.item
			o.Items[i].OrderID = o.ID
		}
		r.s.orders[o.ID] = cloneOrder(o)
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var found *order.Order
	err := r.s.with(ctx, func() error {
		o, ok := r.s.orders[id]
		if !ok {
			return order.ErrOrderNotFound
		}
		found = cloneOrder(o)
		return nil
	})
	return found, err
}

func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	return r.s.with(ctx, func() error {
		stored, ok := r.s.orders[o.ID]
		if !ok {
			return order.ErrOrderNotFound
		}
		if stored.Status != from {
			return order.ErrStaleOrder
		}
		stored.Status = o.Status
		stored.UpdatedAt = o.UpdatedAt
		return nil
	})
}

func (r *orderRepository) List(ctx context.Context) ([]*order.Order, error) {
	var list []*order.Order
	err := r.s.with(ctx, func() error {
		list = make([]*order.Order, 0, len(r.s.orders))
		for _, o := range r.s.orders {
			list = append(list, cloneOrder(o))
		}
		return nil
	})
	sortNewestFirst(list)
	return list, err
}

func (r *orderRepository) FindByStatusCreatedBefore(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error) {
	var list []*order.Order
	err := r.s.with(ctx, func() error {
		for _, o := range r.s.orders {
			if o.Status == status && !o.CreatedAt.After(cutoff) {
				list = append(list, cloneOrder(o))
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, err
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	return r.s.with(ctx, func() error {
		delete(r.s.orders, id)
		return nil
	})
}

func sortNewestFirst(list []*order.Order) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// =========================================
// 收件人
// =========================================

type recipientRepository struct{ s *Store }

func (r *recipientRepository) FindByEmail(ctx context.Context, email string) (*order.Recipient, error) {
	var found *order.Recipient
	err := r.s.with(ctx, func() error {
		for _, rc := range r.s.recipients {
			if !strings.EqualFold(rc.Email, email) {
				continue
			}
			if found == nil || rc.ID < found.ID {
				c := rc
				found = &c
			}
		}
		return nil
	})
	return found, err
}

func (r *recipientRepository) Create(ctx context.Context, rc *order.Recipient) error {
	return r.s.with(ctx, func() error {
		r.s.seq.recipient++
		rc.ID = r.s.seq.recipient
		r.s.recipients[rc.ID] = *rc
		return nil
	})
}
