package order

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookorder/internal/domain/book"
	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/pkg/clock"
	apperrors "github.com/xiebiao/bookorder/pkg/errors"
	"github.com/xiebiao/bookorder/pkg/metrics"
	"github.com/xiebiao/bookorder/pkg/tracing"
)

// PlaceOrderUseCase 下单用例
// 校验库存、解析收件人、创建订单、扣减库存在同一个事务内完成
type PlaceOrderUseCase struct {
	orderRepo     order.Repository
	recipientRepo order.RecipientRepository
	bookRepo      book.Repository
	txManager     TxManager
	clock         clock.Clock
	logger        *zap.Logger
}

// NewPlaceOrderUseCase 创建下单用例
func NewPlaceOrderUseCase(
	orderRepo order.Repository,
	recipientRepo order.RecipientRepository,
	bookRepo book.Repository,
	txManager TxManager,
	clk clock.Clock,
	logger *zap.Logger,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		orderRepo:     orderRepo,
		recipientRepo: recipientRepo,
		bookRepo:      bookRepo,
		txManager:     txManager,
		clock:         clk,
		logger:        logger.Named("place_order"),
	}
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	Recipient order.Recipient
	Items     []PlaceOrderItem
	Delivery  order.Delivery
}

// PlaceOrderItem 下单明细
type PlaceOrderItem struct {
	BookID   uint
	Quantity int
}

// PlaceOrderResponse 下单结果
type PlaceOrderResponse struct {
	OrderID   uint      `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Execute 执行下单
// 1. 逐本锁定图书(SELECT FOR UPDATE),不存在返回*book.NotFoundError
// 2. 购买数量超过可售数量返回*book.InsufficientStockError
// 3. 按邮箱复用已有收件人记录,否则新建
// 4. 创建订单并扣减库存
// 任一步失败整个事务回滚,库存和订单都不会变化
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, req PlaceOrderRequest) (resp *PlaceOrderResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "PlaceOrder")
	defer func() {
		tracing.EndSpan(span, err)
		if err != nil {
			metrics.RecordOrderFailed(strconv.Itoa(apperrors.GetAppError(err).Code), time.Since(start))
			return
		}
		metrics.RecordOrderPlaced(time.Since(start))
	}()

	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Recipient.Email) == "" {
		return nil, order.ErrInvalidRecipient
	}
	delivery := req.Delivery
	if delivery == "" {
		delivery = order.DeliveryCourier
	}

	var placed *order.Order
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定图书并检查库存
		lines := make([]order.OrderItem, 0, len(items))
		for _, item := range items {
			b, err := uc.bookRepo.LockByID(txCtx, item.BookID)
			if err != nil {
				return err
			}
			if !b.CanFulfil(item.Quantity) {
				return &book.InsufficientStockError{
					BookID:    b.ID,
					Requested: item.Quantity,
					Available: b.Available,
				}
			}
			lines = append(lines, order.OrderItem{
				BookID:    b.ID,
				Title:     b.Title,
				UnitPrice: b.Price,
				Quantity:  item.Quantity,
			})
		}

		// 2. 解析收件人
		recipient, err := uc.resolveRecipient(txCtx, req.Recipient)
		if err != nil {
			return err
		}

		// 3. 创建订单
		o := order.NewOrder(recipient, lines, delivery, uc.clock.Now())
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}

		// 4. 扣减库存
		for _, l := range lines {
			if err := uc.bookRepo.UpdateAvailable(txCtx, l.BookID, -l.Quantity); err != nil {
				return err
			}
		}

		placed = o
		return nil
	})
	if err != nil {
		uc.logger.Warn("下单失败", zap.String("recipient", req.Recipient.Email), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("下单成功",
		zap.Uint("order_id", placed.ID),
		zap.Uint("recipient_id", placed.Recipient.ID),
		zap.Int("lines", len(placed.Items)),
	)

	return &PlaceOrderResponse{
		OrderID:   placed.ID,
		Status:    placed.Status.String(),
		CreatedAt: placed.CreatedAt,
	}, nil
}

// resolveRecipient 邮箱已存在时复用其ID,订单保留本次提交的联系信息
func (uc *PlaceOrderUseCase) resolveRecipient(ctx context.Context, in order.Recipient) (order.Recipient, error) {
	in.Email = strings.TrimSpace(in.Email)

	existing, err := uc.recipientRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return order.Recipient{}, err
	}
	if existing != nil {
		in.ID = existing.ID
		return in, nil
	}

	created := in
	created.ID = 0
	if err := uc.recipientRepo.Create(ctx, &created); err != nil {
		return order.Recipient{}, err
	}
	in.ID = created.ID
	return in, nil
}

// mergeItems 校验数量并合并同一本书的多行明细,按BookID升序返回
// 所有下单按同一顺序锁定图书,避免互相等待造成死锁
func mergeItems(items []PlaceOrderItem) ([]PlaceOrderItem, error) {
	if len(items) == 0 {
		return nil, order.ErrInvalidOrderItems
	}
	merged := make([]PlaceOrderItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, order.ErrInvalidQuantity.WithDetails(map[string]any{"book_id": item.BookID})
		}
		if i, ok := index[item.BookID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.BookID] = len(merged)
		merged = append(merged, item)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].BookID < merged[j].BookID })
	return merged, nil
}
