package order

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/bookorder/internal/domain/book"
	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/pkg/clock"
	"github.com/xiebiao/bookorder/pkg/metrics"
	"github.com/xiebiao/bookorder/pkg/tracing"
)

// UpdateStatusUseCase 修改订单状态用例
type UpdateStatusUseCase struct {
	orderRepo order.Repository
	bookRepo  book.Repository
	txManager TxManager
	cache     OrderCache
	clock     clock.Clock
	logger    *zap.Logger
}

// NewUpdateStatusUseCase 创建修改订单状态用例
func NewUpdateStatusUseCase(
	orderRepo order.Repository,
	bookRepo book.Repository,
	txManager TxManager,
	cache OrderCache,
	clk clock.Clock,
	logger *zap.Logger,
) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		orderRepo: orderRepo,
		bookRepo:  bookRepo,
		txManager: txManager,
		cache:     cache,
		clock:     clk,
		logger:    logger.Named("update_status"),
	}
}

// UpdateStatusRequest 修改状态请求
type UpdateStatusRequest struct {
	OrderID uint
	Status  order.Status
	Actor   order.Actor
}

// UpdateStatusResponse 修改状态结果
type UpdateStatusResponse struct {
	OrderID  uint   `json:"order_id"`
	Status   string `json:"status"`
	Released int    `json:"released"` // 归还的库存数量
}

// Execute 执行状态修改
// 1. 锁定订单
// 2. 校验权限:管理员或收件人本人,否则返回order.ErrForbidden
// 3. 按状态转换表校验目标状态
// 4. 撤单类转换(取消、放弃)归还每一行的库存
// 5. 保存新状态
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, req UpdateStatusRequest) (resp *UpdateStatusResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpdateOrderStatus")
	defer func() { tracing.EndSpan(span, err) }()

	var (
		from     order.Status
		released int
		updated  *order.Order
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}

		if !o.CanBeManagedBy(req.Actor) {
			return order.ErrForbidden
		}

		from = o.Status
		release, err := o.UpdateStatus(req.Status, uc.clock.Now())
		if err != nil {
			return err
		}

		released = 0
		if release {
			for _, item := range o.Items {
				err := uc.bookRepo.UpdateAvailable(txCtx, item.BookID, item.Quantity)
				if errors.Is(err, book.ErrBookNotFound) {
					uc.logger.Warn("图书已删除,跳过库存归还",
						zap.Uint("order_id", o.ID), zap.Uint("book_id", item.BookID))
					continue
				}
				if err != nil {
					return err
				}
				released += item.Quantity
			}
		}

		if err := uc.orderRepo.UpdateStatus(txCtx, o, from); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		uc.logger.Info("订单状态未修改",
			zap.Uint("order_id", req.OrderID),
			zap.Stringer("target", req.Status),
			zap.String("actor", req.Actor.Email),
			zap.Error(err),
		)
		return nil, err
	}

	uc.cache.Delete(ctx, updated.ID)
	metrics.RecordStatusTransition(from.String(), updated.Status.String(), released)
	uc.logger.Info("订单状态已修改",
		zap.Uint("order_id", updated.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", updated.Status),
		zap.Int("released", released),
		zap.String("actor", req.Actor.Email),
	)

	return &UpdateStatusResponse{
		OrderID:  updated.ID,
		Status:   updated.Status.String(),
		Released: released,
	}, nil
}
