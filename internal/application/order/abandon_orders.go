package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/pkg/clock"
	"github.com/xiebiao/bookorder/pkg/metrics"
	"github.com/xiebiao/bookorder/pkg/tracing"
)

// StatusUpdater 修改订单状态
type StatusUpdater interface {
	Execute(ctx context.Context, req UpdateStatusRequest) (*UpdateStatusResponse, error)
}

// AbandonOptions 超时放弃任务配置
type AbandonOptions struct {
	PaymentPeriod time.Duration // 下单后允许支付的时长
	Interval      time.Duration // 扫描间隔
}

// SweepResult 一次扫描的结果
type SweepResult struct {
	Candidates int
	Abandoned  int
	Failed     int
}

// AbandonOrdersJob 超时未支付订单放弃任务
// 每个订单单独走一次状态修改(独立事务),单个订单失败不影响其他订单
type AbandonOrdersJob struct {
	orderRepo order.Repository
	updater   StatusUpdater
	clock     clock.Clock
	opts      AbandonOptions
	logger    *zap.Logger
}

// NewAbandonOrdersJob 创建超时放弃任务
func NewAbandonOrdersJob(
	orderRepo order.Repository,
	updater StatusUpdater,
	clk clock.Clock,
	opts AbandonOptions,
	logger *zap.Logger,
) *AbandonOrdersJob {
	return &AbandonOrdersJob{
		orderRepo: orderRepo,
		updater:   updater,
		clock:     clk,
		opts:      opts,
		logger:    logger.Named("abandon_orders"),
	}
}

// Run 扫描一次:放弃所有创建时间不晚于(当前时间-支付期限)的NEW订单
func (j *AbandonOrdersJob) Run(ctx context.Context) (result SweepResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "AbandonOrders")
	defer func() { tracing.EndSpan(span, err) }()

	cutoff := j.clock.Now().Add(-j.opts.PaymentPeriod)
	candidates, err := j.orderRepo.FindByStatusCreatedBefore(ctx, order.StatusNew, cutoff)
	if err != nil {
		return result, err
	}
	result.Candidates = len(candidates)

	for _, o := range candidates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		_, err := j.updater.Execute(ctx, UpdateStatusRequest{
			OrderID: o.ID,
			Status:  order.StatusAbandoned,
			Actor:   order.SystemActor,
		})
		if err != nil {
			// 可能已被用户支付或取消,下次扫描不会再选中
			result.Failed++
			j.logger.Warn("放弃订单失败", zap.Uint("order_id", o.ID), zap.Error(err))
			continue
		}
		result.Abandoned++
	}

	metrics.RecordAbandoned(result.Abandoned)
	if result.Candidates > 0 {
		j.logger.Info("超时订单扫描完成",
			zap.Time("cutoff", cutoff),
			zap.Int("candidates", result.Candidates),
			zap.Int("abandoned", result.Abandoned),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

// Start 按配置的间隔周期执行Run,直到ctx取消
func (j *AbandonOrdersJob) Start(ctx context.Context) {
	interval := j.opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("超时订单扫描任务已启动",
		zap.Duration("interval", interval),
		zap.Duration("payment_period", j.opts.PaymentPeriod),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("超时订单扫描任务已停止")
			return
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
				j.logger.Error("超时订单扫描失败", zap.Error(err))
			}
		}
	}
}
