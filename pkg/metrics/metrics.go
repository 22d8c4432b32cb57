// Package metrics 提供基于Prometheus的指标收集
//
// 指标在首次使用时注册到默认Registry,通过/metrics端点暴露:
//   - HTTP: 请求总数、耗时、正在处理的请求数
//   - 下单: 成功数、失败数(按原因)、耗时
//   - 订单状态: 状态转换次数、超时放弃次数、归还的库存数量
//   - 缓存: 订单视图缓存命中情况
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// =========================================
	// HTTP指标
	// =========================================

	// HTTPRequestsTotal HTTP请求总数
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// =========================================
	// 订单指标
	// =========================================

	// OrdersPlacedTotal 下单成功总数
	OrdersPlacedTotal prometheus.Counter

	// OrdersFailedTotal 下单失败总数,reason为错误码
	OrdersFailedTotal *prometheus.CounterVec

	// OrderPlacementDuration 下单耗时
	OrderPlacementDuration prometheus.Histogram

	// OrderStatusTransitionsTotal 状态转换次数
	OrderStatusTransitionsTotal *prometheus.CounterVec

	// OrdersAbandonedTotal 超时放弃的订单数
	OrdersAbandonedTotal prometheus.Counter

	// StockReleasedTotal 撤单归还的库存数量
	StockReleasedTotal prometheus.Counter

	// OrderCacheRequestsTotal 订单视图缓存查询次数,result为hit/miss/error/skipped
	OrderCacheRequestsTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标,可重复调用
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时(秒)",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		OrdersPlacedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_placed_total",
				Help: "下单成功总数",
			},
		)

		OrdersFailedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_failed_total",
				Help: "下单失败总数",
			},
			[]string{"reason"},
		)

		OrderPlacementDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "order_placement_duration_seconds",
				Help:    "下单耗时(秒)",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		)

		OrderStatusTransitionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_status_transitions_total",
				Help: "订单状态转换次数",
			},
			[]string{"from", "to"},
		)

		OrdersAbandonedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_abandoned_total",
				Help: "超时未支付被放弃的订单数",
			},
		)

		StockReleasedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_released_total",
				Help: "撤单归还的库存数量",
			},
		)

		OrderCacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_cache_requests_total",
				Help: "订单缓存查询次数",
			},
			[]string{"result"},
		)
	})
}

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}).Inc()
	HTTPRequestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
	}).Observe(duration.Seconds())
}

// RecordOrderPlaced 记录一次成功下单
func RecordOrderPlaced(duration time.Duration) {
	InitMetrics()
	OrdersPlacedTotal.Inc()
	OrderPlacementDuration.Observe(duration.Seconds())
}

// RecordOrderFailed 记录一次失败下单
func RecordOrderFailed(reason string, duration time.Duration) {
	InitMetrics()
	OrdersFailedTotal.WithLabelValues(reason).Inc()
	OrderPlacementDuration.Observe(duration.Seconds())
}

// RecordStatusTransition 记录一次状态转换,released为归还的库存数量
func RecordStatusTransition(from, to string, released int) {
	InitMetrics()
	OrderStatusTransitionsTotal.WithLabelValues(from, to).Inc()
	if released > 0 {
		StockReleasedTotal.Add(float64(released))
	}
}

// RecordAbandoned 记录被放弃的订单数
func RecordAbandoned(n int) {
	InitMetrics()
	if n > 0 {
		OrdersAbandonedTotal.Add(float64(n))
	}
}

// RecordCacheResult 记录缓存查询结果
func RecordCacheResult(result string) {
	InitMetrics()
	OrderCacheRequestsTotal.WithLabelValues(result).Inc()
}
