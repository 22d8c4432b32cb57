// Package circuitbreaker 熔断器,保护对不稳定依赖(如Redis)的调用
//
// 状态转换:
//
//	CLOSED --连续失败达到阈值--> OPEN --Timeout到期--> HALF_OPEN
//	HALF_OPEN --探测成功--> CLOSED
//	HALF_OPEN --探测失败--> OPEN
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/xiebiao/bookorder/pkg/clock"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常,请求全部放行
	StateOpen                  // 熔断,请求直接失败
	StateHalfOpen              // 探测,放行有限个请求
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpenState 熔断器打开,请求未执行
var ErrOpenState = errors.New("circuit breaker is open")

// Config 熔断器配置
type Config struct {
	// MaxFailures 连续失败多少次后熔断,<=0时取5
	MaxFailures int
	// Timeout OPEN状态持续时间,<=0时取30s
	Timeout time.Duration
	// HalfOpenRequests 半开状态允许的探测请求数,<=0时取1
	HalfOpenRequests int
	// IsFailure 判断错误是否计入失败,为nil时所有非nil错误都计入
	IsFailure func(err error) bool
	// OnStateChange 状态变化回调,在锁内调用,不能回调熔断器本身
	OnStateChange func(name string, from, to State)
	// Clock 时间源,为nil时使用系统时钟
	Clock clock.Clock
}

// Counts 当前状态下的统计
type Counts struct {
	Requests            int
	ConsecutiveFailures int
}

// CircuitBreaker 熔断器,并发安全
type CircuitBreaker struct {
	name string
	cfg  Config

	mu         sync.Mutex
	state      State
	generation uint64 // 每次状态切换递增,丢弃旧状态下发出的请求结果
	counts     Counts
	openedAt   time.Time
}

// New 创建熔断器
func New(name string, cfg Config) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	return &CircuitBreaker{name: name, cfg: cfg}
}

// Execute 熔断器允许时执行req,否则返回ErrOpenState
func (cb *CircuitBreaker) Execute(req func() error) error {
	generation, err := cb.before()
	if err != nil {
		return err
	}

	err = req()
	cb.after(generation, cb.cfg.IsFailure(err))
	return err
}

// Allow 当前是否会放行请求,不占用探测名额
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.currentState()
	return state == StateClosed ||
		(state == StateHalfOpen && cb.counts.Requests < cb.cfg.HalfOpenRequests)
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Counts 当前统计
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

func (cb *CircuitBreaker) before() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateOpen:
		return cb.generation, ErrOpenState
	case StateHalfOpen:
		if cb.counts.Requests >= cb.cfg.HalfOpenRequests {
			return cb.generation, ErrOpenState
		}
	}
	cb.counts.Requests++
	return cb.generation, nil
}

func (cb *CircuitBreaker) after(generation uint64, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.currentState()
	if generation != cb.generation {
		return
	}

	if !failed {
		cb.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		return
	}

	cb.counts.ConsecutiveFailures++
	switch state {
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.cfg.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

// currentState OPEN超时后转为HALF_OPEN,调用方需持有锁
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && !cb.cfg.Clock.Now().Before(cb.openedAt.Add(cb.cfg.Timeout)) {
		cb.setState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(state State) {
	if cb.state == state {
		return
	}
	prev := cb.state
	cb.state = state
	cb.generation++
	cb.counts = Counts{}
	if state == StateOpen {
		cb.openedAt = cb.cfg.Clock.Now()
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, prev, state)
	}
}
