// Package clock 提供可注入的时间源,业务代码通过Clock获取当前时间,测试中使用Mock控制时间流逝
package clock

import (
	"sync"
	"time"
)

// Clock 时间源
type Clock interface {
	Now() time.Time
}

// System 系统时钟(UTC)
type System struct{}

// NewSystem 创建系统时钟
func NewSystem() Clock {
	return System{}
}

// Now 返回当前UTC时间
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Mock 可手动推进的时钟,并发安全
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock 创建固定在指定时间的时钟
func NewMock(now time.Time) *Mock {
	return &Mock{now: now.UTC()}
}

// Now 返回当前模拟时间
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Tick 推进时间
func (m *Mock) Tick(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set 直接设置时间
func (m *Mock) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now.UTC()
}
