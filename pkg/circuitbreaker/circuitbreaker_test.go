package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookorder/pkg/clock"
)

var errDown = errors.New("redis down")

func fail() error { return errDown }
func ok() error   { return nil }

func newBreaker(clk clock.Clock) *CircuitBreaker {
	return New("redis", Config{MaxFailures: 3, Timeout: 10 * time.Second, Clock: clk})
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := New("redis", Config{})
	assert.Equal(t, 5, cb.cfg.MaxFailures)
	assert.Equal(t, 30*time.Second, cb.cfg.Timeout)
	assert.Equal(t, 1, cb.cfg.HalfOpenRequests)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "CLOSED", cb.State().String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := newBreaker(clock.NewMock(time.Now()))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errDown)
	}
	// 成功一次清零连续失败
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, 0, cb.Counts().ConsecutiveFailures)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errDown)
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clk := clock.NewMock(time.Now())
	cb := newBreaker(clk)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}

	clk.Tick(9 * time.Second)
	assert.Equal(t, StateOpen, cb.State())

	clk.Tick(time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())

	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewMock(time.Now())
	cb := newBreaker(clk)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	clk.Tick(10 * time.Second)

	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	// 重新计时
	clk.Tick(5 * time.Second)
	assert.Equal(t, StateOpen, cb.State())
	clk.Tick(5 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	clk := clock.NewMock(time.Now())
	cb := newBreaker(clk)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	clk.Tick(10 * time.Second)

	probing := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cb.Execute(func() error {
			close(probing)
			<-release
			return nil
		})
	}()

	<-probing
	assert.ErrorIs(t, cb.Execute(ok), ErrOpenState)
	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IsFailureFiltersErrors(t *testing.T) {
	notFound := errors.New("not found")
	cb := New("redis", Config{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, notFound) },
	})

	assert.ErrorIs(t, cb.Execute(func() error { return notFound }), notFound)
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	clk := clock.NewMock(time.Now())
	var transitions []string
	cb := New("redis", Config{
		MaxFailures: 1,
		Timeout:     time.Second,
		Clock:       clk,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(fail)
	clk.Tick(time.Second)
	_ = cb.Execute(ok)

	assert.Equal(t, []string{
		"redis:CLOSED->OPEN",
		"redis:OPEN->HALF_OPEN",
		"redis:HALF_OPEN->CLOSED",
	}, transitions)
}
