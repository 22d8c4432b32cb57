package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock_Tick(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewMock(start)

	assert.Equal(t, start, c.Now())

	c.Tick(30 * time.Minute)
	c.Tick(30 * time.Minute)

	assert.Equal(t, start.Add(time.Hour), c.Now())
}

func TestSystem_IsUTC(t *testing.T) {
	now := NewSystem().Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}
