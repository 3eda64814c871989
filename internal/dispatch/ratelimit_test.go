package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateBudgetMinuteWindow(t *testing.T) {
	start := time.Now()
	b := newRateBudget(2, 100, start)

	ok, _ := b.reserve(start)
	assert.True(t, ok)
	ok, _ = b.reserve(start)
	assert.True(t, ok)

	ok, wait := b.reserve(start.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, 59*time.Second, wait)

	// The minute window rolls over on wall-clock comparison.
	ok, _ = b.reserve(start.Add(61 * time.Second))
	assert.True(t, ok)
}

func TestRateBudgetHourWindow(t *testing.T) {
	start := time.Now()
	b := newRateBudget(100, 3, start)

	for i := 0; i < 3; i++ {
		ok, _ := b.reserve(start.Add(time.Duration(i) * time.Minute))
		assert.True(t, ok, "reservation %d", i)
	}

	ok, wait := b.reserve(start.Add(3 * time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 57*time.Minute, wait)

	ok, _ = b.reserve(start.Add(time.Hour))
	assert.True(t, ok)
}

func TestRateBudgetSnapshot(t *testing.T) {
	start := time.Now()
	b := newRateBudget(15, 250, start)

	b.reserve(start)
	b.reserve(start)

	snap := b.snapshot(start)
	assert.Equal(t, 2, snap.MinuteUsed)
	assert.Equal(t, 15, snap.MinuteLimit)
	assert.Equal(t, 2, snap.HourUsed)
	assert.Equal(t, 250, snap.HourLimit)

	// After the minute rolls, only the hour window retains usage.
	snap = b.snapshot(start.Add(2 * time.Minute))
	assert.Equal(t, 0, snap.MinuteUsed)
	assert.Equal(t, 2, snap.HourUsed)
}
