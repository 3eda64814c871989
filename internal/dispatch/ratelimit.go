package dispatch

import (
	"sync"
	"time"
)

// rateWindow is one sliding budget window reset by wall-clock comparison.
type rateWindow struct {
	limit   int
	span    time.Duration
	count   int
	started time.Time
}

func (w *rateWindow) roll(now time.Time) {
	if now.Sub(w.started) >= w.span {
		w.count = 0
		w.started = now
	}
}

func (w *rateWindow) exhausted(now time.Time) bool {
	w.roll(now)
	return w.count >= w.limit
}

func (w *rateWindow) resetIn(now time.Time) time.Duration {
	return w.span - now.Sub(w.started)
}

// rateBudget tracks the per-minute and per-hour outbound request budgets.
// Only the dispatcher's processing loop mutates it, but a mutex guards the
// read-only snapshot exposed to the health endpoint.
type rateBudget struct {
	mu     sync.Mutex
	minute rateWindow
	hour   rateWindow
}

func newRateBudget(perMinute, perHour int, now time.Time) *rateBudget {
	return &rateBudget{
		minute: rateWindow{limit: perMinute, span: time.Minute, started: now},
		hour:   rateWindow{limit: perHour, span: time.Hour, started: now},
	}
}

// reserve consumes one slot if both windows have room, otherwise it returns
// the wait until the tighter window frees up.
func (b *rateBudget) reserve(now time.Time) (ok bool, wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.minute.exhausted(now) {
		return false, b.minute.resetIn(now)
	}
	if b.hour.exhausted(now) {
		return false, b.hour.resetIn(now)
	}
	b.minute.count++
	b.hour.count++
	return true, 0
}

// BudgetSnapshot reports current window usage for observability.
type BudgetSnapshot struct {
	MinuteUsed  int `json:"minute_used"`
	MinuteLimit int `json:"minute_limit"`
	HourUsed    int `json:"hour_used"`
	HourLimit   int `json:"hour_limit"`
}

func (b *rateBudget) snapshot(now time.Time) BudgetSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minute.roll(now)
	b.hour.roll(now)
	return BudgetSnapshot{
		MinuteUsed:  b.minute.count,
		MinuteLimit: b.minute.limit,
		HourUsed:    b.hour.count,
		HourLimit:   b.hour.limit,
	}
}
