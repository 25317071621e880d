package client

import (
	"context"
	"sync"
	"time"
)

// Default ceilings for requests that actually reach the network.
// Cache hits are free and never counted.
const (
	DefaultRateLimitSecond = 200
	DefaultRateLimitMinute = 5000
	DefaultRateLimitHour   = 300000
)

type budgetWindow struct {
	name  string
	span  time.Duration
	limit int
	count int
}

// budget tracks how many non-cached requests were issued within rolling
// second/minute/hour windows. A window's counter resets once the elapsed
// time since the last network request exceeds its span. All access is
// serialized on the mutex; sleeps happen with the mutex released.
type budget struct {
	mu       sync.Mutex
	now      func() time.Time
	lastSent time.Time
	windows  [3]budgetWindow
}

func newBudget(perSecond, perMinute, perHour int) *budget {
	return &budget{
		now: time.Now,
		windows: [3]budgetWindow{
			{name: "second", span: time.Second, limit: perSecond},
			{name: "minute", span: time.Minute, limit: perMinute},
			{name: "hour", span: time.Hour, limit: perHour},
		},
	}
}

// admit accounts for one outgoing request. When a counter reaches its
// ceiling it either blocks for the remainder of that window (sleep policy,
// cancellable through ctx) or fails with a RateLimitError naming the
// window (fail-fast policy).
func (b *budget) admit(ctx context.Context, sleepOnLimit bool) error {
	b.mu.Lock()

	for i := range b.windows {
		w := &b.windows[i]
		elapsed := b.now().Sub(b.lastSent)
		if b.lastSent.IsZero() || elapsed >= w.span {
			w.count = 0
		}
		w.count++
		if w.count < w.limit {
			continue
		}

		if !sleepOnLimit {
			limit := w.limit
			name := w.name
			b.mu.Unlock()
			return &RateLimitError{Window: name, Limit: limit}
		}

		wait := w.span - elapsed
		if b.lastSent.IsZero() || wait <= 0 || wait > w.span {
			wait = w.span
		}
		// The request being admitted occupies the fresh window
		w.count = 1

		b.mu.Unlock()
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
		b.mu.Lock()
	}

	b.mu.Unlock()
	return nil
}

// refund undoes one admission that never reached the network
func (b *budget) refund() {
	b.mu.Lock()
	for i := range b.windows {
		if b.windows[i].count > 0 {
			b.windows[i].count--
		}
	}
	b.mu.Unlock()
}

// record marks that a request reached the network just now
func (b *budget) record() {
	b.mu.Lock()
	b.lastSent = b.now()
	b.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
