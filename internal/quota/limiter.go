package quota

import (
	"context"
	"time"

	"coldemail-backend/internal/shared/telemetry"
)

// Limiter applies a fixed-window request ceiling on top of a Store.
type Limiter struct {
	store  Store
	window time.Duration
	max    int
	now    func() time.Time
}

// NewLimiter constructs a Limiter. A nil store uses the in-memory store.
func NewLimiter(store Store, window time.Duration, max int, now func() time.Time) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{store: store, window: window, max: max, now: now}
}

// Enabled reports whether a ceiling is configured.
func (l *Limiter) Enabled() bool {
	return l != nil && l.window > 0 && l.max > 0
}

// Limit returns the configured ceiling.
func (l *Limiter) Limit() int {
	if l == nil {
		return 0
	}
	return l.max
}

// Allow records one request for key. Store failures let the request through.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	if !l.Enabled() {
		return Decision{Allowed: true}
	}
	now := l.now().UTC()
	w, err := l.store.Hit(ctx, key, l.window, now)
	if err != nil {
		telemetry.Warn("quota.store_failed", map[string]any{
			"key":   key,
			"error": err,
		})
		return Decision{Allowed: true, Limit: l.max, Remaining: l.max, ResetsAt: now.Add(l.window)}
	}

	remaining := l.max - w.Hits
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Allowed:   w.Hits <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetsAt:  w.ResetsAt,
	}
	if !d.Allowed {
		d.RetryAfter = w.ResetsAt.Sub(now)
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
	}
	return d
}
