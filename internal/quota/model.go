package quota

import (
	"context"
	"time"
)

// Window is the state of one caller's fixed window after a hit.
type Window struct {
	Hits     int
	ResetsAt time.Time
}

// Store counts hits per key inside a fixed window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error)
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetsAt   time.Time
	RetryAfter time.Duration
}

// Pruner is implemented by stores that keep expired windows until told to delete them.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
