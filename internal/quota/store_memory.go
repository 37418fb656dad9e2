package quota

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	start time.Time
	hits  int
}

type memoryStore struct {
	mu        sync.Mutex
	data      map[string]memoryWindow
	nextSweep time.Time
}

// NewMemoryStore returns a process-local store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]memoryWindow)}
}

func (s *memoryStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error) {
	if err := ctx.Err(); err != nil {
		return Window{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(window, now)

	w, ok := s.data[key]
	if !ok || !now.Before(w.start.Add(window)) {
		w = memoryWindow{start: now}
	}
	w.hits++
	s.data[key] = w
	return Window{Hits: w.hits, ResetsAt: w.start.Add(window)}, nil
}

// sweep drops expired windows at most once per window length.
func (s *memoryStore) sweep(window time.Duration, now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, w := range s.data {
		if !now.Before(w.start.Add(window)) {
			delete(s.data, k)
		}
	}
	s.nextSweep = now.Add(window)
}
