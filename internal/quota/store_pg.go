package quota

import (
	"context"
	"database/sql"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed store over the rate_limit_windows table.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

// Hit starts a new window when the stored one began at or before now-window,
// otherwise increments it. One statement keeps concurrent replicas consistent.
func (s *pgStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error) {
	var (
		hits  int
		start time.Time
	)
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO rate_limit_windows (key, window_start, hits)
VALUES ($1, $2, 1)
ON CONFLICT (key) DO UPDATE SET
    window_start = CASE WHEN rate_limit_windows.window_start <= $3 THEN EXCLUDED.window_start ELSE rate_limit_windows.window_start END,
    hits = CASE WHEN rate_limit_windows.window_start <= $3 THEN 1 ELSE rate_limit_windows.hits + 1 END
RETURNING hits, window_start`, key, now, now.Add(-window)).Scan(&hits, &start)
	if err != nil {
		return Window{}, err
	}
	return Window{Hits: hits, ResetsAt: start.Add(window)}, nil
}

// Prune deletes windows that ended before cutoff.
func (s *pgStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM rate_limit_windows WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
