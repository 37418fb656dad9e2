package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"coldemail-backend/internal/shared/telemetry"
)

// Profile names the kind of process holding the pool.
type Profile string

const (
	ProfileServer Profile = "server"
	ProfileLambda Profile = "lambda"
	ProfileCLI    Profile = "cli"
)

// Pool sizes the connection pool behind the postgres quota store. Each request does a
// single upsert, so pools stay small.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

var (
	openDB = sql.Open

	sharedMu sync.Mutex
	sharedDB *sql.DB
)

// DetectProfile returns ProfileLambda inside AWS Lambda and ProfileServer otherwise.
func DetectProfile() Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return ProfileServer
}

// PoolFor returns the default pool for a profile.
func PoolFor(p Profile) Pool {
	switch p {
	case ProfileLambda:
		return Pool{MaxOpen: 2, MaxIdle: 1, MaxLifetime: 15 * time.Minute, MaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second}
	case ProfileCLI:
		return Pool{MaxOpen: 1, MaxIdle: 1, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
	default:
		return Pool{MaxOpen: 8, MaxIdle: 4, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
	}
}

// WithEnv overrides pool fields from QUOTA_DB_* variables. Invalid values are logged and ignored.
func (p Pool) WithEnv(getenv func(string) string) Pool {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v, ok := envInt(getenv, "QUOTA_DB_MAX_OPEN"); ok {
		p.MaxOpen = v
	}
	if v, ok := envInt(getenv, "QUOTA_DB_MAX_IDLE"); ok {
		p.MaxIdle = v
	}
	if v, ok := envDuration(getenv, "QUOTA_DB_MAX_LIFETIME"); ok {
		p.MaxLifetime = v
	}
	if v, ok := envDuration(getenv, "QUOTA_DB_MAX_IDLE_TIME"); ok {
		p.MaxIdleTime = v
	}
	if v, ok := envDuration(getenv, "QUOTA_DB_PING_TIMEOUT"); ok {
		p.PingTimeout = v
	}
	return p
}

// Open connects to databaseURL with the given pool and pings it.
func Open(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.apply(db)

	timeout := pool.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return db, nil
}

// Shared returns one *sql.DB per process, opening it on first use. A failed open is not
// cached, so the next call retries. Warm Lambda invocations reuse the same pool.
func Shared(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedDB != nil {
		return sharedDB, nil
	}
	db, err := Open(ctx, databaseURL, pool)
	if err != nil {
		return nil, err
	}
	sharedDB = db
	return sharedDB, nil
}

func (p Pool) apply(db *sql.DB) {
	if p.MaxOpen <= 0 {
		p.MaxOpen = 8
	}
	if p.MaxIdle <= 0 {
		p.MaxIdle = 4
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	if p.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

func envInt(getenv func(string) string, key string) (int, bool) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err})
		return 0, false
	}
	return v, true
}

func envDuration(getenv func(string) string, key string) (time.Duration, bool) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err})
		return 0, false
	}
	return v, true
}
