package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetShared() {
	sharedMu.Lock()
	sharedDB = nil
	sharedMu.Unlock()
}

func TestSharedReturnsSamePointer(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetShared()
	defer resetShared()

	db1, err := Shared(context.Background(), "ignored", PoolFor(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared first: %v", err)
	}
	db2, err := Shared(context.Background(), "ignored", PoolFor(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected shared pointers to match")
	}
}

func TestPoolWithEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	env := map[string]string{
		"QUOTA_DB_MAX_OPEN":      "7",
		"QUOTA_DB_MAX_IDLE":      "3",
		"QUOTA_DB_MAX_LIFETIME":  "20m",
		"QUOTA_DB_MAX_IDLE_TIME": "45s",
		"QUOTA_DB_PING_TIMEOUT":  "1s",
	}
	pool := PoolFor(ProfileServer).WithEnv(func(k string) string { return env[k] })

	db, err := Open(context.Background(), "ignored", pool)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if pool.MaxIdle != 3 {
		t.Fatalf("expected MaxIdle=3, got %d", pool.MaxIdle)
	}
	if pool.MaxLifetime != 20*time.Minute {
		t.Fatalf("expected MaxLifetime=20m, got %s", pool.MaxLifetime)
	}
	if pool.MaxIdleTime != 45*time.Second {
		t.Fatalf("expected MaxIdleTime=45s, got %s", pool.MaxIdleTime)
	}
	if pool.PingTimeout != time.Second {
		t.Fatalf("expected PingTimeout=1s, got %s", pool.PingTimeout)
	}
}

func TestPoolWithEnvIgnoresInvalidValues(t *testing.T) {
	base := PoolFor(ProfileCLI)
	pool := base.WithEnv(func(k string) string {
		if k == "QUOTA_DB_MAX_OPEN" {
			return "many"
		}
		return ""
	})
	if pool != base {
		t.Fatalf("expected defaults to survive invalid env, got %+v", pool)
	}
}

func TestDetectProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if got := DetectProfile(); got != ProfileServer {
		t.Fatalf("expected server profile, got %s", got)
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "coldemail-api")
	if got := DetectProfile(); got != ProfileLambda {
		t.Fatalf("expected lambda profile, got %s", got)
	}
}

func TestSharedRetriesAfterFailure(t *testing.T) {
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		ensureTestDriverRegistered()
		return sql.Open("dbtest", dsn)
	}
	defer func() {
		openDB = prev
	}()
	resetShared()
	defer resetShared()

	if _, err := Shared(context.Background(), "ignored", PoolFor(ProfileLambda)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	db2, err := Shared(context.Background(), "ignored", PoolFor(ProfileLambda))
	if err != nil {
		t.Fatalf("expected second call to succeed: %v", err)
	}
	if db2 == nil {
		t.Fatalf("expected db after retry")
	}
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil database to be a no-op, got %v", err)
	}
}

func TestEmbeddedMigrationsCreateRateLimitTable(t *testing.T) {
	payload, err := migrationFiles.ReadFile("migrations/00001_rate_limit_windows.sql")
	if err != nil {
		t.Fatalf("read embedded migration: %v", err)
	}
	body := string(payload)
	for _, want := range []string{"-- +goose Up", "CREATE TABLE IF NOT EXISTS rate_limit_windows", "-- +goose Down"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in migration", want)
		}
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Open(context.Background(), "  ", PoolFor(ProfileServer)); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}
