package db

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"github.com/pressly/goose/v3"

	"coldemail-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies the embedded goose migrations (the rate_limit_windows table).
// A nil database is a no-op so memory and redis deployments can call it unconditionally.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetLogger(gooseLogger{})
	return goose.UpContext(ctx, database, "migrations")
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	telemetry.Logger().Sugar().Fatalf(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	telemetry.Logger().Sugar().Infof(strings.TrimSpace(format), v...)
}
