package main

// Run database migrations for the postgres quota store:
//   go run ./cmd/migrate
//   go run ./cmd/migrate -prune-older-than 24h

import (
	"context"
	"flag"
	"os"
	"time"

	"coldemail-backend/internal/quota"
	"coldemail-backend/internal/shared/config"
	"coldemail-backend/internal/shared/storage/db"
	"coldemail-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	pruneOlderThan := flag.Duration("prune-older-than", 0, "delete rate limit windows that started before now minus this duration")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.PoolFor(db.ProfileCLI).WithEnv(nil))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)

	if *pruneOlderThan <= 0 {
		return
	}
	pruner, ok := quota.NewPGStore(sqlDB).(quota.Pruner)
	if !ok {
		return
	}
	n, err := pruner.Prune(ctx, time.Now().UTC().Add(-*pruneOlderThan))
	if err != nil {
		telemetry.Error("migrate.prune_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.pruned", map[string]any{"rows": n})
}
