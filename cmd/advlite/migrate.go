package main

import (
	"context"
	"fmt"
	"time"

	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/persist"
)

func runMigrate(ctx context.Context, cfg *config.Config, down, status bool) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("migrate: database.dsn is not set")
	}
	log, err := newLogger(cfg.Logging, false)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner("", 0)
	printSection("database")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	switch {
	case status:
	case down:
		if err := persist.RollbackMigration(ctx, db.Pool); err != nil {
			return err
		}
		printOK("rolled back one migration")
	default:
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return err
		}
		printOK("migrations applied")
	}

	v, err := persist.MigrationVersion(ctx, db.Pool)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	printStat("schema version", int(v))
	return nil
}
