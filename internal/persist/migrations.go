package persist

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationFiles lists the embedded migration files in apply order.
func MigrationFiles() ([]string, error) {
	return fs.Glob(migrations, "migrations/*.sql")
}

func withGoose(ctx context.Context, pool *pgxpool.Pool, fn func(db *sql.DB) error) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return fn(db)
}

// RunMigrations applies all pending database migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return withGoose(ctx, pool, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, pool *pgxpool.Pool) error {
	return withGoose(ctx, pool, func(db *sql.DB) error {
		if err := goose.DownContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("rollback migration: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the version of the last applied migration.
func MigrationVersion(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var v int64
	err := withGoose(ctx, pool, func(db *sql.DB) error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}
