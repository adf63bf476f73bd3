package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"recycle-bot/internal/storage/migrations"
)

// migration is one goose command over the embedded schema.
type migration struct {
	operation string
	start     string
	done      string
	run       func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error
}

var (
	migrateUp = migration{
		operation: "storage.RunMigrations",
		start:     "Running database migrations...",
		done:      "Database migrations completed successfully",
		run:       goose.UpContext,
	}
	migrateDown = migration{
		operation: "storage.RollbackMigration",
		start:     "Rolling back last migration...",
		done:      "Migration rollback completed",
		run:       goose.DownContext,
	}
	migrateStatus = migration{
		operation: "storage.MigrationStatus",
		start:     "Checking migration status...",
		run:       goose.StatusContext,
	}
)

func migrate(ctx context.Context, db *sql.DB, logger *zap.Logger, m migration) error {
	logger.Info(m.start)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", m.operation, err)
	}
	if err := m.run(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", m.operation, err)
	}

	if m.done != "" {
		logger.Info(m.done)
	}
	return nil
}

// RunMigrations applies every pending migration.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return migrate(ctx, db, logger, migrateUp)
}

// RollbackMigration reverts the latest applied migration.
func RollbackMigration(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return migrate(ctx, db, logger, migrateDown)
}

// MigrationStatus prints the state of every migration.
func MigrationStatus(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return migrate(ctx, db, logger, migrateStatus)
}
