package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/josh-kwaku/payments-processing/internal/config"
)

const connectAttempts = 30

// Open connects to Postgres, retrying the ping once a second up to
// connectAttempts times.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range connectAttempts {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("Open: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}

	db.Close()
	return nil, fmt.Errorf("Open: gave up after %d attempts: %w", connectAttempts, err)
}

// Prepare applies pending migrations when the config asks for it.
func Prepare(ctx context.Context, db *sql.DB, cfg config.DBConfig) error {
	if !cfg.AutoMigrate {
		return nil
	}
	dir := cfg.MigrationsDir
	if dir == "" {
		dir = FindMigrationsDir()
	}
	applied, err := RunMigrations(ctx, db, dir)
	if err != nil {
		return fmt.Errorf("Prepare: %w", err)
	}
	if len(applied) > 0 {
		slog.Info("migrations applied", "files", applied)
	}
	return nil
}
