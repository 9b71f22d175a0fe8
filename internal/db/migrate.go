package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator wraps goose over a *sql.DB opened from the pgx pool.
type Migrator struct {
	db            *sql.DB
	migrationsDir string
}

func NewMigrator(pool *pgxpool.Pool, migrationsDir string) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	return &Migrator{
		db:            stdlib.OpenDBFromPool(pool),
		migrationsDir: migrationsDir,
	}, nil
}

// Run applies all pending migrations.
func (m *Migrator) Run(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get migration version: %w", err)
	}
	return version, nil
}

// Close closes the migrator's sql.DB; the underlying pool stays open.
func (m *Migrator) Close() error {
	return m.db.Close()
}
