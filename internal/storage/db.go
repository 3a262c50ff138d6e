// Package storage is the PostgreSQL-backed health store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
)

// DB wraps a pgxpool.Pool and implements healthstore.Store.
type DB struct {
	Pool *pgxpool.Pool

	// kind settings cached for the synchronous Supports and
	// WriteAuthorization calls; refreshed after every change.
	mu       sync.RWMutex
	settings map[models.NativeKind]kindSetting
}

var _ healthstore.Store = (*DB)(nil)

// New creates a new DB with a connection pool and loads the kind settings.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	db := &DB{Pool: pool}
	if err := db.refreshSettings(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Platform identifies this store.
func (db *DB) Platform() string { return "postgres" }

// Available reports whether the database answers.
func (db *DB) Available(ctx context.Context) (bool, string) {
	if err := db.Pool.Ping(ctx); err != nil {
		return false, fmt.Sprintf("database unreachable: %v", err)
	}
	return true, ""
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
