// Package database owns the PostgreSQL connection pool and schema migrations
// for the user record store.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options configures the connection pool.
type Options struct {
	URL string
	// MaxConns caps open connections. Zero keeps the pgx default.
	MaxConns int32
	// MaxConnIdleTime closes idle connections after this long. Zero keeps the pgx default.
	MaxConnIdleTime time.Duration
}

// DB is the user store's connection pool together with the URL it was
// opened from, which migrations reuse.
type DB struct {
	url  string
	pool *pgxpool.Pool
}

// New opens a pool and verifies it with a ping before returning.
func New(ctx context.Context, opts Options) (*DB, error) {
	poolCfg, err := poolConfig(opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging user store: %w", err)
	}

	return &DB{url: opts.URL, pool: pool}, nil
}

func poolConfig(opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	return cfg, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping satisfies the health handler's store check.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Pool exposes the pool to repositories.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}
