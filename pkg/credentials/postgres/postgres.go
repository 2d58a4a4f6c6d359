// Package postgres provides a PostgreSQL implementation of credentials.Store.
// It uses pgx/v5 for connection pooling and stores secrets as BYTEA.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/mistral-bridge/pkg/credentials"
)

// Store is a PostgreSQL-backed credential store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements credentials.Store at compile time.
var _ credentials.Store = (*Store)(nil)

// New creates a store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Read returns the credential for url.
func (s *Store) Read(ctx context.Context, url string) (*credentials.Credential, error) {
	var c credentials.Credential
	err := s.pool.QueryRow(ctx, `
		SELECT url, username, secret, updated_at
		FROM provider_credentials
		WHERE url = $1
	`, url).Scan(&c.URL, &c.Username, &c.Secret, &c.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &c, nil
}

// Write upserts the credential for url.
func (s *Store) Write(ctx context.Context, url, username string, secret []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provider_credentials (url, username, secret, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (url) DO UPDATE
		SET username = EXCLUDED.username,
		    secret = EXCLUDED.secret,
		    updated_at = EXCLUDED.updated_at
	`, url, username, secret)
	if err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// Delete removes the credential for url.
func (s *Store) Delete(ctx context.Context, url string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM provider_credentials WHERE url = $1", url); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
