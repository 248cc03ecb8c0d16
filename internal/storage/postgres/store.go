// Package postgres implements storage.Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/agedist/internal/config"
	"github.com/JonMunkholm/agedist/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createUsersSQL = `CREATE TABLE IF NOT EXISTS public.users (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT,
	age             TEXT,
	address         JSONB NOT NULL DEFAULT '{}'::jsonb,
	additional_info JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	insertUserSQL = `INSERT INTO public.users (name, age, address, additional_info) VALUES ($1, $2, $3, $4)`

	countByAgeSQL = `SELECT age, COUNT(*) FROM public.users GROUP BY age`
)

// NewPool parses cfg.URL, applies the pool limits and verifies connectivity.
// The caller owns the returned pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. Close closes the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Begin starts a transaction on a pooled connection.
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &txn{tx: tx}, nil
}

// CountByAge runs the grouped count on its own connection, released on return.
func (s *Store) CountByAge(ctx context.Context) ([]storage.AgeCount, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, countByAgeSQL)
	if err != nil {
		return nil, fmt.Errorf("query age counts: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.AgeCount, error) {
		var age pgtype.Text
		var n int64
		if err := row.Scan(&age, &n); err != nil {
			return storage.AgeCount{}, err
		}
		return storage.AgeCount{Age: age.String, Valid: age.Valid, Count: n}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan age counts: %w", err)
	}
	return counts, nil
}

// Migrate creates public.users when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createUsersSQL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

type txn struct {
	tx pgx.Tx
}

// InsertUser relies on pgx's jsonb codec to marshal the address and
// additional info maps. pgx sends a nil map as SQL NULL, so nil becomes {}.
func (t *txn) InsertUser(ctx context.Context, row storage.UserRow) error {
	address := row.Address
	if address == nil {
		address = map[string]any{}
	}
	info := row.AdditionalInfo
	if info == nil {
		info = map[string]string{}
	}

	_, err := t.tx.Exec(ctx, insertUserSQL, row.Name, row.Age, address, info)
	return err
}

func (t *txn) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txn) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
