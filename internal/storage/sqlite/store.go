// Package sqlite implements storage.Store on an embedded SQLite database via
// database/sql. JSON columns are stored as TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/agedist/internal/storage"

	_ "modernc.org/sqlite"
)

const (
	createUsersSQL = `CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT,
	age             TEXT,
	address         TEXT NOT NULL DEFAULT '{}',
	additional_info TEXT NOT NULL DEFAULT '{}',
	created_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	insertUserSQL = `INSERT INTO users (name, age, address, additional_info) VALUES (?, ?, ?, ?)`

	countByAgeSQL = `SELECT age, COUNT(*) FROM users GROUP BY age`
)

// Store is a SQLite-backed storage.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn, e.g. "users.db" or
// "file:users.db?_pragma=busy_timeout(5000)".
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txn{tx: tx}, nil
}

// CountByAge runs the grouped count on a dedicated connection, returned to
// the pool on every path.
func (s *Store) CountByAge(ctx context.Context) ([]storage.AgeCount, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, countByAgeSQL)
	if err != nil {
		return nil, fmt.Errorf("query age counts: %w", err)
	}
	defer rows.Close()

	var counts []storage.AgeCount
	for rows.Next() {
		var age sql.NullString
		var n int64
		if err := rows.Scan(&age, &n); err != nil {
			return nil, fmt.Errorf("scan age counts: %w", err)
		}
		counts = append(counts, storage.AgeCount{Age: age.String, Valid: age.Valid, Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate age counts: %w", err)
	}
	return counts, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createUsersSQL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) InsertUser(ctx context.Context, row storage.UserRow) error {
	address, err := encodeJSON(row.Address)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	info, err := encodeJSON(row.AdditionalInfo)
	if err != nil {
		return fmt.Errorf("encode additional_info: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, insertUserSQL, row.Name, row.Age, address, info)
	return err
}

func (t *txn) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *txn) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// encodeJSON marshals v, writing "{}" for a nil map.
func encodeJSON[M ~map[string]V, V any](v M) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
