// Package storage defines the store used by the import pipeline. A Store owns
// its connections; callers receive it explicitly and close it when done.
package storage

import "context"

// UsersTable is the table every backend writes imported rows to.
const UsersTable = "users"

// UserRow is one persisted user. Address and AdditionalInfo are stored as
// structured (JSON) values.
type UserRow struct {
	Name           string
	Age            string
	Address        map[string]any
	AdditionalInfo map[string]string
}

// AgeCount is one group of the age histogram: the raw stored age value and
// the number of rows carrying it. Valid is false when the stored age is NULL.
type AgeCount struct {
	Age   string
	Valid bool
	Count int64
}

// Tx is a single open transaction. Rollback after Commit is a no-op.
type Tx interface {
	InsertUser(ctx context.Context, row UserRow) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is implemented by each backend.
type Store interface {
	// Begin opens a transaction on a connection held until Commit or Rollback.
	Begin(ctx context.Context) (Tx, error)

	// CountByAge groups all persisted rows by their raw age value.
	CountByAge(ctx context.Context) ([]AgeCount, error)

	// Migrate creates the users table when it does not exist.
	Migrate(ctx context.Context) error

	Ping(ctx context.Context) error
	Close()
}
