package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/agedist/internal/storage"
)

// Loader persists nested records in a single transaction.
type Loader struct {
	store storage.Store
}

// NewLoader returns a Loader writing to store.
func NewLoader(store storage.Store) *Loader {
	return &Loader{store: store}
}

// Load inserts records in order and commits once after the last insert. On
// any failure the transaction is rolled back and a *LoadError is returned,
// so either every record is visible afterwards or none is. Records are not
// deduplicated; loading the same batch twice stores it twice.
func (l *Loader) Load(ctx context.Context, records []NestedRecord) (int, error) {
	tx, err := l.store.Begin(ctx)
	if err != nil {
		return 0, &LoadError{Err: fmt.Errorf("begin transaction: %w", err)}
	}
	// No-op once committed; releases the connection on every other path.
	defer tx.Rollback(ctx)

	for i, rec := range records {
		if err := tx.InsertUser(ctx, rec.UserRow()); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
			return 0, &LoadError{Row: i + 1, Err: fmt.Errorf("insert: %w", err)}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &LoadError{Err: fmt.Errorf("commit: %w", err)}
	}

	return len(records), nil
}
