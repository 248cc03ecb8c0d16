package core

import (
	"context"
	"errors"
	"sync"

	"github.com/JonMunkholm/agedist/internal/storage"
)

// memStore is an in-memory storage.Store. Inserts are buffered per
// transaction and only become visible on Commit.
type memStore struct {
	mu        sync.Mutex
	rows      []storage.UserRow
	begins    int
	commits   int
	rollbacks int

	failInsertAt int // 1-based insert that fails within a transaction; 0 never
	beginErr     error
	commitErr    error
	countErr     error
	counts       []storage.AgeCount // returned by CountByAge when set
}

var errInsert = errors.New("insert rejected")

func (s *memStore) Begin(ctx context.Context) (storage.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begins++
	return &memTx{store: s}, nil
}

func (s *memStore) CountByAge(ctx context.Context) ([]storage.AgeCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return nil, s.countErr
	}
	if s.counts != nil {
		return s.counts, nil
	}

	byAge := make(map[string]int64)
	var order []string
	for _, r := range s.rows {
		if _, seen := byAge[r.Age]; !seen {
			order = append(order, r.Age)
		}
		byAge[r.Age]++
	}
	out := make([]storage.AgeCount, 0, len(order))
	for _, age := range order {
		out = append(out, storage.AgeCount{Age: age, Valid: true, Count: byAge[age]})
	}
	return out, nil
}

func (s *memStore) Migrate(ctx context.Context) error { return nil }
func (s *memStore) Ping(ctx context.Context) error    { return nil }
func (s *memStore) Close()                            {}

func (s *memStore) visible() []storage.UserRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.UserRow(nil), s.rows...)
}

type memTx struct {
	store   *memStore
	pending []storage.UserRow
	done    bool
}

func (tx *memTx) InsertUser(ctx context.Context, row storage.UserRow) error {
	if tx.done {
		return errors.New("transaction closed")
	}
	if tx.store.failInsertAt > 0 && len(tx.pending)+1 == tx.store.failInsertAt {
		return errInsert
	}
	tx.pending = append(tx.pending, row)
	return nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("transaction closed")
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.store.commitErr != nil {
		return tx.store.commitErr
	}
	tx.done = true
	tx.store.commits++
	tx.store.rows = append(tx.store.rows, tx.pending...)
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.pending = nil
	tx.store.mu.Lock()
	tx.store.rollbacks++
	tx.store.mu.Unlock()
	return nil
}
