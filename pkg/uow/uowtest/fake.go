// Package uowtest provides an in-memory pgx.Tx for exercising code that runs
// inside a unit of work without a database.
package uowtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB stores key/value writes made through Exec("SET", key, value). Writes
// become visible only when the owning Tx commits.
type DB struct {
	mu        sync.Mutex
	committed map[string]any
	begins    int
	commits   int
	rollbacks int

	BeginErr  error
	CommitErr error
}

func NewDB() *DB {
	return &DB{committed: map[string]any{}}
}

func (d *DB) Begin(context.Context) (pgx.Tx, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.BeginErr != nil {
		return nil, d.BeginErr
	}
	d.begins++
	return &Tx{db: d, pending: map[string]any{}}, nil
}

func (d *DB) Get(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.committed[key]
	return v, ok
}

func (d *DB) Counts() (begins, commits, rollbacks int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.begins, d.commits, d.rollbacks
}

// Tx implements the parts of pgx.Tx the unit of work touches. Calling any
// other method panics on the nil embedded interface.
type Tx struct {
	pgx.Tx

	db      *DB
	mu      sync.Mutex
	pending map[string]any
	closed  bool
}

func (t *Tx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	if sql != "SET" || len(args) != 2 {
		return pgconn.CommandTag{}, errors.New("uowtest: only SET key value is supported")
	}
	key, _ := args[0].(string)
	t.pending[key] = args[1]
	return pgconn.NewCommandTag("SET 1"), nil
}

func (t *Tx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.CommitErr != nil {
		t.db.rollbacks++
		return t.db.CommitErr
	}
	for k, v := range t.pending {
		t.db.committed[k] = v
	}
	t.db.commits++
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.pending = nil

	t.db.mu.Lock()
	t.db.rollbacks++
	t.db.mu.Unlock()
	return nil
}
