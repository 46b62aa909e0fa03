// Package storage persists the ledger in SQLite and exposes the transaction
// and change-subscription primitives the services layer builds on.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query runs the same
// way inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db     DBTX
	record func(Change)
}

// Repository is the SQLite-backed storage collaborator. All ledger tables
// support point lookup, list, insert, update, delete and the range/grouping
// queries used by reporting.
type Repository struct {
	queries
	sqlDB   *sql.DB
	watcher *watcher

	// Serializes mutating workflows. SQLite runs a single writer anyway;
	// holding the mutex across a whole edit workflow extends that guarantee
	// to the reverse-then-apply sequences in the services layer.
	writeMu sync.Mutex
}

// NewRepository opens (creating if needed) the database at dbPath, runs
// migrations and returns a ready repository.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	w := newWatcher()
	repo := &Repository{
		sqlDB:   db,
		watcher: w,
	}
	repo.queries = queries{db: db, record: w.publish}

	return repo, nil
}

func (r *Repository) Close() error {
	r.watcher.closeAll()
	if r.sqlDB != nil {
		return r.sqlDB.Close()
	}
	return nil
}

// Watch subscribes to change events published after each committed mutation.
// The returned cancel func must be called when the subscriber is done.
func (r *Repository) Watch() (<-chan Change, func()) {
	return r.watcher.subscribe()
}

// Tx is a write transaction over the same query surface as the repository.
// Change events are staged and only published once the transaction commits.
type Tx struct {
	queries
	tx     *sql.Tx
	repo   *Repository
	staged []Change
	done   bool
}

// BeginTx starts a write transaction and takes the write lock. Every ledger
// edit workflow (entry mutation plus balance mutation) runs inside exactly
// one of these, so a partial failure can never leave an account out of sync
// with its journal.
func (r *Repository) BeginTx(ctx context.Context) (*Tx, error) {
	r.writeMu.Lock()
	tx, err := r.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		r.writeMu.Unlock()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	t := &Tx{tx: tx, repo: r}
	t.queries = queries{
		db:     tx,
		record: func(c Change) { t.staged = append(t.staged, c) },
	}
	return t, nil
}

func (t *Tx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	err := t.tx.Commit()
	t.repo.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	for _, c := range t.staged {
		t.repo.watcher.publish(c)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op after Commit, so it is safe
// to defer unconditionally.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	err := t.tx.Rollback()
	t.repo.writeMu.Unlock()
	return err
}

// Dates are stored as UTC unix seconds so range filters and strftime-based
// grouping compare plain integers.

func toUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromUnix(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}
