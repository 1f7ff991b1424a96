// Package store is the persistent indexed container for dictionary data:
// four dictionary collections (dictionaries, tags, terms, kanji), plus an
// encounters collection for the reading pipeline, over an embedded
// SQLite database, with secondary indices on dictionaries.title and on
// terms.expression/terms.reading, matching spec.md §4.C's abstract
// transactional indexed key-value store. The schema and migration style
// mirror japaniel-readerer's pkg/db/db.go.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yomidict/yomidict/internal/deinflect"
	"github.com/yomidict/yomidict/internal/translator"
	"github.com/yomidict/yomidict/internal/yomierr"
)

//go:embed schema.sql
var schemaSQL string

// DBExecutor lets callers write code that works against either *sql.DB or
// *sql.Tx, mirroring japaniel-readerer's pkg/db.DBExecutor.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a handle on one dictionary database.
type Store struct {
	db *sql.DB
}

// Open opens or creates a database of the given name (a file path, or
// ":memory:" for a transient in-process store) and ensures the four
// dictionary collections, the encounters collection, and their indices
// exist. Idempotent on an existing database of the right schema.
func Open(name string) (*Store, error) {
	db, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "store.Open", err)
	}
	if name == ":memory:" {
		// Each pooled connection to ":memory:" is mattn/go-sqlite3's own
		// independent empty database, not a shared handle to the same one;
		// without a single-connection pool, concurrent goroutines (e.g.
		// lookupSentencesConcurrently's readers) would silently query
		// different, mostly-empty databases instead of erroring.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, yomierr.New(yomierr.StorageFailure, "store.Open", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, yomierr.New(yomierr.StorageFailure, "store.Open", fmt.Errorf("schema: %w", err))
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindTerms is the convenience wrapper spec.md §4.C.5 describes:
// equivalent to calling the translator with this store as its collaborator.
func (s *Store) FindTerms(ctx context.Context, text string, reasons *deinflect.Reasons) ([]translator.DictEntries, error) {
	return translator.GetGroupedTerms(ctx, text, reasons, s)
}
