// Package sqlite is an embedded store for status pages, used for local
// development and for service tests that need a real database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"statusboard/internal/domain/repositories"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS status_pages (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	subdomain TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS status_page_components (
	id TEXT PRIMARY KEY,
	status_page_id TEXT NOT NULL REFERENCES status_pages(id) ON DELETE CASCADE,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS status_page_component_groups (
	id TEXT PRIMARY KEY,
	status_page_id TEXT NOT NULL REFERENCES status_pages(id) ON DELETE CASCADE,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS status_page_items (
	id TEXT PRIMARY KEY,
	status_page_id TEXT NOT NULL REFERENCES status_pages(id) ON DELETE CASCADE,
	parent_item_id TEXT REFERENCES status_page_items(id) ON DELETE CASCADE,
	rank INTEGER NOT NULL DEFAULT 0,
	component_id TEXT REFERENCES status_page_components(id) ON DELETE CASCADE,
	component_group_id TEXT REFERENCES status_page_component_groups(id) ON DELETE CASCADE,
	CHECK ((component_id IS NULL) <> (component_group_id IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_status_page_items_page_parent ON status_page_items(status_page_id, parent_item_id, rank);
`

// Open opens (creating if needed) a SQLite database and applies the schema.
// dsn is a path or a modernc.org/sqlite URI such as "file::memory:".
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: writes are serialized and in-memory databases stay shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := RunSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TransactionManager runs functions inside a SQLite transaction
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *sql.DB) repositories.TransactionManager {
	return &TransactionManager{db: db}
}

// ExecTx executes a function within a transaction.
// Calls nested inside an existing transaction join it.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if _, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation matches UNIQUE constraints only, not primary keys
func isUniqueViolation(err error) bool {
	return errorCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func isForeignKeyViolation(err error) bool {
	return errorCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func errorCode(err error) int {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

// DropAllTables drops the status page tables, dependents first
func DropAllTables(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"status_page_items", "status_page_component_groups", "status_page_components", "status_pages"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// RunSchema creates the status page tables if they don't exist
func RunSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

// ClearData deletes every status page; components, groups and items cascade
func ClearData(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM status_pages"); err != nil {
		return fmt.Errorf("clear status pages: %w", err)
	}
	return nil
}
