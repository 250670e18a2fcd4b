// Package sqlite persists the wallet ledger: accounts, the append-only
// transaction log, entitlements, and the priced-item catalog.
//
// SQLite is the sole transaction boundary of the system. Every settlement
// batch runs inside a single write transaction (the DSN requests immediate
// locking), so the read-check-write of concurrent batches is serialized by
// the database itself.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sqlite3 "modernc.org/sqlite"

	"github.com/notemarket/notemarket/internal/domain"
)

// DB wraps the SQLite connection used by all stores.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database under dir and runs all
// schema migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "notemarket.db")
	dsn := "file:" + path +
		"?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection avoids SQLITE_BUSY between our own pool members;
	// SQLite only supports one writer anyway.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying database.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS wallet_transactions (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT NOT NULL UNIQUE,
			account_id      TEXT NOT NULL REFERENCES accounts(id),
			direction       TEXT NOT NULL CHECK (direction IN ('CREDIT','DEBIT')),
			amount          INTEGER NOT NULL CHECK (amount >= 1),
			reason          TEXT NOT NULL,
			related_item    TEXT,
			related_account TEXT,
			created_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_tx_account ON wallet_transactions(account_id, seq DESC)`,

		`CREATE TABLE IF NOT EXISTS entitlements (
			account_id TEXT NOT NULL REFERENCES accounts(id),
			item_id    TEXT NOT NULL,
			item_kind  TEXT NOT NULL CHECK (item_kind IN ('note','book')),
			granted_at TEXT NOT NULL,
			PRIMARY KEY (account_id, item_id)
		)`,

		`CREATE TABLE IF NOT EXISTS notes (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			subject       TEXT NOT NULL,
			owner_account TEXT NOT NULL REFERENCES accounts(id),
			price         INTEGER NOT NULL DEFAULT 0 CHECK (price >= 0),
			is_premium    INTEGER NOT NULL DEFAULT 0,
			is_public     INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS reference_books (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			author         TEXT NOT NULL,
			subject        TEXT NOT NULL,
			price          INTEGER NOT NULL CHECK (price >= 0),
			is_active      INTEGER NOT NULL DEFAULT 1,
			purchase_count INTEGER NOT NULL DEFAULT 0
		)`,
	}
}

// classifyErr maps driver errors onto domain sentinels. SQLITE_BUSY and
// SQLITE_LOCKED mean the batch lost a race and may be retried; anything else
// from the driver is a storage failure.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case 5, 6: // SQLITE_BUSY, SQLITE_LOCKED
			return fmt.Errorf("%w: %v", domain.ErrLedgerConflict, err)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}
