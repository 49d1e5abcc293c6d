/*
Package sqlite provides the SQLite persistence layer for the ledger.

PURPOSE:
  One file-backed (or in-memory) database holds everything: vaults,
  wallets, cash flows, the transaction log with its legs, and the
  membership tables. All engine operations run inside a single SQL
  transaction obtained through WithTx, so a cap violation on the last
  leg rolls back every balance already touched.

KEY TABLES:
  users         principals known to the engine (auth happens upstream)
  vaults        top-level containers, one currency each
  wallets       physical balances, unique name per vault
  cash_flows    budget buckets with the two-column cap encoding
  transactions  the economic events, never deleted (voiding stamps the row)
  legs          signed balance changes, two per transaction
  vault_members / flow_members  role grants

INVARIANTS ENFORCED HERE:
  - idempotency: unique index on (vault_id, created_by, idempotency_key)
  - name uniqueness: unique expression indexes on LOWER(name)
  - one system flow per vault: partial unique index
  - referential integrity with ON DELETE CASCADE, so deleting a vault
    removes its wallets, flows, transactions, legs and memberships

CONCURRENCY:
  A sync.Mutex serializes writers; SQLite runs in WAL mode so readers
  are unaffected. Amounts are INTEGER minor units, timestamps UTC
  RFC3339 TEXT (lexicographic order equals chronological order, which
  the keyset pagination queries rely on).

USAGE:
  store, err := sqlite.New("./sparagne.db")   // ":memory:" for tests
  defer store.Close()
  err = store.WithTx(ctx, func(tx *sqlite.Tx) error { ... })

SEE ALSO:
  - engine: composes these row operations into ledger operations
  - ledger: domain types and error taxonomy
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Oghma/sparagne/ledger"
)

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vaults (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL REFERENCES users(id),
		currency   TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_vaults_owner_name
		ON vaults(owner_id, LOWER(name));

	CREATE TABLE IF NOT EXISTS wallets (
		id         TEXT PRIMARY KEY,
		vault_id   TEXT NOT NULL REFERENCES vaults(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		balance    INTEGER NOT NULL DEFAULT 0,
		archived   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_wallets_vault_name
		ON wallets(vault_id, LOWER(name));

	CREATE TABLE IF NOT EXISTS cash_flows (
		id             TEXT PRIMARY KEY,
		vault_id       TEXT NOT NULL REFERENCES vaults(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		balance        INTEGER NOT NULL DEFAULT 0,
		max_balance    INTEGER,
		income_balance INTEGER,
		system         INTEGER NOT NULL DEFAULT 0,
		archived       INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_flows_vault_name
		ON cash_flows(vault_id, LOWER(name));

	-- Exactly one system (Unallocated) flow per vault
	CREATE UNIQUE INDEX IF NOT EXISTS idx_flows_system
		ON cash_flows(vault_id) WHERE system = 1;

	CREATE TABLE IF NOT EXISTS transactions (
		id              TEXT PRIMARY KEY,
		vault_id        TEXT NOT NULL REFERENCES vaults(id) ON DELETE CASCADE,
		kind            TEXT NOT NULL,
		amount          INTEGER NOT NULL,
		occurred_at     TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT '',
		note            TEXT NOT NULL DEFAULT '',
		created_by      TEXT NOT NULL,
		idempotency_key TEXT,
		voided_at       TEXT,
		voided_by       TEXT,
		created_at      TEXT NOT NULL
	);

	-- Idempotent creation: same caller + key in a vault maps to one row
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency
		ON transactions(vault_id, created_by, idempotency_key)
		WHERE idempotency_key IS NOT NULL;

	-- Keyset pagination hot path
	CREATE INDEX IF NOT EXISTS idx_transactions_vault_occurred
		ON transactions(vault_id, occurred_at DESC, id DESC);

	CREATE TABLE IF NOT EXISTS legs (
		id             TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		target_kind    TEXT NOT NULL,
		target_id      TEXT NOT NULL,
		amount         INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_legs_transaction
		ON legs(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_legs_target
		ON legs(target_kind, target_id);

	CREATE TABLE IF NOT EXISTS vault_members (
		vault_id   TEXT NOT NULL REFERENCES vaults(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id),
		role       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (vault_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS flow_members (
		flow_id    TEXT NOT NULL REFERENCES cash_flows(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id),
		role       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (flow_id, user_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION SCOPE
// =============================================================================

// Tx exposes the row-level operations inside one SQL transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction: commit on nil, rollback on error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullMoney(m *ledger.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}

func moneyPtr(n sql.NullInt64) *ledger.Money {
	if !n.Valid {
		return nil
	}
	m := ledger.Money(n.Int64)
	return &m
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
