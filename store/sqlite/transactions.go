/*
transactions.go - Transaction log and leg persistence

PURPOSE:
  Row operations for the transaction table, its legs, the idempotency
  re-select, and the keyset pagination queries. The engine composes
  these inside WithTx; nothing here does balance math.

PAGINATION:
  Listing orders by (occurred_at DESC, id DESC) and filters strictly
  past the cursor row, so a page boundary never skips or repeats rows
  when new transactions land at the head of the log.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
)

const txColumns = "tx.id, tx.vault_id, tx.kind, tx.amount, tx.occurred_at, tx.category, tx.note, tx.created_by, tx.idempotency_key, tx.voided_at, tx.voided_by, tx.created_at"

func scanTransaction(row interface{ Scan(...any) error }) (ledger.Transaction, error) {
	var (
		tx                 ledger.Transaction
		rawID, rawVault    string
		kind               string
		amount             int64
		occurredAt         string
		idempotencyKey     sql.NullString
		voidedAt, voidedBy sql.NullString
		createdAt          string
	)
	err := row.Scan(&rawID, &rawVault, &kind, &amount, &occurredAt,
		&tx.Category, &tx.Note, &tx.CreatedBy, &idempotencyKey, &voidedAt, &voidedBy, &createdAt)
	if err == sql.ErrNoRows {
		return ledger.Transaction{}, fmt.Errorf("%w: transaction", ledger.ErrKeyNotFound)
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx.ID, _ = uuid.Parse(rawID)
	tx.VaultID, _ = uuid.Parse(rawVault)
	tx.Kind = ledger.TransactionKind(kind)
	tx.Amount = ledger.Money(amount)
	tx.OccurredAt = parseTime(occurredAt)
	tx.IdempotencyKey = idempotencyKey.String
	if voidedAt.Valid {
		at := parseTime(voidedAt.String)
		tx.VoidedAt = &at
		tx.VoidedBy = voidedBy.String
	}
	tx.CreatedAt = parseTime(createdAt)
	return tx, nil
}

// InsertTransaction stores a transaction row. An idempotency-key
// collision maps to ErrExistingKey; the engine re-selects on it.
func (t *Tx) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, vault_id, kind, amount, occurred_at, category, note, created_by, idempotency_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.VaultID.String(), string(tx.Kind), int64(tx.Amount),
		formatTime(tx.OccurredAt), tx.Category, tx.Note, tx.CreatedBy,
		nullString(tx.IdempotencyKey), formatTime(tx.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: idempotency key", ledger.ErrExistingKey)
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction loads a transaction by id.
func (t *Tx) GetTransaction(ctx context.Context, id ledger.TransactionID) (ledger.Transaction, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions tx WHERE tx.id = ?", id.String())
	return scanTransaction(row)
}

// FindByIdempotencyKey returns the transaction a (vault, caller, key)
// triple already maps to, if any.
func (t *Tx) FindByIdempotencyKey(ctx context.Context, vaultID ledger.VaultID, createdBy, key string) (ledger.Transaction, bool, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions tx WHERE tx.vault_id = ? AND tx.created_by = ? AND tx.idempotency_key = ?",
		vaultID.String(), createdBy, key)
	tx, err := scanTransaction(row)
	if ledger.IsNotFound(err) {
		return ledger.Transaction{}, false, nil
	}
	if err != nil {
		return ledger.Transaction{}, false, err
	}
	return tx, true, nil
}

// SetTransactionVoided stamps a transaction with who voided it and
// when. Legs are left untouched as the audit record.
func (t *Tx) SetTransactionVoided(ctx context.Context, id ledger.TransactionID, voidedBy string, voidedAt time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE transactions SET voided_at = ?, voided_by = ? WHERE id = ?",
		formatTime(voidedAt), voidedBy, id.String())
	return err
}

// UpdateTransactionFields persists amended header fields.
func (t *Tx) UpdateTransactionFields(ctx context.Context, tx ledger.Transaction) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, occurred_at = ?, category = ?, note = ? WHERE id = ?",
		int64(tx.Amount), formatTime(tx.OccurredAt), tx.Category, tx.Note, tx.ID.String())
	return err
}

// =============================================================================
// LEGS
// =============================================================================

// InsertLeg stores one leg row.
func (t *Tx) InsertLeg(ctx context.Context, leg ledger.Leg) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO legs (id, transaction_id, target_kind, target_id, amount) VALUES (?, ?, ?, ?, ?)",
		leg.ID.String(), leg.TransactionID.String(),
		string(leg.Target.Kind), leg.Target.ID.String(), int64(leg.Amount))
	if err != nil {
		return fmt.Errorf("failed to insert leg: %w", err)
	}
	return nil
}

// LegsByTransaction returns a transaction's legs.
func (t *Tx) LegsByTransaction(ctx context.Context, txID ledger.TransactionID) ([]ledger.Leg, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT id, transaction_id, target_kind, target_id, amount FROM legs WHERE transaction_id = ? ORDER BY id",
		txID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list legs: %w", err)
	}
	defer rows.Close()
	return collectLegs(rows)
}

// UpdateLeg rewrites a leg's target and amount (amend path).
func (t *Tx) UpdateLeg(ctx context.Context, id ledger.LegID, target ledger.LegTarget, amount ledger.Money) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE legs SET target_kind = ?, target_id = ?, amount = ? WHERE id = ?",
		string(target.Kind), target.ID.String(), int64(amount), id.String())
	return err
}

// LegsChronological returns every leg of the vault's non-voided
// transactions in event order. Feed for balance recomputation.
func (t *Tx) LegsChronological(ctx context.Context, vaultID ledger.VaultID) ([]ledger.Leg, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT l.id, l.transaction_id, l.target_kind, l.target_id, l.amount
		 FROM legs l
		 JOIN transactions tx ON tx.id = l.transaction_id
		 WHERE tx.vault_id = ? AND tx.voided_at IS NULL
		 ORDER BY tx.occurred_at, tx.created_at, tx.id`,
		vaultID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load legs: %w", err)
	}
	defer rows.Close()
	return collectLegs(rows)
}

func collectLegs(rows *sql.Rows) ([]ledger.Leg, error) {
	var legs []ledger.Leg
	for rows.Next() {
		var (
			leg               ledger.Leg
			rawID, rawTx      string
			kind, rawTarget   string
			amount            int64
		)
		if err := rows.Scan(&rawID, &rawTx, &kind, &rawTarget, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan leg: %w", err)
		}
		leg.ID, _ = uuid.Parse(rawID)
		leg.TransactionID, _ = uuid.Parse(rawTx)
		leg.Target = ledger.LegTarget{Kind: ledger.TargetKind(kind)}
		leg.Target.ID, _ = uuid.Parse(rawTarget)
		leg.Amount = ledger.Money(amount)
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

// =============================================================================
// LISTING
// =============================================================================

// TargetEntry pairs a transaction with the signed amount of its leg on
// the listed wallet or flow.
type TargetEntry struct {
	Transaction ledger.Transaction
	LegAmount   ledger.Money
}

func listConditions(f ledger.ListFilter, cursor *ledger.Cursor) ([]string, []any) {
	var conds []string
	var args []any

	if !f.IncludeVoided {
		conds = append(conds, "tx.voided_at IS NULL")
	}
	if f.From != nil {
		conds = append(conds, "tx.occurred_at >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "tx.occurred_at < ?")
		args = append(args, formatTime(*f.To))
	}
	if f.Kinds != nil {
		placeholders := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conds = append(conds, "tx.kind IN ("+strings.Join(placeholders, ", ")+")")
	} else if !f.WantsTransfers() {
		conds = append(conds, "tx.kind NOT IN (?, ?)")
		args = append(args, string(ledger.KindTransferWallet), string(ledger.KindTransferFlow))
	}
	if cursor != nil {
		conds = append(conds, "(tx.occurred_at < ? OR (tx.occurred_at = ? AND tx.id < ?))")
		at := formatTime(cursor.OccurredAt)
		args = append(args, at, at, cursor.TransactionID.String())
	}
	return conds, args
}

// ListVaultPage returns up to limit vault transactions past the cursor.
func (t *Tx) ListVaultPage(ctx context.Context, vaultID ledger.VaultID, f ledger.ListFilter, cursor *ledger.Cursor, limit int) ([]ledger.Transaction, error) {
	conds, args := listConditions(f, cursor)
	query := "SELECT " + txColumns + " FROM transactions tx WHERE tx.vault_id = ?"
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY tx.occurred_at DESC, tx.id DESC LIMIT ?"

	all := append([]any{vaultID.String()}, args...)
	all = append(all, limit)

	rows, err := t.tx.QueryContext(ctx, query, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListTargetPage returns up to limit transactions touching one wallet
// or flow, each with its signed leg amount.
func (t *Tx) ListTargetPage(ctx context.Context, vaultID ledger.VaultID, target ledger.LegTarget, f ledger.ListFilter, cursor *ledger.Cursor, limit int) ([]TargetEntry, error) {
	conds, args := listConditions(f, cursor)
	query := "SELECT " + txColumns + `, l.amount
		FROM transactions tx
		JOIN legs l ON l.transaction_id = tx.id
		WHERE tx.vault_id = ? AND l.target_kind = ? AND l.target_id = ?`
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY tx.occurred_at DESC, tx.id DESC LIMIT ?"

	all := append([]any{vaultID.String(), string(target.Kind), target.ID.String()}, args...)
	all = append(all, limit)

	rows, err := t.tx.QueryContext(ctx, query, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var entries []TargetEntry
	for rows.Next() {
		var (
			e                  TargetEntry
			rawID, rawVault    string
			kind               string
			amount, legAmt     int64
			occurredAt         string
			idempotencyKey     sql.NullString
			voidedAt, voidedBy sql.NullString
			createdAt          string
		)
		err := rows.Scan(&rawID, &rawVault, &kind, &amount, &occurredAt,
			&e.Transaction.Category, &e.Transaction.Note, &e.Transaction.CreatedBy,
			&idempotencyKey, &voidedAt, &voidedBy, &createdAt, &legAmt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		e.Transaction.ID, _ = uuid.Parse(rawID)
		e.Transaction.VaultID, _ = uuid.Parse(rawVault)
		e.Transaction.Kind = ledger.TransactionKind(kind)
		e.Transaction.Amount = ledger.Money(amount)
		e.Transaction.OccurredAt = parseTime(occurredAt)
		e.Transaction.IdempotencyKey = idempotencyKey.String
		if voidedAt.Valid {
			at := parseTime(voidedAt.String)
			e.Transaction.VoidedAt = &at
			e.Transaction.VoidedBy = voidedBy.String
		}
		e.Transaction.CreatedAt = parseTime(createdAt)
		e.LegAmount = ledger.Money(legAmt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// STATISTICS
// =============================================================================

// KindTotals are per-kind sums over non-voided transactions.
type KindTotals struct {
	Income  ledger.Money
	Expense ledger.Money
	Refund  ledger.Money
}

// SumTransactionAmounts totals the non-voided transaction amounts per
// kind for a vault.
func (t *Tx) SumTransactionAmounts(ctx context.Context, vaultID ledger.VaultID) (KindTotals, error) {
	var income, expense, refund int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN kind = 'income' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN kind = 'refund' THEN amount END), 0)
		 FROM transactions WHERE vault_id = ? AND voided_at IS NULL`,
		vaultID.String(),
	).Scan(&income, &expense, &refund)
	if err != nil {
		return KindTotals{}, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return KindTotals{
		Income:  ledger.Money(income),
		Expense: ledger.Money(expense),
		Refund:  ledger.Money(refund),
	}, nil
}
