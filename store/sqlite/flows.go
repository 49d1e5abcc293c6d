package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
)

const flowColumns = "id, vault_id, name, balance, max_balance, income_balance, system, archived, created_at"

func scanFlow(row interface{ Scan(...any) error }) (ledger.CashFlow, error) {
	var (
		f               ledger.CashFlow
		rawID, rawVault string
		balance         int64
		max, income     sql.NullInt64
		createdAt       string
	)
	err := row.Scan(&rawID, &rawVault, &f.Name, &balance, &max, &income, &f.System, &f.Archived, &createdAt)
	if err == sql.ErrNoRows {
		return ledger.CashFlow{}, fmt.Errorf("%w: cash flow", ledger.ErrKeyNotFound)
	}
	if err != nil {
		return ledger.CashFlow{}, fmt.Errorf("failed to scan cash flow: %w", err)
	}
	f.ID, _ = uuid.Parse(rawID)
	f.VaultID, _ = uuid.Parse(rawVault)
	f.Balance = ledger.Money(balance)
	f.CreatedAt = parseTime(createdAt)

	mode, total, err := ledger.ParseMode(moneyPtr(max), moneyPtr(income))
	if err != nil {
		return ledger.CashFlow{}, err
	}
	f.Mode = mode
	f.IncomeTotal = total
	return f, nil
}

// InsertFlow stores a new cash flow. A duplicate name in the vault maps
// to ErrExistingKey.
func (t *Tx) InsertFlow(ctx context.Context, f ledger.CashFlow) error {
	max, income := f.Mode.Encode(f.IncomeTotal)
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO cash_flows (id, vault_id, name, balance, max_balance, income_balance, system, archived, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID.String(), f.VaultID.String(), f.Name, int64(f.Balance),
		nullMoney(max), nullMoney(income), f.System, f.Archived, formatTime(f.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: cash flow %q", ledger.ErrExistingKey, f.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert cash flow: %w", err)
	}
	return nil
}

// GetFlow loads a cash flow by id.
func (t *Tx) GetFlow(ctx context.Context, id ledger.FlowID) (ledger.CashFlow, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+flowColumns+" FROM cash_flows WHERE id = ?", id.String())
	return scanFlow(row)
}

// FindFlowByName resolves a flow by vault and case-insensitive name.
func (t *Tx) FindFlowByName(ctx context.Context, vaultID ledger.VaultID, name string) (ledger.CashFlow, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+flowColumns+" FROM cash_flows WHERE vault_id = ? AND LOWER(name) = LOWER(?)",
		vaultID.String(), name)
	f, err := scanFlow(row)
	if ledger.IsNotFound(err) {
		return ledger.CashFlow{}, fmt.Errorf("%w: cash flow %q", ledger.ErrKeyNotFound, name)
	}
	return f, err
}

// SystemFlow returns the vault's Unallocated flow.
func (t *Tx) SystemFlow(ctx context.Context, vaultID ledger.VaultID) (ledger.CashFlow, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+flowColumns+" FROM cash_flows WHERE vault_id = ? AND system = 1",
		vaultID.String())
	return scanFlow(row)
}

// ListFlows returns every cash flow in a vault, system flow first.
func (t *Tx) ListFlows(ctx context.Context, vaultID ledger.VaultID) ([]ledger.CashFlow, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT "+flowColumns+" FROM cash_flows WHERE vault_id = ? ORDER BY system DESC, LOWER(name)",
		vaultID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list cash flows: %w", err)
	}
	defer rows.Close()

	var flows []ledger.CashFlow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

// UpdateFlowName renames a flow; collisions map to ErrExistingKey.
func (t *Tx) UpdateFlowName(ctx context.Context, id ledger.FlowID, name string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE cash_flows SET name = ? WHERE id = ?", name, id.String())
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: cash flow %q", ledger.ErrExistingKey, name)
	}
	return err
}

// SetFlowArchived toggles the archived flag.
func (t *Tx) SetFlowArchived(ctx context.Context, id ledger.FlowID, archived bool) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE cash_flows SET archived = ? WHERE id = ?", archived, id.String())
	return err
}

// SaveFlowState persists a flow's balance and cap columns after a
// previewed change.
func (t *Tx) SaveFlowState(ctx context.Context, f ledger.CashFlow) error {
	max, income := f.Mode.Encode(f.IncomeTotal)
	_, err := t.tx.ExecContext(ctx,
		"UPDATE cash_flows SET balance = ?, max_balance = ?, income_balance = ? WHERE id = ?",
		int64(f.Balance), nullMoney(max), nullMoney(income), f.ID.String())
	return err
}

// DeleteFlow removes a cash flow.
func (t *Tx) DeleteFlow(ctx context.Context, id ledger.FlowID) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM cash_flows WHERE id = ?", id.String())
	return err
}

// SumPositiveFlowLegs totals the positive non-voided legs pointing at a
// flow. Used when a flow switches to income-capped mode.
func (t *Tx) SumPositiveFlowLegs(ctx context.Context, id ledger.FlowID) (ledger.Money, error) {
	var total int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(l.amount), 0)
		 FROM legs l
		 JOIN transactions tx ON tx.id = l.transaction_id
		 WHERE l.target_kind = ? AND l.target_id = ? AND l.amount > 0 AND tx.voided_at IS NULL`,
		string(ledger.TargetFlow), id.String(),
	).Scan(&total)
	return ledger.Money(total), err
}
