package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
)

const walletColumns = "id, vault_id, name, balance, archived, created_at"

func scanWallet(row interface{ Scan(...any) error }) (ledger.Wallet, error) {
	var (
		w                ledger.Wallet
		rawID, rawVault  string
		balance          int64
		createdAt        string
	)
	err := row.Scan(&rawID, &rawVault, &w.Name, &balance, &w.Archived, &createdAt)
	if err == sql.ErrNoRows {
		return ledger.Wallet{}, fmt.Errorf("%w: wallet", ledger.ErrKeyNotFound)
	}
	if err != nil {
		return ledger.Wallet{}, fmt.Errorf("failed to scan wallet: %w", err)
	}
	w.ID, _ = uuid.Parse(rawID)
	w.VaultID, _ = uuid.Parse(rawVault)
	w.Balance = ledger.Money(balance)
	w.CreatedAt = parseTime(createdAt)
	return w, nil
}

// InsertWallet stores a new wallet. A duplicate name in the vault maps
// to ErrExistingKey.
func (t *Tx) InsertWallet(ctx context.Context, w ledger.Wallet) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallets (id, vault_id, name, balance, archived, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.VaultID.String(), w.Name, int64(w.Balance), w.Archived, formatTime(w.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: wallet %q", ledger.ErrExistingKey, w.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

// GetWallet loads a wallet by id.
func (t *Tx) GetWallet(ctx context.Context, id ledger.WalletID) (ledger.Wallet, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE id = ?", id.String())
	return scanWallet(row)
}

// FindWalletByName resolves a wallet by vault and case-insensitive name.
func (t *Tx) FindWalletByName(ctx context.Context, vaultID ledger.VaultID, name string) (ledger.Wallet, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE vault_id = ? AND LOWER(name) = LOWER(?)",
		vaultID.String(), name)
	w, err := scanWallet(row)
	if ledger.IsNotFound(err) {
		return ledger.Wallet{}, fmt.Errorf("%w: wallet %q", ledger.ErrKeyNotFound, name)
	}
	return w, err
}

// ListWallets returns every wallet in a vault, name order.
func (t *Tx) ListWallets(ctx context.Context, vaultID ledger.VaultID) ([]ledger.Wallet, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE vault_id = ? ORDER BY LOWER(name)",
		vaultID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []ledger.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// UpdateWalletName renames a wallet; collisions map to ErrExistingKey.
func (t *Tx) UpdateWalletName(ctx context.Context, id ledger.WalletID, name string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE wallets SET name = ? WHERE id = ?", name, id.String())
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: wallet %q", ledger.ErrExistingKey, name)
	}
	return err
}

// SetWalletArchived toggles the archived flag.
func (t *Tx) SetWalletArchived(ctx context.Context, id ledger.WalletID, archived bool) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE wallets SET archived = ? WHERE id = ?", archived, id.String())
	return err
}

// UpdateWalletBalance persists a previewed balance.
func (t *Tx) UpdateWalletBalance(ctx context.Context, id ledger.WalletID, balance ledger.Money) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE wallets SET balance = ? WHERE id = ?", int64(balance), id.String())
	return err
}

// SumWalletBalances totals the non-archived wallet balances of a vault.
func (t *Tx) SumWalletBalances(ctx context.Context, vaultID ledger.VaultID) (ledger.Money, error) {
	var total int64
	err := t.tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(balance), 0) FROM wallets WHERE vault_id = ? AND archived = 0",
		vaultID.String(),
	).Scan(&total)
	return ledger.Money(total), err
}
