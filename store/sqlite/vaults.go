package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
)

// =============================================================================
// USERS
// =============================================================================

// EnsureUser registers a principal if it is not known yet.
func (t *Tx) EnsureUser(ctx context.Context, userID string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING",
		userID, formatTime(time.Now()),
	)
	return err
}

// UserExists reports whether a principal has been registered.
func (t *Tx) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ?", userID,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// VAULTS
// =============================================================================

// InsertVault stores a new vault. A duplicate name for the owner
// (case-insensitive) maps to ErrExistingKey.
func (t *Tx) InsertVault(ctx context.Context, v ledger.Vault) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO vaults (id, name, owner_id, currency, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.ID.String(), v.Name, v.OwnerID, string(v.Currency), formatTime(v.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: vault %q", ledger.ErrExistingKey, v.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert vault: %w", err)
	}
	return nil
}

// GetVault loads a vault by id.
func (t *Tx) GetVault(ctx context.Context, id ledger.VaultID) (ledger.Vault, error) {
	var (
		v                 ledger.Vault
		rawID, currency   string
		createdAt         string
	)
	err := t.tx.QueryRowContext(ctx,
		"SELECT id, name, owner_id, currency, created_at FROM vaults WHERE id = ?",
		id.String(),
	).Scan(&rawID, &v.Name, &v.OwnerID, &currency, &createdAt)
	if err == sql.ErrNoRows {
		return ledger.Vault{}, fmt.Errorf("%w: vault", ledger.ErrKeyNotFound)
	}
	if err != nil {
		return ledger.Vault{}, fmt.Errorf("failed to get vault: %w", err)
	}
	v.ID, _ = uuid.Parse(rawID)
	v.Currency = ledger.Currency(currency)
	v.CreatedAt = parseTime(createdAt)
	return v, nil
}

// FindVaultByName resolves a vault by owner and case-insensitive name.
func (t *Tx) FindVaultByName(ctx context.Context, ownerID, name string) (ledger.Vault, error) {
	var rawID string
	err := t.tx.QueryRowContext(ctx,
		"SELECT id FROM vaults WHERE owner_id = ? AND LOWER(name) = LOWER(?)",
		ownerID, name,
	).Scan(&rawID)
	if err == sql.ErrNoRows {
		return ledger.Vault{}, fmt.Errorf("%w: vault %q", ledger.ErrKeyNotFound, name)
	}
	if err != nil {
		return ledger.Vault{}, fmt.Errorf("failed to find vault: %w", err)
	}
	id, _ := uuid.Parse(rawID)
	return t.GetVault(ctx, id)
}

// DeleteVault removes a vault; the schema cascades to everything in it.
func (t *Tx) DeleteVault(ctx context.Context, id ledger.VaultID) error {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM vaults WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete vault: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: vault", ledger.ErrKeyNotFound)
	}
	return nil
}
