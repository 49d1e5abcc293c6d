package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Oghma/sparagne/ledger"
)

// Member is a role grant on a vault or a flow.
type Member struct {
	UserID    string
	Role      ledger.Role
	CreatedAt time.Time
}

// =============================================================================
// VAULT MEMBERS
// =============================================================================

// UpsertVaultMember creates or updates a vault role grant.
func (t *Tx) UpsertVaultMember(ctx context.Context, vaultID ledger.VaultID, userID string, role ledger.Role) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO vault_members (vault_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(vault_id, user_id) DO UPDATE SET role = excluded.role`,
		vaultID.String(), userID, string(role), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vault member: %w", err)
	}
	return nil
}

// VaultRole returns the caller's role on a vault, if any.
func (t *Tx) VaultRole(ctx context.Context, vaultID ledger.VaultID, userID string) (ledger.Role, bool, error) {
	var role string
	err := t.tx.QueryRowContext(ctx,
		"SELECT role FROM vault_members WHERE vault_id = ? AND user_id = ?",
		vaultID.String(), userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get vault role: %w", err)
	}
	return ledger.Role(role), true, nil
}

// DeleteVaultMember removes a vault role grant.
func (t *Tx) DeleteVaultMember(ctx context.Context, vaultID ledger.VaultID, userID string) error {
	res, err := t.tx.ExecContext(ctx,
		"DELETE FROM vault_members WHERE vault_id = ? AND user_id = ?",
		vaultID.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete vault member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: membership", ledger.ErrKeyNotFound)
	}
	return nil
}

// ListVaultMembers returns every role grant on a vault.
func (t *Tx) ListVaultMembers(ctx context.Context, vaultID ledger.VaultID) ([]Member, error) {
	return t.queryMembers(ctx,
		"SELECT user_id, role, created_at FROM vault_members WHERE vault_id = ? ORDER BY user_id",
		vaultID.String())
}

// =============================================================================
// FLOW MEMBERS
// =============================================================================

// UpsertFlowMember creates or updates a flow-scoped role grant.
func (t *Tx) UpsertFlowMember(ctx context.Context, flowID ledger.FlowID, userID string, role ledger.Role) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO flow_members (flow_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(flow_id, user_id) DO UPDATE SET role = excluded.role`,
		flowID.String(), userID, string(role), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert flow member: %w", err)
	}
	return nil
}

// FlowRole returns the caller's flow-scoped role, if any.
func (t *Tx) FlowRole(ctx context.Context, flowID ledger.FlowID, userID string) (ledger.Role, bool, error) {
	var role string
	err := t.tx.QueryRowContext(ctx,
		"SELECT role FROM flow_members WHERE flow_id = ? AND user_id = ?",
		flowID.String(), userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get flow role: %w", err)
	}
	return ledger.Role(role), true, nil
}

// DeleteFlowMember removes a flow role grant.
func (t *Tx) DeleteFlowMember(ctx context.Context, flowID ledger.FlowID, userID string) error {
	res, err := t.tx.ExecContext(ctx,
		"DELETE FROM flow_members WHERE flow_id = ? AND user_id = ?",
		flowID.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete flow member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: membership", ledger.ErrKeyNotFound)
	}
	return nil
}

// ListFlowMembers returns every role grant on a flow.
func (t *Tx) ListFlowMembers(ctx context.Context, flowID ledger.FlowID) ([]Member, error) {
	return t.queryMembers(ctx,
		"SELECT user_id, role, created_at FROM flow_members WHERE flow_id = ? ORDER BY user_id",
		flowID.String())
}

func (t *Tx) queryMembers(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var role, createdAt string
		if err := rows.Scan(&m.UserID, &role, &createdAt); err != nil {
			return nil, err
		}
		m.Role = ledger.Role(role)
		m.CreatedAt = parseTime(createdAt)
		members = append(members, m)
	}
	return members, rows.Err()
}
