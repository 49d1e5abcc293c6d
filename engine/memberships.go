/*
memberships.go - Sharing vaults and flows

PURPOSE:
  Owners grant roles on a whole vault or on a single flow. A flow grant
  lets someone see and (as editor) spend from one budget bucket without
  seeing the rest of the vault.

RULES:
  The grantee must be a registered user. The vault owner's membership
  is fixed: it cannot be removed or downgraded. The Unallocated system
  flow cannot be shared on its own.
*/
package engine

import (
	"context"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

func requireKnownUser(ctx context.Context, tx *sqlite.Tx, userID string) error {
	ok, err := tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user")
	}
	return nil
}

// UpsertVaultMember grants or changes a vault role. Owner only. The
// owner's own role cannot be touched.
func (e *Engine) UpsertVaultMember(ctx context.Context, userID string, vaultID ledger.VaultID, memberID string, role ledger.Role) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireVaultOwner(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		vault, err := tx.GetVault(ctx, vaultID)
		if err != nil {
			return err
		}
		if memberID == vault.OwnerID {
			return invalidf("owner membership cannot be changed")
		}
		if role == ledger.RoleOwner {
			return invalidf("a vault has a single owner")
		}
		if err := requireKnownUser(ctx, tx, memberID); err != nil {
			return err
		}
		return tx.UpsertVaultMember(ctx, vaultID, memberID, role)
	})
}

// RemoveVaultMember revokes a vault role. Owner only.
func (e *Engine) RemoveVaultMember(ctx context.Context, userID string, vaultID ledger.VaultID, memberID string) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireVaultOwner(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		vault, err := tx.GetVault(ctx, vaultID)
		if err != nil {
			return err
		}
		if memberID == vault.OwnerID {
			return invalidf("owner membership cannot be removed")
		}
		return tx.DeleteVaultMember(ctx, vaultID, memberID)
	})
}

// ListVaultMembers lists a vault's memberships. Any member may look.
func (e *Engine) ListVaultMembers(ctx context.Context, userID string, vaultID ledger.VaultID) ([]sqlite.Member, error) {
	var members []sqlite.Member
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultRead(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		var err error
		members, err = tx.ListVaultMembers(ctx, vaultID)
		return err
	})
	return members, err
}

// UpsertFlowMember grants or changes a flow-scoped role. Owner only.
func (e *Engine) UpsertFlowMember(ctx context.Context, userID string, flowID ledger.FlowID, memberID string, role ledger.Role) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireVaultOwner(ctx, tx, flow.VaultID, userID); err != nil {
			return err
		}
		if flow.System {
			return invalidf("system flow cannot be shared")
		}
		if role == ledger.RoleOwner {
			return invalidf("flow grants are viewer or editor")
		}
		if err := requireKnownUser(ctx, tx, memberID); err != nil {
			return err
		}
		return tx.UpsertFlowMember(ctx, flowID, memberID, role)
	})
}

// RemoveFlowMember revokes a flow-scoped role. Owner only.
func (e *Engine) RemoveFlowMember(ctx context.Context, userID string, flowID ledger.FlowID, memberID string) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireVaultOwner(ctx, tx, flow.VaultID, userID); err != nil {
			return err
		}
		return tx.DeleteFlowMember(ctx, flowID, memberID)
	})
}

// ListFlowMembers lists a flow's direct memberships.
func (e *Engine) ListFlowMembers(ctx context.Context, userID string, flowID ledger.FlowID) ([]sqlite.Member, error) {
	var members []sqlite.Member
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireFlowRead(ctx, tx, flow, userID); err != nil {
			return err
		}
		members, err = tx.ListFlowMembers(ctx, flowID)
		return err
	})
	return members, err
}
