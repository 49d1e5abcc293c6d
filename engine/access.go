/*
access.go - Role gate

PURPOSE:
  Every operation passes through here before touching data. Vault
  membership grants vault-wide access by role; a flow membership grants
  access scoped to that one flow for users who are not vault members.

VISIBILITY RULE:
  Missing objects and objects the caller may not read both surface
  ErrKeyNotFound, so a caller can never probe whether something exists.
  ErrForbidden is reserved for objects the caller can see but may not
  act on (a viewer trying to write, or a transaction whose targets sit
  outside the caller's flow grants).
*/
package engine

import (
	"context"
	"fmt"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ledger.ErrKeyNotFound, what)
}

func forbidden(action string) error {
	return fmt.Errorf("%w: %s", ledger.ErrForbidden, action)
}

// requireVaultRead admits any vault member.
func requireVaultRead(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID, userID string) (ledger.Role, error) {
	role, ok, err := tx.VaultRole(ctx, vaultID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", notFound("vault")
	}
	return role, nil
}

// requireVaultWrite admits editors and owners.
func requireVaultWrite(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID, userID string) (ledger.Role, error) {
	role, err := requireVaultRead(ctx, tx, vaultID, userID)
	if err != nil {
		return "", err
	}
	if !role.AtLeast(ledger.RoleEditor) {
		return "", forbidden("write access required")
	}
	return role, nil
}

// requireVaultOwner admits the owner role only.
func requireVaultOwner(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID, userID string) error {
	role, err := requireVaultRead(ctx, tx, vaultID, userID)
	if err != nil {
		return err
	}
	if role != ledger.RoleOwner {
		return forbidden("owner access required")
	}
	return nil
}

// requireFlowRead admits vault members and flow-scoped members.
func requireFlowRead(ctx context.Context, tx *sqlite.Tx, flow ledger.CashFlow, userID string) error {
	_, ok, err := tx.VaultRole(ctx, flow.VaultID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, ok, err = tx.FlowRole(ctx, flow.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("cash flow")
	}
	return nil
}

// requireFlowWrite admits vault editors/owners and flow-scoped editors.
func requireFlowWrite(ctx context.Context, tx *sqlite.Tx, flow ledger.CashFlow, userID string) error {
	role, ok, err := tx.VaultRole(ctx, flow.VaultID, userID)
	if err != nil {
		return err
	}
	if ok {
		if !role.AtLeast(ledger.RoleEditor) {
			return forbidden("write access required")
		}
		return nil
	}
	flowRole, ok, err := tx.FlowRole(ctx, flow.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("cash flow")
	}
	if !flowRole.AtLeast(ledger.RoleEditor) {
		return forbidden("write access required")
	}
	return nil
}

// requireTransactionRead gates direct transaction fetches. Unlike the
// other checks this one answers ErrForbidden to non-members: the
// transaction id was necessarily obtained through a listing, so its
// existence is already known to the caller.
func requireTransactionRead(ctx context.Context, tx *sqlite.Tx, txn ledger.Transaction, legs []ledger.Leg, userID string) error {
	_, ok, err := tx.VaultRole(ctx, txn.VaultID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	for _, leg := range legs {
		if leg.Target.Kind != ledger.TargetFlow {
			continue
		}
		_, ok, err := tx.FlowRole(ctx, leg.Target.ID, userID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return forbidden("transaction access")
}
