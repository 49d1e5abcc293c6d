/*
vaults.go - Vault lifecycle, snapshot and statistics

PURPOSE:
  A new vault is bootstrapped with its Unallocated system flow, a
  default Cash wallet and the owner membership, all in one store
  transaction. Deleting a vault cascades through the schema.
*/
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

// DefaultWalletName is the wallet every new vault starts with.
const DefaultWalletName = "Cash"

// VaultSnapshot is a vault with everything the caller may see in it.
type VaultSnapshot struct {
	Vault   ledger.Vault
	Wallets []ledger.Wallet
	Flows   []ledger.CashFlow
}

// VaultStatistics summarizes a vault's money at a glance.
type VaultStatistics struct {
	Currency     ledger.Currency
	TotalBalance ledger.Money // non-archived wallets
	TotalIncome  ledger.Money // non-voided income amounts
	NetExpenses  ledger.Money // non-voided expenses minus refunds
}

// RegisterUser makes a principal known to the engine so it can be
// granted memberships.
func (e *Engine) RegisterUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalidf("empty user id")
	}
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		return tx.EnsureUser(ctx, userID)
	})
}

// NewVault creates a vault with its system flow, default wallet and
// owner membership.
func (e *Engine) NewVault(ctx context.Context, userID, name, currencyCode string) (ledger.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Vault{}, invalidf("empty vault name")
	}
	currency, err := ledger.ParseCurrency(currencyCode)
	if err != nil {
		return ledger.Vault{}, err
	}

	now := time.Now().UTC()
	vault := ledger.Vault{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   userID,
		Currency:  currency,
		CreatedAt: now,
	}

	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := tx.EnsureUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.InsertVault(ctx, vault); err != nil {
			return err
		}
		system := ledger.CashFlow{
			ID:        uuid.New(),
			VaultID:   vault.ID,
			Name:      ledger.UnallocatedFlowName,
			Mode:      ledger.Unlimited(),
			System:    true,
			CreatedAt: now,
		}
		if err := tx.InsertFlow(ctx, system); err != nil {
			return err
		}
		wallet := ledger.Wallet{
			ID:        uuid.New(),
			VaultID:   vault.ID,
			Name:      DefaultWalletName,
			CreatedAt: now,
		}
		if err := tx.InsertWallet(ctx, wallet); err != nil {
			return err
		}
		return tx.UpsertVaultMember(ctx, vault.ID, userID, ledger.RoleOwner)
	})
	if err != nil {
		return ledger.Vault{}, err
	}
	return vault, nil
}

// DeleteVault removes a vault and everything in it. Owner only.
func (e *Engine) DeleteVault(ctx context.Context, userID string, vaultID ledger.VaultID) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireVaultOwner(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		return tx.DeleteVault(ctx, vaultID)
	})
}

// VaultByName resolves one of the caller's own vaults by name.
func (e *Engine) VaultByName(ctx context.Context, userID, name string) (ledger.Vault, error) {
	var vault ledger.Vault
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		vault, err = tx.FindVaultByName(ctx, userID, name)
		return err
	})
	return vault, err
}

// VaultSnapshot returns the vault with its wallets and flows.
func (e *Engine) VaultSnapshot(ctx context.Context, userID string, vaultID ledger.VaultID) (VaultSnapshot, error) {
	var snap VaultSnapshot
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultRead(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		var err error
		if snap.Vault, err = tx.GetVault(ctx, vaultID); err != nil {
			return err
		}
		if snap.Wallets, err = tx.ListWallets(ctx, vaultID); err != nil {
			return err
		}
		snap.Flows, err = tx.ListFlows(ctx, vaultID)
		return err
	})
	if err != nil {
		return VaultSnapshot{}, err
	}
	return snap, nil
}

// VaultStatistics aggregates balances and non-voided totals.
func (e *Engine) VaultStatistics(ctx context.Context, userID string, vaultID ledger.VaultID) (VaultStatistics, error) {
	var stats VaultStatistics
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultRead(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		vault, err := tx.GetVault(ctx, vaultID)
		if err != nil {
			return err
		}
		stats.Currency = vault.Currency
		if stats.TotalBalance, err = tx.SumWalletBalances(ctx, vaultID); err != nil {
			return err
		}
		totals, err := tx.SumTransactionAmounts(ctx, vaultID)
		if err != nil {
			return err
		}
		stats.TotalIncome = totals.Income
		net, err := totals.Expense.Sub(totals.Refund)
		if err != nil {
			return err
		}
		stats.NetExpenses = net
		return nil
	})
	if err != nil {
		return VaultStatistics{}, err
	}
	return stats, nil
}
