package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

func TestNewVaultBootstrap(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	snap, err := e.VaultSnapshot(ctx, ownerID, vault.ID)
	require.NoError(t, err)

	require.Len(t, snap.Wallets, 1)
	assert.Equal(t, DefaultWalletName, snap.Wallets[0].Name)
	assert.True(t, snap.Wallets[0].Balance.IsZero())

	require.Len(t, snap.Flows, 1)
	assert.Equal(t, ledger.UnallocatedFlowName, snap.Flows[0].Name)
	assert.True(t, snap.Flows[0].System)
	assert.Equal(t, ledger.ModeUnlimited, snap.Flows[0].Mode.Kind)

	members, err := e.ListVaultMembers(ctx, ownerID, vault.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, ledger.RoleOwner, members[0].Role)
}

func TestNewVaultValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, ownerID))

	_, err := e.NewVault(ctx, ownerID, "  ", "EUR")
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)

	_, err = e.NewVault(ctx, ownerID, "Household", "USD")
	require.ErrorIs(t, err, ledger.ErrCurrencyMismatch)

	_, err = e.NewVault(ctx, ownerID, "Household", "EUR")
	require.NoError(t, err)

	// Vault names are unique per owner, case-insensitively.
	_, err = e.NewVault(ctx, ownerID, "household", "EUR")
	require.ErrorIs(t, err, ledger.ErrExistingKey)
}

func TestVaultByName(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	found, err := e.VaultByName(ctx, ownerID, "household")
	require.NoError(t, err)
	assert.Equal(t, vault.ID, found.ID)

	_, err = e.VaultByName(ctx, ownerID, "missing")
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
}

func TestDeleteVaultCascades(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	_, err := e.Income(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "10"})
	require.NoError(t, err)

	require.NoError(t, e.DeleteVault(ctx, ownerID, vault.ID))

	_, err = e.VaultSnapshot(ctx, ownerID, vault.ID)
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
}

func TestWalletOpeningBalanceIsATransaction(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	wallet, err := e.NewWallet(ctx, ownerID, vault.ID, "Bank", "250.00")
	require.NoError(t, err)
	assert.Equal(t, money(t, "250.00"), wallet.Balance)

	// The seed money shows up in the flow side and in the log.
	assert.Equal(t, money(t, "250.00"), findFlow(t, e, vault.ID, ledger.UnallocatedFlowName).Balance)
	page, err := e.ListWalletTransactions(ctx, ownerID, wallet.ID, ledger.ListFilter{}, "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, ledger.KindIncome, page.Entries[0].Transaction.Kind)
	assert.Equal(t, OpeningCategory, page.Entries[0].Transaction.Category)

	// A negative opening balance is an opening expense.
	overdrawn, err := e.NewWallet(ctx, ownerID, vault.ID, "Credit", "-100.00")
	require.NoError(t, err)
	assert.Equal(t, money(t, "-100.00"), overdrawn.Balance)

	// Duplicate wallet names collide case-insensitively.
	_, err = e.NewWallet(ctx, ownerID, vault.ID, "bank", "")
	require.ErrorIs(t, err, ledger.ErrExistingKey)
}

func TestRecomputeBalancesRepairsTheCache(t *testing.T) {
	e, store := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	_, err := e.Income(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "100"})
	require.NoError(t, err)
	_, err = e.Expense(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "30"})
	require.NoError(t, err)

	wallet := findWallet(t, e, vault.ID, "Cash")

	// Corrupt the cached balance behind the engine's back.
	err = store.WithTx(ctx, func(tx *sqlite.Tx) error {
		return tx.UpdateWalletBalance(ctx, wallet.ID, money(t, "9999"))
	})
	require.NoError(t, err)
	assert.Equal(t, money(t, "9999"), findWallet(t, e, vault.ID, "Cash").Balance)

	require.NoError(t, e.RecomputeBalances(ctx, ownerID, vault.ID))

	assert.Equal(t, money(t, "70"), findWallet(t, e, vault.ID, "Cash").Balance)
	assert.Equal(t, money(t, "70"), findFlow(t, e, vault.ID, ledger.UnallocatedFlowName).Balance)
}
