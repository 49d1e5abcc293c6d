package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oghma/sparagne/ledger"
)

func TestNonMembersCannotProbeVaults(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, editorID))

	// Reads and writes alike answer not-found, never forbidden: an
	// outsider must not learn the vault exists.
	_, err := e.VaultSnapshot(ctx, editorID, vault.ID)
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)

	_, err = e.Income(ctx, editorID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "10"})
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
}

func TestViewerReadsButCannotWrite(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, viewerID))
	require.NoError(t, e.UpsertVaultMember(ctx, ownerID, vault.ID, viewerID, ledger.RoleViewer))

	_, err := e.VaultSnapshot(ctx, viewerID, vault.ID)
	require.NoError(t, err)

	_, err = e.Income(ctx, viewerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "10"})
	require.ErrorIs(t, err, ledger.ErrForbidden)

	// Promotion to editor unlocks writes.
	require.NoError(t, e.UpsertVaultMember(ctx, ownerID, vault.ID, viewerID, ledger.RoleEditor))
	_, err = e.Income(ctx, viewerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "10"})
	require.NoError(t, err)
}

func TestFlowScopedMembershipIsScoped(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, viewerID))

	created, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)
	require.NoError(t, e.UpsertFlowMember(ctx, ownerID, created.ID, viewerID, ledger.RoleViewer))

	// The grant opens the flow and its transactions.
	_, err = e.CashFlow(ctx, viewerID, created.ID)
	require.NoError(t, err)
	_, err = e.ListFlowTransactions(ctx, viewerID, created.ID, ledger.ListFilter{}, "")
	require.NoError(t, err)

	// Everything else in the vault stays invisible.
	_, err = e.VaultSnapshot(ctx, viewerID, vault.ID)
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
	unallocated := findFlow(t, e, vault.ID, ledger.UnallocatedFlowName)
	_, err = e.CashFlow(ctx, viewerID, unallocated.ID)
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
}

func TestTransactionFetchAnswersForbidden(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, viewerID))

	groceries, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)
	txn, err := e.Expense(ctx, ownerID, vault.ID, EntryCommand{
		Wallet: ByName("Cash"), Flow: ByName("Groceries"), Amount: "10",
	})
	require.NoError(t, err)

	// A transaction id is only ever obtained through a listing, so a
	// denial here is forbidden, not not-found.
	_, _, err = e.TransactionWithLegs(ctx, viewerID, txn.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	// A grant on the touched flow opens the transaction.
	require.NoError(t, e.UpsertFlowMember(ctx, ownerID, groceries.ID, viewerID, ledger.RoleViewer))
	fetched, legs, err := e.TransactionWithLegs(ctx, viewerID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, fetched.ID)
	assert.Len(t, legs, 2)
}

func TestOwnerOnlyOperations(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, editorID))
	require.NoError(t, e.UpsertVaultMember(ctx, ownerID, vault.ID, editorID, ledger.RoleEditor))

	err := e.DeleteVault(ctx, editorID, vault.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	err = e.UpsertVaultMember(ctx, editorID, vault.ID, viewerID, ledger.RoleViewer)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	err = e.RecomputeBalances(ctx, editorID, vault.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)
}

func TestMembershipRules(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	// Grants require a registered user.
	err := e.UpsertVaultMember(ctx, ownerID, vault.ID, "nobody", ledger.RoleViewer)
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)

	// The owner membership is fixed.
	err = e.UpsertVaultMember(ctx, ownerID, vault.ID, ownerID, ledger.RoleViewer)
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)
	err = e.RemoveVaultMember(ctx, ownerID, vault.ID, ownerID)
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)

	// A vault has a single owner.
	require.NoError(t, e.RegisterUser(ctx, editorID))
	err = e.UpsertVaultMember(ctx, ownerID, vault.ID, editorID, ledger.RoleOwner)
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)

	// The system flow cannot be shared on its own.
	unallocated := findFlow(t, e, vault.ID, ledger.UnallocatedFlowName)
	err = e.UpsertFlowMember(ctx, ownerID, unallocated.ID, editorID, ledger.RoleViewer)
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)

	// Revoking removes access again.
	require.NoError(t, e.UpsertVaultMember(ctx, ownerID, vault.ID, editorID, ledger.RoleViewer))
	members, err := e.ListVaultMembers(ctx, ownerID, vault.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, e.RemoveVaultMember(ctx, ownerID, vault.ID, editorID))
	_, err = e.VaultSnapshot(ctx, editorID, vault.ID)
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
}
