package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oghma/sparagne/ledger"
)

func seedEntries(t *testing.T, e *Engine, vaultID ledger.VaultID, n int) []ledger.Transaction {
	t.Helper()
	ctx := context.Background()
	txs := make([]ledger.Transaction, n)
	for i := 0; i < n; i++ {
		txn, err := e.Income(ctx, ownerID, vaultID, EntryCommand{
			Wallet:     ByName("Cash"),
			Amount:     "10.00",
			OccurredAt: time.Date(2026, 3, 1+i, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		txs[i] = txn
	}
	return txs
}

func TestVaultListingPaginates(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	seeded := seedEntries(t, e, vault.ID, 5)

	// Page one: the two newest, newest first.
	page1, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{Limit: 2}, "")
	require.NoError(t, err)
	require.Len(t, page1.Transactions, 2)
	assert.True(t, page1.HasMore)
	assert.Equal(t, seeded[4].ID, page1.Transactions[0].ID)
	assert.Equal(t, seeded[3].ID, page1.Transactions[1].ID)

	page2, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{Limit: 2}, page1.NextCursor)
	require.NoError(t, err)
	require.Len(t, page2.Transactions, 2)
	assert.True(t, page2.HasMore)

	page3, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{Limit: 2}, page2.NextCursor)
	require.NoError(t, err)
	require.Len(t, page3.Transactions, 1)
	assert.False(t, page3.HasMore)
	assert.Empty(t, page3.NextCursor)
	assert.Equal(t, seeded[0].ID, page3.Transactions[0].ID)
}

func TestCursorIsStableUnderInserts(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	seeded := seedEntries(t, e, vault.ID, 4)

	page1, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{Limit: 2}, "")
	require.NoError(t, err)

	// A newer transaction lands at the head of the log between pages.
	_, err = e.Income(ctx, ownerID, vault.ID, EntryCommand{
		Wallet:     ByName("Cash"),
		Amount:     "99.00",
		OccurredAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Page two picks up exactly where page one left off.
	page2, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{Limit: 2}, page1.NextCursor)
	require.NoError(t, err)
	require.Len(t, page2.Transactions, 2)
	assert.Equal(t, seeded[1].ID, page2.Transactions[0].ID)
	assert.Equal(t, seeded[0].ID, page2.Transactions[1].ID)
}

func TestListingFilters(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	_, err := e.NewWallet(ctx, ownerID, vault.ID, "Bank", "")
	require.NoError(t, err)

	_, err = e.Income(ctx, ownerID, vault.ID, EntryCommand{
		Wallet: ByName("Cash"), Amount: "100",
		OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	expense, err := e.Expense(ctx, ownerID, vault.ID, EntryCommand{
		Wallet: ByName("Cash"), Amount: "20",
		OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = e.TransferWallet(ctx, ownerID, vault.ID, TransferCommand{
		From: ByName("Cash"), To: ByName("Bank"), Amount: "30",
		OccurredAt: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Transfers are noise in a spending view: excluded by default.
	page, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{}, "")
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 2)

	page, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{IncludeTransfers: true}, "")
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 3)

	// Kind allow-list.
	page, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{
		Kinds: []ledger.TransactionKind{ledger.KindExpense},
	}, "")
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, expense.ID, page.Transactions[0].ID)

	// Time window: From inclusive, To exclusive.
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	page, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{From: &from, To: &to}, "")
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, expense.ID, page.Transactions[0].ID)

	// Voided transactions disappear unless asked for.
	_, err = e.VoidTransaction(ctx, ownerID, expense.ID)
	require.NoError(t, err)
	page, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{}, "")
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 1)
	page, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{IncludeVoided: true}, "")
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 2)
}

func TestTargetListingsCarrySignedAmounts(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	_, err := e.Income(ctx, ownerID, vault.ID, EntryCommand{
		Wallet: ByName("Cash"), Amount: "100",
		OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = e.Expense(ctx, ownerID, vault.ID, EntryCommand{
		Wallet: ByName("Cash"), Amount: "40",
		OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	wallet := findWallet(t, e, vault.ID, "Cash")
	page, err := e.ListWalletTransactions(ctx, ownerID, wallet.ID, ledger.ListFilter{}, "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, money(t, "-40"), page.Entries[0].Amount)
	assert.Equal(t, money(t, "100"), page.Entries[1].Amount)

	flow := findFlow(t, e, vault.ID, ledger.UnallocatedFlowName)
	flowPage, err := e.ListFlowTransactions(ctx, ownerID, flow.ID, ledger.ListFilter{}, "")
	require.NoError(t, err)
	require.Len(t, flowPage.Entries, 2)
}

func TestListingRejectsBadInput(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	_, err := e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{}, "not a cursor")
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{
		Kinds: []ledger.TransactionKind{},
	}, "")
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err = e.ListVaultTransactions(ctx, ownerID, vault.ID, ledger.ListFilter{From: &from, To: &from}, "")
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)
}
