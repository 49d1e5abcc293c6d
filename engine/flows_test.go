package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oghma/sparagne/ledger"
)

func TestNewCashFlowStartingBalanceComesFromUnallocated(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	_, err := e.Income(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Amount: "100"})
	require.NoError(t, err)

	flow, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{
		Name:            "Groceries",
		StartingBalance: "25.00",
	})
	require.NoError(t, err)
	assert.Equal(t, money(t, "25.00"), flow.Balance)

	// The seed is a real flow transfer, so earmarked money is conserved.
	assert.Equal(t, money(t, "75.00"), findFlow(t, e, vault.ID, ledger.UnallocatedFlowName).Balance)
	page, err := e.ListFlowTransactions(ctx, ownerID, flow.ID, ledger.ListFilter{IncludeTransfers: true}, "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, ledger.KindTransferFlow, page.Entries[0].Transaction.Kind)
	assert.Equal(t, OpeningCategory, page.Entries[0].Transaction.Category)
}

func TestNewCashFlowValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  FlowCommand
		want error
	}{
		{"empty name", FlowCommand{Name: "  "}, ledger.ErrInvalidFlow},
		{"reserved name", FlowCommand{Name: "unallocated"}, ledger.ErrInvalidFlow},
		{"income total without cap", FlowCommand{Name: "A", IncomeTotal: ptr("10")}, ledger.ErrInvalidFlow},
		{"zero cap", FlowCommand{Name: "A", MaxBalance: ptr("0")}, ledger.ErrInvalidFlow},
		{"income total over cap", FlowCommand{Name: "A", MaxBalance: ptr("10"), IncomeTotal: ptr("20")}, ledger.ErrInvalidFlow},
		{"negative starting balance", FlowCommand{Name: "A", StartingBalance: "-5"}, ledger.ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.NewCashFlow(ctx, ownerID, vault.ID, tc.cmd)
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)
	_, err = e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "groceries"})
	require.ErrorIs(t, err, ledger.ErrExistingKey)
}

func TestSystemFlowIsProtected(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()
	unallocated := findFlow(t, e, vault.ID, ledger.UnallocatedFlowName)

	require.ErrorIs(t, e.RenameCashFlow(ctx, ownerID, unallocated.ID, "Misc"), ledger.ErrInvalidFlow)
	require.ErrorIs(t, e.SetCashFlowArchived(ctx, ownerID, unallocated.ID, true), ledger.ErrInvalidFlow)
	require.ErrorIs(t, e.DeleteCashFlow(ctx, ownerID, unallocated.ID), ledger.ErrInvalidFlow)
	_, err := e.SetCashFlowMode(ctx, ownerID, unallocated.ID, ModeCommand{MaxBalance: ptr("10")})
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)
}

func TestSetCashFlowModeChecksCurrentState(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	flow, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)
	_, err = e.Income(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Flow: ByName("Groceries"), Amount: "60"})
	require.NoError(t, err)
	_, err = e.Expense(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Flow: ByName("Groceries"), Amount: "20"})
	require.NoError(t, err)

	// Balance is 40, lifetime income 60.

	// A plain cap below the current balance is rejected.
	_, err = e.SetCashFlowMode(ctx, ownerID, flow.ID, ModeCommand{MaxBalance: ptr("30")})
	require.ErrorIs(t, err, ledger.ErrMaxBalanceReached)

	capped, err := e.SetCashFlowMode(ctx, ownerID, flow.ID, ModeCommand{MaxBalance: ptr("40")})
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeCapped, capped.Mode.Kind)

	// An income cap below the recomputed lifetime income is rejected.
	_, err = e.SetCashFlowMode(ctx, ownerID, flow.ID, ModeCommand{MaxBalance: ptr("50"), IncomeCapped: true})
	require.ErrorIs(t, err, ledger.ErrMaxBalanceReached)

	incomeCapped, err := e.SetCashFlowMode(ctx, ownerID, flow.ID, ModeCommand{MaxBalance: ptr("60"), IncomeCapped: true})
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeIncomeCapped, incomeCapped.Mode.Kind)
	assert.Equal(t, money(t, "60"), incomeCapped.IncomeTotal)

	// The recomputed total now gates further income.
	_, err = e.Income(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Flow: ByName("Groceries"), Amount: "1"})
	require.ErrorIs(t, err, ledger.ErrMaxBalanceReached)

	// Back to unlimited clears the cap state.
	unlimited, err := e.SetCashFlowMode(ctx, ownerID, flow.ID, ModeCommand{})
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeUnlimited, unlimited.Mode.Kind)
	assert.True(t, unlimited.IncomeTotal.IsZero())
}

func TestDeleteCashFlowRequiresZeroBalance(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	flow, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)
	_, err = e.Income(ctx, ownerID, vault.ID, EntryCommand{Wallet: ByName("Cash"), Flow: ByName("Groceries"), Amount: "10"})
	require.NoError(t, err)

	require.ErrorIs(t, e.DeleteCashFlow(ctx, ownerID, flow.ID), ledger.ErrInvalidFlow)

	// Emptying the flow back into Unallocated unlocks deletion.
	_, err = e.TransferFlow(ctx, ownerID, vault.ID, TransferCommand{
		From: ByName("Groceries"), To: ByName(ledger.UnallocatedFlowName), Amount: "10",
	})
	require.NoError(t, err)
	require.NoError(t, e.DeleteCashFlow(ctx, ownerID, flow.ID))

	_, err = e.CashFlowByName(ctx, ownerID, vault.ID, "Groceries")
	require.ErrorIs(t, err, ledger.ErrKeyNotFound)
}

func TestRenameCashFlow(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	flow, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)

	require.ErrorIs(t, e.RenameCashFlow(ctx, ownerID, flow.ID, "Unallocated"), ledger.ErrInvalidFlow)
	require.NoError(t, e.RenameCashFlow(ctx, ownerID, flow.ID, "Food"))

	renamed, err := e.CashFlowByName(ctx, ownerID, vault.ID, "food")
	require.NoError(t, err)
	assert.Equal(t, flow.ID, renamed.ID)
}

func TestArchivedFlowRejectsNewLegs(t *testing.T) {
	e, _ := newTestEngine(t)
	vault := newTestVault(t, e)
	ctx := context.Background()

	flow, err := e.NewCashFlow(ctx, ownerID, vault.ID, FlowCommand{Name: "Groceries"})
	require.NoError(t, err)
	require.NoError(t, e.SetCashFlowArchived(ctx, ownerID, flow.ID, true))

	_, err = e.Income(ctx, ownerID, vault.ID, EntryCommand{
		Wallet: ByName("Cash"), Flow: ByID(flow.ID), Amount: "10",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidFlow)
}
