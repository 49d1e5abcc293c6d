package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTx(kind TransactionKind, amount Money) Transaction {
	return Transaction{ID: uuid.New(), VaultID: uuid.New(), Kind: kind, Amount: amount}
}

func TestNewFlowWalletLegs(t *testing.T) {
	wallet, flow := uuid.New(), uuid.New()

	for _, tc := range []struct {
		kind   TransactionKind
		signed Money
	}{
		{KindIncome, 1250},
		{KindRefund, 1250},
		{KindExpense, -1250},
	} {
		tx := newTestTx(tc.kind, 1250)
		legs, err := NewFlowWalletLegs(tx.ID, tc.kind, 1250, wallet, flow)
		require.NoError(t, err)
		require.Len(t, legs, 2)
		assert.Equal(t, WalletTarget(wallet), legs[0].Target)
		assert.Equal(t, FlowTarget(flow), legs[1].Target)
		for _, leg := range legs {
			assert.Equal(t, tc.signed, leg.Amount)
		}
		assert.NoError(t, ValidateLegs(tx, legs))
	}

	// Transfers have no single signed amount.
	_, err := NewFlowWalletLegs(uuid.New(), KindTransferWallet, 100, wallet, flow)
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestNewTransferLegs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tx := newTestTx(KindTransferWallet, 500)

	legs, err := NewTransferLegs(tx.ID, KindTransferWallet, 500, WalletTarget(a), WalletTarget(b))
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, Money(-500), legs[0].Amount)
	assert.Equal(t, Money(500), legs[1].Amount)
	assert.NoError(t, ValidateLegs(tx, legs))

	// Same source and destination is rejected.
	_, err = NewTransferLegs(tx.ID, KindTransferWallet, 500, WalletTarget(a), WalletTarget(a))
	assert.ErrorIs(t, err, ErrInvalidFlow)

	// Target type must match the kind.
	_, err = NewTransferLegs(tx.ID, KindTransferWallet, 500, FlowTarget(a), FlowTarget(b))
	assert.ErrorIs(t, err, ErrInvalidFlow)
	_, err = NewTransferLegs(tx.ID, KindTransferFlow, 500, WalletTarget(a), WalletTarget(b))
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestValidateLegsRejectsMalformedSets(t *testing.T) {
	wallet, flow := uuid.New(), uuid.New()
	tx := newTestTx(KindIncome, 1000)

	// Empty set
	assert.ErrorIs(t, ValidateLegs(tx, nil), ErrInvalidFlow)

	// Leg pointing at another transaction
	legs, err := NewFlowWalletLegs(tx.ID, KindIncome, 1000, wallet, flow)
	require.NoError(t, err)
	legs[0].TransactionID = uuid.New()
	assert.ErrorIs(t, ValidateLegs(tx, legs), ErrInvalidFlow)

	// Zero-amount leg
	legs, err = NewFlowWalletLegs(tx.ID, KindIncome, 1000, wallet, flow)
	require.NoError(t, err)
	legs[1].Amount = 0
	assert.ErrorIs(t, ValidateLegs(tx, legs), ErrInvalidFlow)

	// Wrong sign for the kind
	legs, err = NewFlowWalletLegs(tx.ID, KindIncome, 1000, wallet, flow)
	require.NoError(t, err)
	legs[0].Amount = -1000
	legs[1].Amount = -1000
	assert.ErrorIs(t, ValidateLegs(tx, legs), ErrInvalidFlow)

	// Two wallet legs on an income
	legs, err = NewFlowWalletLegs(tx.ID, KindIncome, 1000, wallet, flow)
	require.NoError(t, err)
	legs[1].Target = WalletTarget(uuid.New())
	assert.ErrorIs(t, ValidateLegs(tx, legs), ErrInvalidFlow)

	// Non-positive transaction amount
	bad := newTestTx(KindIncome, 0)
	legs, err = NewFlowWalletLegs(bad.ID, KindIncome, 1000, wallet, flow)
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateLegs(bad, legs), ErrInvalidFlow)
}
