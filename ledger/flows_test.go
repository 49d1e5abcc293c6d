package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyLegChangeUnlimited(t *testing.T) {
	flow := CashFlow{Name: "Groceries", Balance: 1000, Mode: Unlimited()}

	// Unlimited flows admit any change, including going negative.
	out, err := ApplyLegChange(flow, 0, -5000)
	require.NoError(t, err)
	assert.Equal(t, Money(-4000), out.Balance)

	// The input flow is untouched.
	assert.Equal(t, Money(1000), flow.Balance)
}

func TestApplyLegChangeCapped(t *testing.T) {
	flow := CashFlow{Name: "Savings", Balance: 9000, Mode: Capped(10000)}

	// Filling up to the cap exactly is admissible.
	out, err := ApplyLegChange(flow, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, Money(10000), out.Balance)

	// One cent past the cap is rejected with the flow's name.
	_, err = ApplyLegChange(flow, 0, 1001)
	require.ErrorIs(t, err, ErrMaxBalanceReached)
	var mbe *MaxBalanceError
	require.ErrorAs(t, err, &mbe)
	assert.Equal(t, "Savings", mbe.Flow)

	// Replacing an existing leg only charges the delta.
	out, err = ApplyLegChange(flow, 500, 1500)
	require.NoError(t, err)
	assert.Equal(t, Money(10000), out.Balance)
}

func TestApplyLegChangeIncomeCapped(t *testing.T) {
	flow := CashFlow{
		Name:        "Side gigs",
		Balance:     0,
		IncomeTotal: 9500,
		Mode:        IncomeCapped(10000),
	}

	// Positive legs count against the income total.
	out, err := ApplyLegChange(flow, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, Money(500), out.Balance)
	assert.Equal(t, Money(10000), out.IncomeTotal)

	_, err = ApplyLegChange(flow, 0, 501)
	assert.ErrorIs(t, err, ErrMaxBalanceReached)

	// Negative legs (spending out of the flow) never touch the total.
	out, err = ApplyLegChange(flow, 0, -2000)
	require.NoError(t, err)
	assert.Equal(t, Money(-2000), out.Balance)
	assert.Equal(t, Money(9500), out.IncomeTotal)

	// Voiding an income leg gives the headroom back.
	out, err = ApplyLegChange(flow, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, Money(9000), out.IncomeTotal)
}

func TestValidateModeFields(t *testing.T) {
	cap := Money(10000)
	zero := Money(0)
	negative := Money(-1)
	over := Money(10001)

	assert.NoError(t, ValidateModeFields(nil, nil))
	assert.NoError(t, ValidateModeFields(&cap, nil))
	assert.NoError(t, ValidateModeFields(&cap, &zero))
	assert.NoError(t, ValidateModeFields(&cap, &cap))

	assert.ErrorIs(t, ValidateModeFields(nil, &zero), ErrInvalidFlow)
	assert.ErrorIs(t, ValidateModeFields(&zero, nil), ErrInvalidFlow)
	assert.ErrorIs(t, ValidateModeFields(&negative, nil), ErrInvalidFlow)
	assert.ErrorIs(t, ValidateModeFields(&cap, &negative), ErrInvalidFlow)
	assert.ErrorIs(t, ValidateModeFields(&cap, &over), ErrInvalidFlow)
}

func TestModeEncodingRoundTrip(t *testing.T) {
	// GIVEN each mode WHEN encoded and parsed THEN it survives unchanged.
	for _, tc := range []struct {
		mode   FlowMode
		income Money
	}{
		{Unlimited(), 0},
		{Capped(5000), 0},
		{IncomeCapped(5000), 1200},
	} {
		max, income := tc.mode.Encode(tc.income)
		mode, total, err := ParseMode(max, income)
		require.NoError(t, err)
		assert.Equal(t, tc.mode, mode)
		assert.Equal(t, tc.income, total)
	}
}
