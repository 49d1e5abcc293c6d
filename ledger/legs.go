/*
legs.go - Leg-shape construction and validation

PURPOSE:
  Every transaction kind has exactly one admissible leg shape. Legs are
  built here so the engine cannot produce a malformed set, and validated
  here so nothing malformed is ever applied to a balance.

SHAPES (amount is the positive transaction amount):
  income          wallet +amount, flow +amount
  expense         wallet -amount, flow -amount
  refund          wallet +amount, flow +amount
  transfer_wallet wallet -amount, wallet +amount (distinct wallets)
  transfer_flow   flow   -amount, flow   +amount (distinct flows)
*/
package ledger

import "github.com/google/uuid"

// FlowWalletSignedAmount returns the signed leg amount for the
// wallet+flow kinds. Transfers have no single sign and are rejected.
func FlowWalletSignedAmount(kind TransactionKind, amount Money) (Money, error) {
	switch kind {
	case KindIncome, KindRefund:
		return amount, nil
	case KindExpense:
		return amount.Neg()
	}
	return 0, errInvalidFlowf("kind %q has no wallet/flow sign", kind)
}

// NewFlowWalletLegs builds the leg pair for income, expense and refund.
func NewFlowWalletLegs(txID TransactionID, kind TransactionKind, amount Money, wallet WalletID, flow FlowID) ([]Leg, error) {
	signed, err := FlowWalletSignedAmount(kind, amount)
	if err != nil {
		return nil, err
	}
	return []Leg{
		{ID: uuid.New(), TransactionID: txID, Target: WalletTarget(wallet), Amount: signed},
		{ID: uuid.New(), TransactionID: txID, Target: FlowTarget(flow), Amount: signed},
	}, nil
}

// NewTransferLegs builds the leg pair for the two transfer kinds.
// from and to must both match the kind's target type and be distinct.
func NewTransferLegs(txID TransactionID, kind TransactionKind, amount Money, from, to LegTarget) ([]Leg, error) {
	var want TargetKind
	switch kind {
	case KindTransferWallet:
		want = TargetWallet
	case KindTransferFlow:
		want = TargetFlow
	default:
		return nil, errInvalidFlowf("kind %q is not a transfer", kind)
	}
	if from.Kind != want || to.Kind != want {
		return nil, errInvalidFlowf("transfer legs must both target a %s", want)
	}
	if from.ID == to.ID {
		return nil, errInvalidFlowf("transfer source and destination must differ")
	}
	neg, err := amount.Neg()
	if err != nil {
		return nil, err
	}
	return []Leg{
		{ID: uuid.New(), TransactionID: txID, Target: from, Amount: neg},
		{ID: uuid.New(), TransactionID: txID, Target: to, Amount: amount},
	}, nil
}

// ValidateLegs checks a candidate leg set against the transaction's
// kind shape. Called before any balance math.
func ValidateLegs(tx Transaction, legs []Leg) error {
	if len(legs) == 0 {
		return errInvalidFlowf("transaction has no legs")
	}
	if !tx.Amount.IsPositive() {
		return errInvalidFlowf("transaction amount must be positive")
	}
	for _, leg := range legs {
		if leg.TransactionID != tx.ID {
			return errInvalidFlowf("leg belongs to another transaction")
		}
		if leg.Amount.IsZero() {
			return errInvalidFlowf("zero-amount leg")
		}
	}

	switch tx.Kind {
	case KindIncome, KindExpense, KindRefund:
		return validateFlowWalletShape(tx, legs)
	case KindTransferWallet:
		return validateTransferShape(tx, legs, TargetWallet)
	case KindTransferFlow:
		return validateTransferShape(tx, legs, TargetFlow)
	}
	return errInvalidFlowf("unknown transaction kind %q", tx.Kind)
}

func validateFlowWalletShape(tx Transaction, legs []Leg) error {
	if len(legs) != 2 {
		return errInvalidFlowf("%s needs exactly one wallet leg and one flow leg", tx.Kind)
	}
	signed, err := FlowWalletSignedAmount(tx.Kind, tx.Amount)
	if err != nil {
		return err
	}
	var wallets, flows int
	for _, leg := range legs {
		if leg.Amount != signed {
			return errInvalidFlowf("%s leg amount must be %s", tx.Kind, signed)
		}
		switch leg.Target.Kind {
		case TargetWallet:
			wallets++
		case TargetFlow:
			flows++
		}
	}
	if wallets != 1 || flows != 1 {
		return errInvalidFlowf("%s needs exactly one wallet leg and one flow leg", tx.Kind)
	}
	return nil
}

func validateTransferShape(tx Transaction, legs []Leg, want TargetKind) error {
	if len(legs) != 2 {
		return errInvalidFlowf("%s needs exactly two legs", tx.Kind)
	}
	var out, in *Leg
	for i := range legs {
		leg := &legs[i]
		if leg.Target.Kind != want {
			return errInvalidFlowf("%s legs must target a %s", tx.Kind, want)
		}
		switch leg.Amount {
		case tx.Amount:
			in = leg
		default:
			neg, err := tx.Amount.Neg()
			if err != nil {
				return err
			}
			if leg.Amount != neg {
				return errInvalidFlowf("%s leg amounts must be +/-%s", tx.Kind, tx.Amount)
			}
			out = leg
		}
	}
	if out == nil || in == nil {
		return errInvalidFlowf("%s needs one outgoing and one incoming leg", tx.Kind)
	}
	if out.Target.ID == in.Target.ID {
		return errInvalidFlowf("transfer source and destination must differ")
	}
	return nil
}
