/*
flows.go - Cash flow cap modes and the leg-change admissibility check

PURPOSE:
  A cash flow can be unlimited, capped on its balance, or capped on the
  total income routed through it. ApplyLegChange is the single pure
  function that answers "is this balance change admissible, and what
  does the flow look like afterwards". The engine uses it both to
  preview a whole transaction before writing anything and to compute
  the values it persists, so preview and commit can never disagree.

MODES:
  Unlimited    - always admissible
  Capped       - balance after the change must not exceed Max
  IncomeCapped - running total of positive legs must not exceed Max

SEE ALSO:
  - types.go: CashFlow carries Mode and IncomeTotal
  - engine/transactions.go: preview/commit pipeline
*/
package ledger

// FlowModeKind discriminates the cap mode of a cash flow.
type FlowModeKind string

const (
	ModeUnlimited    FlowModeKind = "unlimited"
	ModeCapped       FlowModeKind = "capped"
	ModeIncomeCapped FlowModeKind = "income_capped"
)

// FlowMode is the cap configuration of a cash flow. Max is only
// meaningful for capped and income-capped modes.
type FlowMode struct {
	Kind FlowModeKind
	Max  Money
}

// Unlimited builds the no-cap mode.
func Unlimited() FlowMode {
	return FlowMode{Kind: ModeUnlimited}
}

// Capped builds a balance-capped mode.
func Capped(max Money) FlowMode {
	return FlowMode{Kind: ModeCapped, Max: max}
}

// IncomeCapped builds an income-capped mode.
func IncomeCapped(max Money) FlowMode {
	return FlowMode{Kind: ModeIncomeCapped, Max: max}
}

// =============================================================================
// MODE VALIDATION AND PERSISTENCE ENCODING
// =============================================================================

// ParseMode decodes the two-column persistence encoding:
//
//	(nil, nil)          -> Unlimited
//	(max, nil)          -> Capped
//	(max, incomeTotal)  -> IncomeCapped (incomeTotal returned separately)
func ParseMode(max, income *Money) (FlowMode, Money, error) {
	switch {
	case max == nil && income == nil:
		return Unlimited(), 0, nil
	case max != nil && income == nil:
		return Capped(*max), 0, nil
	case max != nil && income != nil:
		return IncomeCapped(*max), *income, nil
	default:
		return FlowMode{}, 0, errInvalidFlowf("income total without a cap")
	}
}

// Encode returns the two-column persistence encoding of the mode.
// incomeTotal is the flow's running income total, stored only for
// income-capped flows.
func (m FlowMode) Encode(incomeTotal Money) (max, income *Money) {
	switch m.Kind {
	case ModeCapped:
		v := m.Max
		return &v, nil
	case ModeIncomeCapped:
		v, t := m.Max, incomeTotal
		return &v, &t
	}
	return nil, nil
}

// ValidateModeFields checks the raw cap fields of a create/update
// request before a mode is built from them.
func ValidateModeFields(max, income *Money) error {
	if max == nil && income != nil {
		return errInvalidFlowf("income total requires a cap")
	}
	if max != nil && !max.IsPositive() {
		return errInvalidFlowf("cap must be positive")
	}
	if income != nil {
		if income.IsNegative() {
			return errInvalidFlowf("income total cannot be negative")
		}
		if *income > *max {
			return errInvalidFlowf("income total exceeds cap")
		}
	}
	return nil
}

// =============================================================================
// LEG-CHANGE ADMISSIBILITY
// =============================================================================

// ApplyLegChange returns the flow as it would look after replacing a
// leg of amount old with a leg of amount new. Creation passes old=0,
// voiding passes new=0. The receiver is not mutated.
func ApplyLegChange(f CashFlow, old, new Money) (CashFlow, error) {
	balance, err := f.Balance.Sub(old)
	if err != nil {
		return CashFlow{}, err
	}
	balance, err = balance.Add(new)
	if err != nil {
		return CashFlow{}, err
	}
	f.Balance = balance

	switch f.Mode.Kind {
	case ModeUnlimited:
		// Always admissible.

	case ModeCapped:
		if f.Balance > f.Mode.Max {
			return CashFlow{}, &MaxBalanceError{Flow: f.Name}
		}

	case ModeIncomeCapped:
		income, err := f.IncomeTotal.Sub(positivePart(old))
		if err != nil {
			return CashFlow{}, err
		}
		income, err = income.Add(positivePart(new))
		if err != nil {
			return CashFlow{}, err
		}
		if income > f.Mode.Max {
			return CashFlow{}, &MaxBalanceError{Flow: f.Name}
		}
		f.IncomeTotal = income

	default:
		return CashFlow{}, errInvalidFlowf("unknown flow mode %q", f.Mode.Kind)
	}

	return f, nil
}

func positivePart(m Money) Money {
	if m.IsPositive() {
		return m
	}
	return 0
}
