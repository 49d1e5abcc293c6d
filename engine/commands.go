package engine

import (
	"time"
)

// EntryCommand describes an income, expense or refund.
type EntryCommand struct {
	Wallet Selector
	// Flow left empty routes the entry through the vault's
	// Unallocated flow.
	Flow Selector

	// Amount is the positive decimal amount ("12.50" or "12,50").
	Amount string

	// OccurredAt zero means "now".
	OccurredAt time.Time

	Category string
	Note     string

	// IdempotencyKey makes creation retry-safe: the same caller
	// replaying the same key in this vault gets the original
	// transaction back instead of a duplicate.
	IdempotencyKey string
}

// TransferCommand moves money between two wallets or two flows.
type TransferCommand struct {
	From Selector
	To   Selector

	Amount     string
	OccurredAt time.Time

	Category       string
	Note           string
	IdempotencyKey string
}

// UpdateCommand patches an existing transaction. Nil fields are left
// untouched. Retarget fields must match the transaction kind: Wallet
// and Flow apply to income/expense/refund, From and To to transfers.
type UpdateCommand struct {
	Amount     *string
	OccurredAt *time.Time
	Category   *string
	Note       *string

	Wallet *Selector
	Flow   *Selector
	From   *Selector
	To     *Selector
}

// FlowCommand creates a cash flow. MaxBalance nil means unlimited;
// IncomeTotal non-nil switches the cap to income-capped mode with that
// starting total. StartingBalance, when positive, is allocated out of
// the Unallocated flow.
type FlowCommand struct {
	Name            string
	MaxBalance      *string
	IncomeTotal     *string
	StartingBalance string
}

// ModeCommand changes a flow's cap mode. MaxBalance nil means
// unlimited. IncomeCapped switches to income-capped mode; the running
// income total is recomputed from the non-voided legs.
type ModeCommand struct {
	MaxBalance   *string
	IncomeCapped bool
}
