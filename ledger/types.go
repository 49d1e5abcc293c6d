/*
types.go - Core domain entities

PURPOSE:
  Defines the objects the engine moves around: vaults, wallets, cash
  flows, transactions and their legs. Balances live on wallets and
  flows and are updated additively by leg amounts; the transaction log
  is the audit trail that explains every balance.

KEY CONCEPTS:
  Vault     - top-level container; owns wallets, flows and memberships,
              denominated in a single currency
  Wallet    - a place money physically sits (bank account, cash)
  CashFlow  - a budget bucket money is earmarked to; may carry a cap
  Transaction + Legs - one economic event plus its signed balance
              changes; legs always conserve the shape of the kind

SEE ALSO:
  - legs.go:  leg-shape construction and validation
  - flows.go: cap modes and the leg-change admissibility check
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Identifier types. Users are opaque string ids resolved upstream.
type (
	VaultID       = uuid.UUID
	WalletID      = uuid.UUID
	FlowID        = uuid.UUID
	TransactionID = uuid.UUID
	LegID         = uuid.UUID
)

// UnallocatedFlowName is the reserved name of the per-vault system flow.
// It cannot be renamed, archived, capped, shared or deleted.
const UnallocatedFlowName = "Unallocated"

// Vault is the top-level container. Name is unique (case-insensitive)
// per owner.
type Vault struct {
	ID        VaultID
	Name      string
	OwnerID   string
	Currency  Currency
	CreatedAt time.Time
}

// Wallet holds a physical balance inside a vault. Name is unique
// (case-insensitive) within the vault.
type Wallet struct {
	ID        WalletID
	VaultID   VaultID
	Name      string
	Balance   Money
	Archived  bool
	CreatedAt time.Time
}

// CashFlow is a budget bucket. IncomeTotal is only meaningful for
// income-capped flows, where it tracks the sum of positive legs.
type CashFlow struct {
	ID          FlowID
	VaultID     VaultID
	Name        string
	Balance     Money
	IncomeTotal Money
	Mode        FlowMode
	System      bool
	Archived    bool
	CreatedAt   time.Time
}

// =============================================================================
// TRANSACTIONS AND LEGS
// =============================================================================

// TransactionKind discriminates the five supported economic events.
type TransactionKind string

const (
	KindIncome         TransactionKind = "income"
	KindExpense        TransactionKind = "expense"
	KindRefund         TransactionKind = "refund"
	KindTransferWallet TransactionKind = "transfer_wallet"
	KindTransferFlow   TransactionKind = "transfer_flow"
)

// ParseKind validates a kind string.
func ParseKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case KindIncome, KindExpense, KindRefund, KindTransferWallet, KindTransferFlow:
		return TransactionKind(s), nil
	}
	return "", errInvalidFlowf("unknown transaction kind %q", s)
}

// IsTransfer reports whether the kind moves money between two targets
// of the same type.
func (k TransactionKind) IsTransfer() bool {
	return k == KindTransferWallet || k == KindTransferFlow
}

// Transaction is one economic event. Amount is always positive; the
// sign of each balance change lives on the legs. Voiding reverses the
// balance effects but keeps the row and its legs intact as the audit
// record, stamped with who voided it and when.
type Transaction struct {
	ID             TransactionID
	VaultID        VaultID
	Kind           TransactionKind
	Amount         Money
	OccurredAt     time.Time
	Category       string
	Note           string
	CreatedBy      string
	IdempotencyKey string
	VoidedAt       *time.Time
	VoidedBy       string
	CreatedAt      time.Time
}

// Voided reports whether the transaction has been voided.
func (t Transaction) Voided() bool {
	return t.VoidedAt != nil
}

// TargetKind discriminates what a leg points at.
type TargetKind string

const (
	TargetWallet TargetKind = "wallet"
	TargetFlow   TargetKind = "flow"
)

// LegTarget is a tagged reference to a wallet or a flow in the
// transaction's vault.
type LegTarget struct {
	Kind TargetKind
	ID   uuid.UUID
}

// WalletTarget builds a wallet-pointing target.
func WalletTarget(id WalletID) LegTarget {
	return LegTarget{Kind: TargetWallet, ID: id}
}

// FlowTarget builds a flow-pointing target.
func FlowTarget(id FlowID) LegTarget {
	return LegTarget{Kind: TargetFlow, ID: id}
}

// Leg is a single signed balance change applied to one target.
type Leg struct {
	ID            LegID
	TransactionID TransactionID
	Target        LegTarget
	Amount        Money
}

// =============================================================================
// ROLES
// =============================================================================

// Role orders vault access levels: owner > editor > viewer.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleEditor, RoleViewer:
		return Role(s), nil
	}
	return "", errInvalidFlowf("unknown role %q", s)
}

// AtLeast reports whether r grants at least the access of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank(r) >= roleRank(min)
}

func roleRank(r Role) int {
	switch r {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}
