/*
dto.go - Request and response data structures

PURPOSE:
  Wire shapes for the REST API. Amounts cross the wire as decimal
  strings ("12.50"), never as floats, and timestamps as RFC3339.

NAMING CONVENTION:
  - *Request: request body types from clients
  - *DTO: response types returned to clients

SEE ALSO:
  - handlers.go: where these are populated
*/
package api

import (
	"time"

	"github.com/Oghma/sparagne/engine"
	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

// =============================================================================
// REQUESTS
// =============================================================================

// RegisterUserRequest registers a principal.
type RegisterUserRequest struct {
	UserID string `json:"user_id"`
}

// CreateVaultRequest creates a vault.
type CreateVaultRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CreateWalletRequest creates a wallet, optionally with an opening
// balance recorded as a real transaction.
type CreateWalletRequest struct {
	Name           string `json:"name"`
	OpeningBalance string `json:"opening_balance,omitempty"`
}

// CreateFlowRequest creates a cash flow.
type CreateFlowRequest struct {
	Name            string  `json:"name"`
	MaxBalance      *string `json:"max_balance,omitempty"`
	IncomeTotal     *string `json:"income_total,omitempty"`
	StartingBalance string  `json:"starting_balance,omitempty"`
}

// RenameRequest renames a wallet or flow.
type RenameRequest struct {
	Name string `json:"name"`
}

// ArchiveRequest toggles the archived flag.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

// SetModeRequest changes a flow's cap mode.
type SetModeRequest struct {
	MaxBalance   *string `json:"max_balance,omitempty"`
	IncomeCapped bool    `json:"income_capped,omitempty"`
}

// CreateTransactionRequest records an entry or a transfer. Kind picks
// the shape: income/expense/refund use wallet+flow, transfers use
// from+to. Targets are named by wallet/flow name.
type CreateTransactionRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`

	Wallet string `json:"wallet,omitempty"`
	Flow   string `json:"flow,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`

	OccurredAt     *time.Time `json:"occurred_at,omitempty"`
	Category       string     `json:"category,omitempty"`
	Note           string     `json:"note,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
}

// UpdateTransactionRequest amends a transaction. Absent fields are
// left untouched.
type UpdateTransactionRequest struct {
	Amount     *string    `json:"amount,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	Category   *string    `json:"category,omitempty"`
	Note       *string    `json:"note,omitempty"`

	Wallet *string `json:"wallet,omitempty"`
	Flow   *string `json:"flow,omitempty"`
	From   *string `json:"from,omitempty"`
	To     *string `json:"to,omitempty"`
}

// MemberRequest grants or changes a role.
type MemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// VaultDTO is the wire shape of a vault.
type VaultDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

// WalletDTO is the wire shape of a wallet.
type WalletDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	Archived  bool   `json:"archived,omitempty"`
	CreatedAt string `json:"created_at"`
}

// FlowDTO is the wire shape of a cash flow.
type FlowDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Balance     string  `json:"balance"`
	Mode        string  `json:"mode"`
	MaxBalance  *string `json:"max_balance,omitempty"`
	IncomeTotal *string `json:"income_total,omitempty"`
	System      bool    `json:"system,omitempty"`
	Archived    bool    `json:"archived,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// VaultSnapshotDTO bundles a vault with its wallets and flows.
type VaultSnapshotDTO struct {
	Vault   VaultDTO    `json:"vault"`
	Wallets []WalletDTO `json:"wallets"`
	Flows   []FlowDTO   `json:"flows"`
}

// StatisticsDTO summarizes a vault's money.
type StatisticsDTO struct {
	Currency     string `json:"currency"`
	TotalBalance string `json:"total_balance"`
	TotalIncome  string `json:"total_income"`
	NetExpenses  string `json:"net_expenses"`
}

// TransactionDTO is the wire shape of a transaction.
type TransactionDTO struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	OccurredAt string `json:"occurred_at"`
	Category   string `json:"category,omitempty"`
	Note       string `json:"note,omitempty"`
	CreatedBy  string `json:"created_by"`
	Voided     bool   `json:"voided,omitempty"`
	VoidedAt   string `json:"voided_at,omitempty"`
	VoidedBy   string `json:"voided_by,omitempty"`
	CreatedAt  string `json:"created_at"`

	// LegAmount is the signed amount on the listed wallet or flow,
	// present only in target-scoped listings.
	LegAmount string `json:"leg_amount,omitempty"`
}

// LegDTO is the wire shape of a leg.
type LegDTO struct {
	ID         string `json:"id"`
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
	Amount     string `json:"amount"`
}

// TransactionDetailDTO is a transaction with its legs.
type TransactionDetailDTO struct {
	TransactionDTO
	Legs []LegDTO `json:"legs"`
}

// PageDTO is one slice of a listing.
type PageDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
	HasMore      bool             `json:"has_more"`
}

// MemberDTO is the wire shape of a role grant.
type MemberDTO struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toVaultDTO(v ledger.Vault) VaultDTO {
	return VaultDTO{
		ID:        v.ID.String(),
		Name:      v.Name,
		OwnerID:   v.OwnerID,
		Currency:  string(v.Currency),
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
}

func toWalletDTO(w ledger.Wallet) WalletDTO {
	return WalletDTO{
		ID:        w.ID.String(),
		Name:      w.Name,
		Balance:   ledger.FormatAmount(w.Balance),
		Archived:  w.Archived,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

func toFlowDTO(f ledger.CashFlow) FlowDTO {
	dto := FlowDTO{
		ID:        f.ID.String(),
		Name:      f.Name,
		Balance:   ledger.FormatAmount(f.Balance),
		Mode:      string(f.Mode.Kind),
		System:    f.System,
		Archived:  f.Archived,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
	switch f.Mode.Kind {
	case ledger.ModeCapped:
		max := ledger.FormatAmount(f.Mode.Max)
		dto.MaxBalance = &max
	case ledger.ModeIncomeCapped:
		max := ledger.FormatAmount(f.Mode.Max)
		total := ledger.FormatAmount(f.IncomeTotal)
		dto.MaxBalance = &max
		dto.IncomeTotal = &total
	}
	return dto
}

func toTransactionDTO(t ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:         t.ID.String(),
		Kind:       string(t.Kind),
		Amount:     ledger.FormatAmount(t.Amount),
		OccurredAt: t.OccurredAt.Format(time.RFC3339),
		Category:   t.Category,
		Note:       t.Note,
		CreatedBy:  t.CreatedBy,
		Voided:     t.Voided(),
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
	if t.VoidedAt != nil {
		dto.VoidedAt = t.VoidedAt.Format(time.RFC3339)
		dto.VoidedBy = t.VoidedBy
	}
	return dto
}

func toLegDTO(l ledger.Leg) LegDTO {
	return LegDTO{
		ID:         l.ID.String(),
		TargetKind: string(l.Target.Kind),
		TargetID:   l.Target.ID.String(),
		Amount:     ledger.FormatAmount(l.Amount),
	}
}

func toPageDTO(page engine.Page) PageDTO {
	dto := PageDTO{
		Transactions: make([]TransactionDTO, len(page.Transactions)),
		NextCursor:   page.NextCursor,
		HasMore:      page.HasMore,
	}
	for i, t := range page.Transactions {
		dto.Transactions[i] = toTransactionDTO(t)
	}
	return dto
}

func toTargetPageDTO(page engine.TargetPage) PageDTO {
	dto := PageDTO{
		Transactions: make([]TransactionDTO, len(page.Entries)),
		NextCursor:   page.NextCursor,
		HasMore:      page.HasMore,
	}
	for i, e := range page.Entries {
		t := toTransactionDTO(e.Transaction)
		t.LegAmount = ledger.FormatAmount(e.Amount)
		dto.Transactions[i] = t
	}
	return dto
}

func toMemberDTOs(members []sqlite.Member) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = MemberDTO{
			UserID:    m.UserID,
			Role:      string(m.Role),
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}
