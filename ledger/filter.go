package ledger

import "time"

const (
	// DefaultPageSize is used when a listing request names no limit.
	DefaultPageSize = 50
	// MaxPageSize bounds a single listing page.
	MaxPageSize = 200
)

// ListFilter narrows a transaction listing. The zero value lists
// everything except voided transactions and transfers.
type ListFilter struct {
	// From is inclusive, To is exclusive.
	From *time.Time
	To   *time.Time

	// Kinds is an allow-list. nil means "all kinds"; an explicitly
	// empty slice is rejected because it can only produce an empty
	// page and always signals a caller bug.
	Kinds []TransactionKind

	IncludeVoided bool

	// IncludeTransfers pulls transfers into a listing whose Kinds
	// does not name them. Transfers move money around inside the
	// vault and are noise in most spending views, so they are
	// excluded unless asked for.
	IncludeTransfers bool

	Limit int
}

// Normalize validates the filter and clamps the limit into
// [1, MaxPageSize], defaulting to DefaultPageSize.
func (f ListFilter) Normalize() (ListFilter, error) {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return ListFilter{}, errInvalidFlowf("time range start must precede end")
	}
	if f.Kinds != nil && len(f.Kinds) == 0 {
		return ListFilter{}, errInvalidAmountf("empty kind filter")
	}
	for _, k := range f.Kinds {
		if _, err := ParseKind(string(k)); err != nil {
			return ListFilter{}, err
		}
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f, nil
}

// WantsTransfers reports whether the filter admits transfer kinds.
func (f ListFilter) WantsTransfers() bool {
	if f.IncludeTransfers {
		return true
	}
	for _, k := range f.Kinds {
		if k.IsTransfer() {
			return true
		}
	}
	return false
}
