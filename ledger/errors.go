/*
errors.go - Centralized error taxonomy for the ledger domain

PURPOSE:
  All domain errors in one place. Callers classify with errors.Is();
  the API layer maps these onto HTTP statuses.

ERROR CATEGORIES:
  1. Lookup errors     - missing or hidden objects (not-found never leaks
                         whether the object exists to unauthorized callers)
  2. Validation errors - malformed amounts, bad leg shapes, bad modes
  3. Conflict errors   - duplicate names, cap violations

SEE ALSO:
  - flows.go: MaxBalanceError producers
  - api/handlers.go: HTTP status mapping
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrKeyNotFound is returned when a vault, wallet, flow, transaction or
	// user cannot be found, or when the caller may not know it exists.
	ErrKeyNotFound = errors.New("key not found")

	// ErrExistingKey is returned when creating an object whose name or key
	// already exists in its scope.
	ErrExistingKey = errors.New("existing key")

	// ErrInvalidAmount is returned for unparseable, zero-where-forbidden or
	// overflowing amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidFlow is returned for structurally invalid operations:
	// wrong leg shapes, retarget fields that do not apply to the kind,
	// reserved names, archived targets.
	ErrInvalidFlow = errors.New("invalid flow")

	// ErrMaxBalanceReached is returned when a leg change would push a
	// capped flow past its configured maximum.
	ErrMaxBalanceReached = errors.New("max balance reached")

	// ErrCurrencyMismatch is returned for unsupported currencies or
	// cross-currency operations.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrForbidden is returned when the caller can see an object but lacks
	// the role required for the operation.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MaxBalanceError reports which flow rejected a leg change.
type MaxBalanceError struct {
	Flow string
}

func (e *MaxBalanceError) Error() string {
	return fmt.Sprintf("max balance reached on flow %q", e.Flow)
}

func (e *MaxBalanceError) Unwrap() error {
	return ErrMaxBalanceReached
}

// errInvalidFlowf wraps ErrInvalidFlow with formatted detail.
func errInvalidFlowf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidFlow}, args...)...)
}

// errInvalidAmountf wraps ErrInvalidAmount with formatted detail.
func errInvalidAmountf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidAmount}, args...)...)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err hides or misses an object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsConflict reports whether err is a state conflict a retry won't fix
// without changing the request.
func IsConflict(err error) bool {
	return errors.Is(err, ErrExistingKey) ||
		errors.Is(err, ErrMaxBalanceReached)
}

// IsClientError reports whether err is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidFlow) ||
		errors.Is(err, ErrCurrencyMismatch)
}
