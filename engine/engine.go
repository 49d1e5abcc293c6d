/*
Package engine implements the ledger operations on top of the SQLite store.

PURPOSE:
  Each public method is one complete operation: it checks access, runs
  every read and write inside a single store transaction, and previews
  all balance changes with the pure functions in the ledger package
  before anything is persisted. An inadmissible leg (cap violation,
  overflow, archived target) aborts the whole operation with no partial
  writes.

OPERATION GROUPS:
  transactions.go  income/expense/refund/transfers, void, amend
  list.go          cursor-paginated listings
  vaults.go        vault lifecycle, snapshot, statistics
  wallets.go       wallet management and opening balances
  flows.go         cash flow management and cap modes
  memberships.go   role grants on vaults and flows
  balances.go      full replay repair
  access.go        the role gate every operation passes through

SEE ALSO:
  - ledger: pure domain rules (shapes, caps, money)
  - store/sqlite: row-level persistence
*/
package engine

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

// Engine exposes every ledger operation.
type Engine struct {
	store *sqlite.Store
}

// New creates an engine on top of the given store.
func New(store *sqlite.Store) *Engine {
	return &Engine{store: store}
}

// Selector names a wallet or flow either by id or by case-insensitive
// name within the vault. ID wins when both are set.
type Selector struct {
	ID   *uuid.UUID
	Name string
}

// ByID builds an id selector.
func ByID(id uuid.UUID) Selector {
	return Selector{ID: &id}
}

// ByName builds a name selector.
func ByName(name string) Selector {
	return Selector{Name: name}
}

func (s Selector) empty() bool {
	return s.ID == nil && s.Name == ""
}

func isReservedFlowName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), ledger.UnallocatedFlowName)
}
