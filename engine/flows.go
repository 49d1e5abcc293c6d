/*
flows.go - Cash flow management

PURPOSE:
  Flow creation, renaming, archiving, cap-mode changes and deletion.
  The Unallocated system flow is protected from all of it. A starting
  balance is an opening flow transfer out of Unallocated, so earmarked
  money is conserved.

MODE CHANGES:
  Switching to income-capped recomputes the running income total from
  the non-voided positive legs instead of trusting a caller-supplied
  figure; a recomputed total or a current balance already past the new
  cap rejects the change.
*/
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

func parseOptionalAmount(s *string) (*ledger.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := ledger.ParseAmount(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// NewCashFlow creates a budget flow. See FlowCommand for the cap and
// starting-balance semantics.
func (e *Engine) NewCashFlow(ctx context.Context, userID string, vaultID ledger.VaultID, cmd FlowCommand) (ledger.CashFlow, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return ledger.CashFlow{}, invalidf("empty cash flow name")
	}
	if isReservedFlowName(name) {
		return ledger.CashFlow{}, invalidf("%q is reserved", ledger.UnallocatedFlowName)
	}

	max, err := parseOptionalAmount(cmd.MaxBalance)
	if err != nil {
		return ledger.CashFlow{}, err
	}
	income, err := parseOptionalAmount(cmd.IncomeTotal)
	if err != nil {
		return ledger.CashFlow{}, err
	}
	if err := ledger.ValidateModeFields(max, income); err != nil {
		return ledger.CashFlow{}, err
	}

	flow := ledger.CashFlow{
		ID:        uuid.New(),
		VaultID:   vaultID,
		Name:      name,
		Mode:      ledger.Unlimited(),
		CreatedAt: time.Now().UTC(),
	}
	switch {
	case max != nil && income != nil:
		flow.Mode = ledger.IncomeCapped(*max)
		flow.IncomeTotal = *income
	case max != nil:
		flow.Mode = ledger.Capped(*max)
	}

	var starting ledger.Money
	if cmd.StartingBalance != "" {
		starting, err = ledger.ParseAmount(cmd.StartingBalance)
		if err != nil {
			return ledger.CashFlow{}, err
		}
		if starting.IsNegative() {
			return ledger.CashFlow{}, fmt.Errorf("%w: starting balance cannot be negative", ledger.ErrInvalidAmount)
		}
	}

	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultWrite(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		if err := tx.InsertFlow(ctx, flow); err != nil {
			return err
		}
		if starting.IsZero() {
			return nil
		}

		system, err := tx.SystemFlow(ctx, vaultID)
		if err != nil {
			return err
		}
		txn := newTransaction(vaultID, ledger.KindTransferFlow, starting, userID,
			OpeningCategory, fmt.Sprintf("opening allocation for flow %q", name), "", time.Time{})
		legs, err := ledger.NewTransferLegs(txn.ID, txn.Kind, starting,
			ledger.FlowTarget(system.ID), ledger.FlowTarget(flow.ID))
		if err != nil {
			return err
		}
		if _, err := createTransactionWithLegs(ctx, tx, txn, legs); err != nil {
			return err
		}
		flow.Balance = starting
		if flow.Mode.Kind == ledger.ModeIncomeCapped {
			// The opening allocation counts as income into the flow.
			updated, err := ledger.ApplyLegChange(ledger.CashFlow{
				Name: flow.Name, Mode: flow.Mode, IncomeTotal: flow.IncomeTotal,
			}, 0, starting)
			if err != nil {
				return err
			}
			flow.IncomeTotal = updated.IncomeTotal
		}
		return nil
	})
	if err != nil {
		return ledger.CashFlow{}, err
	}
	return flow, nil
}

// CashFlow fetches a flow the caller may read.
func (e *Engine) CashFlow(ctx context.Context, userID string, flowID ledger.FlowID) (ledger.CashFlow, error) {
	var flow ledger.CashFlow
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		flow, err = tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		return requireFlowRead(ctx, tx, flow, userID)
	})
	if err != nil {
		return ledger.CashFlow{}, err
	}
	return flow, nil
}

// CashFlowByName resolves a flow by name within a vault.
func (e *Engine) CashFlowByName(ctx context.Context, userID string, vaultID ledger.VaultID, name string) (ledger.CashFlow, error) {
	var flow ledger.CashFlow
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		flow, err = tx.FindFlowByName(ctx, vaultID, name)
		if err != nil {
			return err
		}
		return requireFlowRead(ctx, tx, flow, userID)
	})
	if err != nil {
		return ledger.CashFlow{}, err
	}
	return flow, nil
}

// RenameCashFlow changes a flow's name. The system flow keeps its name.
func (e *Engine) RenameCashFlow(ctx context.Context, userID string, flowID ledger.FlowID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidf("empty cash flow name")
	}
	if isReservedFlowName(name) {
		return invalidf("%q is reserved", ledger.UnallocatedFlowName)
	}
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireFlowWrite(ctx, tx, flow, userID); err != nil {
			return err
		}
		if flow.System {
			return invalidf("system flow cannot be renamed")
		}
		return tx.UpdateFlowName(ctx, flowID, name)
	})
}

// SetCashFlowArchived toggles a flow's archived flag. The system flow
// cannot be archived.
func (e *Engine) SetCashFlowArchived(ctx context.Context, userID string, flowID ledger.FlowID, archived bool) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireFlowWrite(ctx, tx, flow, userID); err != nil {
			return err
		}
		if flow.System {
			return invalidf("system flow cannot be archived")
		}
		return tx.SetFlowArchived(ctx, flowID, archived)
	})
}

// SetCashFlowMode changes a flow's cap mode. See ModeCommand.
func (e *Engine) SetCashFlowMode(ctx context.Context, userID string, flowID ledger.FlowID, cmd ModeCommand) (ledger.CashFlow, error) {
	max, err := parseOptionalAmount(cmd.MaxBalance)
	if err != nil {
		return ledger.CashFlow{}, err
	}
	if cmd.IncomeCapped && max == nil {
		return ledger.CashFlow{}, invalidf("income cap requires a maximum")
	}
	if err := ledger.ValidateModeFields(max, nil); err != nil {
		return ledger.CashFlow{}, err
	}

	var out ledger.CashFlow
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireFlowWrite(ctx, tx, flow, userID); err != nil {
			return err
		}
		if flow.System {
			return invalidf("system flow cannot be capped")
		}

		switch {
		case max == nil:
			flow.Mode = ledger.Unlimited()
			flow.IncomeTotal = 0

		case cmd.IncomeCapped:
			total, err := tx.SumPositiveFlowLegs(ctx, flowID)
			if err != nil {
				return err
			}
			if total > *max {
				return &ledger.MaxBalanceError{Flow: flow.Name}
			}
			flow.Mode = ledger.IncomeCapped(*max)
			flow.IncomeTotal = total

		default:
			if flow.Balance > *max {
				return &ledger.MaxBalanceError{Flow: flow.Name}
			}
			flow.Mode = ledger.Capped(*max)
			flow.IncomeTotal = 0
		}

		if err := tx.SaveFlowState(ctx, flow); err != nil {
			return err
		}
		out = flow
		return nil
	})
	if err != nil {
		return ledger.CashFlow{}, err
	}
	return out, nil
}

// DeleteCashFlow removes an empty, non-system flow.
func (e *Engine) DeleteCashFlow(ctx context.Context, userID string, flowID ledger.FlowID) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireFlowWrite(ctx, tx, flow, userID); err != nil {
			return err
		}
		if flow.System {
			return invalidf("system flow cannot be deleted")
		}
		if !flow.Balance.IsZero() {
			return invalidf("cash flow %q still holds %s", flow.Name, flow.Balance)
		}
		return tx.DeleteFlow(ctx, flowID)
	})
}
