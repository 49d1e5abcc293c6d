/*
transactions.go - Transaction creation, voiding and amendment

PURPOSE:
  The creation pipeline every mutation goes through:

    access -> resolve targets -> build legs -> validate shape ->
    idempotency pre-select -> preview every balance change ->
    insert -> persist balances

  Preview happens entirely in memory against copies of the touched
  wallets and flows, so a cap violation on the second leg leaves the
  first untouched. Voiding and amending reuse the same preview by
  expressing themselves as leg changes: void is (amount -> 0), an
  amount change is (old -> new), a retarget is (old -> 0) on the old
  target plus (0 -> new) on the new one.

IDEMPOTENCY:
  A creation with a key first looks for an existing (vault, caller,
  key) row and returns it unchanged. The unique index closes the race:
  if the insert still collides, the winner's row is re-read and
  returned.
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

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ledger.ErrInvalidFlow}, args...)...)
}

// =============================================================================
// TARGET RESOLUTION
// =============================================================================

// resolveWallet resolves a wallet selector; an empty selector falls
// back to the vault's single non-archived wallet.
func resolveWallet(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID, sel Selector) (ledger.Wallet, error) {
	if sel.empty() {
		return defaultWallet(ctx, tx, vaultID)
	}
	if sel.ID != nil {
		w, err := tx.GetWallet(ctx, *sel.ID)
		if err != nil {
			return ledger.Wallet{}, err
		}
		if w.VaultID != vaultID {
			return ledger.Wallet{}, notFound("wallet")
		}
		return w, nil
	}
	return tx.FindWalletByName(ctx, vaultID, sel.Name)
}

// defaultWallet picks the vault's only non-archived wallet. With
// several active wallets the caller has to name one.
func defaultWallet(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID) (ledger.Wallet, error) {
	wallets, err := tx.ListWallets(ctx, vaultID)
	if err != nil {
		return ledger.Wallet{}, err
	}
	var active []ledger.Wallet
	for _, w := range wallets {
		if !w.Archived {
			active = append(active, w)
		}
	}
	switch len(active) {
	case 0:
		return ledger.Wallet{}, notFound("wallet")
	case 1:
		return active[0], nil
	}
	return ledger.Wallet{}, fmt.Errorf("%w: wallet must be named when the vault has several", ledger.ErrInvalidAmount)
}

// resolveFlow resolves a flow selector; an empty selector falls back
// to the vault's Unallocated flow when allowSystem is set.
func resolveFlow(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID, sel Selector, allowEmpty bool) (ledger.CashFlow, error) {
	if sel.empty() {
		if !allowEmpty {
			return ledger.CashFlow{}, invalidf("cash flow required")
		}
		return tx.SystemFlow(ctx, vaultID)
	}
	if sel.ID != nil {
		f, err := tx.GetFlow(ctx, *sel.ID)
		if err != nil {
			return ledger.CashFlow{}, err
		}
		if f.VaultID != vaultID {
			return ledger.CashFlow{}, notFound("cash flow")
		}
		return f, nil
	}
	return tx.FindFlowByName(ctx, vaultID, sel.Name)
}

func ensureActiveWallet(w ledger.Wallet) error {
	if w.Archived {
		return invalidf("wallet %q is archived", w.Name)
	}
	return nil
}

func ensureActiveFlow(f ledger.CashFlow) error {
	if f.Archived {
		return invalidf("cash flow %q is archived", f.Name)
	}
	return nil
}

// =============================================================================
// BALANCE PREVIEW
// =============================================================================

// preview accumulates leg changes against in-memory copies of the
// touched wallets and flows. Nothing is written until persist.
type preview struct {
	tx      *sqlite.Tx
	vaultID ledger.VaultID
	wallets map[ledger.WalletID]ledger.Wallet
	flows   map[ledger.FlowID]ledger.CashFlow
}

func newPreview(tx *sqlite.Tx, vaultID ledger.VaultID) *preview {
	return &preview{
		tx:      tx,
		vaultID: vaultID,
		wallets: make(map[ledger.WalletID]ledger.Wallet),
		flows:   make(map[ledger.FlowID]ledger.CashFlow),
	}
}

func (p *preview) wallet(ctx context.Context, id ledger.WalletID) (ledger.Wallet, error) {
	if w, ok := p.wallets[id]; ok {
		return w, nil
	}
	w, err := p.tx.GetWallet(ctx, id)
	if err != nil {
		return ledger.Wallet{}, err
	}
	if w.VaultID != p.vaultID {
		return ledger.Wallet{}, notFound("wallet")
	}
	p.wallets[id] = w
	return w, nil
}

func (p *preview) flow(ctx context.Context, id ledger.FlowID) (ledger.CashFlow, error) {
	if f, ok := p.flows[id]; ok {
		return f, nil
	}
	f, err := p.tx.GetFlow(ctx, id)
	if err != nil {
		return ledger.CashFlow{}, err
	}
	if f.VaultID != p.vaultID {
		return ledger.CashFlow{}, notFound("cash flow")
	}
	p.flows[id] = f
	return f, nil
}

// apply replaces a leg of amount old with one of amount new on target.
func (p *preview) apply(ctx context.Context, target ledger.LegTarget, old, new ledger.Money) error {
	switch target.Kind {
	case ledger.TargetWallet:
		w, err := p.wallet(ctx, target.ID)
		if err != nil {
			return err
		}
		balance, err := w.Balance.Sub(old)
		if err != nil {
			return err
		}
		balance, err = balance.Add(new)
		if err != nil {
			return err
		}
		w.Balance = balance
		p.wallets[target.ID] = w
		return nil

	case ledger.TargetFlow:
		f, err := p.flow(ctx, target.ID)
		if err != nil {
			return err
		}
		updated, err := ledger.ApplyLegChange(f, old, new)
		if err != nil {
			return err
		}
		p.flows[target.ID] = updated
		return nil
	}
	return invalidf("unknown leg target kind %q", target.Kind)
}

// persist writes every previewed balance.
func (p *preview) persist(ctx context.Context) error {
	for id, w := range p.wallets {
		if err := p.tx.UpdateWalletBalance(ctx, id, w.Balance); err != nil {
			return err
		}
	}
	for _, f := range p.flows {
		if err := p.tx.SaveFlowState(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// CREATION PIPELINE
// =============================================================================

// createTransactionWithLegs runs the full creation pipeline inside an
// open store transaction. Targets are assumed resolved and active.
func createTransactionWithLegs(ctx context.Context, tx *sqlite.Tx, txn ledger.Transaction, legs []ledger.Leg) (ledger.Transaction, error) {
	if err := ledger.ValidateLegs(txn, legs); err != nil {
		return ledger.Transaction{}, err
	}

	if txn.IdempotencyKey != "" {
		existing, ok, err := tx.FindByIdempotencyKey(ctx, txn.VaultID, txn.CreatedBy, txn.IdempotencyKey)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if ok {
			return existing, nil
		}
	}

	p := newPreview(tx, txn.VaultID)
	for _, leg := range legs {
		if err := p.apply(ctx, leg.Target, 0, leg.Amount); err != nil {
			return ledger.Transaction{}, err
		}
	}

	if err := tx.InsertTransaction(ctx, txn); err != nil {
		// Lost a race on the idempotency index: the winner's row is
		// the canonical result.
		if txn.IdempotencyKey != "" && ledger.IsConflict(err) {
			existing, ok, ferr := tx.FindByIdempotencyKey(ctx, txn.VaultID, txn.CreatedBy, txn.IdempotencyKey)
			if ferr == nil && ok {
				return existing, nil
			}
		}
		return ledger.Transaction{}, err
	}

	for _, leg := range legs {
		if err := tx.InsertLeg(ctx, leg); err != nil {
			return ledger.Transaction{}, err
		}
	}

	if err := p.persist(ctx); err != nil {
		return ledger.Transaction{}, err
	}
	return txn, nil
}

func parsePositiveAmount(s string) (ledger.Money, error) {
	amount, err := ledger.ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidAmount)
	}
	return amount, nil
}

func occurredOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC().Truncate(time.Second)
	}
	return t.UTC().Truncate(time.Second)
}

func newTransaction(vaultID ledger.VaultID, kind ledger.TransactionKind, amount ledger.Money, userID, category, note, key string, occurredAt time.Time) ledger.Transaction {
	return ledger.Transaction{
		ID:             uuid.New(),
		VaultID:        vaultID,
		Kind:           kind,
		Amount:         amount,
		OccurredAt:     occurredOrNow(occurredAt),
		Category:       strings.TrimSpace(category),
		Note:           strings.TrimSpace(note),
		CreatedBy:      userID,
		IdempotencyKey: key,
		CreatedAt:      time.Now().UTC(),
	}
}

// =============================================================================
// PUBLIC OPERATIONS
// =============================================================================

// Income records money entering a wallet and its flow.
func (e *Engine) Income(ctx context.Context, userID string, vaultID ledger.VaultID, cmd EntryCommand) (ledger.Transaction, error) {
	return e.entry(ctx, userID, vaultID, ledger.KindIncome, cmd)
}

// Expense records money leaving a wallet and its flow.
func (e *Engine) Expense(ctx context.Context, userID string, vaultID ledger.VaultID, cmd EntryCommand) (ledger.Transaction, error) {
	return e.entry(ctx, userID, vaultID, ledger.KindExpense, cmd)
}

// Refund records money returning to a wallet and its flow.
func (e *Engine) Refund(ctx context.Context, userID string, vaultID ledger.VaultID, cmd EntryCommand) (ledger.Transaction, error) {
	return e.entry(ctx, userID, vaultID, ledger.KindRefund, cmd)
}

func (e *Engine) entry(ctx context.Context, userID string, vaultID ledger.VaultID, kind ledger.TransactionKind, cmd EntryCommand) (ledger.Transaction, error) {
	amount, err := parsePositiveAmount(cmd.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	var out ledger.Transaction
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultWrite(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		wallet, err := resolveWallet(ctx, tx, vaultID, cmd.Wallet)
		if err != nil {
			return err
		}
		flow, err := resolveFlow(ctx, tx, vaultID, cmd.Flow, true)
		if err != nil {
			return err
		}
		if err := ensureActiveWallet(wallet); err != nil {
			return err
		}
		if err := ensureActiveFlow(flow); err != nil {
			return err
		}

		txn := newTransaction(vaultID, kind, amount, userID,
			cmd.Category, cmd.Note, cmd.IdempotencyKey, cmd.OccurredAt)
		legs, err := ledger.NewFlowWalletLegs(txn.ID, kind, amount, wallet.ID, flow.ID)
		if err != nil {
			return err
		}
		out, err = createTransactionWithLegs(ctx, tx, txn, legs)
		return err
	})
	return out, err
}

// TransferWallet moves money between two wallets of the vault.
func (e *Engine) TransferWallet(ctx context.Context, userID string, vaultID ledger.VaultID, cmd TransferCommand) (ledger.Transaction, error) {
	amount, err := parsePositiveAmount(cmd.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	var out ledger.Transaction
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultWrite(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		from, err := resolveWallet(ctx, tx, vaultID, cmd.From)
		if err != nil {
			return err
		}
		to, err := resolveWallet(ctx, tx, vaultID, cmd.To)
		if err != nil {
			return err
		}
		if err := ensureActiveWallet(from); err != nil {
			return err
		}
		if err := ensureActiveWallet(to); err != nil {
			return err
		}

		txn := newTransaction(vaultID, ledger.KindTransferWallet, amount, userID,
			cmd.Category, cmd.Note, cmd.IdempotencyKey, cmd.OccurredAt)
		legs, err := ledger.NewTransferLegs(txn.ID, txn.Kind, amount,
			ledger.WalletTarget(from.ID), ledger.WalletTarget(to.ID))
		if err != nil {
			return err
		}
		out, err = createTransactionWithLegs(ctx, tx, txn, legs)
		return err
	})
	return out, err
}

// TransferFlow moves earmarked money between two flows of the vault.
func (e *Engine) TransferFlow(ctx context.Context, userID string, vaultID ledger.VaultID, cmd TransferCommand) (ledger.Transaction, error) {
	amount, err := parsePositiveAmount(cmd.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	var out ledger.Transaction
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultWrite(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		from, err := resolveFlow(ctx, tx, vaultID, cmd.From, false)
		if err != nil {
			return err
		}
		to, err := resolveFlow(ctx, tx, vaultID, cmd.To, false)
		if err != nil {
			return err
		}
		if err := ensureActiveFlow(from); err != nil {
			return err
		}
		if err := ensureActiveFlow(to); err != nil {
			return err
		}

		txn := newTransaction(vaultID, ledger.KindTransferFlow, amount, userID,
			cmd.Category, cmd.Note, cmd.IdempotencyKey, cmd.OccurredAt)
		legs, err := ledger.NewTransferLegs(txn.ID, txn.Kind, amount,
			ledger.FlowTarget(from.ID), ledger.FlowTarget(to.ID))
		if err != nil {
			return err
		}
		out, err = createTransactionWithLegs(ctx, tx, txn, legs)
		return err
	})
	return out, err
}

// VoidTransaction reverses every leg of a transaction and stamps it
// voided. The legs keep their recorded amounts as the audit record;
// listings and replay skip them through the voided timestamp. Voiding
// an already voided transaction is an error.
func (e *Engine) VoidTransaction(ctx context.Context, userID string, txID ledger.TransactionID) (ledger.Transaction, error) {
	var out ledger.Transaction
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		txn, err := tx.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if _, err := requireVaultWrite(ctx, tx, txn.VaultID, userID); err != nil {
			return err
		}
		if txn.Voided() {
			return fmt.Errorf("%w: transaction already voided", ledger.ErrInvalidAmount)
		}

		legs, err := tx.LegsByTransaction(ctx, txID)
		if err != nil {
			return err
		}
		p := newPreview(tx, txn.VaultID)
		for _, leg := range legs {
			if err := p.apply(ctx, leg.Target, leg.Amount, 0); err != nil {
				return err
			}
		}
		voidedAt := time.Now().UTC()
		if err := tx.SetTransactionVoided(ctx, txID, userID, voidedAt); err != nil {
			return err
		}
		if err := p.persist(ctx); err != nil {
			return err
		}
		txn.VoidedAt = &voidedAt
		txn.VoidedBy = userID
		out = txn
		return nil
	})
	return out, err
}

// UpdateTransaction amends a non-voided transaction's header fields
// and targets, charging each touched balance only the delta.
func (e *Engine) UpdateTransaction(ctx context.Context, userID string, txID ledger.TransactionID, cmd UpdateCommand) (ledger.Transaction, error) {
	var out ledger.Transaction
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		txn, err := tx.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if _, err := requireVaultWrite(ctx, tx, txn.VaultID, userID); err != nil {
			return err
		}
		if txn.Voided() {
			return invalidf("cannot amend a voided transaction")
		}
		if err := validateUpdateFields(txn.Kind, cmd); err != nil {
			return err
		}

		newAmount := txn.Amount
		if cmd.Amount != nil {
			newAmount, err = parsePositiveAmount(*cmd.Amount)
			if err != nil {
				return err
			}
		}

		legs, err := tx.LegsByTransaction(ctx, txID)
		if err != nil {
			return err
		}
		changes, err := planLegChanges(ctx, tx, txn, legs, newAmount, cmd)
		if err != nil {
			return err
		}

		p := newPreview(tx, txn.VaultID)
		for _, c := range changes {
			if c.newTarget == c.leg.Target {
				if err := p.apply(ctx, c.leg.Target, c.leg.Amount, c.newAmount); err != nil {
					return err
				}
			} else {
				if err := p.apply(ctx, c.leg.Target, c.leg.Amount, 0); err != nil {
					return err
				}
				if err := p.apply(ctx, c.newTarget, 0, c.newAmount); err != nil {
					return err
				}
			}
		}

		txn.Amount = newAmount
		if cmd.OccurredAt != nil {
			txn.OccurredAt = occurredOrNow(*cmd.OccurredAt)
		}
		if cmd.Category != nil {
			txn.Category = strings.TrimSpace(*cmd.Category)
		}
		if cmd.Note != nil {
			txn.Note = strings.TrimSpace(*cmd.Note)
		}
		if err := tx.UpdateTransactionFields(ctx, txn); err != nil {
			return err
		}
		for _, c := range changes {
			if err := tx.UpdateLeg(ctx, c.leg.ID, c.newTarget, c.newAmount); err != nil {
				return err
			}
		}
		if err := p.persist(ctx); err != nil {
			return err
		}
		out = txn
		return nil
	})
	return out, err
}

// validateUpdateFields rejects retarget fields that do not apply to
// the transaction kind.
func validateUpdateFields(kind ledger.TransactionKind, cmd UpdateCommand) error {
	if kind.IsTransfer() {
		if cmd.Wallet != nil || cmd.Flow != nil {
			return fmt.Errorf("%w: wallet/flow retarget does not apply to %s", ledger.ErrInvalidAmount, kind)
		}
		return nil
	}
	if cmd.From != nil || cmd.To != nil {
		return fmt.Errorf("%w: from/to retarget does not apply to %s", ledger.ErrInvalidAmount, kind)
	}
	return nil
}

type legChange struct {
	leg       ledger.Leg
	newTarget ledger.LegTarget
	newAmount ledger.Money
}

// planLegChanges derives each leg's new target and amount from the
// kind shape, the new amount and the retarget selectors.
func planLegChanges(ctx context.Context, tx *sqlite.Tx, txn ledger.Transaction, legs []ledger.Leg, newAmount ledger.Money, cmd UpdateCommand) ([]legChange, error) {
	if txn.Kind.IsTransfer() {
		return planTransferChanges(ctx, tx, txn, legs, newAmount, cmd)
	}

	signed, err := ledger.FlowWalletSignedAmount(txn.Kind, newAmount)
	if err != nil {
		return nil, err
	}
	changes := make([]legChange, 0, len(legs))
	for _, leg := range legs {
		c := legChange{leg: leg, newTarget: leg.Target, newAmount: signed}
		switch leg.Target.Kind {
		case ledger.TargetWallet:
			if cmd.Wallet != nil {
				w, err := resolveWallet(ctx, tx, txn.VaultID, *cmd.Wallet)
				if err != nil {
					return nil, err
				}
				if err := ensureActiveWallet(w); err != nil {
					return nil, err
				}
				c.newTarget = ledger.WalletTarget(w.ID)
			}
		case ledger.TargetFlow:
			if cmd.Flow != nil {
				f, err := resolveFlow(ctx, tx, txn.VaultID, *cmd.Flow, false)
				if err != nil {
					return nil, err
				}
				if err := ensureActiveFlow(f); err != nil {
					return nil, err
				}
				c.newTarget = ledger.FlowTarget(f.ID)
			}
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func planTransferChanges(ctx context.Context, tx *sqlite.Tx, txn ledger.Transaction, legs []ledger.Leg, newAmount ledger.Money, cmd UpdateCommand) ([]legChange, error) {
	neg, err := newAmount.Neg()
	if err != nil {
		return nil, err
	}

	resolveSide := func(sel Selector) (ledger.LegTarget, error) {
		if txn.Kind == ledger.KindTransferWallet {
			w, err := resolveWallet(ctx, tx, txn.VaultID, sel)
			if err != nil {
				return ledger.LegTarget{}, err
			}
			if err := ensureActiveWallet(w); err != nil {
				return ledger.LegTarget{}, err
			}
			return ledger.WalletTarget(w.ID), nil
		}
		f, err := resolveFlow(ctx, tx, txn.VaultID, sel, false)
		if err != nil {
			return ledger.LegTarget{}, err
		}
		if err := ensureActiveFlow(f); err != nil {
			return ledger.LegTarget{}, err
		}
		return ledger.FlowTarget(f.ID), nil
	}

	changes := make([]legChange, 0, len(legs))
	var outTarget, inTarget ledger.LegTarget
	for _, leg := range legs {
		c := legChange{leg: leg, newTarget: leg.Target}
		if leg.Amount.IsNegative() {
			c.newAmount = neg
			if cmd.From != nil {
				c.newTarget, err = resolveSide(*cmd.From)
				if err != nil {
					return nil, err
				}
			}
			outTarget = c.newTarget
		} else {
			c.newAmount = newAmount
			if cmd.To != nil {
				c.newTarget, err = resolveSide(*cmd.To)
				if err != nil {
					return nil, err
				}
			}
			inTarget = c.newTarget
		}
		changes = append(changes, c)
	}
	if outTarget.ID == inTarget.ID {
		return nil, invalidf("transfer source and destination must differ")
	}
	return changes, nil
}
