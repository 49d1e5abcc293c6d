/*
balances.go - Full replay repair

PURPOSE:
  Recomputes every wallet balance, flow balance and income total of a
  vault from its non-voided legs. The stored balances are a cache of
  the leg history; replaying makes the cache honest again after a crash
  or a manual database edit.

  Replay accumulates without cap enforcement. History that was
  admissible when it was recorded stays recorded even if a cap was
  tightened afterwards; new legs are where caps are enforced.
*/
package engine

import (
	"context"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

// RecomputeBalances rebuilds a vault's balances from its leg history.
// Owner only.
func (e *Engine) RecomputeBalances(ctx context.Context, userID string, vaultID ledger.VaultID) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := requireVaultOwner(ctx, tx, vaultID, userID); err != nil {
			return err
		}

		wallets, err := tx.ListWallets(ctx, vaultID)
		if err != nil {
			return err
		}
		flows, err := tx.ListFlows(ctx, vaultID)
		if err != nil {
			return err
		}

		walletBalances := make(map[ledger.WalletID]ledger.Money, len(wallets))
		for _, w := range wallets {
			walletBalances[w.ID] = 0
		}
		flowStates := make(map[ledger.FlowID]*ledger.CashFlow, len(flows))
		for i := range flows {
			f := flows[i]
			f.Balance = 0
			f.IncomeTotal = 0
			flowStates[f.ID] = &f
		}

		legs, err := tx.LegsChronological(ctx, vaultID)
		if err != nil {
			return err
		}
		for _, leg := range legs {
			switch leg.Target.Kind {
			case ledger.TargetWallet:
				balance, ok := walletBalances[leg.Target.ID]
				if !ok {
					return notFound("wallet for leg")
				}
				if walletBalances[leg.Target.ID], err = balance.Add(leg.Amount); err != nil {
					return err
				}
			case ledger.TargetFlow:
				flow, ok := flowStates[leg.Target.ID]
				if !ok {
					return notFound("cash flow for leg")
				}
				if flow.Balance, err = flow.Balance.Add(leg.Amount); err != nil {
					return err
				}
				if flow.Mode.Kind == ledger.ModeIncomeCapped && leg.Amount.IsPositive() {
					if flow.IncomeTotal, err = flow.IncomeTotal.Add(leg.Amount); err != nil {
						return err
					}
				}
			}
		}

		for id, balance := range walletBalances {
			if err := tx.UpdateWalletBalance(ctx, id, balance); err != nil {
				return err
			}
		}
		for _, flow := range flowStates {
			if err := tx.SaveFlowState(ctx, *flow); err != nil {
				return err
			}
		}
		return nil
	})
}
