/*
list.go - Cursor-paginated transaction listings

PURPOSE:
  Listings fetch limit+1 rows to answer has-more without a count query,
  and hand back an opaque cursor naming the last row of the page.
  Keyset pagination keeps pages stable while new transactions land at
  the head of the log.
*/
package engine

import (
	"context"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

// Page is one slice of a vault-wide listing.
type Page struct {
	Transactions []ledger.Transaction
	NextCursor   string
	HasMore      bool
}

// TargetEntry pairs a transaction with the signed amount of its leg on
// the listed wallet or flow.
type TargetEntry struct {
	Transaction ledger.Transaction
	Amount      ledger.Money
}

// TargetPage is one slice of a wallet- or flow-scoped listing.
type TargetPage struct {
	Entries    []TargetEntry
	NextCursor string
	HasMore    bool
}

func decodeCursorToken(token string) (*ledger.Cursor, error) {
	if token == "" {
		return nil, nil
	}
	c, err := ledger.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListVaultTransactions pages through every transaction of a vault.
func (e *Engine) ListVaultTransactions(ctx context.Context, userID string, vaultID ledger.VaultID, f ledger.ListFilter, cursorToken string) (Page, error) {
	f, err := f.Normalize()
	if err != nil {
		return Page{}, err
	}
	cursor, err := decodeCursorToken(cursorToken)
	if err != nil {
		return Page{}, err
	}

	var page Page
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultRead(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		rows, err := tx.ListVaultPage(ctx, vaultID, f, cursor, f.Limit+1)
		if err != nil {
			return err
		}
		if len(rows) > f.Limit {
			page.HasMore = true
			rows = rows[:f.Limit]
		}
		page.Transactions = rows
		if page.HasMore && len(rows) > 0 {
			last := rows[len(rows)-1]
			page.NextCursor = ledger.Cursor{OccurredAt: last.OccurredAt, TransactionID: last.ID}.Encode()
		}
		return nil
	})
	return page, err
}

// ListWalletTransactions pages through the transactions touching one
// wallet, each with its signed leg amount.
func (e *Engine) ListWalletTransactions(ctx context.Context, userID string, walletID ledger.WalletID, f ledger.ListFilter, cursorToken string) (TargetPage, error) {
	f, err := f.Normalize()
	if err != nil {
		return TargetPage{}, err
	}
	cursor, err := decodeCursorToken(cursorToken)
	if err != nil {
		return TargetPage{}, err
	}

	var page TargetPage
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		wallet, err := tx.GetWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if _, err := requireVaultRead(ctx, tx, wallet.VaultID, userID); err != nil {
			return err
		}
		return e.fillTargetPage(ctx, tx, wallet.VaultID, ledger.WalletTarget(walletID), f, cursor, &page)
	})
	return page, err
}

// ListFlowTransactions pages through the transactions touching one
// flow. Flow-scoped members may list a flow shared with them without
// any vault role.
func (e *Engine) ListFlowTransactions(ctx context.Context, userID string, flowID ledger.FlowID, f ledger.ListFilter, cursorToken string) (TargetPage, error) {
	f, err := f.Normalize()
	if err != nil {
		return TargetPage{}, err
	}
	cursor, err := decodeCursorToken(cursorToken)
	if err != nil {
		return TargetPage{}, err
	}

	var page TargetPage
	err = e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		flow, err := tx.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		if err := requireFlowRead(ctx, tx, flow, userID); err != nil {
			return err
		}
		return e.fillTargetPage(ctx, tx, flow.VaultID, ledger.FlowTarget(flowID), f, cursor, &page)
	})
	return page, err
}

func (e *Engine) fillTargetPage(ctx context.Context, tx *sqlite.Tx, vaultID ledger.VaultID, target ledger.LegTarget, f ledger.ListFilter, cursor *ledger.Cursor, page *TargetPage) error {
	rows, err := tx.ListTargetPage(ctx, vaultID, target, f, cursor, f.Limit+1)
	if err != nil {
		return err
	}
	if len(rows) > f.Limit {
		page.HasMore = true
		rows = rows[:f.Limit]
	}
	page.Entries = make([]TargetEntry, len(rows))
	for i, r := range rows {
		page.Entries[i] = TargetEntry{Transaction: r.Transaction, Amount: r.LegAmount}
	}
	if page.HasMore && len(rows) > 0 {
		last := rows[len(rows)-1].Transaction
		page.NextCursor = ledger.Cursor{OccurredAt: last.OccurredAt, TransactionID: last.ID}.Encode()
	}
	return nil
}

// TransactionWithLegs fetches one transaction and its legs.
func (e *Engine) TransactionWithLegs(ctx context.Context, userID string, txID ledger.TransactionID) (ledger.Transaction, []ledger.Leg, error) {
	var (
		txn  ledger.Transaction
		legs []ledger.Leg
	)
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		txn, err = tx.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		legs, err = tx.LegsByTransaction(ctx, txID)
		if err != nil {
			return err
		}
		return requireTransactionRead(ctx, tx, txn, legs, userID)
	})
	if err != nil {
		return ledger.Transaction{}, nil, err
	}
	return txn, legs, nil
}
