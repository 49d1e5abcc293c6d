/*
wallets.go - Wallet management

PURPOSE:
  Wallet creation, renaming and archiving. An opening balance is not a
  raw balance write: it is recorded as a real opening transaction
  against the Unallocated flow so the audit trail explains it like any
  other money movement.
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

// OpeningCategory tags the synthetic transactions that seed a new
// wallet or flow.
const OpeningCategory = "opening"

// NewWallet creates a wallet. A non-zero opening balance is recorded
// as an opening income (or expense, when negative) through the
// Unallocated flow.
func (e *Engine) NewWallet(ctx context.Context, userID string, vaultID ledger.VaultID, name, openingBalance string) (ledger.Wallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Wallet{}, invalidf("empty wallet name")
	}

	var opening ledger.Money
	if openingBalance != "" {
		var err error
		opening, err = ledger.ParseAmount(openingBalance)
		if err != nil {
			return ledger.Wallet{}, err
		}
	}

	wallet := ledger.Wallet{
		ID:        uuid.New(),
		VaultID:   vaultID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := requireVaultWrite(ctx, tx, vaultID, userID); err != nil {
			return err
		}
		if err := tx.InsertWallet(ctx, wallet); err != nil {
			return err
		}
		if opening.IsZero() {
			return nil
		}

		kind := ledger.KindIncome
		if opening.IsNegative() {
			kind = ledger.KindExpense
		}
		system, err := tx.SystemFlow(ctx, vaultID)
		if err != nil {
			return err
		}
		txn := newTransaction(vaultID, kind, opening.Abs(), userID,
			OpeningCategory, fmt.Sprintf("opening balance for wallet %q", name), "", time.Time{})
		legs, err := ledger.NewFlowWalletLegs(txn.ID, kind, opening.Abs(), wallet.ID, system.ID)
		if err != nil {
			return err
		}
		if _, err := createTransactionWithLegs(ctx, tx, txn, legs); err != nil {
			return err
		}
		wallet.Balance = opening
		return nil
	})
	if err != nil {
		return ledger.Wallet{}, err
	}
	return wallet, nil
}

// Wallet fetches a wallet the caller may read.
func (e *Engine) Wallet(ctx context.Context, userID string, walletID ledger.WalletID) (ledger.Wallet, error) {
	var wallet ledger.Wallet
	err := e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		wallet, err = tx.GetWallet(ctx, walletID)
		if err != nil {
			return err
		}
		_, err = requireVaultRead(ctx, tx, wallet.VaultID, userID)
		return err
	})
	if err != nil {
		return ledger.Wallet{}, err
	}
	return wallet, nil
}

// RenameWallet changes a wallet's name within its vault.
func (e *Engine) RenameWallet(ctx context.Context, userID string, walletID ledger.WalletID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidf("empty wallet name")
	}
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		wallet, err := tx.GetWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if _, err := requireVaultWrite(ctx, tx, wallet.VaultID, userID); err != nil {
			return err
		}
		return tx.UpdateWalletName(ctx, walletID, name)
	})
}

// SetWalletArchived toggles a wallet's archived flag. Archived wallets
// reject new legs but keep their history.
func (e *Engine) SetWalletArchived(ctx context.Context, userID string, walletID ledger.WalletID, archived bool) error {
	return e.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		wallet, err := tx.GetWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if _, err := requireVaultWrite(ctx, tx, wallet.VaultID, userID); err != nil {
			return err
		}
		return tx.SetWalletArchived(ctx, walletID, archived)
	})
}
