package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

const (
	ownerID  = "alice"
	editorID = "bob"
	viewerID = "carol"
)

func newTestEngine(t *testing.T) (*Engine, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

// newTestVault boots a vault owned by alice with the default Cash
// wallet and Unallocated flow.
func newTestVault(t *testing.T, e *Engine) ledger.Vault {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.RegisterUser(ctx, ownerID))
	vault, err := e.NewVault(ctx, ownerID, "Household", "EUR")
	require.NoError(t, err)
	return vault
}

func money(t *testing.T, s string) ledger.Money {
	t.Helper()
	m, err := ledger.ParseAmount(s)
	require.NoError(t, err)
	return m
}

func findWallet(t *testing.T, e *Engine, vaultID ledger.VaultID, name string) ledger.Wallet {
	t.Helper()
	snap, err := e.VaultSnapshot(context.Background(), ownerID, vaultID)
	require.NoError(t, err)
	for _, w := range snap.Wallets {
		if w.Name == name {
			return w
		}
	}
	t.Fatalf("wallet %q not found", name)
	return ledger.Wallet{}
}

func findFlow(t *testing.T, e *Engine, vaultID ledger.VaultID, name string) ledger.CashFlow {
	t.Helper()
	snap, err := e.VaultSnapshot(context.Background(), ownerID, vaultID)
	require.NoError(t, err)
	for _, f := range snap.Flows {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("cash flow %q not found", name)
	return ledger.CashFlow{}
}

func ptr[T any](v T) *T { return &v }
