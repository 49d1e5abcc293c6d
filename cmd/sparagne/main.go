/*
main.go - Command-line client

PURPOSE:
  A small CLI that talks to the ledger engine directly over the
  SQLite store, for quick bookkeeping from a terminal without the
  HTTP server.

COMMANDS:
  sparagne register                          register the calling user
  sparagne vault create <name>               create a vault
  sparagne vault stats <name>                show vault statistics
  sparagne vault recompute <name>            rebuild cached balances
  sparagne income <vault> <amount>           record an income
  sparagne expense <vault> <amount>          record an expense

GLOBAL FLAGS:
  --db     SQLite database path (default: sparagne.db)
  --user   acting user id (required for everything but --help)

EXAMPLES:
  sparagne --user alice register
  sparagne --user alice vault create Household --currency EUR
  sparagne --user alice expense Household 12.50 --flow Groceries --note "market"
  sparagne --user alice vault stats Household

SEE ALSO:
  - engine/engine.go: the operations behind each command
  - cmd/server/main.go: the HTTP front end
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Oghma/sparagne/engine"
	"github.com/Oghma/sparagne/ledger"
	"github.com/Oghma/sparagne/store/sqlite"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliContext carries the store-backed engine and the acting user into
// each subcommand.
type cliContext struct {
	dbPath string
	userID string

	store *sqlite.Store
	eng   *engine.Engine
}

func (c *cliContext) open() error {
	if c.userID == "" {
		return fmt.Errorf("--user is required")
	}
	store, err := sqlite.New(c.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.store = store
	c.eng = engine.New(store)
	return nil
}

func (c *cliContext) close() {
	if c.store != nil {
		c.store.Close()
	}
}

func newRootCommand() *cobra.Command {
	cli := &cliContext{}

	rootCmd := &cobra.Command{
		Use:   "sparagne",
		Short: "Personal ledger with wallets and cash flow budgets",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cli.dbPath, "db", "sparagne.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&cli.userID, "user", "", "acting user id")

	rootCmd.AddCommand(newRegisterCommand(cli))
	rootCmd.AddCommand(newVaultCommand(cli))
	rootCmd.AddCommand(newEntryCommand(cli, "income", "Record an income"))
	rootCmd.AddCommand(newEntryCommand(cli, "expense", "Record an expense"))

	return rootCmd
}

func newRegisterCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the calling user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.open(); err != nil {
				return err
			}
			defer cli.close()

			if err := cli.eng.RegisterUser(cmd.Context(), cli.userID); err != nil {
				return err
			}
			fmt.Printf("Registered %s\n", cli.userID)
			return nil
		},
	}
}

func newVaultCommand(cli *cliContext) *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage vaults",
	}

	var currency string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.open(); err != nil {
				return err
			}
			defer cli.close()

			vault, err := cli.eng.NewVault(cmd.Context(), cli.userID, args[0], currency)
			if err != nil {
				return err
			}
			fmt.Printf("Created vault %q (%s)\n", vault.Name, vault.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&currency, "currency", "EUR", "vault currency")

	statsCmd := &cobra.Command{
		Use:   "stats <name>",
		Short: "Show vault statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.open(); err != nil {
				return err
			}
			defer cli.close()
			return runStats(cmd.Context(), cli, args[0])
		},
	}

	recomputeCmd := &cobra.Command{
		Use:   "recompute <name>",
		Short: "Rebuild cached balances from the transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.open(); err != nil {
				return err
			}
			defer cli.close()

			vault, err := cli.eng.VaultByName(cmd.Context(), cli.userID, args[0])
			if err != nil {
				return err
			}
			if err := cli.eng.RecomputeBalances(cmd.Context(), cli.userID, vault.ID); err != nil {
				return err
			}
			fmt.Printf("Recomputed balances for %q\n", vault.Name)
			return nil
		},
	}

	vaultCmd.AddCommand(createCmd, statsCmd, recomputeCmd)
	return vaultCmd
}

func runStats(ctx context.Context, cli *cliContext, name string) error {
	vault, err := cli.eng.VaultByName(ctx, cli.userID, name)
	if err != nil {
		return err
	}
	stats, err := cli.eng.VaultStatistics(ctx, cli.userID, vault.ID)
	if err != nil {
		return err
	}
	snapshot, err := cli.eng.VaultSnapshot(ctx, cli.userID, vault.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", vault.Name, stats.Currency)
	fmt.Printf("  total balance  %s\n", ledger.FormatAmount(stats.TotalBalance))
	fmt.Printf("  total income   %s\n", ledger.FormatAmount(stats.TotalIncome))
	fmt.Printf("  net expenses   %s\n", ledger.FormatAmount(stats.NetExpenses))

	fmt.Println("  wallets:")
	for _, w := range snapshot.Wallets {
		mark := ""
		if w.Archived {
			mark = " (archived)"
		}
		fmt.Printf("    %-20s %s%s\n", w.Name, ledger.FormatAmount(w.Balance), mark)
	}
	fmt.Println("  cash flows:")
	for _, f := range snapshot.Flows {
		mark := ""
		switch f.Mode.Kind {
		case ledger.ModeCapped:
			mark = fmt.Sprintf(" (cap %s)", ledger.FormatAmount(f.Mode.Max))
		case ledger.ModeIncomeCapped:
			mark = fmt.Sprintf(" (income %s of %s)",
				ledger.FormatAmount(f.IncomeTotal), ledger.FormatAmount(f.Mode.Max))
		}
		if f.Archived {
			mark += " (archived)"
		}
		fmt.Printf("    %-20s %s%s\n", f.Name, ledger.FormatAmount(f.Balance), mark)
	}
	return nil
}

// newEntryCommand builds the income and expense commands, which share
// a shape and differ only in the engine operation they call.
func newEntryCommand(cli *cliContext, kind, short string) *cobra.Command {
	var wallet, flow, category, note string

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <vault> <amount>", kind),
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.open(); err != nil {
				return err
			}
			defer cli.close()

			vault, err := cli.eng.VaultByName(cmd.Context(), cli.userID, args[0])
			if err != nil {
				return err
			}

			entry := engine.EntryCommand{
				Wallet:   engine.ByName(wallet),
				Flow:     engine.ByName(flow),
				Amount:   args[1],
				Category: category,
				Note:     note,
			}

			var tx ledger.Transaction
			if kind == "income" {
				tx, err = cli.eng.Income(cmd.Context(), cli.userID, vault.ID, entry)
			} else {
				tx, err = cli.eng.Expense(cmd.Context(), cli.userID, vault.ID, entry)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Recorded %s of %s (%s)\n", tx.Kind, ledger.FormatAmount(tx.Amount), tx.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "Cash", "wallet name")
	cmd.Flags().StringVar(&flow, "flow", "", "cash flow name (default: Unallocated)")
	cmd.Flags().StringVar(&category, "category", "", "category label")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")

	return cmd
}
