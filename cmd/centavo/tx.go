package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/centavo-app/centavo/internal/ledger"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
		Long:  `Create, edit, delete, and list ledger transactions. All mutations go through the ledger engine, which keeps balances consistent.`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(deleteTxCmd())
	cmd.AddCommand(listTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		txType   string
		date     string
		category string
		from     string
		to       string
		note     string
		goalID   string
		investID string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Create a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			amount, err := parseAmountArg(args[0])
			if err != nil {
				return err
			}
			when, err := parseDateArg(date)
			if err != nil {
				return err
			}

			engine := ledger.New(store)
			txn, err := engine.CreateTransaction(ctx, ledger.Intent{
				Date:          when,
				Type:          model.TransactionType(txType),
				CategoryID:    category,
				FromAccountID: from,
				ToAccountID:   to,
				GoalID:        goalID,
				InvestmentID:  investID,
				Note:          note,
				Amount:        amount,
			})
			if err != nil {
				return err
			}

			cmd.Printf("Created %s of %s (%s)\n", txn.Type, txn.Amount.StringFixed(2), txn.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "transaction type (income, expense, transfer)")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&from, "from", "", "source account id")
	cmd.Flags().StringVar(&to, "to", "", "destination account id")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	cmd.Flags().StringVar(&goalID, "goal", "", "linked goal id")
	cmd.Flags().StringVar(&investID, "investment", "", "linked investment id")

	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		amount string
		date   string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction's amount or date",
		Long:  `Re-applies the transaction: the old balance effect is reversed and the new one applied atomically.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			if amount != "" {
				if txn.Amount, err = parseAmountArg(amount); err != nil {
					return err
				}
			}
			if date != "" {
				if txn.Date, err = parseDateArg(date); err != nil {
					return err
				}
			}

			engine := ledger.New(store)
			updated, err := engine.UpdateTransaction(ctx, txn)
			if err != nil {
				return err
			}

			cmd.Printf("Updated %s: amount %s on %s\n", updated.ID, updated.Amount.StringFixed(2), updated.DateKey())
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")

	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and reverse its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := ledger.New(store)
			if err := engine.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}

			cmd.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func listTxCmd() *cobra.Command {
	var (
		from  string
		to    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{Limit: limit}
			if from != "" {
				start, parseErr := parseDateArg(from)
				if parseErr != nil {
					return parseErr
				}
				filter.StartDate = &start
			}
			if to != "" {
				end, parseErr := parseDateArg(to)
				if parseErr != nil {
					return parseErr
				}
				filter.EndDate = &end
			}

			transactions, err := store.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(transactions) == 0 {
				cmd.Println("No transactions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tFROM\tTO\tNOTE")
			for _, txn := range transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID, txn.DateKey(), txn.Type, txn.Amount.StringFixed(2),
					txn.FromAccountID, txn.ToAccountID, txn.Note)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")

	return cmd
}
