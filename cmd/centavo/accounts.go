package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/centavo-app/centavo/internal/ledger"
	"github.com/centavo-app/centavo/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List and create the accounts the ledger tracks balances for.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.ListAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			if len(accounts) == 0 {
				cmd.Println("No accounts found. Use 'centavo accounts add' to create one.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tLIMIT\tACTIVE")
			for _, account := range accounts {
				limit := "-"
				if account.Type == model.AccountTypeCreditCard {
					limit = account.CreditLimit.StringFixed(2)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
					account.ID, account.Name, account.Type,
					account.Balance.StringFixed(2), limit, account.IsActive)
			}
			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		accountType string
		balance     string
		creditLimit string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opening, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}

			account := &model.Account{
				ID:       uuid.NewString(),
				Name:     args[0],
				Type:     model.AccountType(accountType),
				Balance:  opening,
				IsActive: true,
			}
			if creditLimit != "" {
				if account.CreditLimit, err = decimal.NewFromString(creditLimit); err != nil {
					return fmt.Errorf("invalid credit limit %q: %w", creditLimit, err)
				}
			}

			engine := ledger.New(store)
			if err := engine.CreateAccount(ctx, account); err != nil {
				return err
			}

			cmd.Printf("Created account %s (%s)\n", account.Name, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "checking", "account type (savings, checking, cash, wallet, credit_card, loan, investment)")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance (non-positive for liability accounts)")
	cmd.Flags().StringVar(&creditLimit, "limit", "", "credit limit (required for credit cards)")

	return cmd
}
