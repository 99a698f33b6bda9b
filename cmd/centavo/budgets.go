package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/centavo-app/centavo/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly category budgets",
	}

	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(listAlertsCmd())

	return cmd
}

func setBudgetCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "set <category-id> <limit>",
		Short: "Cap spending for a category in one month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			limit, err := parseAmountArg(args[1])
			if err != nil {
				return err
			}
			if month == "" {
				today, dateErr := parseDateArg("")
				if dateErr != nil {
					return dateErr
				}
				month = today.Format("2006-01")
			}

			budget := &model.Budget{
				ID:         uuid.NewString(),
				CategoryID: args[0],
				Month:      month,
				Limit:      limit,
			}
			if err := store.CreateBudget(ctx, budget); err != nil {
				return err
			}

			cmd.Printf("Budget set: %s capped at %s for %s\n", budget.CategoryID, budget.Limit.StringFixed(2), budget.Month)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month (YYYY-MM, default current)")

	return cmd
}

func listAlertsCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List budget alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			alerts, err := store.ListAlerts(ctx, month)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if len(alerts) == 0 {
				cmd.Println("No alerts.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "KIND\tCATEGORY\tMONTH\tMESSAGE")
			for _, alert := range alerts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", alert.Kind, alert.CategoryID, alert.Month, alert.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "filter to one month (YYYY-MM)")

	return cmd
}
