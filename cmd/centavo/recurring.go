package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/centavo-app/centavo/internal/ledger"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/schedule"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring schedules",
		Long:  `Create and list recurring transaction schedules, inspect their run ledger, and run catch-up processing for all due occurrences.`,
	}

	cmd.AddCommand(addRecurringCmd())
	cmd.AddCommand(listRecurringCmd())
	cmd.AddCommand(runRecurringCmd())
	cmd.AddCommand(listRunsCmd())

	return cmd
}

func addRecurringCmd() *cobra.Command {
	var (
		txType     string
		frequency  string
		dayOfMonth int
		start      string
		category   string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Create a recurring schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			amount, err := parseAmountArg(args[1])
			if err != nil {
				return err
			}
			firstRun, err := parseDateArg(start)
			if err != nil {
				return err
			}

			rec := &model.Recurring{
				ID:            uuid.NewString(),
				Description:   args[0],
				Type:          model.TransactionType(txType),
				Amount:        amount,
				Frequency:     model.Frequency(frequency),
				DayOfMonth:    dayOfMonth,
				CategoryID:    category,
				FromAccountID: from,
				ToAccountID:   to,
				IsActive:      true,
				NextRunDate:   firstRun,
			}
			if err := store.CreateRecurring(ctx, rec); err != nil {
				return err
			}

			cmd.Printf("Created schedule %q (%s), first run %s\n", rec.Description, rec.ID, rec.NextRunDate.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "transaction type (income, expense, transfer)")
	cmd.Flags().StringVar(&frequency, "frequency", "monthly", "frequency (daily, weekly, monthly, quarterly, yearly)")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 0, "fixed day of month for monthly schedules (clamped to month length)")
	cmd.Flags().StringVar(&start, "start", "", "first run date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&from, "from", "", "source account id")
	cmd.Flags().StringVar(&to, "to", "", "destination account id")

	return cmd
}

func listRecurringCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recs, err := store.ListRecurrings(ctx, !all)
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}

			if len(recs) == 0 {
				cmd.Println("No recurring schedules found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tDESCRIPTION\tTYPE\tAMOUNT\tFREQ\tNEXT RUN\tACTIVE")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
					rec.ID, rec.Description, rec.Type, rec.Amount.StringFixed(2),
					rec.Frequency, rec.NextRunDate.Format("2006-01-02"), rec.IsActive)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive schedules")

	return cmd
}

func runRecurringCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process all due occurrences",
		Long:  `Materializes one transaction per unprocessed due occurrence of every active schedule. Safe to run repeatedly; already-processed occurrences are never duplicated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			today, err := parseDateArg(asOf)
			if err != nil {
				return err
			}

			scheduler := schedule.New(store, ledger.New(store))
			stats, err := scheduler.ProcessDue(ctx, today)
			if err != nil {
				return err
			}

			cmd.Printf("Materialized %d, skipped %d, failed %d\n",
				stats.Materialized, stats.Skipped, stats.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "process occurrences due on or before this date (default today)")

	return cmd
}

func listRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs <schedule-id>",
		Short: "Show the run ledger for a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				cmd.Println("No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "DATE\tSTATUS\tTRANSACTION\tREASON")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					run.DateKey(), run.Status, run.TransactionID, run.Reason)
			}
			return nil
		},
	}
}
