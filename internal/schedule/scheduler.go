// Package schedule drives catch-up materialization of recurring
// transactions. Each due, unprocessed occurrence of every active schedule is
// turned into exactly one ledger transaction, with outcomes recorded in the
// run ledger so repeated passes are idempotent across restarts.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/ledger"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"
)

// errInactive marks a materialization that was skipped because the schedule
// turned inactive between the due query and the attempt.
var errInactive = errors.New("schedule inactive")

// Stats summarizes one scheduler pass.
type Stats struct {
	Materialized int
	Skipped      int
	Failed       int
}

// Scheduler materializes due recurring occurrences through the ledger engine.
type Scheduler struct {
	storage service.Storage
	engine  *ledger.Engine
}

// New creates a scheduler over the given storage and engine.
func New(storage service.Storage, engine *ledger.Engine) *Scheduler {
	return &Scheduler{storage: storage, engine: engine}
}

// ProcessDue runs one catch-up pass as of today. Every active schedule with
// occurrences due on or before today gets each unresolved occurrence
// attempted in ascending date order. A failure stops catch-up for that
// schedule only; the pass itself always completes and returns per-outcome
// counts.
func (s *Scheduler) ProcessDue(ctx context.Context, today time.Time) (Stats, error) {
	today = truncateToDay(today)

	var stats Stats
	due, err := s.storage.GetDueRecurrings(ctx, today)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch due schedules: %w", err)
	}

	slog.Info("Scheduler pass starting", "today", today.Format("2006-01-02"), "due", len(due))

	for i := range due {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		s.catchUp(ctx, &stats, &due[i], today)
	}

	s.storage.InvalidateSummaries()

	slog.Info("Scheduler pass complete",
		"materialized", stats.Materialized,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, nil
}

// catchUp processes one schedule's occurrences from its stored next run
// date through today, in order. Resolved dates are passed over without
// materializing; the first failure breaks the loop so later occurrences
// never commit ahead of an earlier, unresolved one.
func (s *Scheduler) catchUp(ctx context.Context, stats *Stats, rec *model.Recurring, today time.Time) {
	for runDate := truncateToDay(rec.NextRunDate); !runDate.After(today); runDate = NextRunDate(rec, runDate) {
		resolved, err := s.hasResolvedRun(ctx, rec.ID, runDate)
		if err != nil {
			slog.Warn("Run ledger lookup failed", "recurring", rec.ID, "error", err)
			return
		}
		if resolved {
			continue
		}

		switch err := s.materialize(ctx, rec, runDate); {
		case err == nil:
			stats.Materialized++
		case errors.Is(err, errInactive):
			stats.Skipped++
		default:
			stats.Failed++
			s.recordFailure(ctx, rec.ID, runDate, err)
			slog.Warn("Occurrence failed, stopping catch-up for schedule",
				"recurring", rec.ID,
				"run_date", runDate.Format("2006-01-02"),
				"error", err)
			return
		}
	}
}

func (s *Scheduler) hasResolvedRun(ctx context.Context, recurringID string, runDate time.Time) (bool, error) {
	run, err := s.storage.GetRun(ctx, recurringID, runDate)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return run.Status.Resolved(), nil
}

// materialize commits one occurrence as a single storage transaction: the
// ledger create path, the success run row, and the next-run-date advance
// either all land or none do.
func (s *Scheduler) materialize(ctx context.Context, rec *model.Recurring, runDate time.Time) error {
	tx, err := s.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Re-read the schedule inside the transaction; it may have been edited
	// or deactivated since the due query.
	current, err := tx.GetRecurring(ctx, rec.ID)
	if err != nil {
		return err
	}
	if !current.IsActive {
		if err := s.recordSkip(ctx, tx, rec.ID, runDate); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
		}
		return errInactive
	}

	template := current.Template(runDate)
	txn, err := s.engine.CreateTransactionTx(ctx, tx, ledger.Intent{
		Date:          template.Date,
		Type:          template.Type,
		CategoryID:    template.CategoryID,
		FromAccountID: template.FromAccountID,
		ToAccountID:   template.ToAccountID,
		RecurringID:   template.RecurringID,
		Note:          template.Note,
		Amount:        template.Amount,
	})
	if err != nil {
		return err
	}

	if err := tx.UpsertRun(ctx, &model.RecurringRun{
		ID:            uuid.NewString(),
		RecurringID:   rec.ID,
		RunDate:       runDate,
		Status:        model.RunSuccess,
		TransactionID: txn.ID,
	}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	next := NextRunDate(current, runDate)
	if err := tx.AdvanceRecurring(ctx, rec.ID, next, runDate); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	slog.Debug("Occurrence materialized",
		"recurring", rec.ID,
		"run_date", runDate.Format("2006-01-02"),
		"transaction", txn.ID)
	return nil
}

// recordFailure writes the durable failed run row after the attempt's
// transaction has rolled back. The date stays eligible for retry on the
// next pass and next_run_date does not advance.
func (s *Scheduler) recordFailure(ctx context.Context, recurringID string, runDate time.Time, cause error) {
	err := s.storage.UpsertRun(ctx, &model.RecurringRun{
		ID:          uuid.NewString(),
		RecurringID: recurringID,
		RunDate:     runDate,
		Status:      model.RunFailed,
		Reason:      cause.Error(),
	})
	if err != nil {
		slog.Error("Failed to record failed run",
			"recurring", recurringID,
			"run_date", runDate.Format("2006-01-02"),
			"error", err)
	}
}

func (s *Scheduler) recordSkip(ctx context.Context, tx service.Tx, recurringID string, runDate time.Time) error {
	return tx.UpsertRun(ctx, &model.RecurringRun{
		ID:          uuid.NewString(),
		RecurringID: recurringID,
		RunDate:     runDate,
		Status:      model.RunSkipped,
		Reason:      "schedule inactive",
	})
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
