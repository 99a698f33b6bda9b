package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
)

// GetRun looks up the run ledger entry for one (schedule, date) occurrence.
// Returns common.ErrNotFound when the occurrence has never been attempted.
func (s *SQLiteStorage) GetRun(ctx context.Context, recurringID string, runDate time.Time) (*model.RecurringRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recurringID, "recurringID"); err != nil {
		return nil, err
	}
	return s.getRunTx(ctx, s.db, recurringID, runDate)
}

func (s *SQLiteStorage) getRunTx(ctx context.Context, q queryable, recurringID string, runDate time.Time) (*model.RecurringRun, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, recurring_id, run_date, status, transaction_id, reason, created_at
		FROM recurring_runs
		WHERE recurring_id = ? AND run_date = ?
	`, recurringID, formatDate(runDate))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s@%s: %w", recurringID, formatDate(runDate), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s@%s: %w", recurringID, formatDate(runDate), err)
	}
	return run, nil
}

// UpsertRun records the outcome of one occurrence attempt. The
// (recurring_id, run_date) key is unique, so a retry replaces the previous
// failed row instead of appending a second one.
func (s *SQLiteStorage) UpsertRun(ctx context.Context, run *model.RecurringRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.upsertRunTx(ctx, s.db, run)
}

func (s *SQLiteStorage) upsertRunTx(ctx context.Context, q queryable, run *model.RecurringRun) error {
	if err := validateRun(run); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO recurring_runs (id, recurring_id, run_date, status, transaction_id, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(recurring_id, run_date) DO UPDATE SET
			status = excluded.status,
			transaction_id = excluded.transaction_id,
			reason = excluded.reason
	`,
		run.ID,
		run.RecurringID,
		run.DateKey(),
		string(run.Status),
		nullable(run.TransactionID),
		nullable(run.Reason),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run %s@%s: %w", run.RecurringID, run.DateKey(), err)
	}
	return nil
}

// ListRuns returns all run ledger entries for one schedule, oldest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, recurringID string) ([]model.RecurringRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recurringID, "recurringID"); err != nil {
		return nil, err
	}
	return s.listRunsTx(ctx, s.db, recurringID)
}

func (s *SQLiteStorage) listRunsTx(ctx context.Context, q queryable, recurringID string) ([]model.RecurringRun, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, recurring_id, run_date, status, transaction_id, reason, created_at
		FROM recurring_runs
		WHERE recurring_id = ?
		ORDER BY run_date ASC
	`, recurringID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RecurringRun
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan run: %w", scanErr)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (*model.RecurringRun, error) {
	var run model.RecurringRun
	var status, runDateStr string
	var transactionID, reason sql.NullString

	err := row.Scan(
		&run.ID,
		&run.RecurringID,
		&runDateStr,
		&status,
		&transactionID,
		&reason,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = model.RunStatus(status)
	if run.RunDate, err = parseDateKey(runDateStr); err != nil {
		return nil, err
	}
	run.TransactionID = transactionID.String
	run.Reason = reason.String
	return &run, nil
}
