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

const recurringColumns = `
	id, description, type, amount, frequency, day_of_month, category_id,
	from_account_id, to_account_id, is_active, next_run_date, last_run_date,
	created_at, updated_at`

// CreateRecurring inserts a new schedule.
func (s *SQLiteStorage) CreateRecurring(ctx context.Context, rec *model.Recurring) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.createRecurringTx(ctx, s.db, rec)
}

func (s *SQLiteStorage) createRecurringTx(ctx context.Context, q queryable, rec *model.Recurring) error {
	if err := validateRecurring(rec); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO recurrings (
			id, description, type, amount, frequency, day_of_month, category_id,
			from_account_id, to_account_id, is_active, next_run_date, last_run_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		nullable(rec.Description),
		string(rec.Type),
		rec.Amount.String(),
		string(rec.Frequency),
		sql.NullInt64{Int64: int64(rec.DayOfMonth), Valid: rec.DayOfMonth > 0},
		nullable(rec.CategoryID),
		nullable(rec.FromAccountID),
		nullable(rec.ToAccountID),
		rec.IsActive,
		formatDate(rec.NextRunDate),
		nullableDate(rec.LastRunDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recurring %s: %w", rec.ID, err)
	}
	return nil
}

// GetRecurring retrieves a single schedule by id.
func (s *SQLiteStorage) GetRecurring(ctx context.Context, id string) (*model.Recurring, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getRecurringTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getRecurringTx(ctx context.Context, q queryable, id string) (*model.Recurring, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurrings WHERE id = ?`, id)

	rec, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring %s: %w", id, err)
	}
	return rec, nil
}

// ListRecurrings returns schedules, optionally limited to active ones.
func (s *SQLiteStorage) ListRecurrings(ctx context.Context, activeOnly bool) ([]model.Recurring, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listRecurringsTx(ctx, s.db, activeOnly)
}

func (s *SQLiteStorage) listRecurringsTx(ctx context.Context, q queryable, activeOnly bool) ([]model.Recurring, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurrings`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY next_run_date ASC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurrings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRecurrings(rows)
}

// UpdateRecurring rewrites a schedule's template fields. The run-date
// columns are left to AdvanceRecurring, which only the scheduler calls.
func (s *SQLiteStorage) UpdateRecurring(ctx context.Context, rec *model.Recurring) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateRecurringTx(ctx, s.db, rec)
}

func (s *SQLiteStorage) updateRecurringTx(ctx context.Context, q queryable, rec *model.Recurring) error {
	if err := validateRecurring(rec); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE recurrings
		SET description = ?, type = ?, amount = ?, frequency = ?, day_of_month = ?,
		    category_id = ?, from_account_id = ?, to_account_id = ?, is_active = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		nullable(rec.Description),
		string(rec.Type),
		rec.Amount.String(),
		string(rec.Frequency),
		sql.NullInt64{Int64: int64(rec.DayOfMonth), Valid: rec.DayOfMonth > 0},
		nullable(rec.CategoryID),
		nullable(rec.FromAccountID),
		nullable(rec.ToAccountID),
		rec.IsActive,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring %s: %w", rec.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring %s: %w", rec.ID, common.ErrNotFound)
	}
	return nil
}

// GetDueRecurrings returns active schedules with next_run_date on or before
// asOf, in due-date order.
func (s *SQLiteStorage) GetDueRecurrings(ctx context.Context, asOf time.Time) ([]model.Recurring, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getDueRecurringsTx(ctx, s.db, asOf)
}

func (s *SQLiteStorage) getDueRecurringsTx(ctx context.Context, q queryable, asOf time.Time) ([]model.Recurring, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+recurringColumns+`
		FROM recurrings
		WHERE is_active = 1 AND next_run_date <= ?
		ORDER BY next_run_date ASC
	`, formatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query due recurrings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRecurrings(rows)
}

// AdvanceRecurring moves a schedule's run-date cursor after a successful
// materialization.
func (s *SQLiteStorage) AdvanceRecurring(ctx context.Context, id string, nextRun, lastRun time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.advanceRecurringTx(ctx, s.db, id, nextRun, lastRun)
}

func (s *SQLiteStorage) advanceRecurringTx(ctx context.Context, q queryable, id string, nextRun, lastRun time.Time) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE recurrings
		SET next_run_date = ?, last_run_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, formatDate(nextRun), formatDate(lastRun), id)
	if err != nil {
		return fmt.Errorf("failed to advance recurring %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func nullableDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(t), Valid: true}
}

func collectRecurrings(rows *sql.Rows) ([]model.Recurring, error) {
	var recs []model.Recurring
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func scanRecurring(row scanner) (*model.Recurring, error) {
	var rec model.Recurring
	var recType, frequency, amountStr, nextRunStr string
	var description, categoryID, fromID, toID, lastRun sql.NullString
	var dayOfMonth sql.NullInt64

	err := row.Scan(
		&rec.ID,
		&description,
		&recType,
		&amountStr,
		&frequency,
		&dayOfMonth,
		&categoryID,
		&fromID,
		&toID,
		&rec.IsActive,
		&nextRunStr,
		&lastRun,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Type = model.TransactionType(recType)
	rec.Frequency = model.Frequency(frequency)
	if rec.Amount, err = parseAmount(amountStr); err != nil {
		return nil, err
	}
	if rec.NextRunDate, err = parseDateKey(nextRunStr); err != nil {
		return nil, err
	}
	if rec.LastRunDate, err = parseNullDate(lastRun); err != nil {
		return nil, err
	}
	rec.Description = description.String
	rec.CategoryID = categoryID.String
	rec.FromAccountID = fromID.String
	rec.ToAccountID = toID.String
	rec.DayOfMonth = int(dayOfMonth.Int64)
	return &rec, nil
}
