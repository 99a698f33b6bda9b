package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"
)

const transactionColumns = `
	id, type, amount, date, category_id, from_account_id, to_account_id,
	goal_id, investment_id, recurring_id, note, created_at, updated_at`

// SaveTransaction inserts a new transaction row.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) saveTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if err := validateTransaction(txn); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, type, amount, date, category_id, from_account_id, to_account_id,
			goal_id, investment_id, recurring_id, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		string(txn.Type),
		txn.Amount.String(),
		txn.DateKey(),
		nullable(txn.CategoryID),
		nullable(txn.FromAccountID),
		nullable(txn.ToAccountID),
		nullable(txn.GoalID),
		nullable(txn.InvestmentID),
		nullable(txn.RecurringID),
		nullable(txn.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

// GetTransaction retrieves a single transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransactionTx(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return txn, nil
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listTransactionsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) listTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidDateRange,
			formatDate(*filter.StartDate), formatDate(*filter.EndDate))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}

	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, formatDate(*filter.StartDate))
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, formatDate(*filter.EndDate))
	}
	if filter.AccountID != "" {
		query += " AND (from_account_id = ? OR to_account_id = ?)"
		args = append(args, filter.AccountID, filter.AccountID)
	}
	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if filter.RecurringID != "" {
		query += " AND recurring_id = ?"
		args = append(args, filter.RecurringID)
	}

	query += " ORDER BY date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}

// UpdateTransaction rewrites a transaction row in place.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) updateTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if err := validateTransaction(txn); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, date = ?, category_id = ?, from_account_id = ?,
		    to_account_id = ?, goal_id = ?, investment_id = ?, recurring_id = ?,
		    note = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		string(txn.Type),
		txn.Amount.String(),
		txn.DateKey(),
		nullable(txn.CategoryID),
		nullable(txn.FromAccountID),
		nullable(txn.ToAccountID),
		nullable(txn.GoalID),
		nullable(txn.InvestmentID),
		nullable(txn.RecurringID),
		nullable(txn.Note),
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction row.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.deleteTransactionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteTransactionTx(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txType, amountStr, dateStr string
	var categoryID, fromID, toID, goalID, investmentID, recurringID, note sql.NullString

	err := row.Scan(
		&txn.ID,
		&txType,
		&amountStr,
		&dateStr,
		&categoryID,
		&fromID,
		&toID,
		&goalID,
		&investmentID,
		&recurringID,
		&note,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(txType)
	if txn.Amount, err = parseAmount(amountStr); err != nil {
		return nil, err
	}
	if txn.Date, err = parseDateKey(dateStr); err != nil {
		return nil, err
	}
	txn.CategoryID = categoryID.String
	txn.FromAccountID = fromID.String
	txn.ToAccountID = toID.String
	txn.GoalID = goalID.String
	txn.InvestmentID = investmentID.String
	txn.RecurringID = recurringID.String
	txn.Note = note.String
	return &txn, nil
}
