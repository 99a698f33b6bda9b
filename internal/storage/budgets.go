package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
)

// CreateBudget inserts a spending cap for one (category, month).
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.createBudgetTx(ctx, s.db, budget)
}

func (s *SQLiteStorage) createBudgetTx(ctx context.Context, q queryable, budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if err := validateString(budget.ID, "budget.ID"); err != nil {
		return err
	}
	if err := validateString(budget.CategoryID, "budget.CategoryID"); err != nil {
		return err
	}
	if err := validateString(budget.Month, "budget.Month"); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO budgets (id, category_id, month, amount_limit)
		VALUES (?, ?, ?, ?)
	`, budget.ID, budget.CategoryID, budget.Month, budget.Limit.String())
	if err != nil {
		return fmt.Errorf("failed to insert budget %s: %w", budget.ID, err)
	}
	return nil
}

// GetBudget looks up the cap for one (category, month).
func (s *SQLiteStorage) GetBudget(ctx context.Context, categoryID, month string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getBudgetTx(ctx, s.db, categoryID, month)
}

func (s *SQLiteStorage) getBudgetTx(ctx context.Context, q queryable, categoryID, month string) (*model.Budget, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, category_id, month, amount_limit, created_at
		FROM budgets WHERE category_id = ? AND month = ?
	`, categoryID, month)

	var budget model.Budget
	var limitStr string
	err := row.Scan(&budget.ID, &budget.CategoryID, &budget.Month, &limitStr, &budget.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget %s/%s: %w", categoryID, month, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget %s/%s: %w", categoryID, month, err)
	}
	if budget.Limit, err = parseAmount(limitStr); err != nil {
		return nil, err
	}
	return &budget, nil
}

// SumExpenses totals committed expense transactions for one category in one
// month (YYYY-MM).
func (s *SQLiteStorage) SumExpenses(ctx context.Context, categoryID, month string) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	return s.sumExpensesTx(ctx, s.db, categoryID, month)
}

func (s *SQLiteStorage) sumExpensesTx(ctx context.Context, q queryable, categoryID, month string) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT amount FROM transactions
		WHERE type = 'expense' AND category_id = ? AND date LIKE ? || '-%'
	`, categoryID, month)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Summed in decimal space rather than SQL; amounts are TEXT columns.
	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if scanErr := rows.Scan(&amountStr); scanErr != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", scanErr)
		}
		amount, parseErr := parseAmount(amountStr)
		if parseErr != nil {
			return decimal.Zero, parseErr
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// SaveAlert records a notification. The (kind, category, month) unique key
// suppresses duplicate alerts for the same crossing.
func (s *SQLiteStorage) SaveAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveAlertTx(ctx, s.db, alert)
}

func (s *SQLiteStorage) saveAlertTx(ctx context.Context, q queryable, alert *model.Alert) error {
	if alert == nil {
		return fmt.Errorf("%w: alert", ErrNilParameter)
	}
	if err := validateString(alert.ID, "alert.ID"); err != nil {
		return err
	}
	if err := validateString(alert.Message, "alert.Message"); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO alerts (id, kind, category_id, month, message)
		VALUES (?, ?, ?, ?, ?)
	`, alert.ID, string(alert.Kind), nullable(alert.CategoryID), nullable(alert.Month), alert.Message)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
	}
	return nil
}

// ListAlerts returns alerts, optionally filtered to one month, newest first.
func (s *SQLiteStorage) ListAlerts(ctx context.Context, month string) ([]model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listAlertsTx(ctx, s.db, month)
}

func (s *SQLiteStorage) listAlertsTx(ctx context.Context, q queryable, month string) ([]model.Alert, error) {
	query := `SELECT id, kind, category_id, month, message, created_at FROM alerts`
	args := []any{}
	if month != "" {
		query += ` WHERE month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		var alert model.Alert
		var kind string
		var categoryID, alertMonth sql.NullString
		if scanErr := rows.Scan(&alert.ID, &kind, &categoryID, &alertMonth, &alert.Message, &alert.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", scanErr)
		}
		alert.Kind = model.AlertKind(kind)
		alert.CategoryID = categoryID.String
		alert.Month = alertMonth.String
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// GetCategory retrieves one category by id.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getCategoryTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getCategoryTx(ctx context.Context, q queryable, id string) (*model.Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, is_system, created_at FROM categories WHERE id = ?`, id)

	var category model.Category
	err := row.Scan(&category.ID, &category.Name, &category.IsSystem, &category.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", id, err)
	}
	return &category, nil
}

// ListCategories returns all categories by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listCategoriesTx(ctx, s.db)
}

func (s *SQLiteStorage) listCategoriesTx(ctx context.Context, q queryable) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, is_system, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var category model.Category
		if scanErr := rows.Scan(&category.ID, &category.Name, &category.IsSystem, &category.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan category: %w", scanErr)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.createCategoryTx(ctx, s.db, category)
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateString(category.ID, "category.ID"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category.Name"); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (id, name, is_system) VALUES (?, ?, ?)
	`, category.ID, category.Name, category.IsSystem)
	if err != nil {
		return fmt.Errorf("failed to insert category %s: %w", category.ID, err)
	}
	return nil
}
