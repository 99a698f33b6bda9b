package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/service"
)

// GetMonthlySummary returns income/expense totals per category for one month
// (YYYY-MM). Results are cached until the next ledger mutation invalidates
// them.
func (s *SQLiteStorage) GetMonthlySummary(ctx context.Context, month string) (*service.MonthlySummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}

	s.cacheMutex.RLock()
	if cached, ok := s.summaryCache[month]; ok {
		s.cacheMutex.RUnlock()
		return cached, nil
	}
	s.cacheMutex.RUnlock()

	summary, err := s.monthlySummaryTx(ctx, s.db, month)
	if err != nil {
		return nil, err
	}

	s.cacheMutex.Lock()
	s.summaryCache[month] = summary
	s.cacheMutex.Unlock()

	return summary, nil
}

func (s *SQLiteStorage) monthlySummaryTx(ctx context.Context, q queryable, month string) (*service.MonthlySummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT type, category_id, amount FROM transactions
		WHERE date LIKE ? || '-%' AND type IN ('income', 'expense')
	`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summary := &service.MonthlySummary{
		Month:         month,
		ByCategory:    make(map[string]service.CategoryTotal),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	for rows.Next() {
		var txType, amountStr string
		var categoryID sql.NullString
		if scanErr := rows.Scan(&txType, &categoryID, &amountStr); scanErr != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", scanErr)
		}

		amount, parseErr := parseAmount(amountStr)
		if parseErr != nil {
			return nil, parseErr
		}

		total := summary.ByCategory[categoryID.String]
		total.Count++
		switch txType {
		case "income":
			summary.TotalIncome = summary.TotalIncome.Add(amount)
			total.Income = total.Income.Add(amount)
		case "expense":
			summary.TotalExpenses = summary.TotalExpenses.Add(amount)
			total.Expenses = total.Expenses.Add(amount)
		}
		summary.ByCategory[categoryID.String] = total
	}
	return summary, rows.Err()
}
