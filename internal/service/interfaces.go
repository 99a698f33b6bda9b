// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	AccountID   string
	CategoryID  string
	RecurringID string
	Limit       int
	Offset      int
}

// MonthlySummary aggregates one month's activity for dashboard consumers.
// It is served from a cache that ledger mutations invalidate.
type MonthlySummary struct {
	ByCategory    map[string]CategoryTotal
	Month         string
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
}

// CategoryTotal is the per-category slice of a monthly summary.
type CategoryTotal struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Count    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Account operations. ApplyBalanceDelta is the only balance writer and
	// is called exclusively by the ledger engine inside a unit of work.
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) error

	// Transaction operations.
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// Recurring schedule operations.
	CreateRecurring(ctx context.Context, rec *model.Recurring) error
	GetRecurring(ctx context.Context, id string) (*model.Recurring, error)
	ListRecurrings(ctx context.Context, activeOnly bool) ([]model.Recurring, error)
	UpdateRecurring(ctx context.Context, rec *model.Recurring) error
	GetDueRecurrings(ctx context.Context, asOf time.Time) ([]model.Recurring, error)
	AdvanceRecurring(ctx context.Context, id string, nextRun, lastRun time.Time) error

	// Run ledger operations.
	GetRun(ctx context.Context, recurringID string, runDate time.Time) (*model.RecurringRun, error)
	UpsertRun(ctx context.Context, run *model.RecurringRun) error
	ListRuns(ctx context.Context, recurringID string) ([]model.RecurringRun, error)

	// Category operations.
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	// Budget and alert operations.
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, categoryID, month string) (*model.Budget, error)
	SumExpenses(ctx context.Context, categoryID, month string) (decimal.Decimal, error)
	SaveAlert(ctx context.Context, alert *model.Alert) error
	ListAlerts(ctx context.Context, month string) ([]model.Alert, error)

	// Aggregate views.
	GetMonthlySummary(ctx context.Context, month string) (*MonthlySummary, error)
	InvalidateSummaries()

	// Database management.
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction. All statements issued through it
// commit or roll back as one unit.
type Tx interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within the transaction.
	Storage
}

// ContributionListener is notified after any committed transaction mutation
// that touches a linked goal or investment, so aggregate owners can
// recalculate. Empty ids mean the corresponding aggregate was not touched.
type ContributionListener interface {
	OnContributionChanged(ctx context.Context, goalID, investmentID string)
}

// ContributionListenerFunc adapts a function to the listener interface.
type ContributionListenerFunc func(ctx context.Context, goalID, investmentID string)

// OnContributionChanged calls f.
func (f ContributionListenerFunc) OnContributionChanged(ctx context.Context, goalID, investmentID string) {
	f(ctx, goalID, investmentID)
}
