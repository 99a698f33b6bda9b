package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	account := &model.Account{
		ID:          "visa",
		Name:        "Visa",
		Type:        model.AccountTypeCreditCard,
		Balance:     dec("-1234.56"),
		CreditLimit: dec("10000"),
		IsActive:    true,
	}
	require.NoError(t, store.CreateAccount(ctx, account))

	got, err := store.GetAccount(ctx, "visa")
	require.NoError(t, err)
	assert.Equal(t, "Visa", got.Name)
	assert.Equal(t, model.AccountTypeCreditCard, got.Type)
	// Balances round-trip exactly through the TEXT column.
	assert.True(t, got.Balance.Equal(dec("-1234.56")))
	assert.True(t, got.CreditLimit.Equal(dec("10000")))
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestApplyBalanceDelta(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.CreateAccount(ctx, &model.Account{
		ID: "cash", Name: "Cash", Type: model.AccountTypeCash,
		Balance: dec("100.10"), IsActive: true,
	}))

	require.NoError(t, store.ApplyBalanceDelta(ctx, "cash", dec("-0.20")))
	require.NoError(t, store.ApplyBalanceDelta(ctx, "cash", dec("50")))

	got, err := store.GetAccount(ctx, "cash")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("149.90")))

	err = store.ApplyBalanceDelta(ctx, "missing", dec("1"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateAccountLeavesBalanceAlone(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	account := &model.Account{
		ID: "cash", Name: "Cash", Type: model.AccountTypeCash,
		Balance: dec("75"), IsActive: true,
	}
	require.NoError(t, store.CreateAccount(ctx, account))

	account.Name = "Petty cash"
	account.Balance = dec("999999") // must be ignored
	require.NoError(t, store.UpdateAccount(ctx, account))

	got, err := store.GetAccount(ctx, "cash")
	require.NoError(t, err)
	assert.Equal(t, "Petty cash", got.Name)
	assert.True(t, got.Balance.Equal(dec("75")))
}

func seedChecking(t *testing.T, store *SQLiteStorage) {
	t.Helper()
	require.NoError(t, store.CreateAccount(context.Background(), &model.Account{
		ID: "checking", Name: "Checking", Type: model.AccountTypeChecking, IsActive: true,
	}))
}

func seedTxn(t *testing.T, store *SQLiteStorage, id, dateStr, category string, amount string) {
	t.Helper()
	require.NoError(t, store.SaveTransaction(context.Background(), &model.Transaction{
		ID:            id,
		Type:          model.TypeExpense,
		Amount:        dec(amount),
		Date:          mustDate(t, dateStr),
		CategoryID:    category,
		FromAccountID: "checking",
	}))
}

func TestListTransactionsFilters(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	seedChecking(t, store)

	seedTxn(t, store, "t1", "2025-01-15", "cat-food", "10")
	seedTxn(t, store, "t2", "2025-02-10", "cat-food", "20")
	seedTxn(t, store, "t3", "2025-02-20", "cat-rent", "30")

	start := mustDate(t, "2025-02-01")
	end := mustDate(t, "2025-02-28")

	february, err := store.ListTransactions(ctx, service.TransactionFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, february, 2)

	food, err := store.ListTransactions(ctx, service.TransactionFilter{CategoryID: "cat-food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	limited, err := store.ListTransactions(ctx, service.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "t3", limited[0].ID) // newest first

	_, err = store.ListTransactions(ctx, service.TransactionFilter{StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestTransactionUpdateDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	err := store.UpdateTransaction(ctx, &model.Transaction{
		ID: "missing", Type: model.TypeExpense, Amount: dec("1"),
		Date: mustDate(t, "2025-01-01"), FromAccountID: "x",
	})
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTransaction(ctx, "missing"), common.ErrNotFound)
}

func TestDueRecurringQuery(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	seedChecking(t, store)

	mk := func(id, next string, active bool) {
		require.NoError(t, store.CreateRecurring(ctx, &model.Recurring{
			ID: id, Type: model.TypeExpense, Amount: dec("10"),
			Frequency: model.FrequencyMonthly, FromAccountID: "checking",
			IsActive: active, NextRunDate: mustDate(t, next),
		}))
	}
	mk("due-early", "2025-02-01", true)
	mk("due-today", "2025-03-01", true)
	mk("not-due", "2025-04-01", true)
	mk("inactive", "2025-01-01", false)

	due, err := store.GetDueRecurrings(ctx, mustDate(t, "2025-03-01"))
	require.NoError(t, err)
	require.Len(t, due, 2)
	// Due-date order.
	assert.Equal(t, "due-early", due[0].ID)
	assert.Equal(t, "due-today", due[1].ID)
}

func TestAdvanceRecurring(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	seedChecking(t, store)

	require.NoError(t, store.CreateRecurring(ctx, &model.Recurring{
		ID: "r1", Type: model.TypeExpense, Amount: dec("10"),
		Frequency: model.FrequencyMonthly, FromAccountID: "checking",
		IsActive: true, NextRunDate: mustDate(t, "2025-03-01"),
	}))

	require.NoError(t, store.AdvanceRecurring(ctx, "r1",
		mustDate(t, "2025-04-01"), mustDate(t, "2025-03-01")))

	got, err := store.GetRecurring(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", got.NextRunDate.Format("2006-01-02"))
	assert.Equal(t, "2025-03-01", got.LastRunDate.Format("2006-01-02"))

	assert.ErrorIs(t, store.AdvanceRecurring(ctx, "missing",
		mustDate(t, "2025-04-01"), mustDate(t, "2025-03-01")), common.ErrNotFound)
}

func TestRunLedgerIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	seedChecking(t, store)

	require.NoError(t, store.CreateRecurring(ctx, &model.Recurring{
		ID: "r1", Type: model.TypeExpense, Amount: dec("10"),
		Frequency: model.FrequencyDaily, FromAccountID: "checking",
		IsActive: true, NextRunDate: mustDate(t, "2025-03-01"),
	}))

	runDate := mustDate(t, "2025-03-01")

	_, err := store.GetRun(ctx, "r1", runDate)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.UpsertRun(ctx, &model.RecurringRun{
		ID: "run-1", RecurringID: "r1", RunDate: runDate,
		Status: model.RunFailed, Reason: "credit limit exceeded",
	}))

	// A retry with a different outcome replaces the row; the key holds.
	require.NoError(t, store.UpsertRun(ctx, &model.RecurringRun{
		ID: "run-2", RecurringID: "r1", RunDate: runDate,
		Status: model.RunSuccess, TransactionID: "txn-9",
	}))

	runs, err := store.ListRuns(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunSuccess, runs[0].Status)
	assert.Equal(t, "txn-9", runs[0].TransactionID)
	assert.Empty(t, runs[0].Reason)

	got, err := store.GetRun(ctx, "r1", runDate)
	require.NoError(t, err)
	assert.True(t, got.Status.Resolved())
}

func TestBudgetSumAndAlertDedup(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	seedChecking(t, store)

	seedTxn(t, store, "t1", "2025-03-05", "cat-food", "100.10")
	seedTxn(t, store, "t2", "2025-03-25", "cat-food", "200.20")
	seedTxn(t, store, "t3", "2025-04-01", "cat-food", "999") // other month

	sum, err := store.SumExpenses(ctx, "cat-food", "2025-03")
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("300.30")))

	alert := func(id string) *model.Alert {
		return &model.Alert{
			ID: id, Kind: model.AlertBudgetExceeded,
			CategoryID: "cat-food", Month: "2025-03", Message: "over budget",
		}
	}
	require.NoError(t, store.SaveAlert(ctx, alert("a1")))
	require.NoError(t, store.SaveAlert(ctx, alert("a2"))) // same crossing, ignored

	alerts, err := store.ListAlerts(ctx, "2025-03")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestBudgetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.CreateBudget(ctx, &model.Budget{
		ID: "b1", CategoryID: "cat-food", Month: "2025-03", Limit: dec("400.50"),
	}))

	got, err := store.GetBudget(ctx, "cat-food", "2025-03")
	require.NoError(t, err)
	assert.True(t, got.Limit.Equal(dec("400.50")))

	_, err = store.GetBudget(ctx, "cat-food", "2025-04")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransferCategorySeeded(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	category, err := store.GetCategory(ctx, model.TransferCategoryID)
	require.NoError(t, err)
	assert.True(t, category.IsSystem)
	assert.Equal(t, "Transfer", category.Name)
}

func TestMonthlySummaryCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	seedChecking(t, store)

	seedTxn(t, store, "t1", "2025-03-05", "cat-food", "100")

	summary, err := store.GetMonthlySummary(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, summary.TotalExpenses.Equal(dec("100")))

	// The cache serves the stale value until invalidated.
	seedTxn(t, store, "t2", "2025-03-06", "cat-food", "50")

	cached, err := store.GetMonthlySummary(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, cached.TotalExpenses.Equal(dec("100")))

	store.InvalidateSummaries()

	fresh, err := store.GetMonthlySummary(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, fresh.TotalExpenses.Equal(dec("150")))
	assert.Equal(t, 2, fresh.ByCategory["cat-food"].Count)
}

func TestTxRollbackIsInvisible(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.CreateAccount(ctx, &model.Account{
		ID: "checking", Name: "Checking", Type: model.AccountTypeChecking,
		Balance: dec("100"), IsActive: true,
	}))

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.ApplyBalanceDelta(ctx, "checking", dec("-40")))
	require.NoError(t, tx.SaveTransaction(ctx, &model.Transaction{
		ID: "t1", Type: model.TypeExpense, Amount: dec("40"),
		Date: mustDate(t, "2025-03-01"), FromAccountID: "checking",
	}))
	require.NoError(t, tx.Rollback())

	got, err := store.GetAccount(ctx, "checking")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("100")))

	_, err = store.GetTransaction(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
