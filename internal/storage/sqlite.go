// Package storage implements the persistence layer on SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// dateFormat is the date-only key format used for transaction dates, run
// dates, and schedule due dates.
const dateFormat = "2006-01-02"

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db           *sql.DB
	summaryCache map[string]*service.MonthlySummary
	dbPath       string
	cacheMutex   sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single local writer; SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:           db,
		dbPath:       dbPath,
		summaryCache: make(map[string]*service.MonthlySummary),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// InvalidateSummaries drops all cached monthly summaries. Called after every
// successful ledger mutation and after a scheduler pass.
func (s *SQLiteStorage) InvalidateSummaries() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.summaryCache = make(map[string]*service.MonthlySummary)
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{
		tx:      tx,
		storage: s,
	}, nil
}

// queryable abstracts *sql.DB and *sql.Tx so entity helpers can run either
// directly or inside a transaction.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteTx wraps sql.Tx to implement service.Tx.
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Entity methods delegate to the shared helpers with the transaction.

func (t *sqliteTx) CreateAccount(ctx context.Context, account *model.Account) error {
	return t.storage.createAccountTx(ctx, t.tx, account)
}

func (t *sqliteTx) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return t.storage.getAccountTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return t.storage.listAccountsTx(ctx, t.tx)
}

func (t *sqliteTx) UpdateAccount(ctx context.Context, account *model.Account) error {
	return t.storage.updateAccountTx(ctx, t.tx, account)
}

func (t *sqliteTx) ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) error {
	return t.storage.applyBalanceDeltaTx(ctx, t.tx, accountID, delta)
}

func (t *sqliteTx) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	return t.storage.saveTransactionTx(ctx, t.tx, txn)
}

func (t *sqliteTx) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return t.storage.getTransactionTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	return t.storage.listTransactionsTx(ctx, t.tx, filter)
}

func (t *sqliteTx) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	return t.storage.updateTransactionTx(ctx, t.tx, txn)
}

func (t *sqliteTx) DeleteTransaction(ctx context.Context, id string) error {
	return t.storage.deleteTransactionTx(ctx, t.tx, id)
}

func (t *sqliteTx) CreateRecurring(ctx context.Context, rec *model.Recurring) error {
	return t.storage.createRecurringTx(ctx, t.tx, rec)
}

func (t *sqliteTx) GetRecurring(ctx context.Context, id string) (*model.Recurring, error) {
	return t.storage.getRecurringTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListRecurrings(ctx context.Context, activeOnly bool) ([]model.Recurring, error) {
	return t.storage.listRecurringsTx(ctx, t.tx, activeOnly)
}

func (t *sqliteTx) UpdateRecurring(ctx context.Context, rec *model.Recurring) error {
	return t.storage.updateRecurringTx(ctx, t.tx, rec)
}

func (t *sqliteTx) GetDueRecurrings(ctx context.Context, asOf time.Time) ([]model.Recurring, error) {
	return t.storage.getDueRecurringsTx(ctx, t.tx, asOf)
}

func (t *sqliteTx) AdvanceRecurring(ctx context.Context, id string, nextRun, lastRun time.Time) error {
	return t.storage.advanceRecurringTx(ctx, t.tx, id, nextRun, lastRun)
}

func (t *sqliteTx) GetRun(ctx context.Context, recurringID string, runDate time.Time) (*model.RecurringRun, error) {
	return t.storage.getRunTx(ctx, t.tx, recurringID, runDate)
}

func (t *sqliteTx) UpsertRun(ctx context.Context, run *model.RecurringRun) error {
	return t.storage.upsertRunTx(ctx, t.tx, run)
}

func (t *sqliteTx) ListRuns(ctx context.Context, recurringID string) ([]model.RecurringRun, error) {
	return t.storage.listRunsTx(ctx, t.tx, recurringID)
}

func (t *sqliteTx) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return t.storage.getCategoryTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListCategories(ctx context.Context) ([]model.Category, error) {
	return t.storage.listCategoriesTx(ctx, t.tx)
}

func (t *sqliteTx) CreateCategory(ctx context.Context, category *model.Category) error {
	return t.storage.createCategoryTx(ctx, t.tx, category)
}

func (t *sqliteTx) CreateBudget(ctx context.Context, budget *model.Budget) error {
	return t.storage.createBudgetTx(ctx, t.tx, budget)
}

func (t *sqliteTx) GetBudget(ctx context.Context, categoryID, month string) (*model.Budget, error) {
	return t.storage.getBudgetTx(ctx, t.tx, categoryID, month)
}

func (t *sqliteTx) SumExpenses(ctx context.Context, categoryID, month string) (decimal.Decimal, error) {
	return t.storage.sumExpensesTx(ctx, t.tx, categoryID, month)
}

func (t *sqliteTx) SaveAlert(ctx context.Context, alert *model.Alert) error {
	return t.storage.saveAlertTx(ctx, t.tx, alert)
}

func (t *sqliteTx) ListAlerts(ctx context.Context, month string) ([]model.Alert, error) {
	return t.storage.listAlertsTx(ctx, t.tx, month)
}

func (t *sqliteTx) GetMonthlySummary(ctx context.Context, month string) (*service.MonthlySummary, error) {
	// Bypass the cache inside a transaction to see uncommitted rows.
	return t.storage.monthlySummaryTx(ctx, t.tx, month)
}

func (t *sqliteTx) InvalidateSummaries() {
	t.storage.InvalidateSummaries()
}

func (t *sqliteTx) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTx) BeginTx(_ context.Context) (service.Tx, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTx) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
