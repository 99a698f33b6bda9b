// Package ledger implements the engine that mutates account balances in
// response to transactions. It is the only authorized writer of balances:
// every mutation validates liability rules against current account state,
// applies per-account deltas, and persists the transaction row inside one
// storage transaction, so partial application is never observable.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"
)

// Direction selects whether balance deltas are applied or exactly undone.
type Direction int

// Balance application directions.
const (
	Apply   Direction = 1
	Reverse Direction = -1
)

// Intent is the input accepted at the engine boundary for creating a
// transaction. Ids and timestamps are assigned by the engine.
type Intent struct {
	Date          time.Time
	Type          model.TransactionType
	CategoryID    string
	FromAccountID string
	ToAccountID   string
	GoalID        string
	InvestmentID  string
	RecurringID   string
	Note          string
	Amount        decimal.Decimal
}

// Engine orchestrates atomic transaction mutations over storage.
type Engine struct {
	storage  service.Storage
	listener service.ContributionListener
}

// New creates a ledger engine without a contribution listener.
func New(storage service.Storage) *Engine {
	return &Engine{storage: storage}
}

// NewWithListener creates a ledger engine that notifies listener after any
// committed mutation touching a linked goal or investment.
func NewWithListener(storage service.Storage, listener service.ContributionListener) *Engine {
	return &Engine{storage: storage, listener: listener}
}

// CreateAccount persists a new account after enforcing liability rules:
// credit cards need a positive credit limit, and liability balances may not
// start positive.
func (e *Engine) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateAccountRules(account); err != nil {
		return err
	}
	if err := e.storage.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	e.storage.InvalidateSummaries()
	return nil
}

// UpdateAccount rewrites an account's metadata under the same rules as
// creation. Balances are untouchable through this path.
func (e *Engine) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateAccountRules(account); err != nil {
		return err
	}
	if err := e.storage.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func validateAccountRules(account *model.Account) error {
	if account == nil {
		return common.NewRuleViolation(common.ErrValidation, "account is nil")
	}
	if account.Type == model.AccountTypeCreditCard && !account.CreditLimit.IsPositive() {
		return common.NewRuleViolation(common.ErrMissingCreditLimit,
			"account %q has credit limit %s", account.Name, account.CreditLimit)
	}
	if account.Type.IsLiability() && account.Balance.IsPositive() {
		return common.NewRuleViolation(common.ErrValidation,
			"liability account %q cannot hold a positive balance", account.Name)
	}
	return nil
}

// CreateTransaction validates, applies, and persists a new transaction as
// one atomic unit, then fires side effects (summary invalidation, budget
// alert, contribution recalculation).
func (e *Engine) CreateTransaction(ctx context.Context, intent Intent) (*model.Transaction, error) {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := e.CreateTransactionTx(ctx, tx, intent)
	if err != nil {
		return nil, err
	}

	e.checkBudget(ctx, tx, txn)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	e.storage.InvalidateSummaries()
	e.notifyContribution(ctx, txn, nil)

	slog.Info("Transaction created",
		"id", txn.ID,
		"type", txn.Type,
		"amount", txn.Amount)
	return txn, nil
}

// CreateTransactionTx runs the create path inside the caller's transaction:
// validate intent, normalize the transfer category, enforce liability rules
// against current account state, apply balances, persist the row. It does
// not commit and fires no side effects; the scheduler uses it to bundle a
// materialization with its run ledger writes.
func (e *Engine) CreateTransactionTx(ctx context.Context, tx service.Tx, intent Intent) (*model.Transaction, error) {
	if err := validateIntent(&intent); err != nil {
		return nil, err
	}

	// Transfers always land on the reserved system category.
	if intent.Type == model.TypeTransfer {
		intent.CategoryID = model.TransferCategoryID
	}

	now := time.Now()
	txn := &model.Transaction{
		ID:            uuid.NewString(),
		Date:          intent.Date,
		Type:          intent.Type,
		CategoryID:    intent.CategoryID,
		FromAccountID: intent.FromAccountID,
		ToAccountID:   intent.ToAccountID,
		GoalID:        intent.GoalID,
		InvestmentID:  intent.InvestmentID,
		RecurringID:   intent.RecurringID,
		Note:          intent.Note,
		Amount:        intent.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	fromAccount, toAccount, err := e.loadAccounts(ctx, tx, txn)
	if err != nil {
		return nil, err
	}
	if err := validateLiabilityRules(txn, fromAccount, toAccount); err != nil {
		return nil, err
	}
	if err := e.applyBalances(ctx, tx, txn, Apply); err != nil {
		return nil, err
	}
	if err := tx.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return txn, nil
}

// UpdateTransaction replaces an existing transaction atomically: the old
// balance effect is reversed first, then the new transaction is validated
// against the post-reversal state and applied. The reverse-then-validate
// ordering is what lets a credit-card expense be reduced without a false
// limit failure.
func (e *Engine) UpdateTransaction(ctx context.Context, updated *model.Transaction) (*model.Transaction, error) {
	if updated == nil || updated.ID == "" {
		return nil, common.NewRuleViolation(common.ErrValidation, "missing transaction id")
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err := tx.GetTransaction(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	if err := e.applyBalances(ctx, tx, old, Reverse); err != nil {
		return nil, err
	}

	next := *updated
	if next.Type == model.TypeTransfer {
		next.CategoryID = model.TransferCategoryID
	}
	next.CreatedAt = old.CreatedAt
	next.UpdatedAt = time.Now()

	if err := validateIntent(&Intent{
		Date:          next.Date,
		Type:          next.Type,
		FromAccountID: next.FromAccountID,
		ToAccountID:   next.ToAccountID,
		Amount:        next.Amount,
	}); err != nil {
		return nil, err
	}

	fromAccount, toAccount, err := e.loadAccounts(ctx, tx, &next)
	if err != nil {
		return nil, err
	}
	if err := validateLiabilityRules(&next, fromAccount, toAccount); err != nil {
		return nil, err
	}
	if err := e.applyBalances(ctx, tx, &next, Apply); err != nil {
		return nil, err
	}
	if err := tx.UpdateTransaction(ctx, &next); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	e.checkBudget(ctx, tx, old)
	e.checkBudget(ctx, tx, &next)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	e.storage.InvalidateSummaries()
	e.notifyContribution(ctx, &next, old)

	slog.Info("Transaction updated", "id", next.ID)
	return &next, nil
}

// DeleteTransaction reverses a transaction's balance effect and removes its
// row atomically.
func (e *Engine) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return common.NewRuleViolation(common.ErrValidation, "missing transaction id")
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := e.applyBalances(ctx, tx, old, Reverse); err != nil {
		return err
	}
	if err := tx.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	e.checkBudget(ctx, tx, old)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	e.storage.InvalidateSummaries()
	e.notifyContribution(ctx, old, nil)

	slog.Info("Transaction deleted", "id", id)
	return nil
}

// applyBalances issues the signed per-account deltas for one transaction.
// Reverse is the exact inverse of Apply; both run inside the caller's
// storage transaction.
func (e *Engine) applyBalances(ctx context.Context, tx service.Tx, txn *model.Transaction, direction Direction) error {
	sign := decimal.NewFromInt(int64(direction))

	switch txn.Type {
	case model.TypeExpense:
		if err := tx.ApplyBalanceDelta(ctx, txn.FromAccountID, txn.Amount.Neg().Mul(sign)); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
		}
	case model.TypeIncome:
		if err := tx.ApplyBalanceDelta(ctx, txn.ToAccountID, txn.Amount.Mul(sign)); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
		}
	case model.TypeTransfer:
		if err := tx.ApplyBalanceDelta(ctx, txn.FromAccountID, txn.Amount.Neg().Mul(sign)); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
		}
		if err := tx.ApplyBalanceDelta(ctx, txn.ToAccountID, txn.Amount.Mul(sign)); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
		}
	}
	return nil
}

func (e *Engine) loadAccounts(ctx context.Context, tx service.Tx, txn *model.Transaction) (from, to *model.Account, err error) {
	if txn.FromAccountID != "" {
		if from, err = tx.GetAccount(ctx, txn.FromAccountID); err != nil {
			return nil, nil, err
		}
	}
	if txn.ToAccountID != "" {
		if to, err = tx.GetAccount(ctx, txn.ToAccountID); err != nil {
			return nil, nil, err
		}
	}
	return from, to, nil
}

// checkBudget emits a budget_exceeded alert when the transaction's category
// usage for its month reaches the configured limit. It runs inside the unit
// of work but never fails the mutation; alert errors are only logged.
func (e *Engine) checkBudget(ctx context.Context, tx service.Tx, txn *model.Transaction) {
	if txn.Type != model.TypeExpense || txn.CategoryID == "" {
		return
	}

	month := txn.MonthKey()
	budget, err := tx.GetBudget(ctx, txn.CategoryID, month)
	if err != nil {
		return // no budget configured for this category/month
	}

	spent, err := tx.SumExpenses(ctx, txn.CategoryID, month)
	if err != nil {
		slog.Warn("Budget check failed", "category", txn.CategoryID, "month", month, "error", err)
		return
	}
	if spent.LessThan(budget.Limit) {
		return
	}

	alert := &model.Alert{
		ID:         uuid.NewString(),
		Kind:       model.AlertBudgetExceeded,
		CategoryID: txn.CategoryID,
		Month:      month,
		Message: fmt.Sprintf("spent %s of %s budget for %s",
			spent.StringFixed(2), budget.Limit.StringFixed(2), month),
	}
	if err := tx.SaveAlert(ctx, alert); err != nil {
		slog.Warn("Failed to save budget alert", "category", txn.CategoryID, "error", err)
	}
}

func (e *Engine) notifyContribution(ctx context.Context, txn, old *model.Transaction) {
	if e.listener == nil {
		return
	}
	if txn != nil && txn.TouchesGoalOrInvestment() {
		e.listener.OnContributionChanged(ctx, txn.GoalID, txn.InvestmentID)
	}
	// An edit may have moved the link; recalculate the old aggregates too.
	if old != nil && old.TouchesGoalOrInvestment() &&
		(txn == nil || old.GoalID != txn.GoalID || old.InvestmentID != txn.InvestmentID) {
		e.listener.OnContributionChanged(ctx, old.GoalID, old.InvestmentID)
	}
}
