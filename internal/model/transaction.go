package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates the direction of money movement.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense || t == TypeTransfer
}

// Transaction represents one committed ledger entry. Rows are only written
// through the ledger engine, which keeps account balances equal to the sum
// of effects of the currently stored transactions.
type Transaction struct {
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ID            string
	Type          TransactionType
	CategoryID    string
	FromAccountID string // required for expense and transfer
	ToAccountID   string // required for income and transfer
	GoalID        string
	InvestmentID  string
	RecurringID   string // set when materialized by the scheduler
	Note          string
	Amount        decimal.Decimal
}

// DateKey returns the date-only key used for range queries.
func (t *Transaction) DateKey() string {
	return t.Date.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM key the transaction's date falls in.
func (t *Transaction) MonthKey() string {
	return t.Date.Format("2006-01")
}

// TouchesGoalOrInvestment reports whether the transaction is linked to a
// goal or investment aggregate and should trigger recalculation.
func (t *Transaction) TouchesGoalOrInvestment() bool {
	return t.GoalID != "" || t.InvestmentID != ""
}
