// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account as an asset or liability holder.
type AccountType string

// Account type constants.
const (
	AccountTypeSavings    AccountType = "savings"
	AccountTypeChecking   AccountType = "checking"
	AccountTypeCash       AccountType = "cash"
	AccountTypeWallet     AccountType = "wallet"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking, AccountTypeCash,
		AccountTypeWallet, AccountTypeCreditCard, AccountTypeLoan,
		AccountTypeInvestment:
		return true
	}
	return false
}

// IsLiability reports whether accounts of this type store balance as a
// non-positive amount owed.
func (t AccountType) IsLiability() bool {
	return t == AccountTypeCreditCard || t == AccountTypeLoan
}

// Account represents a single money container. For liability accounts the
// balance is kept at or below zero and |balance| is the outstanding amount.
type Account struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	Name        string
	Type        AccountType
	Balance     decimal.Decimal
	CreditLimit decimal.Decimal
	IsActive    bool
}

// Outstanding returns the amount owed on a liability account, never negative.
func (a *Account) Outstanding() decimal.Decimal {
	if a.Balance.IsNegative() {
		return a.Balance.Neg()
	}
	return decimal.Zero
}

// AvailableCredit returns how much more can be charged to a credit card.
func (a *Account) AvailableCredit() decimal.Decimal {
	avail := a.CreditLimit.Sub(a.Outstanding())
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}
