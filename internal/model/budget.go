package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for one category in one month (YYYY-MM).
type Budget struct {
	CreatedAt  time.Time
	ID         string
	CategoryID string
	Month      string
	Limit      decimal.Decimal
}

// AlertKind names the condition that produced an alert.
type AlertKind string

// Alert kind constants.
const (
	AlertBudgetExceeded AlertKind = "budget_exceeded"
)

// Alert is a durable notification record emitted as a side effect of ledger
// mutations. It is not part of the balance invariant.
type Alert struct {
	CreatedAt  time.Time
	ID         string
	Kind       AlertKind
	CategoryID string
	Month      string
	Message    string
}

// Category is a label for transactions. The transfer category is system
// managed: transfers are always forced onto it.
type Category struct {
	CreatedAt time.Time
	ID        string
	Name      string
	IsSystem  bool
}

// TransferCategoryID is the reserved category every transfer is assigned,
// seeded by migrations.
const TransferCategoryID = "cat-transfer"
