package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency controls how a recurring schedule's next run date advances.
type Frequency string

// Frequency constants.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Recurring is a template for transactions the scheduler materializes once
// per due occurrence. NextRunDate and LastRunDate are written only by the
// scheduler, and NextRunDate only advances after a successful
// materialization of that occurrence.
type Recurring struct {
	NextRunDate   time.Time
	LastRunDate   time.Time // zero until the first successful run
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ID            string
	Description   string
	Type          TransactionType
	CategoryID    string
	FromAccountID string
	ToAccountID   string
	Frequency     Frequency
	Amount        decimal.Decimal
	DayOfMonth    int // 0 means unset; only meaningful for monthly
	IsActive      bool
}

// Template builds the transaction this schedule produces for one occurrence.
// The caller is responsible for assigning an id and timestamps.
func (r *Recurring) Template(runDate time.Time) Transaction {
	return Transaction{
		Date:          runDate,
		Type:          r.Type,
		CategoryID:    r.CategoryID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		RecurringID:   r.ID,
		Note:          r.Description,
		Amount:        r.Amount,
	}
}
