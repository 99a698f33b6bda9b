package model

import "time"

// RunStatus is the outcome recorded for one (schedule, run date) occurrence.
type RunStatus string

// Run status constants.
const (
	// RunSuccess means the occurrence's transaction was committed.
	RunSuccess RunStatus = "success"
	// RunFailed means the attempt was rejected; the date stays eligible
	// for retry on the next scheduler pass.
	RunFailed RunStatus = "failed"
	// RunSkipped means the occurrence was deliberately not materialized,
	// e.g. the schedule was deactivated mid catch-up.
	RunSkipped RunStatus = "skipped"
)

// Valid reports whether s is a known run status.
func (s RunStatus) Valid() bool {
	return s == RunSuccess || s == RunFailed || s == RunSkipped
}

// Resolved reports whether the status is terminal for its run date. Only a
// failed run may be attempted again.
func (s RunStatus) Resolved() bool {
	return s == RunSuccess || s == RunSkipped
}

// RecurringRun is the run ledger entry for one occurrence attempt. At most
// one row exists per (RecurringID, RunDate); a retry upserts the row rather
// than appending a second one.
type RecurringRun struct {
	RunDate       time.Time
	CreatedAt     time.Time
	ID            string
	RecurringID   string
	TransactionID string // set only on success
	Reason        string // set only on failure or skip
	Status        RunStatus
}

// DateKey returns the date-only idempotency key for the run.
func (r *RecurringRun) DateKey() string {
	return r.RunDate.Format("2006-01-02")
}
