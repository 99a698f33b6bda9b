package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/centavo-app/centavo/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRecurring   = errors.New("invalid recurring schedule")
	ErrInvalidRun         = errors.New("invalid recurring run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAccount validates an account row before writing it.
func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if account.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAccount)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if !account.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAccount, account.Type)
	}
	return nil
}

// validateTransaction validates a transaction row before writing it.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}

// validateRecurring validates a schedule row before writing it.
func validateRecurring(rec *model.Recurring) error {
	if rec == nil {
		return fmt.Errorf("%w: recurring", ErrNilParameter)
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecurring)
	}
	if !rec.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecurring, rec.Type)
	}
	if !rec.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurring, rec.Frequency)
	}
	if !rec.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRecurring)
	}
	if rec.NextRunDate.IsZero() {
		return fmt.Errorf("%w: missing next run date", ErrInvalidRecurring)
	}
	if rec.DayOfMonth < 0 || rec.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month out of range", ErrInvalidRecurring)
	}
	return nil
}

// validateRun validates a run ledger row before writing it.
func validateRun(run *model.RecurringRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.RecurringID == "" {
		return fmt.Errorf("%w: missing recurring ID", ErrInvalidRun)
	}
	if run.RunDate.IsZero() {
		return fmt.Errorf("%w: missing run date", ErrInvalidRun)
	}
	if !run.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRun, run.Status)
	}
	return nil
}
