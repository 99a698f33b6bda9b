// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrStorageFailure = errors.New("storage failure")

	// Intent validation errors.
	ErrValidation = errors.New("invalid transaction intent")

	// Liability rule errors.
	ErrCreditLimitExceeded          = errors.New("credit limit exceeded")
	ErrNoOutstandingDue             = errors.New("no outstanding due on credit card")
	ErrOverpaymentExceedsOutstanding = errors.New("payment exceeds outstanding due")
	ErrMissingCreditLimit           = errors.New("credit card requires a positive credit limit")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RuleViolation wraps a liability or validation sentinel with the detail of
// what was rejected, so callers can both match with errors.Is and present
// the specifics.
type RuleViolation struct {
	Err    error
	Detail string
}

func (e *RuleViolation) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return e.Err.Error()
}

func (e *RuleViolation) Unwrap() error {
	return e.Err
}

// NewRuleViolation creates a rule violation for the given sentinel.
func NewRuleViolation(sentinel error, format string, args ...any) error {
	return &RuleViolation{
		Err:    sentinel,
		Detail: fmt.Sprintf(format, args...),
	}
}

// IsRuleViolation reports whether err is a ledger rule rejection rather than
// an infrastructure failure. Rule rejections are safe to record and retry.
func IsRuleViolation(err error) bool {
	var rv *RuleViolation
	return errors.As(err, &rv)
}
