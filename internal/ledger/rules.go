package ledger

import (
	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
)

// validateIntent rejects malformed transaction intents before any account
// state is consulted.
func validateIntent(intent *Intent) error {
	if !intent.Type.Valid() {
		return common.NewRuleViolation(common.ErrValidation, "unknown transaction type %q", intent.Type)
	}
	if !intent.Amount.IsPositive() {
		return common.NewRuleViolation(common.ErrValidation, "amount must be positive, got %s", intent.Amount)
	}
	if intent.Date.IsZero() {
		return common.NewRuleViolation(common.ErrValidation, "missing date")
	}

	switch intent.Type {
	case model.TypeExpense:
		if intent.FromAccountID == "" {
			return common.NewRuleViolation(common.ErrValidation, "expense requires a source account")
		}
	case model.TypeIncome:
		if intent.ToAccountID == "" {
			return common.NewRuleViolation(common.ErrValidation, "income requires a destination account")
		}
	case model.TypeTransfer:
		if intent.FromAccountID == "" || intent.ToAccountID == "" {
			return common.NewRuleViolation(common.ErrValidation, "transfer requires both accounts")
		}
		if intent.FromAccountID == intent.ToAccountID {
			return common.NewRuleViolation(common.ErrValidation, "transfer accounts must differ")
		}
	}
	return nil
}

// validateLiabilityRules enforces credit-card constraints against the
// account state as it stands before the transaction's balances are applied.
func validateLiabilityRules(txn *model.Transaction, fromAccount, toAccount *model.Account) error {
	// Charging a credit card must fit within its available credit.
	if txn.Type == model.TypeExpense && fromAccount != nil && fromAccount.Type == model.AccountTypeCreditCard {
		if !fromAccount.CreditLimit.IsPositive() {
			return common.NewRuleViolation(common.ErrMissingCreditLimit,
				"account %q has no credit limit", fromAccount.Name)
		}
		outstanding := fromAccount.Outstanding()
		available := fromAccount.AvailableCredit()
		if txn.Amount.GreaterThan(available) || outstanding.Add(txn.Amount).GreaterThan(fromAccount.CreditLimit) {
			return common.NewRuleViolation(common.ErrCreditLimitExceeded,
				"charge %s exceeds available credit %s on %q",
				txn.Amount, available, fromAccount.Name)
		}
	}

	// Paying a credit card only makes sense against an outstanding balance,
	// and never beyond it.
	if txn.Type == model.TypeTransfer && toAccount != nil && toAccount.Type == model.AccountTypeCreditCard {
		outstanding := toAccount.Outstanding()
		if outstanding.IsZero() {
			return common.NewRuleViolation(common.ErrNoOutstandingDue,
				"%q has nothing outstanding", toAccount.Name)
		}
		if txn.Amount.GreaterThan(outstanding) {
			return common.NewRuleViolation(common.ErrOverpaymentExceedsOutstanding,
				"payment %s exceeds outstanding %s on %q",
				txn.Amount, outstanding, toAccount.Name)
		}
	}

	return nil
}
