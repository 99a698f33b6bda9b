package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/ledger"
	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/service"
	"github.com/centavo-app/centavo/internal/testutil"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateTransaction_BalanceEffects(t *testing.T) {
	tests := []struct {
		name        string
		intent      ledger.Intent
		wantFrom    string
		wantTo      string
		fromBalance string
		toBalance   string
	}{
		{
			name: "expense debits source",
			intent: ledger.Intent{
				Type:          model.TypeExpense,
				Amount:        dec("120.50"),
				Date:          date("2025-03-10"),
				FromAccountID: "checking",
			},
			wantFrom: "879.50",
		},
		{
			name: "income credits destination",
			intent: ledger.Intent{
				Type:        model.TypeIncome,
				Amount:      dec("2500"),
				Date:        date("2025-03-01"),
				ToAccountID: "checking",
			},
			wantFrom: "1000", // untouched
			wantTo:   "3500",
		},
		{
			name: "transfer moves between accounts",
			intent: ledger.Intent{
				Type:          model.TypeTransfer,
				Amount:        dec("500"),
				Date:          date("2025-03-05"),
				FromAccountID: "checking",
				ToAccountID:   "savings",
			},
			wantFrom: "500",
			wantTo:   "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := testutil.SetupTestDB(t)
			testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "1000")
			testutil.SeedAccount(t, store, "savings", model.AccountTypeSavings, "0")
			engine := ledger.New(store)

			txn, err := engine.CreateTransaction(ctx, tt.intent)
			require.NoError(t, err)
			require.NotEmpty(t, txn.ID)
			assert.False(t, txn.CreatedAt.IsZero())

			switch tt.intent.Type {
			case model.TypeExpense:
				assert.True(t, testutil.MustBalance(t, store, "checking").Equal(dec(tt.wantFrom)))
			case model.TypeIncome:
				assert.True(t, testutil.MustBalance(t, store, "checking").Equal(dec(tt.wantTo)))
			case model.TypeTransfer:
				assert.True(t, testutil.MustBalance(t, store, "checking").Equal(dec(tt.wantFrom)))
				assert.True(t, testutil.MustBalance(t, store, "savings").Equal(dec(tt.wantTo)))
			}
		})
	}
}

func TestCreateTransaction_IntentValidation(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "1000")
	engine := ledger.New(store)

	tests := []struct {
		name   string
		intent ledger.Intent
	}{
		{
			name:   "expense without source account",
			intent: ledger.Intent{Type: model.TypeExpense, Amount: dec("10"), Date: date("2025-01-01")},
		},
		{
			name:   "income without destination account",
			intent: ledger.Intent{Type: model.TypeIncome, Amount: dec("10"), Date: date("2025-01-01")},
		},
		{
			name: "transfer with same accounts",
			intent: ledger.Intent{
				Type: model.TypeTransfer, Amount: dec("10"), Date: date("2025-01-01"),
				FromAccountID: "checking", ToAccountID: "checking",
			},
		},
		{
			name:   "zero amount",
			intent: ledger.Intent{Type: model.TypeExpense, Amount: decimal.Zero, Date: date("2025-01-01"), FromAccountID: "checking"},
		},
		{
			name:   "unknown type",
			intent: ledger.Intent{Type: "refund", Amount: dec("10"), Date: date("2025-01-01"), FromAccountID: "checking"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CreateTransaction(ctx, tt.intent)
			require.ErrorIs(t, err, common.ErrValidation)
			// Nothing committed, balance untouched.
			assert.True(t, testutil.MustBalance(t, store, "checking").Equal(dec("1000")))
		})
	}
}

func TestCreateTransaction_TransferCategoryForced(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "a", model.AccountTypeChecking, "1000")
	testutil.SeedAccount(t, store, "b", model.AccountTypeSavings, "0")
	engine := ledger.New(store)

	txn, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type:          model.TypeTransfer,
		Amount:        dec("100"),
		Date:          date("2025-02-01"),
		FromAccountID: "a",
		ToAccountID:   "b",
		CategoryID:    "cat-groceries", // ignored for transfers
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransferCategoryID, txn.CategoryID)
}

func TestCreditLimitBoundary(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedCreditCard(t, store, "visa", "-9000", "10000")
	engine := ledger.New(store)

	// Outstanding 9000 of a 10000 limit: exactly 1000 of room.
	_, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("1000"), Date: date("2025-04-01"), FromAccountID: "visa",
	})
	require.NoError(t, err)
	assert.True(t, testutil.MustBalance(t, store, "visa").Equal(dec("-10000")))

	// One over the limit fails and leaves the balance untouched.
	_, err = engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("1"), Date: date("2025-04-02"), FromAccountID: "visa",
	})
	require.ErrorIs(t, err, common.ErrCreditLimitExceeded)
	assert.True(t, testutil.MustBalance(t, store, "visa").Equal(dec("-10000")))
}

func TestCreditCardPaymentRules(t *testing.T) {
	ctx := context.Background()

	t.Run("payment against zero outstanding rejected", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "5000")
		testutil.SeedCreditCard(t, store, "visa", "0", "10000")
		engine := ledger.New(store)

		_, err := engine.CreateTransaction(ctx, ledger.Intent{
			Type: model.TypeTransfer, Amount: dec("100"), Date: date("2025-04-01"),
			FromAccountID: "checking", ToAccountID: "visa",
		})
		require.ErrorIs(t, err, common.ErrNoOutstandingDue)
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "5000")
		testutil.SeedCreditCard(t, store, "visa", "-300", "10000")
		engine := ledger.New(store)

		_, err := engine.CreateTransaction(ctx, ledger.Intent{
			Type: model.TypeTransfer, Amount: dec("300.01"), Date: date("2025-04-01"),
			FromAccountID: "checking", ToAccountID: "visa",
		})
		require.ErrorIs(t, err, common.ErrOverpaymentExceedsOutstanding)
	})

	t.Run("exact payoff clears outstanding", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "5000")
		testutil.SeedCreditCard(t, store, "visa", "-300", "10000")
		engine := ledger.New(store)

		_, err := engine.CreateTransaction(ctx, ledger.Intent{
			Type: model.TypeTransfer, Amount: dec("300"), Date: date("2025-04-01"),
			FromAccountID: "checking", ToAccountID: "visa",
		})
		require.NoError(t, err)
		assert.True(t, testutil.MustBalance(t, store, "visa").IsZero())
		assert.True(t, testutil.MustBalance(t, store, "checking").Equal(dec("4700")))
	})
}

func TestUpdateTransaction_TransferEdit(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "a", model.AccountTypeChecking, "1000")
	testutil.SeedAccount(t, store, "b", model.AccountTypeSavings, "0")
	engine := ledger.New(store)

	txn, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeTransfer, Amount: dec("500"), Date: date("2025-05-01"),
		FromAccountID: "a", ToAccountID: "b",
	})
	require.NoError(t, err)
	require.True(t, testutil.MustBalance(t, store, "a").Equal(dec("500")))
	require.True(t, testutil.MustBalance(t, store, "b").Equal(dec("500")))

	// Reverse-then-reapply, not a naive diff.
	txn.Amount = dec("300")
	_, err = engine.UpdateTransaction(ctx, txn)
	require.NoError(t, err)
	assert.True(t, testutil.MustBalance(t, store, "a").Equal(dec("700")))
	assert.True(t, testutil.MustBalance(t, store, "b").Equal(dec("300")))
}

func TestUpdateTransaction_ReverseBeforeValidate(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedCreditCard(t, store, "visa", "0", "1000")
	engine := ledger.New(store)

	// Max out the card.
	txn, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("1000"), Date: date("2025-06-01"), FromAccountID: "visa",
	})
	require.NoError(t, err)
	require.True(t, testutil.MustBalance(t, store, "visa").Equal(dec("-1000")))

	// Reducing the charge must not trip a false limit failure: the old
	// effect is reversed before the new amount is validated.
	txn.Amount = dec("800")
	_, err = engine.UpdateTransaction(ctx, txn)
	require.NoError(t, err)
	assert.True(t, testutil.MustBalance(t, store, "visa").Equal(dec("-800")))

	// Growing it past the limit still fails, atomically.
	txn.Amount = dec("1001")
	_, err = engine.UpdateTransaction(ctx, txn)
	require.ErrorIs(t, err, common.ErrCreditLimitExceeded)
	assert.True(t, testutil.MustBalance(t, store, "visa").Equal(dec("-800")))
}

func TestDeleteTransaction_ReversesEffect(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "1000")
	engine := ledger.New(store)

	txn, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("123.45"), Date: date("2025-07-01"), FromAccountID: "checking",
	})
	require.NoError(t, err)
	require.True(t, testutil.MustBalance(t, store, "checking").Equal(dec("876.55")))

	require.NoError(t, engine.DeleteTransaction(ctx, txn.ID))
	assert.True(t, testutil.MustBalance(t, store, "checking").Equal(dec("1000")))

	_, err = store.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMutations_NotFound(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	engine := ledger.New(store)

	err := engine.DeleteTransaction(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = engine.UpdateTransaction(ctx, &model.Transaction{
		ID: "missing", Type: model.TypeExpense, Amount: dec("1"),
		Date: date("2025-01-01"), FromAccountID: "checking",
	})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestBalanceConservation(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "0")
	testutil.SeedAccount(t, store, "savings", model.AccountTypeSavings, "0")
	testutil.SeedCreditCard(t, store, "visa", "0", "5000")
	engine := ledger.New(store)

	intents := []ledger.Intent{
		{Type: model.TypeIncome, Amount: dec("3000"), Date: date("2025-08-01"), ToAccountID: "checking"},
		{Type: model.TypeExpense, Amount: dec("250.25"), Date: date("2025-08-02"), FromAccountID: "checking"},
		{Type: model.TypeTransfer, Amount: dec("1000"), Date: date("2025-08-03"), FromAccountID: "checking", ToAccountID: "savings"},
		{Type: model.TypeExpense, Amount: dec("420"), Date: date("2025-08-04"), FromAccountID: "visa"},
		{Type: model.TypeTransfer, Amount: dec("400"), Date: date("2025-08-05"), FromAccountID: "checking", ToAccountID: "visa"},
	}

	var created []*model.Transaction
	for _, intent := range intents {
		txn, err := engine.CreateTransaction(ctx, intent)
		require.NoError(t, err)
		created = append(created, txn)
	}

	// Edit one and delete another so the stored set differs from the
	// sequence of operations.
	created[1].Amount = dec("300")
	_, err := engine.UpdateTransaction(ctx, created[1])
	require.NoError(t, err)
	require.NoError(t, engine.DeleteTransaction(ctx, created[3].ID))

	// Replaying stored transactions from zero must reproduce the balances.
	stored, err := store.ListTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)

	replayed := map[string]decimal.Decimal{
		"checking": decimal.Zero,
		"savings":  decimal.Zero,
		"visa":     decimal.Zero,
	}
	for _, txn := range stored {
		switch txn.Type {
		case model.TypeExpense:
			replayed[txn.FromAccountID] = replayed[txn.FromAccountID].Sub(txn.Amount)
		case model.TypeIncome:
			replayed[txn.ToAccountID] = replayed[txn.ToAccountID].Add(txn.Amount)
		case model.TypeTransfer:
			replayed[txn.FromAccountID] = replayed[txn.FromAccountID].Sub(txn.Amount)
			replayed[txn.ToAccountID] = replayed[txn.ToAccountID].Add(txn.Amount)
		}
	}

	for id, want := range replayed {
		got := testutil.MustBalance(t, store, id)
		assert.Truef(t, got.Equal(want), "account %s: replayed %s, stored %s", id, want, got)
	}
}

func TestBudgetAlertEmitted(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "checking", model.AccountTypeChecking, "2000")
	engine := ledger.New(store)

	require.NoError(t, store.CreateBudget(ctx, &model.Budget{
		ID: "b1", CategoryID: "cat-food", Month: "2025-09", Limit: dec("500"),
	}))

	// Under budget: no alert.
	_, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("300"), Date: date("2025-09-10"),
		FromAccountID: "checking", CategoryID: "cat-food",
	})
	require.NoError(t, err)

	alerts, err := store.ListAlerts(ctx, "2025-09")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// Crossing the cap emits exactly one alert, even across mutations.
	_, err = engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("250"), Date: date("2025-09-15"),
		FromAccountID: "checking", CategoryID: "cat-food",
	})
	require.NoError(t, err)

	_, err = engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeExpense, Amount: dec("10"), Date: date("2025-09-16"),
		FromAccountID: "checking", CategoryID: "cat-food",
	})
	require.NoError(t, err)

	alerts, err = store.ListAlerts(ctx, "2025-09")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertBudgetExceeded, alerts[0].Kind)
	assert.Equal(t, "cat-food", alerts[0].CategoryID)
}

func TestContributionListenerNotified(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedAccount(t, store, "savings", model.AccountTypeSavings, "0")

	type call struct{ goalID, investmentID string }
	var calls []call
	listener := service.ContributionListenerFunc(func(_ context.Context, goalID, investmentID string) {
		calls = append(calls, call{goalID, investmentID})
	})
	engine := ledger.NewWithListener(store, listener)

	txn, err := engine.CreateTransaction(ctx, ledger.Intent{
		Type: model.TypeIncome, Amount: dec("100"), Date: date("2025-10-01"),
		ToAccountID: "savings", GoalID: "goal-house",
	})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "goal-house", calls[0].goalID)

	// Moving the contribution to another goal notifies both sides.
	txn.GoalID = "goal-car"
	_, err = engine.UpdateTransaction(ctx, txn)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "goal-car", calls[1].goalID)
	assert.Equal(t, "goal-house", calls[2].goalID)

	require.NoError(t, engine.DeleteTransaction(ctx, txn.ID))
	require.Len(t, calls, 4)
	assert.Equal(t, "goal-car", calls[3].goalID)
}

func TestAccountRules(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	engine := ledger.New(store)

	err := engine.CreateAccount(ctx, &model.Account{
		ID: "visa", Name: "visa", Type: model.AccountTypeCreditCard, IsActive: true,
	})
	require.ErrorIs(t, err, common.ErrMissingCreditLimit)

	err = engine.CreateAccount(ctx, &model.Account{
		ID: "loan", Name: "loan", Type: model.AccountTypeLoan,
		Balance: dec("100"), IsActive: true,
	})
	require.ErrorIs(t, err, common.ErrValidation)

	err = engine.CreateAccount(ctx, &model.Account{
		ID: "visa", Name: "visa", Type: model.AccountTypeCreditCard,
		Balance: dec("-200"), CreditLimit: dec("1000"), IsActive: true,
	})
	require.NoError(t, err)
}
