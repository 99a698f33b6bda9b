// Package testutil provides test utilities for setting up in-memory
// databases and seed data.
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/model"
	"github.com/centavo-app/centavo/internal/storage"
)

// SetupTestDB creates a new in-memory, migrated SQLite storage. Cleanup is
// registered automatically.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedAccount creates an account with the given balance and returns it.
func SeedAccount(t *testing.T, store *storage.SQLiteStorage, id string, accountType model.AccountType, balance string) *model.Account {
	t.Helper()

	account := &model.Account{
		ID:       id,
		Name:     id,
		Type:     accountType,
		Balance:  decimal.RequireFromString(balance),
		IsActive: true,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account %s: %v", id, err)
	}
	return account
}

// SeedCreditCard creates a credit card account with the given outstanding
// balance (stored non-positive) and limit.
func SeedCreditCard(t *testing.T, store *storage.SQLiteStorage, id, balance, limit string) *model.Account {
	t.Helper()

	account := &model.Account{
		ID:          id,
		Name:        id,
		Type:        model.AccountTypeCreditCard,
		Balance:     decimal.RequireFromString(balance),
		CreditLimit: decimal.RequireFromString(limit),
		IsActive:    true,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to seed credit card %s: %v", id, err)
	}
	return account
}

// MustBalance fetches an account and returns its balance, failing the test
// on any error.
func MustBalance(t *testing.T, store *storage.SQLiteStorage, id string) decimal.Decimal {
	t.Helper()

	account, err := store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get account %s: %v", id, err)
	}
	return account.Balance
}
