package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/centavo-app/centavo/internal/common"
	"github.com/centavo-app/centavo/internal/model"
)

// CreateAccount inserts a new account row.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.createAccountTx(ctx, s.db, account)
}

func (s *SQLiteStorage) createAccountTx(ctx context.Context, q queryable, account *model.Account) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	creditLimit := sql.NullString{}
	if account.Type == model.AccountTypeCreditCard {
		creditLimit = sql.NullString{String: account.CreditLimit.String(), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, balance, credit_limit, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, account.ID, account.Name, string(account.Type), account.Balance.String(), creditLimit, account.IsActive)
	if err != nil {
		return fmt.Errorf("failed to insert account %s: %w", account.ID, err)
	}
	return nil
}

// GetAccount retrieves a single account by id.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getAccountTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getAccountTx(ctx context.Context, q queryable, id string) (*model.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, type, balance, credit_limit, is_active, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

// ListAccounts returns all accounts, active first, oldest first.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listAccountsTx(ctx, s.db)
}

func (s *SQLiteStorage) listAccountsTx(ctx context.Context, q queryable) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, balance, credit_limit, is_active, created_at, updated_at
		FROM accounts ORDER BY is_active DESC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan account: %w", scanErr)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// UpdateAccount rewrites an account's metadata. The balance column is left
// untouched; only ApplyBalanceDelta may move it.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateAccountTx(ctx, s.db, account)
}

func (s *SQLiteStorage) updateAccountTx(ctx context.Context, q queryable, account *model.Account) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	creditLimit := sql.NullString{}
	if account.Type == model.AccountTypeCreditCard {
		creditLimit = sql.NullString{String: account.CreditLimit.String(), Valid: true}
	}

	result, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, credit_limit = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, account.Name, string(account.Type), creditLimit, account.IsActive, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("account %s: %w", account.ID, common.ErrNotFound)
	}
	return nil
}

// ApplyBalanceDelta adds a signed delta to one account's balance. This is
// the only write path for the balance column.
func (s *SQLiteStorage) ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.applyBalanceDeltaTx(ctx, s.db, accountID, delta)
}

func (s *SQLiteStorage) applyBalanceDeltaTx(ctx context.Context, q queryable, accountID string, delta decimal.Decimal) error {
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}

	// Read-modify-write keeps the arithmetic in decimal space; SQLite text
	// affinity would otherwise coerce the balance through floating point.
	row := q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, accountID)
	var balanceStr string
	if err := row.Scan(&balanceStr); errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %s: %w", accountID, common.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("failed to read balance for %s: %w", accountID, err)
	}

	balance, err := parseAmount(balanceStr)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, balance.Add(delta).String(), accountID)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta to %s: %w", accountID, err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for single-row scans.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.Account, error) {
	var account model.Account
	var accountType, balanceStr string
	var creditLimit sql.NullString

	err := row.Scan(
		&account.ID,
		&account.Name,
		&accountType,
		&balanceStr,
		&creditLimit,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = model.AccountType(accountType)
	if account.Balance, err = parseAmount(balanceStr); err != nil {
		return nil, err
	}
	if account.CreditLimit, err = parseNullAmount(creditLimit); err != nil {
		return nil, err
	}
	return &account, nil
}
