// Package repository contains the database access layer, one repository per
// table, all speaking pgx against the shared schema.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist, e.g. a
// category or account picked from a stale list.
var ErrNotFound = errors.New("not found")

// AccountRepository handles account rows.
type AccountRepository struct {
	db database.PGXDB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db database.PGXDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create adds a new account.
func (r *AccountRepository) Create(ctx context.Context, acc *models.Account) error {
	if acc.Currency == "" {
		acc.Currency = "UZS"
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (name, account_type, currency, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at
	`, acc.Name, acc.AccountType, acc.Currency, acc.Description,
	).Scan(&acc.ID, &acc.IsActive, &acc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by id, including soft-deleted ones so
// historical ledger rows can still resolve their account.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var acc models.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, name, account_type, currency, description, is_active, created_at
		FROM accounts WHERE id = $1
	`, id).Scan(&acc.ID, &acc.Name, &acc.AccountType, &acc.Currency,
		&acc.Description, &acc.IsActive, &acc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acc, nil
}

// GetActiveByName retrieves an active account by case-insensitive name.
func (r *AccountRepository) GetActiveByName(ctx context.Context, name string) (*models.Account, error) {
	var acc models.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, name, account_type, currency, description, is_active, created_at
		FROM accounts
		WHERE LOWER(name) = LOWER($1) AND is_active
	`, name).Scan(&acc.ID, &acc.Name, &acc.AccountType, &acc.Currency,
		&acc.Description, &acc.IsActive, &acc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acc, nil
}

// GetActive retrieves active accounts ordered for pick lists.
// Soft-deleted accounts are excluded here and only here.
func (r *AccountRepository) GetActive(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, account_type, currency, description, is_active, created_at
		FROM accounts
		WHERE is_active
		ORDER BY account_type, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.AccountType, &acc.Currency,
			&acc.Description, &acc.IsActive, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Update modifies an account's name and description.
func (r *AccountRepository) Update(ctx context.Context, acc *models.Account) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET name = $2, description = $3 WHERE id = $1
	`, acc.ID, acc.Name, acc.Description)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// SoftDelete flags an account inactive. Rows are never hard-deleted because
// historical ledger entries reference them.
func (r *AccountRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	return nil
}
