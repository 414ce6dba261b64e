package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// PaymentMethodRepository handles payment method rows.
type PaymentMethodRepository struct {
	db database.PGXDB
}

// NewPaymentMethodRepository creates a new PaymentMethodRepository.
func NewPaymentMethodRepository(db database.PGXDB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

// Create adds a new payment method.
func (r *PaymentMethodRepository) Create(ctx context.Context, m *models.PaymentMethod) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payment_methods
			(name, method_type, default_account_id, commission_percent, description, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_visible, is_active, created_at
	`, m.Name, m.MethodType, m.DefaultAccountID, m.CommissionPercent, m.Description, m.SortOrder,
	).Scan(&m.ID, &m.IsVisible, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment method: %w", err)
	}
	return nil
}

// GetByID retrieves a payment method by id, including soft-deleted ones.
func (r *PaymentMethodRepository) GetByID(ctx context.Context, id int64) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	err := r.db.QueryRow(ctx, `
		SELECT id, name, method_type, default_account_id, commission_percent,
		       description, is_visible, is_active, sort_order, created_at
		FROM payment_methods WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.MethodType, &m.DefaultAccountID, &m.CommissionPercent,
		&m.Description, &m.IsVisible, &m.IsActive, &m.SortOrder, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment method %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return &m, nil
}

// GetVisible retrieves the methods offered on the shift form: active and
// flagged visible, in display order.
func (r *PaymentMethodRepository) GetVisible(ctx context.Context) ([]models.PaymentMethod, error) {
	return r.query(ctx, `
		SELECT id, name, method_type, default_account_id, commission_percent,
		       description, is_visible, is_active, sort_order, created_at
		FROM payment_methods
		WHERE is_active AND is_visible
		ORDER BY sort_order, method_type, name
	`)
}

// GetActive retrieves all active methods regardless of visibility.
func (r *PaymentMethodRepository) GetActive(ctx context.Context) ([]models.PaymentMethod, error) {
	return r.query(ctx, `
		SELECT id, name, method_type, default_account_id, commission_percent,
		       description, is_visible, is_active, sort_order, created_at
		FROM payment_methods
		WHERE is_active
		ORDER BY sort_order, method_type, name
	`)
}

// GetActiveByName resolves a method name to its row, for bot input.
func (r *PaymentMethodRepository) GetActiveByName(ctx context.Context, name string) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	err := r.db.QueryRow(ctx, `
		SELECT id, name, method_type, default_account_id, commission_percent,
		       description, is_visible, is_active, sort_order, created_at
		FROM payment_methods
		WHERE is_active AND LOWER(name) = LOWER($1)
	`, name).Scan(&m.ID, &m.Name, &m.MethodType, &m.DefaultAccountID, &m.CommissionPercent,
		&m.Description, &m.IsVisible, &m.IsActive, &m.SortOrder, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment method %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method by name: %w", err)
	}
	return &m, nil
}

// Update modifies a payment method.
func (r *PaymentMethodRepository) Update(ctx context.Context, m *models.PaymentMethod) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payment_methods SET
			name = $2,
			method_type = $3,
			default_account_id = $4,
			commission_percent = $5,
			is_active = $6,
			sort_order = $7
		WHERE id = $1
	`, m.ID, m.Name, m.MethodType, m.DefaultAccountID, m.CommissionPercent, m.IsActive, m.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	return nil
}

// SetVisibility toggles whether the method appears on the shift form.
func (r *PaymentMethodRepository) SetVisibility(ctx context.Context, id int64, visible bool) error {
	_, err := r.db.Exec(ctx, `UPDATE payment_methods SET is_visible = $2 WHERE id = $1`, id, visible)
	if err != nil {
		return fmt.Errorf("failed to set payment method visibility: %w", err)
	}
	return nil
}

// SoftDelete flags a payment method inactive.
func (r *PaymentMethodRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE payment_methods SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate payment method: %w", err)
	}
	return nil
}

func (r *PaymentMethodRepository) query(ctx context.Context, sql string) ([]models.PaymentMethod, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.MethodType, &m.DefaultAccountID, &m.CommissionPercent,
			&m.Description, &m.IsVisible, &m.IsActive, &m.SortOrder, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}
