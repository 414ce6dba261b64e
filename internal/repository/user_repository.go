package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// RoleTemplates maps a role to the capability set it grants. Applying a
// template replaces all prior grants.
var RoleTemplates = map[string][]string{
	"owner": {
		models.PermSubmitShift, models.PermQuickExpense, models.PermQuickIncome,
		models.PermViewBalances, models.PermViewAnalytics, models.PermReopenReport,
	},
	"manager": {
		models.PermSubmitShift, models.PermQuickExpense, models.PermQuickIncome,
		models.PermViewBalances, models.PermViewAnalytics, models.PermReopenReport,
	},
	"accountant": {
		models.PermQuickExpense, models.PermQuickIncome,
		models.PermViewBalances, models.PermViewAnalytics,
	},
	"cashier": {
		models.PermSubmitShift,
	},
}

// UserRepository handles users and their permission grants.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByTelegramID retrieves an active user by Telegram ID.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, telegram_id, username, full_name, role, is_active, created_at
		FROM users WHERE telegram_id = $1 AND is_active
	`, telegramID).Scan(&u.ID, &u.TelegramID, &u.Username, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user tg:%d: %w", telegramID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetOrCreate finds a user by Telegram ID or creates one without any grants.
// An administrator assigns capabilities afterwards.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, fullName string) (*models.User, error) {
	user, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	u := models.User{TelegramID: telegramID, Username: username, FullName: fullName}
	err = r.db.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, role, is_active, created_at
	`, telegramID, username, fullName).Scan(&u.ID, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// HasPermission reports whether the user holds a named capability.
func (r *UserRepository) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_permissions up
			JOIN permissions p ON up.permission_id = p.id
			WHERE up.user_id = $1 AND p.name = $2
		)
	`, userID, permission).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return exists, nil
}

// Grant adds a single named capability to a user.
func (r *UserRepository) Grant(ctx context.Context, userID int64, permission string) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_permissions (user_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = $2
		ON CONFLICT DO NOTHING
	`, userID, permission)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already granted or the permission name does not exist;
		// verify the latter so typos surface.
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM permissions WHERE name = $1)`, permission,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to verify permission name: %w", err)
		}
		if !exists {
			return fmt.Errorf("permission %q: %w", permission, ErrNotFound)
		}
	}
	return nil
}

// Revoke removes a single named capability from a user.
func (r *UserRepository) Revoke(ctx context.Context, userID int64, permission string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM user_permissions
		WHERE user_id = $1
		  AND permission_id = (SELECT id FROM permissions WHERE name = $2)
	`, userID, permission)
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

// ApplyRole replaces all of a user's grants with the role template's set and
// records the role on the user row.
func (r *UserRepository) ApplyRole(ctx context.Context, userID int64, role string) error {
	grants, ok := RoleTemplates[role]
	if !ok {
		return fmt.Errorf("role template %q: %w", role, ErrNotFound)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear grants: %w", err)
	}
	for _, name := range grants {
		if err := r.Grant(ctx, userID, name); err != nil {
			return err
		}
	}
	if _, err := r.db.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, userID, role); err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	return nil
}

// ListPermissions retrieves a user's capabilities.
func (r *UserRepository) ListPermissions(ctx context.Context, userID int64) ([]models.Permission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.display_name, p.category
		FROM user_permissions up
		JOIN permissions p ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.category, p.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user permissions: %w", err)
	}
	defer rows.Close()

	var permissions []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.DisplayName, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

// Deactivate soft-deletes a user.
func (r *UserRepository) Deactivate(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}
