package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// ErrCategoryHasChildren is returned when attempting to hard-delete a
// category that still has active children.
var ErrCategoryHasChildren = errors.New("category has active children")

// CategoryRepository handles one of the two category trees. Expense and
// income categories live in separate tables with the same shape, so a single
// repository serves both, bound to its table at construction.
type CategoryRepository struct {
	db    database.PGXDB
	table string
}

// NewExpenseCategoryRepository creates a repository over expense_categories.
func NewExpenseCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db, table: "expense_categories"}
}

// NewIncomeCategoryRepository creates a repository over income_categories.
func NewIncomeCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db, table: "income_categories"}
}

// Table returns the underlying table name. Used by group mappings to record
// which tree a category id belongs to.
func (r *CategoryRepository) Table() string {
	return r.table
}

// Create adds a category, optionally under a parent.
func (r *CategoryRepository) Create(ctx context.Context, name string, parentID *int64) (*models.Category, error) {
	cat := models.Category{Name: name, ParentID: parentID}
	err := r.db.QueryRow(ctx, `
		INSERT INTO `+r.table+` (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, sort_order, is_active, created_at
	`, name, parentID).Scan(&cat.ID, &cat.SortOrder, &cat.IsActive, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}

// GetByID retrieves a category by id, including soft-deleted ones so
// historical ledger rows can still resolve their category.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, parent_id, sort_order, is_active, created_at
		FROM `+r.table+` WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.ParentID, &cat.SortOrder, &cat.IsActive, &cat.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// GetActiveByName resolves a category name, case-insensitively. Only active
// categories resolve; soft-deleted ones must not be offered for new rows.
func (r *CategoryRepository) GetActiveByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, parent_id, sort_order, is_active, created_at
		FROM `+r.table+` WHERE is_active AND LOWER(name) = LOWER($1)
		ORDER BY id LIMIT 1
	`, name).Scan(&cat.ID, &cat.Name, &cat.ParentID, &cat.SortOrder, &cat.IsActive, &cat.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return &cat, nil
}

// GetRoots retrieves active root categories in display order.
func (r *CategoryRepository) GetRoots(ctx context.Context) ([]models.Category, error) {
	return r.query(ctx, `
		SELECT id, name, parent_id, sort_order, is_active, created_at
		FROM `+r.table+` WHERE is_active AND parent_id IS NULL
		ORDER BY sort_order, name
	`)
}

// GetChildren retrieves active children of a category.
func (r *CategoryRepository) GetChildren(ctx context.Context, parentID int64) ([]models.Category, error) {
	return r.query(ctx, `
		SELECT id, name, parent_id, sort_order, is_active, created_at
		FROM `+r.table+` WHERE is_active AND parent_id = $1
		ORDER BY sort_order, name
	`, parentID)
}

// HasActiveChildren reports whether any active category points at this one.
func (r *CategoryRepository) HasActiveChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE parent_id = $1 AND is_active)
	`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category children: %w", err)
	}
	return exists, nil
}

// SoftDelete flags a category inactive. This is the normal removal path.
func (r *CategoryRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE `+r.table+` SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}
	return nil
}

// HardDelete removes a category row. Refused while active children exist;
// callers should normally soft-delete instead.
func (r *CategoryRepository) HardDelete(ctx context.Context, id int64) error {
	hasChildren, err := r.HasActiveChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return ErrCategoryHasChildren
	}
	_, err = r.db.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) query(ctx context.Context, sql string, args ...any) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.ParentID, &cat.SortOrder,
			&cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}
