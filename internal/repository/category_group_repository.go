package repository

import (
	"context"
	"fmt"

	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// CategoryGroupRepository handles reporting rollup groups and their
// many-to-many category mappings. Groups are read at query time by the
// analytics rollup; nothing derived from them is ever stored.
type CategoryGroupRepository struct {
	db database.PGXDB
}

// NewCategoryGroupRepository creates a new CategoryGroupRepository.
func NewCategoryGroupRepository(db database.PGXDB) *CategoryGroupRepository {
	return &CategoryGroupRepository{db: db}
}

// Create adds a new group.
func (r *CategoryGroupRepository) Create(ctx context.Context, g *models.CategoryGroup) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO category_groups (name, description)
		VALUES ($1, $2)
		RETURNING id, is_active
	`, g.Name, g.Description).Scan(&g.ID, &g.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create category group: %w", err)
	}
	return nil
}

// AddCategory maps a category into a group.
func (r *CategoryGroupRepository) AddCategory(ctx context.Context, groupID, categoryID int64, categoryType string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO category_group_mappings (group_id, category_id, category_type)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, groupID, categoryID, categoryType)
	if err != nil {
		return fmt.Errorf("failed to map category into group: %w", err)
	}
	return nil
}

// RemoveCategory unmaps a category from a group.
func (r *CategoryGroupRepository) RemoveCategory(ctx context.Context, groupID, categoryID int64, categoryType string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM category_group_mappings
		WHERE group_id = $1 AND category_id = $2 AND category_type = $3
	`, groupID, categoryID, categoryType)
	if err != nil {
		return fmt.Errorf("failed to unmap category from group: %w", err)
	}
	return nil
}

// GetActive retrieves active groups with their expense category ids resolved
// from current mappings.
func (r *CategoryGroupRepository) GetActive(ctx context.Context, categoryType string) ([]models.CategoryGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.id, g.name, g.description, g.is_active, m.category_id
		FROM category_groups g
		LEFT JOIN category_group_mappings m
			ON m.group_id = g.id AND m.category_type = $1
		WHERE g.is_active
		ORDER BY g.name, m.category_id
	`, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to query category groups: %w", err)
	}
	defer rows.Close()

	var groups []models.CategoryGroup
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			g     models.CategoryGroup
			catID *int64
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.IsActive, &catID); err != nil {
			return nil, fmt.Errorf("failed to scan category group: %w", err)
		}
		idx, ok := byID[g.ID]
		if !ok {
			groups = append(groups, g)
			idx = len(groups) - 1
			byID[g.ID] = idx
		}
		if catID != nil {
			groups[idx].CategoryIDs = append(groups[idx].CategoryIDs, *catID)
		}
	}
	return groups, rows.Err()
}

// SoftDelete flags a group inactive; its mappings stay for history.
func (r *CategoryGroupRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE category_groups SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate category group: %w", err)
	}
	return nil
}
