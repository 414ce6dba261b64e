package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// LocationRepository handles café location rows.
type LocationRepository struct {
	db database.PGXDB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db database.PGXDB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create adds a new location.
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO locations (name, address)
		VALUES ($1, $2)
		RETURNING id, is_active, created_at
	`, loc.Name, loc.Address).Scan(&loc.ID, &loc.IsActive, &loc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// GetByID retrieves a location by id, including soft-deleted ones.
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*models.Location, error) {
	var loc models.Location
	err := r.db.QueryRow(ctx, `
		SELECT id, name, address, is_active, created_at
		FROM locations WHERE id = $1
	`, id).Scan(&loc.ID, &loc.Name, &loc.Address, &loc.IsActive, &loc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &loc, nil
}

// GetActiveByName resolves a location name, case-insensitively.
func (r *LocationRepository) GetActiveByName(ctx context.Context, name string) (*models.Location, error) {
	var loc models.Location
	err := r.db.QueryRow(ctx, `
		SELECT id, name, address, is_active, created_at
		FROM locations WHERE is_active AND LOWER(name) = LOWER($1)
	`, name).Scan(&loc.ID, &loc.Name, &loc.Address, &loc.IsActive, &loc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location by name: %w", err)
	}
	return &loc, nil
}

// GetActive retrieves active locations ordered by name.
func (r *LocationRepository) GetActive(ctx context.Context) ([]models.Location, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, address, is_active, created_at
		FROM locations WHERE is_active ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.IsActive, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// SoftDelete flags a location inactive.
func (r *LocationRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE locations SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate location: %w", err)
	}
	return nil
}
