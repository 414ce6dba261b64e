package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// TimelineRepository handles the unified ledger table.
type TimelineRepository struct {
	db database.PGXDB
}

// NewTimelineRepository creates a new TimelineRepository.
func NewTimelineRepository(db database.PGXDB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Insert adds one ledger entry. Amounts carry the sign convention: negative
// for expenses and salaries, positive for income and sales.
func (r *TimelineRepository) Insert(ctx context.Context, e *models.TimelineEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO timeline
			(entry_date, entry_type, category_id, account_id, amount, description, report_id, user_id, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, e.EntryDate, e.EntryType, e.CategoryID, e.AccountID, e.Amount,
		e.Description, e.ReportID, e.UserID, e.Source,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert timeline entry: %w", err)
	}
	return nil
}

// DeleteByReport removes every entry that originated from a report. Used by
// replace-then-insert migration and by report reopening.
// Returns the number of deleted rows.
func (r *TimelineRepository) DeleteByReport(ctx context.Context, reportID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM timeline WHERE report_id = $1`, reportID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete timeline entries for report: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByReport retrieves entries that originated from a report.
func (r *TimelineRepository) ListByReport(ctx context.Context, reportID int64) ([]models.TimelineEntry, error) {
	return r.query(ctx, `
		SELECT id, entry_date, entry_type, category_id, account_id, amount,
		       description, report_id, user_id, source, created_at
		FROM timeline WHERE report_id = $1
		ORDER BY id
	`, reportID)
}

// ListByPeriod retrieves entries within [start, end], newest first.
func (r *TimelineRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]models.TimelineEntry, error) {
	return r.query(ctx, `
		SELECT id, entry_date, entry_type, category_id, account_id, amount,
		       description, report_id, user_id, source, created_at
		FROM timeline WHERE entry_date BETWEEN $1 AND $2
		ORDER BY entry_date DESC, id DESC
	`, start, end)
}

// CountByReport reports how many entries a report contributed.
func (r *TimelineRepository) CountByReport(ctx context.Context, reportID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM timeline WHERE report_id = $1
	`, reportID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count timeline entries: %w", err)
	}
	return count, nil
}

// SumByAccount totals signed amounts for an account. With the sign
// convention in place this should equal the account's balance; the balance
// calculator in ledger recomputes from the per-purpose tables instead and
// this sum serves consistency checks.
func (r *TimelineRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM timeline WHERE account_id = $1
	`, accountID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum timeline by account: %w", err)
	}
	return total, nil
}

func (r *TimelineRepository) query(ctx context.Context, sql string, args ...any) ([]models.TimelineEntry, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.TimelineEntry
	for rows.Next() {
		var e models.TimelineEntry
		if err := rows.Scan(&e.ID, &e.EntryDate, &e.EntryType, &e.CategoryID, &e.AccountID,
			&e.Amount, &e.Description, &e.ReportID, &e.UserID, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
