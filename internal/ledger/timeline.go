package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// SignedAmount applies the timeline sign convention to a positive input
// amount: expenses and salaries are stored negative, income and sales
// positive.
func SignedAmount(entryType string, amount decimal.Decimal) decimal.Decimal {
	switch entryType {
	case models.EntryTypeExpense, models.EntryTypeSalary:
		return amount.Abs().Neg()
	default:
		return amount.Abs()
	}
}

// TimelineMigrator copies a closed report's rows into the unified timeline.
// Bind it to a transaction when migration must be atomic with a status
// change.
type TimelineMigrator struct {
	reports  *repository.ReportRepository
	timeline *repository.TimelineRepository
}

// NewTimelineMigrator creates a TimelineMigrator over the given database.
func NewTimelineMigrator(db database.PGXDB) *TimelineMigrator {
	return &TimelineMigrator{
		reports:  repository.NewReportRepository(db),
		timeline: repository.NewTimelineRepository(db),
	}
}

// MigrateReport replaces the timeline entries of one report: its prior
// entries are deleted, then each expense, income and payment row is inserted
// with the sign convention applied. Only closed reports contribute; an open
// report yields zero entries. Returns the number of entries written.
func (m *TimelineMigrator) MigrateReport(ctx context.Context, report *models.DailyReport) (int, error) {
	if report.Status != models.ReportStatusClosed {
		return 0, nil
	}

	if _, err := m.timeline.DeleteByReport(ctx, report.ID); err != nil {
		return 0, err
	}

	count := 0

	expenses, err := m.reports.GetExpenses(ctx, report.ID)
	if err != nil {
		return 0, err
	}
	for _, e := range expenses {
		entry := models.TimelineEntry{
			EntryDate:   report.ReportDate,
			EntryType:   models.EntryTypeExpense,
			CategoryID:  e.CategoryID,
			AccountID:   &e.AccountID,
			Amount:      SignedAmount(models.EntryTypeExpense, e.Amount),
			Description: e.Description,
			ReportID:    &report.ID,
			Source:      models.SourceReport,
		}
		if err := m.timeline.Insert(ctx, &entry); err != nil {
			return 0, err
		}
		count++
	}

	incomes, err := m.reports.GetIncomes(ctx, report.ID)
	if err != nil {
		return 0, err
	}
	for _, e := range incomes {
		entry := models.TimelineEntry{
			EntryDate:   report.ReportDate,
			EntryType:   models.EntryTypeIncome,
			CategoryID:  e.CategoryID,
			AccountID:   &e.AccountID,
			Amount:      SignedAmount(models.EntryTypeIncome, e.Amount),
			Description: e.Description,
			ReportID:    &report.ID,
			Source:      models.SourceReport,
		}
		if err := m.timeline.Insert(ctx, &entry); err != nil {
			return 0, err
		}
		count++
	}

	payments, err := m.reports.GetPayments(ctx, report.ID)
	if err != nil {
		return 0, err
	}
	for _, p := range payments {
		entry := models.TimelineEntry{
			EntryDate:   report.ReportDate,
			EntryType:   models.EntryTypeSale,
			AccountID:   &p.AccountID,
			Amount:      SignedAmount(models.EntryTypeSale, p.Amount),
			Description: fmt.Sprintf("Sale (%s)", p.MethodName),
			ReportID:    &report.ID,
			Source:      models.SourceReport,
		}
		if err := m.timeline.Insert(ctx, &entry); err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

// MigrateRange re-migrates every closed report in [start, end]. Open reports
// in the range contribute nothing.
func (m *TimelineMigrator) MigrateRange(ctx context.Context, start, end time.Time) (int, error) {
	reports, err := m.reports.ListByPeriod(ctx, start, end)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range reports {
		n, err := m.MigrateReport(ctx, &reports[i])
		if err != nil {
			return total, fmt.Errorf("report %d: %w", reports[i].ID, err)
		}
		total += n
	}
	return total, nil
}
