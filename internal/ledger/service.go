package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
	"gitlab.com/bekzod/kassa-bot/internal/models"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// ErrReportNotClosed is returned when reopening a report that is not closed.
var ErrReportNotClosed = errors.New("report is not closed")

// ErrInvalidAmount is returned for zero or negative money input. Amount
// validation belongs at the boundary, but the service re-checks so a buggy
// caller cannot write nonsense rows.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrNoSettlementAccount is returned when a payment method has no default
// settlement account configured.
var ErrNoSettlementAccount = errors.New("payment method has no settlement account")

// ReportExistsError signals that a (date, location) pair already has a
// report. It carries the existing report so callers can offer "edit
// existing" instead of surfacing a constraint failure.
type ReportExistsError struct {
	ReportID int64
	Status   string
}

func (e *ReportExistsError) Error() string {
	return fmt.Sprintf("report %d already exists (status %s)", e.ReportID, e.Status)
}

// ShiftPayment is one payment method line of a submitted shift.
type ShiftPayment struct {
	MethodID int64
	Amount   decimal.Decimal
}

// ShiftInput is a complete cashier shift as submitted by the front-end.
type ShiftInput struct {
	Date       time.Time
	LocationID int64
	CreatedBy  string
	TotalSales decimal.Decimal
	Payments   []ShiftPayment
	Expenses   []EntryLine
	Incomes    []EntryLine
	Breakdown  *models.CashBreakdown
}

// ShiftResult is what the front-end renders after a shift is saved.
type ShiftResult struct {
	Report         *models.DailyReport
	Totals         ShiftTotals
	Commissions    decimal.Decimal
	Reconciliation Reconciliation
	TimelineRows   int
}

// ReportService runs the daily report lifecycle. Every mutating operation is
// one transaction: either the whole shift lands or none of it does.
type ReportService struct {
	db database.DB
}

// NewReportService creates a ReportService over a pool (or a transaction in
// tests, where nested Begin becomes a savepoint).
func NewReportService(db database.DB) *ReportService {
	return &ReportService{db: db}
}

// SubmitShift records one full cashier shift: the report row, its payment,
// expense and income rows, the persisted reconciliation, the closed status
// and the timeline migration, all in one transaction.
//
// If a report for the (date, location) pair already exists and is still
// open, its detail rows are replaced with the submitted ones. A closed
// report must be reopened by a manager first; submitting over it returns
// ReportExistsError.
func (s *ReportService) SubmitShift(ctx context.Context, in ShiftInput) (*ShiftResult, error) {
	if err := validateShift(in); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	reports := repository.NewReportRepository(tx)
	methods := repository.NewPaymentMethodRepository(tx)

	report, err := s.findOrCreate(ctx, reports, in)
	if err != nil {
		return nil, err
	}

	if err := reports.UpdateSales(ctx, report.ID, in.TotalSales); err != nil {
		return nil, err
	}
	report.TotalSales = in.TotalSales

	lines, commissions, err := s.insertPayments(ctx, reports, methods, report.ID, in.Payments)
	if err != nil {
		return nil, err
	}

	for _, e := range in.Expenses {
		entry := models.ReportEntry{
			ReportID:    report.ID,
			CategoryID:  e.CategoryID,
			AccountID:   e.AccountID,
			Amount:      e.Amount,
			Description: e.Description,
		}
		if err := reports.AddExpense(ctx, &entry); err != nil {
			return nil, err
		}
	}
	for _, e := range in.Incomes {
		entry := models.ReportEntry{
			ReportID:    report.ID,
			CategoryID:  e.CategoryID,
			AccountID:   e.AccountID,
			Amount:      e.Amount,
			Description: e.Description,
		}
		if err := reports.AddIncome(ctx, &entry); err != nil {
			return nil, err
		}
	}

	totals := Aggregate(lines, in.Expenses, in.Incomes)
	rec := Reconcile(in.TotalSales, totals, in.Breakdown)

	if err := reports.UpdateCash(ctx, report.ID, rec.CashExpected, rec.CashActual, rec.CashDifference, in.Breakdown); err != nil {
		return nil, err
	}
	if err := reports.Close(ctx, report.ID); err != nil {
		return nil, err
	}

	report, err = reports.GetByID(ctx, report.ID)
	if err != nil {
		return nil, err
	}

	rowCount, err := NewTimelineMigrator(tx).MigrateReport(ctx, report)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shift: %w", err)
	}

	logger.Log.Info().
		Int64("report_id", report.ID).
		Str("date", report.ReportDate.Format("2006-01-02")).
		Str("verdict", rec.Verdict()).
		Str("cash_difference", rec.CashDifference.String()).
		Int("timeline_rows", rowCount).
		Msg("Shift report closed")

	return &ShiftResult{
		Report:         report,
		Totals:         totals,
		Commissions:    commissions,
		Reconciliation: rec,
		TimelineRows:   rowCount,
	}, nil
}

// Reopen flips a closed report back to open and deletes its timeline
// entries in the same transaction, so the shift's effect cannot be counted
// twice when it is corrected and closed again.
func (s *ReportService) Reopen(ctx context.Context, reportID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	reports := repository.NewReportRepository(tx)
	timeline := repository.NewTimelineRepository(tx)

	report, err := reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report.Status != models.ReportStatusClosed {
		return fmt.Errorf("report %d: %w", reportID, ErrReportNotClosed)
	}

	deleted, err := timeline.DeleteByReport(ctx, reportID)
	if err != nil {
		return err
	}
	if err := reports.Reopen(ctx, reportID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reopen: %w", err)
	}

	logger.Log.Info().
		Int64("report_id", reportID).
		Int64("timeline_rows_removed", deleted).
		Msg("Report reopened")

	return nil
}

func (s *ReportService) findOrCreate(ctx context.Context, reports *repository.ReportRepository, in ShiftInput) (*models.DailyReport, error) {
	existing, err := reports.GetByDateLocation(ctx, in.Date, in.LocationID)
	if err == nil {
		if existing.Status != models.ReportStatusOpen {
			return nil, &ReportExistsError{ReportID: existing.ID, Status: existing.Status}
		}
		// Resubmission of a still-open report replaces its detail rows.
		if err := reports.ClearDetails(ctx, existing.ID); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	report := models.DailyReport{
		ReportDate: in.Date,
		LocationID: in.LocationID,
		TotalSales: in.TotalSales,
		CreatedBy:  in.CreatedBy,
	}
	if err := reports.Create(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) insertPayments(
	ctx context.Context,
	reports *repository.ReportRepository,
	methods *repository.PaymentMethodRepository,
	reportID int64,
	payments []ShiftPayment,
) ([]PaymentLine, decimal.Decimal, error) {
	var lines []PaymentLine
	commissions := decimal.Zero
	for _, p := range payments {
		method, err := methods.GetByID(ctx, p.MethodID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if method.DefaultAccountID == nil {
			return nil, decimal.Zero, fmt.Errorf("method %q: %w", method.Name, ErrNoSettlementAccount)
		}

		commission, net := SplitCommission(p.Amount, method.CommissionPercent)
		row := models.ReportPayment{
			ReportID:         reportID,
			PaymentMethodID:  method.ID,
			AccountID:        *method.DefaultAccountID,
			Amount:           p.Amount,
			CommissionAmount: commission,
			NetAmount:        net,
		}
		if err := reports.AddPayment(ctx, &row); err != nil {
			return nil, decimal.Zero, err
		}

		commissions = commissions.Add(commission)
		lines = append(lines, PaymentLine{
			MethodID:          method.ID,
			MethodType:        method.MethodType,
			Amount:            p.Amount,
			CommissionPercent: method.CommissionPercent,
		})
	}
	return lines, commissions, nil
}

func validateShift(in ShiftInput) error {
	if in.TotalSales.Sign() < 0 {
		return fmt.Errorf("total sales: %w", ErrInvalidAmount)
	}
	for _, p := range in.Payments {
		if p.Amount.Sign() <= 0 {
			return fmt.Errorf("payment: %w", ErrInvalidAmount)
		}
	}
	for _, e := range in.Expenses {
		if e.Amount.Sign() <= 0 {
			return fmt.Errorf("expense: %w", ErrInvalidAmount)
		}
	}
	for _, e := range in.Incomes {
		if e.Amount.Sign() <= 0 {
			return fmt.Errorf("income: %w", ErrInvalidAmount)
		}
	}
	return nil
}
