package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// ReportRepository handles daily cashier reports and their attached payment,
// expense and income rows.
type ReportRepository struct {
	db database.PGXDB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db database.PGXDB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new open report. Callers must check for an existing
// (date, location) report first; the UNIQUE constraint is the backstop, not
// the user-facing check.
func (r *ReportRepository) Create(ctx context.Context, report *models.DailyReport) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO daily_reports (report_date, location_id, total_sales, created_by, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`, report.ReportDate, report.LocationID, report.TotalSales, report.CreatedBy, report.Notes,
	).Scan(&report.ID, &report.Status, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create daily report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by id.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.DailyReport, error) {
	return r.getOne(ctx, `
		SELECT dr.id, dr.report_date, dr.location_id, l.name,
		       dr.total_sales, dr.cash_expected, dr.cash_actual, dr.cash_difference,
		       dr.cash_breakdown, dr.status, dr.created_by, dr.notes, dr.created_at, dr.closed_at
		FROM daily_reports dr
		JOIN locations l ON dr.location_id = l.id
		WHERE dr.id = $1
	`, id)
}

// GetByDateLocation retrieves the report for one (date, location) pair.
// Returns ErrNotFound when no report exists yet.
func (r *ReportRepository) GetByDateLocation(ctx context.Context, date time.Time, locationID int64) (*models.DailyReport, error) {
	return r.getOne(ctx, `
		SELECT dr.id, dr.report_date, dr.location_id, l.name,
		       dr.total_sales, dr.cash_expected, dr.cash_actual, dr.cash_difference,
		       dr.cash_breakdown, dr.status, dr.created_by, dr.notes, dr.created_at, dr.closed_at
		FROM daily_reports dr
		JOIN locations l ON dr.location_id = l.id
		WHERE dr.report_date = $1 AND dr.location_id = $2
	`, date, locationID)
}

func (r *ReportRepository) getOne(ctx context.Context, sql string, args ...any) (*models.DailyReport, error) {
	var (
		report        models.DailyReport
		expected      *decimal.Decimal
		actual        *decimal.Decimal
		difference    *decimal.Decimal
		breakdownJSON []byte
	)
	err := r.db.QueryRow(ctx, sql, args...).Scan(
		&report.ID, &report.ReportDate, &report.LocationID, &report.LocationName,
		&report.TotalSales, &expected, &actual, &difference,
		&breakdownJSON, &report.Status, &report.CreatedBy, &report.Notes,
		&report.CreatedAt, &report.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("daily report: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily report: %w", err)
	}

	if expected != nil {
		report.CashExpected = *expected
	}
	if actual != nil {
		report.CashActual = *actual
	}
	if difference != nil {
		report.CashDifference = *difference
	}
	breakdown, err := models.UnmarshalBreakdown(breakdownJSON)
	if err != nil {
		return nil, err
	}
	report.CashBreakdown = breakdown

	return &report, nil
}

// UpdateSales sets the declared total sales figure.
func (r *ReportRepository) UpdateSales(ctx context.Context, reportID int64, totalSales decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		UPDATE daily_reports SET total_sales = $2 WHERE id = $1
	`, reportID, totalSales)
	if err != nil {
		return fmt.Errorf("failed to update total sales: %w", err)
	}
	return nil
}

// UpdateCash persists the reconciliation result.
func (r *ReportRepository) UpdateCash(
	ctx context.Context,
	reportID int64,
	expected, actual, difference decimal.Decimal,
	breakdown *models.CashBreakdown,
) error {
	breakdownJSON, err := models.MarshalBreakdown(breakdown)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE daily_reports
		SET cash_expected = $2, cash_actual = $3, cash_difference = $4, cash_breakdown = $5
		WHERE id = $1
	`, reportID, expected, actual, difference, breakdownJSON)
	if err != nil {
		return fmt.Errorf("failed to update report cash: %w", err)
	}
	return nil
}

// Close marks a report closed.
func (r *ReportRepository) Close(ctx context.Context, reportID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE daily_reports SET status = $2, closed_at = NOW() WHERE id = $1
	`, reportID, models.ReportStatusClosed)
	if err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

// Reopen flips a closed report back to open.
func (r *ReportRepository) Reopen(ctx context.Context, reportID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE daily_reports SET status = $2, closed_at = NULL WHERE id = $1
	`, reportID, models.ReportStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to reopen report: %w", err)
	}
	return nil
}

// AddPayment attaches a payment row. Commission and net must already be
// computed (ledger.SplitCommission).
func (r *ReportRepository) AddPayment(ctx context.Context, p *models.ReportPayment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO report_payments
			(report_id, payment_method_id, account_id, amount, commission_amount, net_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.ReportID, p.PaymentMethodID, p.AccountID, p.Amount, p.CommissionAmount, p.NetAmount,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to add report payment: %w", err)
	}
	return nil
}

// AddExpense attaches an expense row.
func (r *ReportRepository) AddExpense(ctx context.Context, e *models.ReportEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO report_expenses (report_id, category_id, account_id, amount, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.ReportID, e.CategoryID, e.AccountID, e.Amount, e.Description).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to add report expense: %w", err)
	}
	return nil
}

// AddIncome attaches a non-sales income row.
func (r *ReportRepository) AddIncome(ctx context.Context, e *models.ReportEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO non_sales_income (report_id, category_id, account_id, amount, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.ReportID, e.CategoryID, e.AccountID, e.Amount, e.Description).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to add non-sales income: %w", err)
	}
	return nil
}

// ClearDetails removes all payment, expense and income rows of a report, so
// an open report can be refilled from scratch.
func (r *ReportRepository) ClearDetails(ctx context.Context, reportID int64) error {
	for _, table := range []string{"report_payments", "report_expenses", "non_sales_income"} {
		if _, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE report_id = $1`, reportID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// GetPayments retrieves a report's payment rows with method names resolved.
func (r *ReportRepository) GetPayments(ctx context.Context, reportID int64) ([]models.ReportPayment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT rp.id, rp.report_id, rp.payment_method_id, pm.name, pm.method_type,
		       rp.account_id, rp.amount, rp.commission_amount, rp.net_amount
		FROM report_payments rp
		JOIN payment_methods pm ON rp.payment_method_id = pm.id
		WHERE rp.report_id = $1
		ORDER BY rp.id
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report payments: %w", err)
	}
	defer rows.Close()

	var payments []models.ReportPayment
	for rows.Next() {
		var p models.ReportPayment
		if err := rows.Scan(&p.ID, &p.ReportID, &p.PaymentMethodID, &p.MethodName, &p.MethodType,
			&p.AccountID, &p.Amount, &p.CommissionAmount, &p.NetAmount); err != nil {
			return nil, fmt.Errorf("failed to scan report payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetExpenses retrieves a report's expense rows with category names resolved.
// The LEFT JOIN keeps rows whose category was soft-deleted later.
func (r *ReportRepository) GetExpenses(ctx context.Context, reportID int64) ([]models.ReportEntry, error) {
	return r.queryEntries(ctx, `
		SELECT e.id, e.report_id, e.category_id, COALESCE(c.name, ''),
		       e.account_id, e.amount, e.description
		FROM report_expenses e
		LEFT JOIN expense_categories c ON e.category_id = c.id
		WHERE e.report_id = $1
		ORDER BY e.id
	`, reportID)
}

// GetIncomes retrieves a report's non-sales income rows.
func (r *ReportRepository) GetIncomes(ctx context.Context, reportID int64) ([]models.ReportEntry, error) {
	return r.queryEntries(ctx, `
		SELECT i.id, i.report_id, i.category_id, COALESCE(c.name, ''),
		       i.account_id, i.amount, i.description
		FROM non_sales_income i
		LEFT JOIN income_categories c ON i.category_id = c.id
		WHERE i.report_id = $1
		ORDER BY i.id
	`, reportID)
}

func (r *ReportRepository) queryEntries(ctx context.Context, sql string, args ...any) ([]models.ReportEntry, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ReportEntry
	for rows.Next() {
		var e models.ReportEntry
		if err := rows.Scan(&e.ID, &e.ReportID, &e.CategoryID, &e.CategoryName,
			&e.AccountID, &e.Amount, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan report entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByPeriod retrieves reports whose date falls within [start, end],
// newest first.
func (r *ReportRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]models.DailyReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT dr.id, dr.report_date, dr.location_id, l.name,
		       dr.total_sales, dr.cash_expected, dr.cash_actual, dr.cash_difference,
		       dr.cash_breakdown, dr.status, dr.created_by, dr.notes, dr.created_at, dr.closed_at
		FROM daily_reports dr
		JOIN locations l ON dr.location_id = l.id
		WHERE dr.report_date BETWEEN $1 AND $2
		ORDER BY dr.report_date DESC, dr.id DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by period: %w", err)
	}
	defer rows.Close()

	var reports []models.DailyReport
	for rows.Next() {
		var (
			report        models.DailyReport
			expected      *decimal.Decimal
			actual        *decimal.Decimal
			difference    *decimal.Decimal
			breakdownJSON []byte
		)
		if err := rows.Scan(
			&report.ID, &report.ReportDate, &report.LocationID, &report.LocationName,
			&report.TotalSales, &expected, &actual, &difference,
			&breakdownJSON, &report.Status, &report.CreatedBy, &report.Notes,
			&report.CreatedAt, &report.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily report: %w", err)
		}
		if expected != nil {
			report.CashExpected = *expected
		}
		if actual != nil {
			report.CashActual = *actual
		}
		if difference != nil {
			report.CashDifference = *difference
		}
		breakdown, err := models.UnmarshalBreakdown(breakdownJSON)
		if err != nil {
			return nil, err
		}
		report.CashBreakdown = breakdown
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// SumNetPaymentsByAccount totals net payment amounts settled to an account,
// across all reports ever recorded.
func (r *ReportRepository) SumNetPaymentsByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return r.sum(ctx, `
		SELECT COALESCE(SUM(net_amount), 0) FROM report_payments WHERE account_id = $1
	`, accountID)
}

// SumNonSalesIncomeByAccount totals non-sales income received into an account.
func (r *ReportRepository) SumNonSalesIncomeByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return r.sum(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM non_sales_income WHERE account_id = $1
	`, accountID)
}

// SumExpensesByAccount totals expenses paid out of an account.
func (r *ReportRepository) SumExpensesByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return r.sum(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM report_expenses WHERE account_id = $1
	`, accountID)
}

// SumCashActual totals counted cash across all daily reports. The physical
// count is the authoritative cash position per shift, so cash accounts add
// this directly instead of re-deriving cash from sales.
func (r *ReportRepository) SumCashActual(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, `
		SELECT COALESCE(SUM(cash_actual), 0) FROM daily_reports
	`)
}

func (r *ReportRepository) sum(ctx context.Context, sql string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum: %w", err)
	}
	return total, nil
}
