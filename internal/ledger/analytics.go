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

// ReportData is one closed report with its detail rows, as fetched for a
// summary period.
type ReportData struct {
	Report   models.DailyReport
	Payments []models.ReportPayment
	Expenses []models.ReportEntry
	Incomes  []models.ReportEntry
}

// GroupShare is one category-group rollup expressed against revenue.
type GroupShare struct {
	Name             string
	Total            decimal.Decimal
	PercentOfRevenue decimal.Decimal
}

// Summary is the monthly analytics picture.
type Summary struct {
	ReportCount       int
	TotalSales        decimal.Decimal
	TotalCashCounted  decimal.Decimal
	TotalCashless     decimal.Decimal
	TotalCommissions  decimal.Decimal
	TotalExpenses     decimal.Decimal
	TotalIncome       decimal.Decimal
	GrossProfit       decimal.Decimal
	NetProfit         decimal.Decimal
	GrossMarginPct    decimal.Decimal
	NetMarginPct      decimal.Decimal
	ExpenseByCategory map[string]decimal.Decimal
	GroupShares       []GroupShare
	UngroupedExpenses decimal.Decimal
}

// Summarize computes the analytics for a set of closed reports. Pure
// function: the cost-structure rollup is resolved from the group mappings
// passed in, recomputed on every call and never stored.
func Summarize(data []ReportData, groups []models.CategoryGroup) Summary {
	s := Summary{
		ReportCount:       len(data),
		TotalSales:        decimal.Zero,
		TotalCashCounted:  decimal.Zero,
		TotalCashless:     decimal.Zero,
		TotalCommissions:  decimal.Zero,
		TotalExpenses:     decimal.Zero,
		TotalIncome:       decimal.Zero,
		ExpenseByCategory: make(map[string]decimal.Decimal),
	}

	groupTotals := make([]decimal.Decimal, len(groups))
	for i := range groupTotals {
		groupTotals[i] = decimal.Zero
	}
	grouped := make(map[int64]int, len(groups))
	for i, g := range groups {
		for _, catID := range g.CategoryIDs {
			grouped[catID] = i
		}
	}
	s.UngroupedExpenses = decimal.Zero

	for _, d := range data {
		s.TotalSales = s.TotalSales.Add(d.Report.TotalSales)
		s.TotalCashCounted = s.TotalCashCounted.Add(d.Report.CashActual)

		for _, p := range d.Payments {
			s.TotalCashless = s.TotalCashless.Add(p.Amount)
			s.TotalCommissions = s.TotalCommissions.Add(p.CommissionAmount)
		}

		for _, e := range d.Expenses {
			s.TotalExpenses = s.TotalExpenses.Add(e.Amount)

			name := e.CategoryName
			if name == "" {
				name = "Uncategorized"
			}
			s.ExpenseByCategory[name] = s.ExpenseByCategory[name].Add(e.Amount)

			if e.CategoryID != nil {
				if idx, ok := grouped[*e.CategoryID]; ok {
					groupTotals[idx] = groupTotals[idx].Add(e.Amount)
					continue
				}
			}
			s.UngroupedExpenses = s.UngroupedExpenses.Add(e.Amount)
		}

		for _, e := range d.Incomes {
			s.TotalIncome = s.TotalIncome.Add(e.Amount)
		}
	}

	s.GrossProfit = s.TotalSales.Sub(s.TotalExpenses)
	s.NetProfit = s.GrossProfit.Sub(s.TotalCommissions)
	if s.TotalSales.Sign() > 0 {
		s.GrossMarginPct = s.GrossProfit.Mul(hundred).Div(s.TotalSales)
		s.NetMarginPct = s.NetProfit.Mul(hundred).Div(s.TotalSales)
	} else {
		s.GrossMarginPct = decimal.Zero
		s.NetMarginPct = decimal.Zero
	}

	for i, g := range groups {
		share := GroupShare{Name: g.Name, Total: groupTotals[i], PercentOfRevenue: decimal.Zero}
		if s.TotalSales.Sign() > 0 {
			share.PercentOfRevenue = groupTotals[i].Mul(hundred).Div(s.TotalSales)
		}
		s.GroupShares = append(s.GroupShares, share)
	}

	return s
}

// AnalyticsService assembles monthly summaries from the database.
type AnalyticsService struct {
	reports *repository.ReportRepository
	groups  *repository.CategoryGroupRepository
}

// NewAnalyticsService creates an AnalyticsService over the given database.
func NewAnalyticsService(db database.PGXDB) *AnalyticsService {
	return &AnalyticsService{
		reports: repository.NewReportRepository(db),
		groups:  repository.NewCategoryGroupRepository(db),
	}
}

// MonthlySummary computes the summary for one calendar month. Only closed
// reports participate.
func (s *AnalyticsService) MonthlySummary(ctx context.Context, year int, month time.Month) (*Summary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	reports, err := s.reports.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var data []ReportData
	for _, r := range reports {
		if r.Status != models.ReportStatusClosed {
			continue
		}
		d := ReportData{Report: r}
		if d.Payments, err = s.reports.GetPayments(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("report %d: %w", r.ID, err)
		}
		if d.Expenses, err = s.reports.GetExpenses(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("report %d: %w", r.ID, err)
		}
		if d.Incomes, err = s.reports.GetIncomes(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("report %d: %w", r.ID, err)
		}
		data = append(data, d)
	}

	groups, err := s.groups.GetActive(ctx, models.CategoryTypeExpense)
	if err != nil {
		return nil, err
	}

	summary := Summarize(data, groups)
	return &summary, nil
}
