package bot

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/bekzod/kassa-bot/internal/ledger"
)

// GenerateCostChart creates a pie chart of the month's cost structure: one
// slice per category group plus an "Other" slice for ungrouped expenses.
// Returns PNG image as bytes.
func GenerateCostChart(summary *ledger.Summary, year int, month time.Month) ([]byte, error) {
	var values []float64
	var names []string

	for _, g := range summary.GroupShares {
		if g.Total.Sign() <= 0 {
			continue
		}
		names = append(names, g.Name)
		values = append(values, g.Total.InexactFloat64())
	}
	if summary.UngroupedExpenses.Sign() > 0 {
		names = append(names, "Other")
		values = append(values, summary.UngroupedExpenses.InexactFloat64())
	}

	// Without groups, fall back to per-category slices.
	if len(values) == 0 {
		catNames := make([]string, 0, len(summary.ExpenseByCategory))
		for name := range summary.ExpenseByCategory {
			catNames = append(catNames, name)
		}
		sort.Strings(catNames)
		for _, name := range catNames {
			total := summary.ExpenseByCategory[name]
			if total.Sign() <= 0 {
				continue
			}
			names = append(names, name)
			values = append(values, total.InexactFloat64())
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no expenses to chart")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Cost Structure - %s %d", month, year),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// chartFilename creates a filename like "costs_2026-08.png".
func chartFilename(year int, month time.Month) string {
	return fmt.Sprintf("costs_%04d-%02d.png", year, int(month))
}
