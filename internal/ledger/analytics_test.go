package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("empty month", func(t *testing.T) {
		t.Parallel()
		s := Summarize(nil, nil)
		require.Equal(t, 0, s.ReportCount)
		require.True(t, s.TotalSales.IsZero())
		require.True(t, s.GrossMarginPct.IsZero(), "margins are zero, not NaN, without revenue")
	})

	t.Run("one month of trade", func(t *testing.T) {
		t.Parallel()
		produce, rent := int64(1), int64(2)
		data := []ReportData{
			{
				Report: models.DailyReport{TotalSales: d("1000000"), CashActual: d("570000")},
				Payments: []models.ReportPayment{
					{Amount: d("300000"), CommissionAmount: d("6000"), NetAmount: d("294000")},
					{Amount: d("100000"), CommissionAmount: d("0"), NetAmount: d("100000")},
				},
				Expenses: []models.ReportEntry{
					{CategoryID: &produce, CategoryName: "Produce", Amount: d("50000")},
				},
				Incomes: []models.ReportEntry{
					{Amount: d("20000")},
				},
			},
			{
				Report: models.DailyReport{TotalSales: d("800000"), CashActual: d("760000")},
				Expenses: []models.ReportEntry{
					{CategoryID: &rent, CategoryName: "Rent", Amount: d("100000")},
					{CategoryName: "", Amount: d("10000")},
				},
			},
		}
		groups := []models.CategoryGroup{
			{Name: "Food Cost", CategoryIDs: []int64{produce}},
		}

		s := Summarize(data, groups)
		require.Equal(t, 2, s.ReportCount)
		require.True(t, s.TotalSales.Equal(d("1800000")))
		require.True(t, s.TotalCashCounted.Equal(d("1330000")))
		require.True(t, s.TotalCashless.Equal(d("400000")))
		require.True(t, s.TotalCommissions.Equal(d("6000")))
		require.True(t, s.TotalExpenses.Equal(d("160000")))
		require.True(t, s.TotalIncome.Equal(d("20000")))

		require.True(t, s.GrossProfit.Equal(d("1640000")))
		require.True(t, s.NetProfit.Equal(d("1634000")))

		require.True(t, s.ExpenseByCategory["Produce"].Equal(d("50000")))
		require.True(t, s.ExpenseByCategory["Rent"].Equal(d("100000")))
		require.True(t, s.ExpenseByCategory["Uncategorized"].Equal(d("10000")),
			"entries without a category roll up under Uncategorized")

		require.Len(t, s.GroupShares, 1)
		require.Equal(t, "Food Cost", s.GroupShares[0].Name)
		require.True(t, s.GroupShares[0].Total.Equal(d("50000")))
		require.True(t, s.UngroupedExpenses.Equal(d("110000")),
			"rent and the uncategorized entry are outside every group")
	})

	t.Run("group share against revenue", func(t *testing.T) {
		t.Parallel()
		meat := int64(5)
		data := []ReportData{
			{
				Report: models.DailyReport{TotalSales: d("200000")},
				Expenses: []models.ReportEntry{
					{CategoryID: &meat, CategoryName: "Meat", Amount: d("60000")},
				},
			},
		}
		groups := []models.CategoryGroup{{Name: "Food Cost", CategoryIDs: []int64{meat}}}

		s := Summarize(data, groups)
		require.True(t, s.GroupShares[0].PercentOfRevenue.Equal(d("30")),
			"got %s", s.GroupShares[0].PercentOfRevenue)
	})

	t.Run("groups never change bookkeeping totals", func(t *testing.T) {
		t.Parallel()
		cat := int64(7)
		data := []ReportData{
			{
				Report: models.DailyReport{TotalSales: d("100000")},
				Expenses: []models.ReportEntry{
					{CategoryID: &cat, CategoryName: "Produce", Amount: d("40000")},
				},
			},
		}

		withGroups := Summarize(data, []models.CategoryGroup{
			{Name: "Food Cost", CategoryIDs: []int64{cat}},
		})
		withoutGroups := Summarize(data, nil)

		require.True(t, withGroups.TotalExpenses.Equal(withoutGroups.TotalExpenses))
		require.True(t, withGroups.NetProfit.Equal(withoutGroups.NetProfit))
	})
}
