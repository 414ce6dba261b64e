package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/bekzod/kassa-bot/internal/models"
)

func breakdownOf(bills map[int64]int64) *models.CashBreakdown {
	return &models.CashBreakdown{Bills: bills, Coins: map[int64]int64{}}
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	t.Run("typical evening close", func(t *testing.T) {
		t.Parallel()
		// Sales 1 000 000, of which 300 000 by terminal and 100 000 by
		// delivery. 50 000 spent from the drawer, 20 000 put in.
		totals := ShiftTotals{
			TotalCashless: d("400000"),
			TotalExpenses: d("50000"),
			TotalIncome:   d("20000"),
		}
		counted := breakdownOf(map[int64]int64{100000: 5, 50000: 1, 10000: 2})

		rec := Reconcile(d("1000000"), totals, counted)
		require.True(t, rec.CashFromSales.Equal(d("600000")), "got %s", rec.CashFromSales)
		require.True(t, rec.CashExpected.Equal(d("570000")), "got %s", rec.CashExpected)
		require.True(t, rec.CashActual.Equal(d("570000")), "got %s", rec.CashActual)
		require.True(t, rec.CashDifference.IsZero())
		require.Equal(t, VerdictBalanced, rec.Verdict())
	})

	t.Run("shortage", func(t *testing.T) {
		t.Parallel()
		totals := ShiftTotals{
			TotalCashless: d("400000"),
			TotalExpenses: d("50000"),
			TotalIncome:   d("20000"),
		}
		counted := breakdownOf(map[int64]int64{100000: 5, 50000: 1, 10000: 1})

		rec := Reconcile(d("1000000"), totals, counted)
		require.True(t, rec.CashDifference.Equal(d("-10000")), "got %s", rec.CashDifference)
		require.Equal(t, VerdictShortage, rec.Verdict())
	})

	t.Run("surplus", func(t *testing.T) {
		t.Parallel()
		totals := ShiftTotals{TotalCashless: d("0")}
		counted := breakdownOf(map[int64]int64{100000: 2})

		rec := Reconcile(d("150000"), totals, counted)
		require.True(t, rec.CashDifference.Equal(d("50000")))
		require.Equal(t, VerdictSurplus, rec.Verdict())
	})

	t.Run("expected cash can go negative", func(t *testing.T) {
		t.Parallel()
		// All sales cashless, plus drawer expenses: the formula is kept
		// as-is and the negative figure is surfaced, not clamped.
		totals := ShiftTotals{
			TotalCashless: d("500000"),
			TotalExpenses: d("30000"),
		}
		counted := breakdownOf(map[int64]int64{})

		rec := Reconcile(d("500000"), totals, counted)
		require.True(t, rec.CashExpected.Equal(d("-30000")), "got %s", rec.CashExpected)
		require.True(t, rec.CashActual.IsZero())
		require.True(t, rec.CashDifference.Equal(d("30000")))
	})

	t.Run("nil breakdown counts as zero cash", func(t *testing.T) {
		t.Parallel()
		rec := Reconcile(d("100000"), ShiftTotals{}, nil)
		require.True(t, rec.CashActual.IsZero())
		require.True(t, rec.CashDifference.Equal(d("-100000")))
	})
}

func TestSplitCommission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		amount         string
		percent        string
		wantCommission string
		wantNet        string
	}{
		{"two percent", "300000", "2", "6000", "294000"},
		{"zero percent", "100000", "0", "0", "100000"},
		{"fractional percent", "100000", "2.5", "2500", "97500"},
		{"fractional result kept exact", "1000", "0.33", "3.3", "996.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			commission, net := SplitCommission(d(tt.amount), d(tt.percent))
			require.True(t, commission.Equal(d(tt.wantCommission)), "commission: got %s", commission)
			require.True(t, net.Equal(d(tt.wantNet)), "net: got %s", net)
		})
	}
}

func TestSplitCommissionProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		amount := decimal.NewFromInt(rapid.Int64Range(0, 100_000_000).Draw(t, "amount"))
		percent := decimal.New(rapid.Int64Range(0, 10000).Draw(t, "bps"), -2)

		commission, net := SplitCommission(amount, percent)
		require.True(t, commission.Add(net).Equal(amount),
			"commission %s + net %s != amount %s", commission, net, amount)
		require.False(t, commission.IsNegative())
		require.False(t, net.IsNegative())
	})
}

func TestReconcileProperty(t *testing.T) {
	t.Parallel()

	billGen := rapid.MapOfN(
		rapid.SampledFrom(models.BillDenominations),
		rapid.Int64Range(0, 50),
		0, len(models.BillDenominations),
	)

	rapid.Check(t, func(t *rapid.T) {
		sales := decimal.NewFromInt(rapid.Int64Range(0, 10_000_000).Draw(t, "sales"))
		totals := ShiftTotals{
			TotalCashless: decimal.NewFromInt(rapid.Int64Range(0, 10_000_000).Draw(t, "cashless")),
			TotalExpenses: decimal.NewFromInt(rapid.Int64Range(0, 1_000_000).Draw(t, "expenses")),
			TotalIncome:   decimal.NewFromInt(rapid.Int64Range(0, 1_000_000).Draw(t, "income")),
		}
		counted := &models.CashBreakdown{Bills: billGen.Draw(t, "bills"), Coins: map[int64]int64{}}

		rec := Reconcile(sales, totals, counted)

		// The reconciliation identity holds for any inputs.
		require.True(t, rec.CashFromSales.Equal(sales.Sub(totals.TotalCashless)))
		require.True(t, rec.CashExpected.Equal(
			rec.CashFromSales.Sub(totals.TotalExpenses).Add(totals.TotalIncome)))
		require.True(t, rec.CashDifference.Equal(rec.CashActual.Sub(rec.CashExpected)))
		require.True(t, rec.CashActual.Equal(counted.Total()))
	})
}
