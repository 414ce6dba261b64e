package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIsCashless(t *testing.T) {
	t.Parallel()

	require.True(t, IsCashless(models.MethodTypeTerminal))
	require.True(t, IsCashless(models.MethodTypeOnline))
	require.True(t, IsCashless(models.MethodTypeDelivery), "delivery counts toward cashless like any other method")
	require.False(t, IsCashless("cash"))
	require.False(t, IsCashless(""))
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("empty shift", func(t *testing.T) {
		t.Parallel()
		totals := Aggregate(nil, nil, nil)
		require.True(t, totals.TotalCashless.IsZero())
		require.True(t, totals.TotalExpenses.IsZero())
		require.True(t, totals.TotalIncome.IsZero())
	})

	t.Run("sums all payment types including delivery", func(t *testing.T) {
		t.Parallel()
		payments := []PaymentLine{
			{MethodType: models.MethodTypeTerminal, Amount: d("300000")},
			{MethodType: models.MethodTypeOnline, Amount: d("150000")},
			{MethodType: models.MethodTypeDelivery, Amount: d("100000")},
		}

		totals := Aggregate(payments, nil, nil)
		require.True(t, totals.TotalCashless.Equal(d("550000")),
			"got %s", totals.TotalCashless)
	})

	t.Run("sums expenses and incomes", func(t *testing.T) {
		t.Parallel()
		expenses := []EntryLine{
			{AccountID: 1, Amount: d("30000")},
			{AccountID: 1, Amount: d("20000")},
		}
		incomes := []EntryLine{
			{AccountID: 1, Amount: d("15000")},
		}

		totals := Aggregate(nil, expenses, incomes)
		require.True(t, totals.TotalExpenses.Equal(d("50000")))
		require.True(t, totals.TotalIncome.Equal(d("15000")))
	})

	t.Run("commission percent does not change the cashless total", func(t *testing.T) {
		t.Parallel()
		payments := []PaymentLine{
			{MethodType: models.MethodTypeTerminal, Amount: d("100000"), CommissionPercent: d("2")},
		}

		totals := Aggregate(payments, nil, nil)
		require.True(t, totals.TotalCashless.Equal(d("100000")),
			"cashless uses gross amounts; commission only affects account balances")
	})
}
