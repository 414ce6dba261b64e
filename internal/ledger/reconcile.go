package ledger

import (
	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// Reconciliation verdicts.
const (
	VerdictBalanced = "balanced"
	VerdictSurplus  = "surplus"
	VerdictShortage = "shortage"
)

var hundred = decimal.NewFromInt(100)

// Reconciliation is the result of comparing expected cash against the
// physical count.
type Reconciliation struct {
	CashFromSales  decimal.Decimal
	CashExpected   decimal.Decimal
	CashActual     decimal.Decimal
	CashDifference decimal.Decimal
}

// Reconcile derives the expected cash figure and the variance against the
// counted breakdown:
//
//	cash_from_sales = total_sales − total_cashless
//	cash_expected   = cash_from_sales − total_expenses + total_income
//	cash_actual     = Σ(denomination × count)
//	cash_difference = cash_actual − cash_expected
//
// Reconciliation uses raw payment amounts, never commission-adjusted nets.
// A negative expected figure (expenses exceeding sales) is valid, and a
// nonzero difference is informational, never an error.
func Reconcile(totalSales decimal.Decimal, totals ShiftTotals, breakdown *models.CashBreakdown) Reconciliation {
	cashFromSales := totalSales.Sub(totals.TotalCashless)
	cashExpected := cashFromSales.Sub(totals.TotalExpenses).Add(totals.TotalIncome)
	cashActual := breakdown.Total()

	return Reconciliation{
		CashFromSales:  cashFromSales,
		CashExpected:   cashExpected,
		CashActual:     cashActual,
		CashDifference: cashActual.Sub(cashExpected),
	}
}

// Verdict classifies the variance: zero is balanced, positive a surplus,
// negative a shortage.
func (r Reconciliation) Verdict() string {
	switch r.CashDifference.Sign() {
	case 1:
		return VerdictSurplus
	case -1:
		return VerdictShortage
	}
	return VerdictBalanced
}

// SplitCommission derives the commission and net amounts for one payment:
// commission = amount × percent/100, net = amount − commission. Exact
// decimal arithmetic; rounding is display-only.
func SplitCommission(amount, commissionPercent decimal.Decimal) (commission, net decimal.Decimal) {
	commission = amount.Mul(commissionPercent).Div(hundred)
	net = amount.Sub(commission)
	return commission, net
}
