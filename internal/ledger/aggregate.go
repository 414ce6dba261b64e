// Package ledger implements the bookkeeping core: shift aggregation, cash
// reconciliation, account balances, timeline migration and monthly
// analytics. Everything that can be a pure function over fetched rows is one,
// so the arithmetic is testable without a live database.
package ledger

import (
	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// PaymentLine is one (payment method, amount) entry of a shift before it is
// persisted.
type PaymentLine struct {
	MethodID          int64
	MethodType        string
	Amount            decimal.Decimal
	CommissionPercent decimal.Decimal
}

// EntryLine is one categorized expense or income entry of a shift.
type EntryLine struct {
	CategoryID  *int64
	AccountID   int64
	Amount      decimal.Decimal
	Description string
}

// ShiftTotals are the aggregates fed into reconciliation.
type ShiftTotals struct {
	TotalCashless decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalIncome   decimal.Decimal
}

// IsCashless reports whether a payment method type counts toward the
// cashless total. All three method types do, delivery included; the cash
// drawer is never represented as a payment method.
func IsCashless(methodType string) bool {
	switch methodType {
	case models.MethodTypeTerminal, models.MethodTypeOnline, models.MethodTypeDelivery:
		return true
	}
	return false
}

// Aggregate assembles the financial picture of one shift. Pure computation
// over the provided rows; zero totals when no rows.
func Aggregate(payments []PaymentLine, expenses, incomes []EntryLine) ShiftTotals {
	totals := ShiftTotals{
		TotalCashless: decimal.Zero,
		TotalExpenses: decimal.Zero,
		TotalIncome:   decimal.Zero,
	}

	for _, p := range payments {
		if IsCashless(p.MethodType) {
			totals.TotalCashless = totals.TotalCashless.Add(p.Amount)
		}
	}
	for _, e := range expenses {
		totals.TotalExpenses = totals.TotalExpenses.Add(e.Amount)
	}
	for _, e := range incomes {
		totals.TotalIncome = totals.TotalIncome.Add(e.Amount)
	}

	return totals
}
