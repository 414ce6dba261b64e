package ledger

import (
	"context"
	"fmt"

	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/models"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// BalanceCalculator computes point-in-time balances per account from the
// full ledger. Every call recomputes from scratch; there is no cached
// running total to drift.
type BalanceCalculator struct {
	accounts *repository.AccountRepository
	reports  *repository.ReportRepository
}

// NewBalanceCalculator creates a BalanceCalculator over the given database.
func NewBalanceCalculator(db database.PGXDB) *BalanceCalculator {
	return &BalanceCalculator{
		accounts: repository.NewAccountRepository(db),
		reports:  repository.NewReportRepository(db),
	}
}

// Balances recomputes every active account's balance:
//
//	balance = Σ net payment amounts settled to the account
//	        + Σ non-sales income into the account
//	        − Σ expenses out of the account
//	        + (cash accounts) Σ counted cash across all reports
//
// The counted cash is authoritative for the drawer, superseding any derived
// cash-from-sales figure, so it is added directly. Negative balances are
// legitimate and never clamped.
func (c *BalanceCalculator) Balances(ctx context.Context) ([]models.AccountBalance, error) {
	accounts, err := c.accounts.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	var balances []models.AccountBalance
	for _, acc := range accounts {
		b, err := c.balanceFor(ctx, acc)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", acc.Name, err)
		}
		balances = append(balances, b)
	}
	return balances, nil
}

func (c *BalanceCalculator) balanceFor(ctx context.Context, acc models.Account) (models.AccountBalance, error) {
	salesIncome, err := c.reports.SumNetPaymentsByAccount(ctx, acc.ID)
	if err != nil {
		return models.AccountBalance{}, err
	}

	if acc.AccountType == models.AccountTypeCash {
		cashCounted, err := c.reports.SumCashActual(ctx)
		if err != nil {
			return models.AccountBalance{}, err
		}
		salesIncome = salesIncome.Add(cashCounted)
	}

	nonSales, err := c.reports.SumNonSalesIncomeByAccount(ctx, acc.ID)
	if err != nil {
		return models.AccountBalance{}, err
	}

	expenses, err := c.reports.SumExpensesByAccount(ctx, acc.ID)
	if err != nil {
		return models.AccountBalance{}, err
	}

	return models.AccountBalance{
		Account:        acc,
		SalesIncome:    salesIncome,
		NonSalesIncome: nonSales,
		Expenses:       expenses,
		Balance:        salesIncome.Add(nonSales).Sub(expenses),
	}, nil
}
