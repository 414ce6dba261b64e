package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Denominations of Uzbek sum in circulation, largest first.
var (
	BillDenominations = []int64{200000, 100000, 50000, 20000, 10000, 5000, 1000}
	CoinDenominations = []int64{500, 200, 100, 50}
)

// CashBreakdown records how many pieces of each denomination were counted at
// shift end. Persisted as jsonb for audit and display; reconciliation only
// ever uses its Total.
type CashBreakdown struct {
	Bills map[int64]int64 `json:"bills"`
	Coins map[int64]int64 `json:"coins"`
}

// NewCashBreakdown returns an empty breakdown with both maps allocated.
func NewCashBreakdown() *CashBreakdown {
	return &CashBreakdown{
		Bills: make(map[int64]int64),
		Coins: make(map[int64]int64),
	}
}

// Total sums denomination × count over all bills and coins.
func (b *CashBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	if b == nil {
		return total
	}
	for value, count := range b.Bills {
		total = total.Add(decimal.NewFromInt(value).Mul(decimal.NewFromInt(count)))
	}
	for value, count := range b.Coins {
		total = total.Add(decimal.NewFromInt(value).Mul(decimal.NewFromInt(count)))
	}
	return total
}

// MarshalBreakdown serializes a breakdown for the jsonb column. A nil
// breakdown becomes SQL NULL.
func MarshalBreakdown(b *CashBreakdown) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cash breakdown: %w", err)
	}
	return data, nil
}

// UnmarshalBreakdown parses the jsonb column. NULL yields nil.
func UnmarshalBreakdown(data []byte) (*CashBreakdown, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var b CashBreakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cash breakdown: %w", err)
	}
	return &b, nil
}
