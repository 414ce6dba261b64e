package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// ShiftDraft is the parsed but unresolved form of a shift report message.
// Names (location, payment method, category, account) are resolved against
// the database by the handler.
type ShiftDraft struct {
	Date         time.Time
	LocationName string
	TotalSales   decimal.Decimal
	Payments     []DraftPayment
	Expenses     []DraftEntry
	Incomes      []DraftEntry
	Breakdown    *models.CashBreakdown
}

type DraftPayment struct {
	MethodName string
	Amount     decimal.Decimal
}

type DraftEntry struct {
	CategoryName string
	Amount       decimal.Decimal
	AccountName  string
	Description  string
}

// ParseShift parses the body of a /shift message. The first line carries the
// report date and location, subsequent lines are directives:
//
//	2026-08-28 Chilanzar
//	sales 1000000
//	pay terminal; 300000
//	expense Produce; 50000; Cash box; vegetables
//	income Investment; 20000; Cash box
//	cash 100000x5 50000x3 500x2
func ParseShift(body string, now time.Time) (*ShiftDraft, error) {
	lines := nonEmptyLines(body)
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty shift report")
	}

	draft := &ShiftDraft{}
	if err := draft.parseHeader(lines[0], now); err != nil {
		return nil, err
	}

	salesSeen := false
	for _, line := range lines[1:] {
		keyword, rest, _ := strings.Cut(line, " ")
		switch strings.ToLower(keyword) {
		case "sales":
			amount, err := parseAmount(rest)
			if err != nil {
				return nil, fmt.Errorf("sales line: %w", err)
			}
			draft.TotalSales = amount
			salesSeen = true
		case "pay":
			p, err := parsePayLine(rest)
			if err != nil {
				return nil, err
			}
			draft.Payments = append(draft.Payments, p)
		case "expense":
			e, err := parseEntryLine("expense", rest)
			if err != nil {
				return nil, err
			}
			draft.Expenses = append(draft.Expenses, e)
		case "income":
			e, err := parseEntryLine("income", rest)
			if err != nil {
				return nil, err
			}
			draft.Incomes = append(draft.Incomes, e)
		case "cash":
			b, err := parseCashLine(rest)
			if err != nil {
				return nil, err
			}
			draft.Breakdown = b
		default:
			return nil, fmt.Errorf("unknown line %q, expected sales/pay/expense/income/cash", line)
		}
	}

	if !salesSeen {
		return nil, fmt.Errorf("shift report has no sales line")
	}
	if draft.Breakdown == nil {
		return nil, fmt.Errorf("shift report has no cash count line")
	}
	return draft, nil
}

func (d *ShiftDraft) parseHeader(line string, now time.Time) error {
	dateStr, location, ok := strings.Cut(line, " ")
	if !ok {
		// A bare location means today's report.
		dateStr, location = "", line
	}
	date, err := parseDate(dateStr, now)
	if err != nil {
		// Maybe the whole line was a location after all.
		date2, err2 := parseDate("", now)
		if err2 != nil {
			return err
		}
		date, location = date2, line
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return fmt.Errorf("shift header %q has no location", line)
	}
	d.Date = date
	d.LocationName = location
	return nil
}

func parsePayLine(rest string) (DraftPayment, error) {
	parts := splitFields(rest)
	if len(parts) != 2 {
		return DraftPayment{}, fmt.Errorf("pay line %q, expected: pay <method>; <amount>", rest)
	}
	amount, err := parseAmount(parts[1])
	if err != nil {
		return DraftPayment{}, fmt.Errorf("pay line: %w", err)
	}
	return DraftPayment{MethodName: parts[0], Amount: amount}, nil
}

func parseEntryLine(kind, rest string) (DraftEntry, error) {
	parts := splitFields(rest)
	if len(parts) < 3 || len(parts) > 4 {
		return DraftEntry{}, fmt.Errorf("%s line %q, expected: %s <category>; <amount>; <account>[; description]", kind, rest, kind)
	}
	amount, err := parseAmount(parts[1])
	if err != nil {
		return DraftEntry{}, fmt.Errorf("%s line: %w", kind, err)
	}
	entry := DraftEntry{CategoryName: parts[0], Amount: amount, AccountName: parts[2]}
	if len(parts) == 4 {
		entry.Description = parts[3]
	}
	return entry, nil
}

// parseCashLine parses "100000x5 50000x3 500x2" into a breakdown,
// classifying each denomination as bill or coin.
func parseCashLine(rest string) (*models.CashBreakdown, error) {
	breakdown := &models.CashBreakdown{
		Bills: make(map[int64]int64),
		Coins: make(map[int64]int64),
	}
	for _, token := range strings.Fields(rest) {
		denomStr, countStr, ok := strings.Cut(strings.ToLower(token), "x")
		if !ok {
			return nil, fmt.Errorf("cash token %q, expected <denomination>x<count>", token)
		}
		denom, err := strconv.ParseInt(denomStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cash token %q: bad denomination", token)
		}
		count, err := strconv.ParseInt(countStr, 10, 64)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("cash token %q: bad count", token)
		}
		switch {
		case containsDenom(models.BillDenominations, denom):
			breakdown.Bills[denom] += count
		case containsDenom(models.CoinDenominations, denom):
			breakdown.Coins[denom] += count
		default:
			return nil, fmt.Errorf("unknown denomination %d", denom)
		}
	}
	if len(breakdown.Bills) == 0 && len(breakdown.Coins) == 0 {
		return nil, fmt.Errorf("cash line has no denominations")
	}
	return breakdown, nil
}

func containsDenom(denoms []int64, d int64) bool {
	for _, v := range denoms {
		if v == d {
			return true
		}
	}
	return false
}

func splitFields(s string) []string {
	raw := strings.Split(s, ";")
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
