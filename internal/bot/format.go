package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with space thousands separators, the way
// sums are written locally: 1 234 567.50. Fractional digits appear only when
// the amount is not whole.
func FormatMoney(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx != -1 {
		intPart, fracPart = s[:idx], s[idx:]
	}

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}

	out := sb.String() + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// FormatSum renders an amount with the currency word.
func FormatSum(amount decimal.Decimal) string {
	return FormatMoney(amount) + " sum"
}

// parseAmount parses user money input, tolerating space and comma thousands
// separators ("1 200 000", "1,200,000"). Commas that don't form 3-digit
// groups are rejected: a typo like "1,5" must not read as 15.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsRune(s, ',') && !validCommaGroups(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == ',' {
			return -1
		}
		return r
	}, s)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// validCommaGroups reports whether every comma separates full 3-digit groups
// of the integer part: "1,234,567" yes, "1,5" and "12,3456" no.
func validCommaGroups(s string) bool {
	intPart := strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "-")
	if idx := strings.IndexByte(intPart, '.'); idx != -1 {
		if strings.ContainsRune(intPart[idx:], ',') {
			return false
		}
		intPart = intPart[:idx]
	}

	groups := strings.Split(intPart, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// parseMonth parses "2026-08" style input; empty input means the current
// month.
func parseMonth(s string, now time.Time) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

// parseDate parses "2026-08-28" style input; empty input means today.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// escapeHTML escapes the characters Telegram HTML parse mode treats
// specially.
func escapeHTML(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
