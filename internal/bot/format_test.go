package bot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"zero", "0", "0"},
		{"small", "500", "500"},
		{"thousands", "1000", "1 000"},
		{"millions", "1234567", "1 234 567"},
		{"negative", "-10000", "-10 000"},
		{"fractional", "1234.50", "1 234.50"},
		{"whole drops cents", "1000.00", "1 000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FormatMoney(decimal.RequireFromString(tt.input))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSum(t *testing.T) {
	t.Parallel()
	require.Equal(t, "570 000 sum", FormatSum(decimal.NewFromInt(570000)))
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "25000", "25000", false},
		{"space separators", "1 200 000", "1200000", false},
		{"comma separators", "1,200,000", "1200000", false},
		{"decimal point", "1500.50", "1500.5", false},
		{"comma groups with fraction", "12,345.50", "12345.5", false},
		{"surrounding whitespace", "  300  ", "300", false},
		{"letters", "abc", "", true},
		{"empty", "", "", true},
		{"comma typo", "1,5", "", true},
		{"short comma group", "1,23,456", "", true},
		{"long comma group", "12,3456", "", true},
		{"comma in fraction", "1.5,0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseMonth(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	year, month, err := parseMonth("", now)
	require.NoError(t, err)
	require.Equal(t, 2026, year)
	require.Equal(t, time.August, month)

	year, month, err = parseMonth("2026-02", now)
	require.NoError(t, err)
	require.Equal(t, 2026, year)
	require.Equal(t, time.February, month)

	_, _, err = parseMonth("February", now)
	require.ErrorContains(t, err, "expected YYYY-MM")
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 29, 23, 45, 0, 0, time.UTC)

	date, err := parseDate("", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), date, "empty input truncates now to midnight")

	date, err = parseDate("2026-08-01", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), date)

	_, err = parseDate("01.08.2026", now)
	require.ErrorContains(t, err, "expected YYYY-MM-DD")
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Fish &amp; Chips &lt;grill&gt;", escapeHTML("Fish & Chips <grill>"))
}

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Produce; 100", extractCommandArgs("/expense Produce; 100", "/expense"))
	require.Equal(t, "Produce; 100", extractCommandArgs("/expense@kassa_bot Produce; 100", "/expense"))
	require.Equal(t, "", extractCommandArgs("/expense@kassa_bot", "/expense"))
	require.Equal(t, "Chilanzar\nsales 100", extractCommandArgs("/shift Chilanzar\nsales 100", "/shift"))
	require.Equal(t, "Chilanzar\nsales 100", extractCommandArgs("/shift@kassa_bot\nChilanzar\nsales 100", "/shift"))
}
