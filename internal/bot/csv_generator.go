package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// GenerateTimelineCSV generates a CSV file from timeline entries. Amounts
// keep their ledger sign: expenses and salaries negative, income and sales
// positive.
func GenerateTimelineCSV(entries []models.TimelineEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Type", "Amount", "Description", "Source", "Report ID"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range entries {
		reportID := ""
		if entries[i].ReportID != nil {
			reportID = strconv.FormatInt(*entries[i].ReportID, 10)
		}

		row := []string{
			strconv.FormatInt(entries[i].ID, 10),
			entries[i].EntryDate.Format("2006-01-02"),
			entries[i].EntryType,
			entries[i].Amount.StringFixed(2),
			entries[i].Description,
			entries[i].Source,
			reportID,
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
