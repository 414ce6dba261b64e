package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/bekzod/kassa-bot/internal/ledger"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
	"gitlab.com/bekzod/kassa-bot/internal/models"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// handleReport handles the /report command: the monthly summary.
func (b *Bot) handleReport(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleReportCore(ctx, tgBot, update)
}

// handleReportCore is the testable implementation of handleReport.
func (b *Bot) handleReportCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermViewAnalytics) {
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/report")
	year, month, err := parseMonth(args, time.Now())
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	summary, err := b.analytics.MonthlySummary(ctx, year, month)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to compute monthly summary")
		b.reply(ctx, tg, chatID, "❌ Failed to compute the summary. Please try again.")
		return
	}

	if summary.ReportCount == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("No closed reports for %s %d.", month, year))
		return
	}

	b.reply(ctx, tg, chatID, formatSummary(summary, year, month))
}

// formatSummary renders the monthly picture with cost structure shares.
func formatSummary(s *ledger.Summary, year int, month time.Month) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s %d</b> — %d closed reports\n\n", month, year, s.ReportCount)

	fmt.Fprintf(&sb, "Revenue: %s\n", FormatSum(s.TotalSales))
	fmt.Fprintf(&sb, "  cash counted: %s\n", FormatSum(s.TotalCashCounted))
	fmt.Fprintf(&sb, "  cashless: %s (commission %s)\n",
		FormatSum(s.TotalCashless), FormatSum(s.TotalCommissions))
	fmt.Fprintf(&sb, "Other income: %s\n", FormatSum(s.TotalIncome))
	fmt.Fprintf(&sb, "Expenses: %s\n\n", FormatSum(s.TotalExpenses))

	fmt.Fprintf(&sb, "Gross profit: %s (%s%%)\n",
		FormatSum(s.GrossProfit), s.GrossMarginPct.StringFixed(1))
	fmt.Fprintf(&sb, "Net profit: %s (%s%%)\n",
		FormatSum(s.NetProfit), s.NetMarginPct.StringFixed(1))

	if len(s.GroupShares) > 0 {
		sb.WriteString("\n<b>Cost structure</b>\n")
		for _, g := range s.GroupShares {
			fmt.Fprintf(&sb, "• %s: %s (%s%% of revenue)\n",
				escapeHTML(g.Name), FormatSum(g.Total), g.PercentOfRevenue.StringFixed(1))
		}
		if s.UngroupedExpenses.Sign() > 0 {
			fmt.Fprintf(&sb, "• Other: %s\n", FormatSum(s.UngroupedExpenses))
		}
	}

	return sb.String()
}

// handleMigrate handles the /migrate command: an admin-only backfill that
// rebuilds the timeline entries of every closed report in a month.
func (b *Bot) handleMigrate(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleMigrateCore(ctx, tgBot, update)
}

// handleMigrateCore is the testable implementation of handleMigrate.
func (b *Bot) handleMigrateCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.cfg.IsAdmin(extractUserID(update)) {
		b.reply(ctx, tg, update.Message.Chat.ID, "⛔ This command is restricted to administrators.")
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/migrate")
	year, month, err := parseMonth(args, time.Now())
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-24 * time.Hour)

	count, err := b.migrator.MigrateRange(ctx, start, end)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Timeline backfill failed")
		b.reply(ctx, tg, chatID, "❌ Backfill failed. Please try again.")
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf(
		"✅ Rebuilt timeline for %s %d: %d entries written.", month, year, count))
}

// handleReopen handles the /reopen command.
func (b *Bot) handleReopen(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleReopenCore(ctx, tgBot, update)
}

// handleReopenCore is the testable implementation of handleReopen.
func (b *Bot) handleReopenCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermReopenReport) {
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/reopen")
	reportID, err := strconv.ParseInt(args, 10, 64)
	if err != nil || reportID <= 0 {
		b.reply(ctx, tg, chatID, "❌ Usage: <code>/reopen &lt;report id&gt;</code>")
		return
	}

	err = b.reports.Reopen(ctx, reportID)
	switch {
	case err == nil:
		b.reply(ctx, tg, chatID, fmt.Sprintf(
			"✅ Report #%d reopened. Its timeline entries were removed; resubmit with /shift to close it again.",
			reportID))
	case errors.Is(err, repository.ErrNotFound):
		b.reply(ctx, tg, chatID, fmt.Sprintf("❌ Report #%d not found.", reportID))
	case errors.Is(err, ledger.ErrReportNotClosed):
		b.reply(ctx, tg, chatID, fmt.Sprintf("❌ Report #%d is not closed.", reportID))
	default:
		logger.Log.Error().Err(err).Int64("report_id", reportID).Msg("Failed to reopen report")
		b.reply(ctx, tg, chatID, "❌ Failed to reopen the report. Please try again.")
	}
}
