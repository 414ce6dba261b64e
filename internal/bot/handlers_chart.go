package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// handleChart handles the /chart command: the month's cost structure as a
// pie chart image.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermViewAnalytics) {
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/chart")
	year, month, err := parseMonth(args, time.Now())
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	logger.Log.Info().
		Int64("chat_id", chatID).
		Int("year", year).
		Str("month", month.String()).
		Msg("Generating cost structure chart")

	summary, err := b.analytics.MonthlySummary(ctx, year, month)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to compute summary for chart")
		b.reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}
	if summary.ReportCount == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("📊 No closed reports for %s %d.", month, year))
		return
	}

	chartData, err := GenerateCostChart(summary, year, month)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		b.reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	caption := fmt.Sprintf("📊 <b>Cost Structure — %s %d</b>\n\nRevenue: %s\nExpenses: %s",
		month, year, FormatSum(summary.TotalSales), FormatSum(summary.TotalExpenses))

	_, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &tgmodels.InputFileUpload{Filename: chartFilename(year, month), Data: bytes.NewReader(chartData)},
		Caption:   caption,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart photo")
		b.reply(ctx, tg, chatID, "❌ Failed to send chart. Please try again.")
	}
}
