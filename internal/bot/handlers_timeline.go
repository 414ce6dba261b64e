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

// handleTimeline handles the /timeline command: the month's ledger as CSV.
func (b *Bot) handleTimeline(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleTimelineCore(ctx, tgBot, update)
}

// handleTimelineCore is the testable implementation of handleTimeline.
func (b *Bot) handleTimelineCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermViewAnalytics) {
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/timeline")
	year, month, err := parseMonth(args, time.Now())
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	entries, err := b.timelineRepo.ListByPeriod(ctx, start, end)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch timeline entries")
		b.reply(ctx, tg, chatID, "❌ Failed to export the timeline. Please try again.")
		return
	}
	if len(entries) == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("No timeline entries for %s %d.", month, year))
		return
	}

	csvData, err := GenerateTimelineCSV(entries)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate timeline CSV")
		b.reply(ctx, tg, chatID, "❌ Failed to export the timeline. Please try again.")
		return
	}

	filename := fmt.Sprintf("timeline_%04d-%02d.csv", year, int(month))
	caption := fmt.Sprintf("📋 <b>Timeline — %s %d</b>\n\n%d entries", month, year, len(entries))

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &tgmodels.InputFileUpload{Filename: filename, Data: bytes.NewReader(csvData)},
		Caption:   caption,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send timeline CSV")
		b.reply(ctx, tg, chatID, "❌ Failed to send the export. Please try again.")
	}
}
