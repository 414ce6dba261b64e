package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.IndexAny(args, " \n"); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep the books for the café chain: shift reports, cash counts, expenses and account balances.

<b>Quick Start:</b>
• Close a shift: <code>/shift</code> followed by the report lines
• Record an expense: <code>/expense Produce; 50000; Cash box</code>
• Check the money: <code>/balance</code>

Use /help to see all available commands.`,
		formatGreeting(firstName))

	logger.Log.Debug().Int64("chat_id", update.Message.Chat.ID).Msg("Sending /start response")
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /start response")
	}
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Shift reports:</b>
• <code>/shift</code> — submit a shift report. First line: <code>[date] location</code>, then:
    <code>sales 1000000</code>
    <code>pay terminal; 300000</code>
    <code>expense Produce; 50000; Cash box[; note]</code>
    <code>income Investment; 20000; Cash box</code>
    <code>cash 100000x5 50000x3</code>
• <code>/reopen &lt;report id&gt;</code> — reopen a closed report for correction

<b>Quick entries:</b>
• <code>/expense &lt;category&gt;; &lt;amount&gt;; &lt;account&gt;[; description]</code>
• <code>/income &lt;category&gt;; &lt;amount&gt;; &lt;account&gt;[; description]</code>

<b>Viewing:</b>
• <code>/balance</code> — current account balances
• <code>/report [YYYY-MM]</code> — monthly summary
• <code>/chart [YYYY-MM]</code> — cost structure chart
• <code>/timeline [YYYY-MM]</code> — ledger export as CSV

<b>Other:</b>
• <code>/help</code> — show this message`

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /help response")
	}
}
