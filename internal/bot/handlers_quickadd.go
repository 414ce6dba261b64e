package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/bekzod/kassa-bot/internal/ledger"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
	"gitlab.com/bekzod/kassa-bot/internal/models"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// handleQuickExpense handles the /expense command: a standalone expense
// outside any shift report, written straight to the timeline.
func (b *Bot) handleQuickExpense(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleQuickExpenseCore(ctx, tgBot, update)
}

// handleQuickExpenseCore is the testable implementation of handleQuickExpense.
func (b *Bot) handleQuickExpenseCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermQuickExpense) {
		return
	}
	b.quickAdd(ctx, tg, update, "/expense", models.EntryTypeExpense, b.expenseCats)
}

// handleQuickIncome handles the /income command.
func (b *Bot) handleQuickIncome(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleQuickIncomeCore(ctx, tgBot, update)
}

// handleQuickIncomeCore is the testable implementation of handleQuickIncome.
func (b *Bot) handleQuickIncomeCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermQuickIncome) {
		return
	}
	b.quickAdd(ctx, tg, update, "/income", models.EntryTypeIncome, b.incomeCats)
}

// quickAdd parses "<category>; <amount>; <account>[; description]" and
// inserts one signed timeline entry.
func (b *Bot) quickAdd(
	ctx context.Context,
	tg TelegramAPI,
	update *tgmodels.Update,
	command, entryType string,
	cats *repository.CategoryRepository,
) {
	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, command)
	if args == "" {
		b.reply(ctx, tg, chatID, fmt.Sprintf(
			"❌ Usage: <code>%s &lt;category&gt;; &lt;amount&gt;; &lt;account&gt;[; description]</code>",
			command))
		return
	}

	draft, err := parseEntryLine(entryType, args)
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}
	if draft.Amount.Sign() <= 0 {
		b.reply(ctx, tg, chatID, "❌ Amount must be positive.")
		return
	}

	line, err := b.resolveEntry(ctx, cats, draft)
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	var userID *int64
	if user, uerr := b.userRepo.GetByTelegramID(ctx, extractUserID(update)); uerr == nil {
		userID = &user.ID
	} else if !errors.Is(uerr, repository.ErrNotFound) {
		logger.Log.Error().Err(uerr).Msg("Failed to look up user for timeline entry")
	}

	description := draft.Description
	if description == "" {
		description = draft.CategoryName
	}

	entryType = resolveSalary(entryType, draft.CategoryName)
	entry := models.TimelineEntry{
		EntryDate:   time.Now(),
		EntryType:   entryType,
		CategoryID:  line.CategoryID,
		AccountID:   &line.AccountID,
		Amount:      ledger.SignedAmount(entryType, draft.Amount),
		Description: description,
		UserID:      userID,
		Source:      models.SourceTelegram,
	}
	if err := b.timelineRepo.Insert(ctx, &entry); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to insert timeline entry")
		b.reply(ctx, tg, chatID, "❌ Failed to save the entry. Please try again.")
		return
	}

	verb := "Expense"
	if entryType == models.EntryTypeIncome {
		verb = "Income"
	} else if entryType == models.EntryTypeSalary {
		verb = "Salary"
	}
	b.reply(ctx, tg, chatID, fmt.Sprintf(
		"✅ %s recorded: %s — %s (%s)",
		verb, escapeHTML(draft.CategoryName), FormatSum(draft.Amount), escapeHTML(draft.AccountName)))
}

// resolveSalary keeps salary payouts distinguishable in the timeline even
// though they ride the expense command.
func resolveSalary(entryType, categoryName string) string {
	if entryType == models.EntryTypeExpense && strings.EqualFold(categoryName, "Salaries") {
		return models.EntryTypeSalary
	}
	return entryType
}
