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

// handleShift handles the /shift command: a full shift report in one message.
func (b *Bot) handleShift(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleShiftCore(ctx, tgBot, update)
}

// handleShiftCore is the testable implementation of handleShift.
func (b *Bot) handleShiftCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, models.PermSubmitShift) {
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/shift")
	if args == "" {
		b.sendShiftUsage(ctx, tg, chatID)
		return
	}

	draft, err := ParseShift(args, time.Now())
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	input, err := b.resolveShift(ctx, draft, update)
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	result, err := b.reports.SubmitShift(ctx, *input)
	if err != nil {
		b.replyShiftError(ctx, tg, chatID, err)
		return
	}

	b.reply(ctx, tg, chatID, formatShiftResult(result, draft.LocationName))
}

// resolveShift turns parsed names into ids.
func (b *Bot) resolveShift(ctx context.Context, draft *ShiftDraft, update *tgmodels.Update) (*ledger.ShiftInput, error) {
	location, err := b.locationRepo.GetActiveByName(ctx, draft.LocationName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("unknown location %q", draft.LocationName)
		}
		return nil, err
	}

	input := &ledger.ShiftInput{
		Date:       draft.Date,
		LocationID: location.ID,
		CreatedBy:  extractUsername(update),
		TotalSales: draft.TotalSales,
		Breakdown:  draft.Breakdown,
	}
	if input.CreatedBy == "" && update.Message.From != nil {
		input.CreatedBy = update.Message.From.FirstName
	}

	for _, p := range draft.Payments {
		method, err := b.methodRepo.GetActiveByName(ctx, p.MethodName)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("unknown payment method %q%s", p.MethodName, b.offeredMethodsHint(ctx))
			}
			return nil, err
		}
		if !method.IsVisible {
			return nil, fmt.Errorf("payment method %q is hidden from the shift form%s", p.MethodName, b.offeredMethodsHint(ctx))
		}
		input.Payments = append(input.Payments, ledger.ShiftPayment{
			MethodID: method.ID,
			Amount:   p.Amount,
		})
	}

	for _, e := range draft.Expenses {
		line, err := b.resolveEntry(ctx, b.expenseCats, e)
		if err != nil {
			return nil, err
		}
		input.Expenses = append(input.Expenses, line)
	}
	for _, e := range draft.Incomes {
		line, err := b.resolveEntry(ctx, b.incomeCats, e)
		if err != nil {
			return nil, err
		}
		input.Incomes = append(input.Incomes, line)
	}

	return input, nil
}

// offeredMethodsHint lists the methods offered on the shift form, for error
// messages. Empty when the list cannot be fetched.
func (b *Bot) offeredMethodsHint(ctx context.Context) string {
	methods, err := b.methodRepo.GetVisible(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list visible payment methods")
		return ""
	}
	if len(methods) == 0 {
		return ""
	}
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	return " (offered: " + strings.Join(names, ", ") + ")"
}

func (b *Bot) resolveEntry(ctx context.Context, cats *repository.CategoryRepository, e DraftEntry) (ledger.EntryLine, error) {
	category, err := cats.GetActiveByName(ctx, e.CategoryName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ledger.EntryLine{}, fmt.Errorf("unknown category %q", e.CategoryName)
		}
		return ledger.EntryLine{}, err
	}
	account, err := b.accountRepo.GetActiveByName(ctx, e.AccountName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ledger.EntryLine{}, fmt.Errorf("unknown account %q", e.AccountName)
		}
		return ledger.EntryLine{}, err
	}
	return ledger.EntryLine{
		CategoryID:  &category.ID,
		AccountID:   account.ID,
		Amount:      e.Amount,
		Description: e.Description,
	}, nil
}

// replyShiftError translates service errors into user-facing messages.
func (b *Bot) replyShiftError(ctx context.Context, tg TelegramAPI, chatID int64, err error) {
	var exists *ledger.ReportExistsError
	switch {
	case errors.As(err, &exists):
		b.reply(ctx, tg, chatID, fmt.Sprintf(
			"❌ A closed report already exists for that date and location (report %d).\nUse <code>/reopen %d</code> first, then resubmit.",
			exists.ReportID, exists.ReportID))
	case errors.Is(err, ledger.ErrInvalidAmount):
		b.reply(ctx, tg, chatID, "❌ All amounts must be positive.")
	case errors.Is(err, ledger.ErrNoSettlementAccount):
		b.reply(ctx, tg, chatID, "❌ A payment method has no settlement account configured. Fix the method setup first.")
	default:
		logger.Log.Error().Err(err).Msg("Failed to submit shift")
		b.reply(ctx, tg, chatID, "❌ Failed to save the shift report. Please try again.")
	}
}

// formatShiftResult renders the saved report with its reconciliation.
func formatShiftResult(r *ledger.ShiftResult, locationName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ <b>Report #%d closed</b> — %s, %s\n\n",
		r.Report.ID, escapeHTML(locationName), r.Report.ReportDate.Format("2006-01-02"))

	fmt.Fprintf(&sb, "Sales: %s\n", FormatSum(r.Report.TotalSales))
	fmt.Fprintf(&sb, "Cashless: %s (commission %s)\n",
		FormatSum(r.Totals.TotalCashless), FormatSum(r.Commissions))
	fmt.Fprintf(&sb, "Expenses: %s\n", FormatSum(r.Totals.TotalExpenses))
	fmt.Fprintf(&sb, "Other income: %s\n\n", FormatSum(r.Totals.TotalIncome))

	fmt.Fprintf(&sb, "Cash expected: %s\n", FormatSum(r.Reconciliation.CashExpected))
	fmt.Fprintf(&sb, "Cash counted: %s\n", FormatSum(r.Reconciliation.CashActual))

	switch r.Reconciliation.Verdict() {
	case ledger.VerdictBalanced:
		sb.WriteString("✅ Cash drawer balanced\n")
	case ledger.VerdictSurplus:
		fmt.Fprintf(&sb, "⚠️ Surplus: %s\n", FormatSum(r.Reconciliation.CashDifference))
	case ledger.VerdictShortage:
		fmt.Fprintf(&sb, "🔴 Shortage: %s\n", FormatSum(r.Reconciliation.CashDifference.Abs()))
	}

	fmt.Fprintf(&sb, "\n%d timeline entries recorded.", r.TimelineRows)
	return sb.String()
}

func (b *Bot) sendShiftUsage(ctx context.Context, tg TelegramAPI, chatID int64) {
	b.reply(ctx, tg, chatID, `❌ Shift report is empty.

Send the whole report in one message:
<code>/shift 2026-08-28 Chilanzar
sales 1000000
pay terminal; 300000
pay delivery; 100000
expense Produce; 50000; Cash box
income Investment; 20000; Cash box
cash 100000x5 50000x3 1000x7</code>

Date is optional; without it today's report is assumed.`)
}

// reply sends an HTML message, logging send failures.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
