package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
	appmodels "gitlab.com/bekzod/kassa-bot/internal/models"
)

// handleBalance handles the /balance command.
func (b *Bot) handleBalance(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleBalanceCore(ctx, tgBot, update)
}

// handleBalanceCore is the testable implementation of handleBalance.
func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !b.requirePermission(ctx, tg, update, appmodels.PermViewBalances) {
		return
	}

	chatID := update.Message.Chat.ID
	balances, err := b.balances.Balances(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to compute balances")
		b.reply(ctx, tg, chatID, "❌ Failed to compute balances. Please try again.")
		return
	}

	if len(balances) == 0 {
		b.reply(ctx, tg, chatID, "No accounts configured yet.")
		return
	}

	b.reply(ctx, tg, chatID, formatBalances(balances))
}

// formatBalances renders the account picture grouped by account type.
func formatBalances(balances []appmodels.AccountBalance) string {
	var sb strings.Builder
	sb.WriteString("💰 <b>Account balances</b>\n")

	total := decimal.Zero
	lastType := ""
	for _, ab := range balances {
		if ab.Account.AccountType != lastType {
			lastType = ab.Account.AccountType
			if lastType == appmodels.AccountTypeCash {
				sb.WriteString("\n<b>Cash</b>\n")
			} else {
				sb.WriteString("\n<b>Bank</b>\n")
			}
		}
		icon := "🏦"
		if ab.Account.AccountType == appmodels.AccountTypeCash {
			icon = "💵"
		}
		fmt.Fprintf(&sb, "%s %s: <b>%s</b>\n", icon, escapeHTML(ab.Account.Name), FormatSum(ab.Balance))
		total = total.Add(ab.Balance)
	}

	fmt.Fprintf(&sb, "\nTotal: <b>%s</b>", FormatSum(total))
	return sb.String()
}
