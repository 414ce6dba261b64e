// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/bekzod/kassa-bot/internal/config"
	"gitlab.com/bekzod/kassa-bot/internal/ledger"
	"gitlab.com/bekzod/kassa-bot/internal/logger"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot          *bot.Bot
	cfg          *config.Config
	userRepo     *repository.UserRepository
	accountRepo  *repository.AccountRepository
	locationRepo *repository.LocationRepository
	methodRepo   *repository.PaymentMethodRepository
	expenseCats  *repository.CategoryRepository
	incomeCats   *repository.CategoryRepository
	reportRepo   *repository.ReportRepository
	timelineRepo *repository.TimelineRepository
	reports      *ledger.ReportService
	balances     *ledger.BalanceCalculator
	analytics    *ledger.AnalyticsService
	migrator     *ledger.TimelineMigrator
}

// New creates a new Bot instance.
func New(cfg *config.Config, pool *pgxpool.Pool) (*Bot, error) {
	b := &Bot{
		cfg:          cfg,
		userRepo:     repository.NewUserRepository(pool),
		accountRepo:  repository.NewAccountRepository(pool),
		locationRepo: repository.NewLocationRepository(pool),
		methodRepo:   repository.NewPaymentMethodRepository(pool),
		expenseCats:  repository.NewExpenseCategoryRepository(pool),
		incomeCats:   repository.NewIncomeCategoryRepository(pool),
		reportRepo:   repository.NewReportRepository(pool),
		timelineRepo: repository.NewTimelineRepository(pool),
		reports:      ledger.NewReportService(pool),
		balances:     ledger.NewBalanceCalculator(pool),
		analytics:    ledger.NewAnalyticsService(pool),
		migrator:     ledger.NewTimelineMigrator(pool),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.accessMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/shift", bot.MatchTypePrefix, b.handleShift)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reopen", bot.MatchTypePrefix, b.handleReopen)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypePrefix, b.handleBalance)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/expense", bot.MatchTypePrefix, b.handleQuickExpense)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/income", bot.MatchTypePrefix, b.handleQuickIncome)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/report", bot.MatchTypePrefix, b.handleReport)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chart", bot.MatchTypePrefix, b.handleChart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/timeline", bot.MatchTypePrefix, b.handleTimeline)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/migrate", bot.MatchTypePrefix, b.handleMigrate)
}

// accessMiddleware registers the user and logs the action before any handler
// runs. Per-command capability checks happen in the handlers via
// requirePermission.
func (b *Bot) accessMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		username := extractUsername(update)
		logUserAction(userID, username, update)

		if err := b.ensureUserRegistered(ctx, update); err != nil {
			logger.Log.Error().
				Int64("user_id", userID).
				Err(err).
				Msg("Failed to register user")
		}

		next(ctx, tgBot, update)
	}
}

// requirePermission checks the capability and tells the user off if they lack
// it. Admins configured in ADMIN_USER_IDS bypass the check. Returns true if
// the handler may proceed.
func (b *Bot) requirePermission(ctx context.Context, tg TelegramAPI, update *tgmodels.Update, permission string) bool {
	userID := extractUserID(update)
	if b.cfg.IsAdmin(userID) {
		return true
	}

	user, err := b.userRepo.GetByTelegramID(ctx, userID)
	if err == nil {
		ok, permErr := b.userRepo.HasPermission(ctx, user.ID, permission)
		if permErr == nil && ok {
			return true
		}
		err = permErr
	}
	if err != nil {
		logger.Log.Error().
			Int64("user_id", userID).
			Str("permission", permission).
			Err(err).
			Msg("Permission check failed")
	}

	if update.Message != nil {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "⛔ You don't have permission for this command. Ask an administrator to grant it.",
		})
	}
	return false
}

// logUserAction logs the user's input/action.
func logUserAction(userID int64, username string, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Int64("user_id", userID).
			Str("username", username).
			Int64("chat_id", msg.Chat.ID)

		if msg.Text != "" {
			event = event.Str("text", msg.Text)
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Int64("user_id", userID).
			Str("username", username).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")

	case update.EditedMessage != nil:
		logger.Log.Info().
			Int64("user_id", userID).
			Str("username", username).
			Str("text", update.EditedMessage.Text).
			Msg("Edited message")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

// ensureUserRegistered creates or updates the user record.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	var from *tgmodels.User
	if update.Message != nil && update.Message.From != nil {
		from = update.Message.From
	} else if update.CallbackQuery != nil {
		from = &update.CallbackQuery.From
	}
	if from == nil {
		return nil
	}

	fullName := from.FirstName
	if from.LastName != "" {
		fullName += " " + from.LastName
	}

	if _, err := b.userRepo.GetOrCreate(ctx, from.ID, from.Username, fullName); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// defaultHandler handles unrecognized messages.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	logger.Log.Debug().
		Int64("chat_id", update.Message.Chat.ID).
		Str("text", update.Message.Text).
		Msg("Default handler triggered")

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /help to see available commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
