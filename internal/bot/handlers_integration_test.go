package bot

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/bekzod/kassa-bot/internal/bot/mocks"
	"gitlab.com/bekzod/kassa-bot/internal/config"
	"gitlab.com/bekzod/kassa-bot/internal/database"
	"gitlab.com/bekzod/kassa-bot/internal/ledger"
	appmodels "gitlab.com/bekzod/kassa-bot/internal/models"
	"gitlab.com/bekzod/kassa-bot/internal/repository"
)

// newDBBot wires a Bot over a test transaction, without a live Telegram
// client. Handlers are exercised through their Core variants with MockBot.
func newDBBot(t *testing.T) *Bot {
	t.Helper()
	tx := database.TestTx(t)

	b := &Bot{
		cfg:          &config.Config{AdminUserIDs: []int64{adminID}},
		userRepo:     repository.NewUserRepository(tx),
		accountRepo:  repository.NewAccountRepository(tx),
		locationRepo: repository.NewLocationRepository(tx),
		methodRepo:   repository.NewPaymentMethodRepository(tx),
		expenseCats:  repository.NewExpenseCategoryRepository(tx),
		incomeCats:   repository.NewIncomeCategoryRepository(tx),
		reportRepo:   repository.NewReportRepository(tx),
		timelineRepo: repository.NewTimelineRepository(tx),
		reports:      ledger.NewReportService(tx),
		balances:     ledger.NewBalanceCalculator(tx),
		analytics:    ledger.NewAnalyticsService(tx),
		migrator:     ledger.NewTimelineMigrator(tx),
	}
	return b
}

// seedChart sets up the minimal chart of accounts: one location, a cash
// drawer, a settlement account and two payment methods.
func seedChart(t *testing.T, b *Bot) {
	t.Helper()
	ctx := context.Background()

	location := appmodels.Location{Name: "Chilanzar"}
	require.NoError(t, b.locationRepo.Create(ctx, &location))

	cashBox := appmodels.Account{Name: "Cash box", AccountType: appmodels.AccountTypeCash}
	bank := appmodels.Account{Name: "Bank card", AccountType: appmodels.AccountTypeBank}
	require.NoError(t, b.accountRepo.Create(ctx, &cashBox))
	require.NoError(t, b.accountRepo.Create(ctx, &bank))

	terminal := appmodels.PaymentMethod{
		Name:              "Terminal",
		MethodType:        appmodels.MethodTypeTerminal,
		DefaultAccountID:  &bank.ID,
		CommissionPercent: decimal.RequireFromString("2"),
		IsVisible:         true,
	}
	delivery := appmodels.PaymentMethod{
		Name:             "Delivery",
		MethodType:       appmodels.MethodTypeDelivery,
		DefaultAccountID: &bank.ID,
		IsVisible:        true,
	}
	require.NoError(t, b.methodRepo.Create(ctx, &terminal))
	require.NoError(t, b.methodRepo.Create(ctx, &delivery))
}

const shiftMessage = `/shift 2026-08-28 Chilanzar
sales 1000000
pay Terminal; 300000
pay Delivery; 100000
expense Produce; 50000; Cash box; vegetables
income Investment; 20000; Cash box
cash 100000x5 50000x1 10000x2`

func TestHandleShiftCoreEndToEnd(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	t.Run("balanced shift closes", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))

		require.Len(t, mockBot.SentMessages, 1)
		msg := mockBot.LastMessage()
		require.Contains(t, msg.Text, "closed")
		require.Contains(t, msg.Text, "Cash expected: 570 000 sum")
		require.Contains(t, msg.Text, "balanced")
		require.Contains(t, msg.Text, "4 timeline entries")
	})

	t.Run("resubmission over a closed report is redirected", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))

		require.Contains(t, mockBot.LastMessage().Text, "/reopen")
	})

	t.Run("reopen then correct", func(t *testing.T) {
		report, err := b.reportRepo.GetByDateLocation(ctx,
			mustDate(t, "2026-08-28"), mustLocationID(t, b, "Chilanzar"))
		require.NoError(t, err)

		mockBot := mocks.NewMockBot()
		b.handleReopenCore(ctx, mockBot, adminUpdate("/reopen "+itoa(report.ID)))
		require.Contains(t, mockBot.LastMessage().Text, "reopened")

		mockBot.Reset()
		b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))
		require.Contains(t, mockBot.LastMessage().Text, "closed")
	})

	t.Run("unknown location", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate("/shift Samarkand\nsales 1000\ncash 1000x1"))

		require.Contains(t, mockBot.LastMessage().Text, `unknown location "Samarkand"`)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate("/shift Chilanzar\nsales 1000\npay Visa; 500\ncash 1000x1"))

		require.Contains(t, mockBot.LastMessage().Text, `unknown payment method "Visa"`)
		require.Contains(t, mockBot.LastMessage().Text, "offered: Delivery, Terminal")
	})

	t.Run("hidden method is not accepted", func(t *testing.T) {
		terminal, err := b.methodRepo.GetActiveByName(ctx, "Terminal")
		require.NoError(t, err)
		require.NoError(t, b.methodRepo.SetVisibility(ctx, terminal.ID, false))

		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate("/shift Chilanzar\nsales 1000\npay Terminal; 500\ncash 1000x1"))

		require.Contains(t, mockBot.LastMessage().Text, `payment method "Terminal" is hidden from the shift form`)
		require.Contains(t, mockBot.LastMessage().Text, "offered: Delivery")

		require.NoError(t, b.methodRepo.SetVisibility(ctx, terminal.ID, true))
	})
}

func TestHandleQuickAddCore(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	t.Run("expense lands negative in the timeline", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleQuickExpenseCore(ctx, mockBot, adminUpdate("/expense Produce; 30000; Cash box; cucumbers"))

		require.Contains(t, mockBot.LastMessage().Text, "Expense recorded")

		entries := allTimelineEntries(t, b)
		require.Len(t, entries, 1)
		require.Equal(t, appmodels.EntryTypeExpense, entries[0].EntryType)
		require.True(t, entries[0].Amount.Equal(decimal.NewFromInt(-30000)), "got %s", entries[0].Amount)
		require.Equal(t, appmodels.SourceTelegram, entries[0].Source)
		require.Equal(t, "cucumbers", entries[0].Description)
	})

	t.Run("salaries category becomes a salary entry", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleQuickExpenseCore(ctx, mockBot, adminUpdate("/expense Salaries; 1200000; Cash box; August payroll"))

		require.Contains(t, mockBot.LastMessage().Text, "Salary recorded")

		entries := allTimelineEntries(t, b)
		var salary *appmodels.TimelineEntry
		for i := range entries {
			if entries[i].EntryType == appmodels.EntryTypeSalary {
				salary = &entries[i]
			}
		}
		require.NotNil(t, salary)
		require.True(t, salary.Amount.Equal(decimal.NewFromInt(-1200000)))
	})

	t.Run("income lands positive", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleQuickIncomeCore(ctx, mockBot, adminUpdate("/income Investment; 500000; Bank card"))

		require.Contains(t, mockBot.LastMessage().Text, "Income recorded")
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleQuickExpenseCore(ctx, mockBot, adminUpdate("/expense Produce; 0; Cash box"))

		require.Contains(t, mockBot.LastMessage().Text, "must be positive")
	})

	t.Run("unknown category", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleQuickExpenseCore(ctx, mockBot, adminUpdate("/expense Fireworks; 100; Cash box"))

		require.Contains(t, mockBot.LastMessage().Text, `unknown category "Fireworks"`)
	})
}

func TestHandleBalanceCore(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	mockBot := mocks.NewMockBot()
	b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))
	require.Contains(t, mockBot.LastMessage().Text, "closed")

	mockBot.Reset()
	b.handleBalanceCore(ctx, mockBot, adminUpdate("/balance"))

	require.Len(t, mockBot.SentMessages, 1)
	msg := mockBot.LastMessage()
	require.Contains(t, msg.Text, "Cash box")
	// Counted 570 000 + income 20 000 − expense 50 000.
	require.Contains(t, msg.Text, "540 000 sum")
	// Net terminal 294 000 + delivery 100 000.
	require.Contains(t, msg.Text, "394 000 sum")
}

func TestHandleReportCore(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	t.Run("empty month", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleReportCore(ctx, mockBot, adminUpdate("/report 2026-01"))
		require.Contains(t, mockBot.LastMessage().Text, "No closed reports")
	})

	t.Run("month with a shift", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))
		require.Contains(t, mockBot.LastMessage().Text, "closed")

		mockBot.Reset()
		b.handleReportCore(ctx, mockBot, adminUpdate("/report 2026-08"))

		msg := mockBot.LastMessage()
		require.Contains(t, msg.Text, "August 2026")
		require.Contains(t, msg.Text, "Revenue: 1 000 000 sum")
		require.Contains(t, msg.Text, "commission 6 000 sum")
		require.Contains(t, msg.Text, "Gross profit: 950 000 sum")
	})

	t.Run("bad month argument", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleReportCore(ctx, mockBot, adminUpdate("/report August"))
		require.Contains(t, mockBot.LastMessage().Text, "expected YYYY-MM")
	})
}

func TestHandleTimelineCore(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	t.Run("empty month", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleTimelineCore(ctx, mockBot, adminUpdate("/timeline 2026-01"))
		require.Contains(t, mockBot.LastMessage().Text, "No timeline entries")
		require.Empty(t, mockBot.SentDocuments)
	})

	t.Run("exports a CSV document", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))
		require.Contains(t, mockBot.LastMessage().Text, "closed")

		mockBot.Reset()
		b.handleTimelineCore(ctx, mockBot, adminUpdate("/timeline 2026-08"))

		require.Len(t, mockBot.SentDocuments, 1)
		doc := mockBot.SentDocuments[0]
		require.Equal(t, "timeline_2026-08.csv", doc.Filename)
		require.Contains(t, doc.Caption, "4 entries")
	})

	t.Run("export stops at the month boundary", func(t *testing.T) {
		entry := appmodels.TimelineEntry{
			EntryDate:   mustDate(t, "2026-09-01"),
			EntryType:   appmodels.EntryTypeExpense,
			Amount:      decimal.NewFromInt(-15000),
			Description: "September repair",
			Source:      appmodels.SourceTelegram,
		}
		require.NoError(t, b.timelineRepo.Insert(ctx, &entry))

		mockBot := mocks.NewMockBot()
		b.handleTimelineCore(ctx, mockBot, adminUpdate("/timeline 2026-08"))

		require.Len(t, mockBot.SentDocuments, 1)
		doc := mockBot.SentDocuments[0]
		require.Contains(t, doc.Caption, "4 entries")
		require.NotContains(t, string(doc.Data), "September repair")

		mockBot.Reset()
		b.handleTimelineCore(ctx, mockBot, adminUpdate("/timeline 2026-09"))

		require.Len(t, mockBot.SentDocuments, 1)
		require.Contains(t, string(mockBot.SentDocuments[0].Data), "September repair")
	})
}

func TestHandleMigrateCore(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	t.Run("non-admin is rejected", func(t *testing.T) {
		update := mocks.NewUpdateBuilder().WithMessage(999, 777002, "/migrate 2026-08").Build()
		mockBot := mocks.NewMockBot()
		b.handleMigrateCore(ctx, mockBot, update)
		require.Contains(t, mockBot.LastMessage().Text, "restricted to administrators")
	})

	t.Run("rebuilds lost timeline entries", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleShiftCore(ctx, mockBot, adminUpdate(shiftMessage))
		require.Contains(t, mockBot.LastMessage().Text, "closed")

		report, err := b.reportRepo.GetByDateLocation(ctx,
			mustDate(t, "2026-08-28"), mustLocationID(t, b, "Chilanzar"))
		require.NoError(t, err)
		_, err = b.timelineRepo.DeleteByReport(ctx, report.ID)
		require.NoError(t, err)
		require.Empty(t, allTimelineEntries(t, b))

		mockBot.Reset()
		b.handleMigrateCore(ctx, mockBot, adminUpdate("/migrate 2026-08"))
		require.Contains(t, mockBot.LastMessage().Text, "4 entries written")
		require.Len(t, allTimelineEntries(t, b), 4)
	})

	t.Run("bad month argument", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleMigrateCore(ctx, mockBot, adminUpdate("/migrate yesterday"))
		require.Contains(t, mockBot.LastMessage().Text, "expected YYYY-MM")
	})
}

func TestPermissionDenied(t *testing.T) {
	b := newDBBot(t)
	seedChart(t, b)
	ctx := context.Background()

	const outsiderID int64 = 777001
	update := mocks.NewUpdateBuilder().WithMessage(999, outsiderID, "/balance").Build()
	_, err := b.userRepo.GetOrCreate(ctx, outsiderID, "outsider", "Out Sider")
	require.NoError(t, err)

	mockBot := mocks.NewMockBot()
	b.handleBalanceCore(ctx, mockBot, update)

	require.Len(t, mockBot.SentMessages, 1)
	require.Contains(t, mockBot.LastMessage().Text, "permission")

	t.Run("granted capability opens the command", func(t *testing.T) {
		user, err := b.userRepo.GetByTelegramID(ctx, outsiderID)
		require.NoError(t, err)
		require.NoError(t, b.userRepo.Grant(ctx, user.ID, appmodels.PermViewBalances))

		mockBot := mocks.NewMockBot()
		b.handleBalanceCore(ctx, mockBot, update)
		require.Contains(t, mockBot.LastMessage().Text, "Account balances")
	})
}

func allTimelineEntries(t *testing.T, b *Bot) []appmodels.TimelineEntry {
	t.Helper()
	entries, err := b.timelineRepo.ListByPeriod(context.Background(),
		mustDate(t, "2020-01-01"), mustDate(t, "2030-01-01"))
	require.NoError(t, err)
	return entries
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func mustLocationID(t *testing.T, b *Bot, name string) int64 {
	t.Helper()
	loc, err := b.locationRepo.GetActiveByName(context.Background(), name)
	require.NoError(t, err)
	return loc.ID
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
