// Package models defines the domain entities for the café bookkeeping system.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types. Cash accounts are physical drawers; bank accounts are
// settlement accounts for cashless payments.
const (
	AccountTypeCash = "cash"
	AccountTypeBank = "bank"
)

// Payment method types. All three are cashless; the cash drawer is never a
// payment method.
const (
	MethodTypeTerminal = "terminal"
	MethodTypeOnline   = "online"
	MethodTypeDelivery = "delivery"
)

// Daily report statuses. Verified is defined in the schema but no code path
// sets it.
const (
	ReportStatusOpen     = "open"
	ReportStatusClosed   = "closed"
	ReportStatusVerified = "verified"
)

// Timeline entry types.
const (
	EntryTypeExpense = "expense"
	EntryTypeIncome  = "income"
	EntryTypeSale    = "sale"
	EntryTypeSalary  = "salary"
)

// Category types, used by group mappings to tell which tree a category id
// belongs to.
const (
	CategoryTypeExpense = "expense"
	CategoryTypeIncome  = "income"
)

// Timeline entry sources.
const (
	SourceTelegram = "telegram"
	SourceReport   = "report"
)

// Permission names checked before the corresponding commands run.
const (
	PermSubmitShift   = "submit_shift_report"
	PermQuickExpense  = "quick_add_expense"
	PermQuickIncome   = "quick_add_income"
	PermViewBalances  = "view_balances"
	PermViewAnalytics = "view_analytics"
	PermReopenReport  = "reopen_report"
)

// Account is a money-holding bucket. Soft-deleted accounts stay queryable by
// id because historical ledger rows reference them.
type Account struct {
	ID          int64
	Name        string
	AccountType string
	Currency    string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// PaymentMethod is a named way customers pay, with a commission percentage
// and a default settlement account.
type PaymentMethod struct {
	ID                int64
	Name              string
	MethodType        string
	DefaultAccountID  *int64
	CommissionPercent decimal.Decimal
	Description       string
	IsVisible         bool
	IsActive          bool
	SortOrder         int
	CreatedAt         time.Time
}

// Location is one café in the chain.
type Location struct {
	ID        int64
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
}

// Category is a node in the expense or income category tree. The same shape
// serves both trees; the repository knows which table it reads.
type Category struct {
	ID        int64
	Name      string
	ParentID  *int64
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
}

// CategoryGroup is a reporting rollup ("Food Cost" = several expense
// categories). Groups never affect bookkeeping, only analytics.
type CategoryGroup struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CategoryIDs []int64
}

// DailyReport is one cashier shift for one (date, location) pair.
type DailyReport struct {
	ID             int64
	ReportDate     time.Time
	LocationID     int64
	LocationName   string
	TotalSales     decimal.Decimal
	CashExpected   decimal.Decimal
	CashActual     decimal.Decimal
	CashDifference decimal.Decimal
	CashBreakdown  *CashBreakdown
	Status         string
	CreatedBy      string
	Notes          string
	CreatedAt      time.Time
	ClosedAt       *time.Time
}

// ReportPayment is one (payment method, amount) pair attached to a report.
// Commission and net are derived at insert time from the method's commission
// percent.
type ReportPayment struct {
	ID               int64
	ReportID         int64
	PaymentMethodID  int64
	MethodName       string
	MethodType       string
	AccountID        int64
	Amount           decimal.Decimal
	CommissionAmount decimal.Decimal
	NetAmount        decimal.Decimal
}

// ReportEntry is one categorized money movement attached to a report, used
// for both non-sales income and report expenses.
type ReportEntry struct {
	ID           int64
	ReportID     int64
	CategoryID   *int64
	CategoryName string
	AccountID    int64
	Amount       decimal.Decimal
	Description  string
}

// TimelineEntry is the unified ledger row. Sign convention: negative for
// expenses and salaries, positive for income and sales.
type TimelineEntry struct {
	ID          int64
	EntryDate   time.Time
	EntryType   string
	CategoryID  *int64
	AccountID   *int64
	Amount      decimal.Decimal
	Description string
	ReportID    *int64
	UserID      *int64
	Source      string
	CreatedAt   time.Time
}

// User is a person identified by a Telegram ID.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FullName   string
	Role       string
	IsActive   bool
	CreatedAt  time.Time
}

// Permission is a named capability.
type Permission struct {
	ID          int64
	Name        string
	DisplayName string
	Category    string
}

// AccountBalance is the result of one account's full-ledger recomputation.
type AccountBalance struct {
	Account        Account
	SalesIncome    decimal.Decimal
	NonSalesIncome decimal.Decimal
	Expenses       decimal.Decimal
	Balance        decimal.Decimal
}
