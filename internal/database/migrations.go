package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/bekzod/kassa-bot/internal/models"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			account_type TEXT NOT NULL CHECK (account_type IN ('cash', 'bank')),
			currency TEXT NOT NULL DEFAULT 'UZS',
			description TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS payment_methods (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			method_type TEXT NOT NULL CHECK (method_type IN ('terminal', 'online', 'delivery')),
			default_account_id INTEGER REFERENCES accounts(id),
			commission_percent DECIMAL(5, 2) NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			is_visible BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS locations (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS expense_categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			parent_id INTEGER REFERENCES expense_categories(id),
			sort_order INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS income_categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			parent_id INTEGER REFERENCES income_categories(id),
			sort_order INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS category_groups (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS category_group_mappings (
			group_id INTEGER NOT NULL REFERENCES category_groups(id) ON DELETE CASCADE,
			category_id INTEGER NOT NULL,
			category_type TEXT NOT NULL CHECK (category_type IN ('expense', 'income')),
			PRIMARY KEY (group_id, category_id, category_type)
		)`,

		`CREATE TABLE IF NOT EXISTS daily_reports (
			id SERIAL PRIMARY KEY,
			report_date DATE NOT NULL,
			location_id INTEGER NOT NULL REFERENCES locations(id),
			total_sales DECIMAL(14, 2) NOT NULL DEFAULT 0,
			cash_expected DECIMAL(14, 2),
			cash_actual DECIMAL(14, 2),
			cash_difference DECIMAL(14, 2),
			cash_breakdown JSONB,
			status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed', 'verified')),
			created_by TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			closed_at TIMESTAMPTZ,
			UNIQUE (report_date, location_id)
		)`,

		`CREATE TABLE IF NOT EXISTS report_payments (
			id SERIAL PRIMARY KEY,
			report_id INTEGER NOT NULL REFERENCES daily_reports(id) ON DELETE CASCADE,
			payment_method_id INTEGER NOT NULL REFERENCES payment_methods(id),
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			amount DECIMAL(14, 2) NOT NULL,
			commission_amount DECIMAL(14, 2) NOT NULL DEFAULT 0,
			net_amount DECIMAL(14, 2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS non_sales_income (
			id SERIAL PRIMARY KEY,
			report_id INTEGER NOT NULL REFERENCES daily_reports(id) ON DELETE CASCADE,
			category_id INTEGER REFERENCES income_categories(id),
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			amount DECIMAL(14, 2) NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS report_expenses (
			id SERIAL PRIMARY KEY,
			report_id INTEGER NOT NULL REFERENCES daily_reports(id) ON DELETE CASCADE,
			category_id INTEGER REFERENCES expense_categories(id),
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			amount DECIMAL(14, 2) NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			telegram_id BIGINT UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '' CHECK (role IN ('', 'owner', 'manager', 'accountant', 'cashier')),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS permissions (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'finance'
		)`,

		`CREATE TABLE IF NOT EXISTS user_permissions (
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			permission_id INTEGER NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, permission_id)
		)`,

		`CREATE TABLE IF NOT EXISTS timeline (
			id SERIAL PRIMARY KEY,
			entry_date DATE NOT NULL,
			entry_type TEXT NOT NULL CHECK (entry_type IN ('expense', 'income', 'sale', 'salary')),
			category_id INTEGER,
			account_id INTEGER REFERENCES accounts(id),
			amount DECIMAL(14, 2) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			report_id INTEGER REFERENCES daily_reports(id) ON DELETE CASCADE,
			user_id INTEGER REFERENCES users(id),
			source TEXT NOT NULL DEFAULT 'telegram',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_daily_reports_date ON daily_reports(report_date)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_reports_location ON daily_reports(location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_report_payments_report ON report_payments(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_report_payments_account ON report_payments(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_non_sales_income_account ON non_sales_income(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_report_expenses_account ON report_expenses(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_date ON timeline(entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_report ON timeline(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_account ON timeline(account_id)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedPermissions inserts the named capabilities the bot checks before
// money-writing commands.
func SeedPermissions(ctx context.Context, pool *pgxpool.Pool) error {
	permissions := []struct {
		name, display, category string
	}{
		{models.PermSubmitShift, "Submit shift report", "finance"},
		{models.PermQuickExpense, "Quick-add expense", "finance"},
		{models.PermQuickIncome, "Quick-add income", "finance"},
		{models.PermViewBalances, "View account balances", "view"},
		{models.PermViewAnalytics, "View monthly analytics", "view"},
		{models.PermReopenReport, "Reopen closed report", "admin"},
	}

	for _, p := range permissions {
		_, err := pool.Exec(ctx, `
			INSERT INTO permissions (name, display_name, category)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, p.name, p.display, p.category)
		if err != nil {
			return fmt.Errorf("failed to seed permission %q: %w", p.name, err)
		}
	}

	return nil
}

// SeedCategories inserts the default expense and income categories.
func SeedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	expense := []string{
		"Produce",
		"Meat",
		"Dairy",
		"Beverages",
		"Household supplies",
		"Salaries",
		"Rent",
		"Utilities",
		"Marketing",
		"Other",
	}
	for _, name := range expense {
		_, err := pool.Exec(ctx, `
			INSERT INTO expense_categories (name)
			SELECT $1 WHERE NOT EXISTS (
				SELECT 1 FROM expense_categories WHERE name = $1 AND parent_id IS NULL
			)
		`, name)
		if err != nil {
			return fmt.Errorf("failed to seed expense category %q: %w", name, err)
		}
	}

	income := []string{
		"Revenue",
		"Investment",
		"Loan",
		"Other income",
	}
	for _, name := range income {
		_, err := pool.Exec(ctx, `
			INSERT INTO income_categories (name)
			SELECT $1 WHERE NOT EXISTS (
				SELECT 1 FROM income_categories WHERE name = $1 AND parent_id IS NULL
			)
		`, name)
		if err != nil {
			return fmt.Errorf("failed to seed income category %q: %w", name, err)
		}
	}

	return nil
}
