package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Store on a single sqlite database file.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateSchema brings the database up to the latest embedded migration.
// Already-current databases are a no-op.
func migrateSchema(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return src.Close()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dates are stored as RFC3339 UTC strings so lexicographic comparison in SQL
// matches chronological order.
func encodeDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func encodeDatePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeDate(*t), Valid: true}
}

func decodeDatePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := decodeDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, description, category, category_key, amount_cents, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, encodeDate(tx.Date), tx.Description,
		tx.Category, core.CategoryKey(tx.Category), tx.Amount.Cents, string(tx.Type))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, description, category, amount_cents, type
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, description, category, amount_cents, type
		FROM transactions WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, description, category, amount_cents, type
		FROM transactions WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC, created_at DESC`, userID, encodeDate(from), encodeDate(to))
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, description = ?, category = ?, category_key = ?, amount_cents = ?, type = ?
		WHERE id = ? AND user_id = ?`,
		encodeDate(tx.Date), tx.Description, tx.Category, core.CategoryKey(tx.Category),
		tx.Amount.Cents, string(tx.Type), tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) SumExpensesInWindow(ctx context.Context, userID, categoryKey string, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ABS(amount_cents)), 0)
		FROM transactions
		WHERE user_id = ? AND category_key = ? AND type = 'expense'
		  AND date >= ? AND date <= ?`,
		userID, categoryKey, encodeDate(from), encodeDate(to)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses in window: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, name, category, category_key, allocated_cents,
			spent_cents, period, start_date, end_date, is_recurring_bill, due_date_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Category, core.CategoryKey(b.Category),
		b.AllocatedAmount.Cents, b.SpentAmount.Cents, string(b.Period),
		encodeDatePtr(b.StartDate), encodeDatePtr(b.EndDate),
		boolToInt(b.IsRecurringBill), b.DueDateDay)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, budgetSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	return scanBudget(row)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, budgetSelect+` WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func (r *SQLiteRepository) ListBudgetsByCategoryKey(ctx context.Context, userID, categoryKey string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		budgetSelect+` WHERE user_id = ? AND category_key = ? ORDER BY created_at`,
		userID, categoryKey)
	if err != nil {
		return nil, fmt.Errorf("list budgets by category: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, category = ?, category_key = ?, allocated_cents = ?, spent_cents = ?,
			period = ?, start_date = ?, end_date = ?, is_recurring_bill = ?, due_date_day = ?
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Category, core.CategoryKey(b.Category),
		b.AllocatedAmount.Cents, b.SpentAmount.Cents, string(b.Period),
		encodeDatePtr(b.StartDate), encodeDatePtr(b.EndDate),
		boolToInt(b.IsRecurringBill), b.DueDateDay, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) UpdateBudgetSpent(ctx context.Context, userID, id string, spentCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET spent_cents = ? WHERE id = ? AND user_id = ?`,
		spentCents, id, userID)
	if err != nil {
		return fmt.Errorf("update budget spent: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_cents, current_cents, target_date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		encodeDatePtr(g.TargetDate), g.Description)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_cents, current_cents, target_date, description
		FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_cents, current_cents, target_date, description
		FROM goals WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, target_cents = ?, current_cents = ?, target_date = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		encodeDatePtr(g.TargetDate), g.Description, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireAffected(res)
}

const budgetSelect = `
	SELECT id, user_id, name, category, allocated_cents, spent_cents, period,
		start_date, end_date, is_recurring_bill, due_date_day
	FROM budgets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var dateStr, typeStr string
	err := row.Scan(&tx.ID, &tx.UserID, &dateStr, &tx.Description, &tx.Category,
		&tx.Amount.Cents, &typeStr)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if tx.Date, err = decodeDate(dateStr); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction date: %w", err)
	}
	tx.Type = core.TransactionType(typeStr)
	return tx, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var periodStr string
	var start, end sql.NullString
	var recurring int
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Category,
		&b.AllocatedAmount.Cents, &b.SpentAmount.Cents, &periodStr,
		&start, &end, &recurring, &b.DueDateDay)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Period = core.BudgetPeriod(periodStr)
	b.IsRecurringBill = recurring != 0
	if b.StartDate, err = decodeDatePtr(start); err != nil {
		return core.Budget{}, fmt.Errorf("decode budget start date: %w", err)
	}
	if b.EndDate, err = decodeDatePtr(end); err != nil {
		return core.Budget{}, fmt.Errorf("decode budget end date: %w", err)
	}
	return b, nil
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var g core.Goal
	var targetDate sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents,
		&g.CurrentAmount.Cents, &targetDate, &g.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	if g.TargetDate, err = decodeDatePtr(targetDate); err != nil {
		return core.Goal{}, fmt.Errorf("decode goal target date: %w", err)
	}
	return g, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
