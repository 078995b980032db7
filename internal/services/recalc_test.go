package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedExpense(t *testing.T, s storage.Store, id, userID, category string, cents int64, d time.Time) {
	t.Helper()
	err := s.CreateTransaction(context.Background(), core.Transaction{
		ID: id, UserID: userID, Date: d,
		Description: "seed", Category: category,
		Amount: core.Money{Cents: -cents}, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
}

func seedBudget(t *testing.T, s storage.Store, b core.Budget) {
	t.Helper()
	if err := s.CreateBudget(context.Background(), b); err != nil {
		t.Fatalf("seed budget: %v", err)
	}
}

func budgetSpent(t *testing.T, s storage.Store, userID, id string) int64 {
	t.Helper()
	b, err := s.GetBudget(context.Background(), userID, id)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	return b.SpentAmount.Cents
}

func TestRecalculateCategorySumsMonthWindow(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := NewSpendRecalculator(store, testLogger())
	r.now = fixedClock(date(2025, 6, 17))

	seedBudget(t, store, core.Budget{
		ID: "b1", UserID: "u1", Name: "Groceries", Category: "Groceries",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Monthly,
		StartDate: datePtr(2025, 6, 1),
	})
	seedExpense(t, store, "t1", "u1", "Groceries", 3000, date(2025, 6, 5))
	seedExpense(t, store, "t2", "u1", "GROCERIES", 2000, date(2025, 6, 20))
	seedExpense(t, store, "t3", "u1", "Groceries", 9000, date(2025, 5, 30)) // outside month
	seedExpense(t, store, "t4", "u1", "Dining", 9000, date(2025, 6, 10))   // other category

	r.RecalculateCategory(ctx, "u1", "groceries")

	if got := budgetSpent(t, store, "u1", "b1"); got != 5000 {
		t.Fatalf("spent = %d, want 5000", got)
	}

	// Recalculation is a full overwrite, so a second run changes nothing.
	r.RecalculateCategory(ctx, "u1", "Groceries")
	if got := budgetSpent(t, store, "u1", "b1"); got != 5000 {
		t.Fatalf("spent after rerun = %d, want 5000", got)
	}
}

func TestRecalculateCustomWindowBudget(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := NewSpendRecalculator(store, testLogger())
	r.now = fixedClock(date(2025, 6, 17))

	start := date(2025, 6, 10)
	end := date(2025, 6, 20)
	seedBudget(t, store, core.Budget{
		ID: "b1", UserID: "u1", Name: "Trip", Category: "Travel",
		AllocatedAmount: core.Money{Cents: 100000}, Period: core.Custom,
		StartDate: &start, EndDate: &end,
	})
	seedExpense(t, store, "t1", "u1", "Travel", 4000, date(2025, 6, 10)) // first day, inclusive
	seedExpense(t, store, "t2", "u1", "Travel", 2500, date(2025, 6, 20)) // last day, inclusive
	seedExpense(t, store, "t3", "u1", "Travel", 9000, date(2025, 6, 9))
	seedExpense(t, store, "t4", "u1", "Travel", 9000, date(2025, 6, 21))

	r.RecalculateCategory(ctx, "u1", "Travel")

	if got := budgetSpent(t, store, "u1", "b1"); got != 6500 {
		t.Fatalf("spent = %d, want 6500", got)
	}
}

func TestRecalculateMonthlyAnchorsToStartDateMonth(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := NewSpendRecalculator(store, testLogger())
	r.now = fixedClock(date(2025, 6, 17))

	// The budget tracks May regardless of the current month.
	seedBudget(t, store, core.Budget{
		ID: "b1", UserID: "u1", Name: "Groceries May", Category: "Groceries",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Monthly,
		StartDate: datePtr(2025, 5, 10),
	})
	seedExpense(t, store, "may", "u1", "Groceries", 3000, date(2025, 5, 15))
	seedExpense(t, store, "june", "u1", "Groceries", 9000, date(2025, 6, 15))

	r.RecalculateCategory(ctx, "u1", "Groceries")

	if got := budgetSpent(t, store, "u1", "b1"); got != 3000 {
		t.Fatalf("spent = %d, want 3000 (May only)", got)
	}
}

func TestRecalculateSkipsBudgetsWithoutWindow(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := NewSpendRecalculator(store, testLogger())
	r.now = fixedClock(date(2025, 6, 17))

	// Budgets with an indeterminate or untracked window keep whatever spend
	// they have; recalculation must not overwrite them.
	seedBudget(t, store, core.Budget{
		ID: "no-dates", UserID: "u1", Name: "a", Category: "Misc",
		AllocatedAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 777},
		Period: core.Custom,
	})
	seedBudget(t, store, core.Budget{
		ID: "quarterly", UserID: "u1", Name: "b", Category: "Misc",
		AllocatedAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 888},
		Period: core.Quarterly,
	})
	seedBudget(t, store, core.Budget{
		ID: "monthly-no-start", UserID: "u1", Name: "c", Category: "Misc",
		AllocatedAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 555},
		Period: core.Monthly,
	})
	seedExpense(t, store, "t1", "u1", "Misc", 5000, date(2025, 6, 5))

	r.RecalculateCategory(ctx, "u1", "Misc")

	if got := budgetSpent(t, store, "u1", "no-dates"); got != 777 {
		t.Fatalf("custom-without-dates spent = %d, want untouched 777", got)
	}
	if got := budgetSpent(t, store, "u1", "quarterly"); got != 888 {
		t.Fatalf("quarterly spent = %d, want untouched 888", got)
	}
	if got := budgetSpent(t, store, "u1", "monthly-no-start"); got != 555 {
		t.Fatalf("monthly-without-start spent = %d, want untouched 555", got)
	}
}

func TestRecalculateEmptyCategoryIsNoop(t *testing.T) {
	store := storage.NewMemoryStore()
	r := NewSpendRecalculator(store, testLogger())
	r.RecalculateCategory(context.Background(), "u1", "   ")
}
