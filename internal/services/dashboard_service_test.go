package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newDashboardFixture(t *testing.T, now time.Time) (*DashboardService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	summaryCache := cache.NewLRUCache[core.DashboardSummary](10, time.Minute)
	svc := NewDashboardService(store, summaryCache, testLogger())
	svc.now = fixedClock(now)
	return svc, store
}

func seedIncome(t *testing.T, s storage.Store, id, userID string, cents int64, d time.Time) {
	t.Helper()
	err := s.CreateTransaction(context.Background(), core.Transaction{
		ID: id, UserID: userID, Date: d,
		Description: "seed", Category: "Salary",
		Amount: core.Money{Cents: cents}, Type: core.Income,
	})
	if err != nil {
		t.Fatalf("seed income: %v", err)
	}
}

func TestDashboardSummaryAggregates(t *testing.T) {
	ctx := context.Background()
	svc, store := newDashboardFixture(t, date(2025, 6, 17))

	seedIncome(t, store, "i1", "u1", 300000, date(2025, 6, 1))
	seedIncome(t, store, "i2", "u1", 300000, date(2025, 5, 1))
	seedExpense(t, store, "e1", "u1", "Groceries", 50000, date(2025, 6, 5))
	seedExpense(t, store, "e2", "u1", "groceries", 10000, date(2025, 6, 20))
	seedExpense(t, store, "e3", "u1", "Dining", 20000, date(2025, 6, 10))
	seedExpense(t, store, "e4", "u1", "Dining", 99999, date(2025, 4, 10)) // outside current month

	store.CreateGoal(ctx, core.Goal{ID: "g1", UserID: "u1", Name: "a",
		TargetAmount: core.Money{Cents: 100000}, CurrentAmount: core.Money{Cents: 25000}})
	store.CreateGoal(ctx, core.Goal{ID: "g2", UserID: "u1", Name: "b",
		TargetAmount: core.Money{Cents: 100000}, CurrentAmount: core.Money{Cents: 75000}})

	summary, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	wantBalance := int64(300000 + 300000 - 50000 - 10000 - 20000 - 99999)
	if summary.Balance.Cents != wantBalance {
		t.Errorf("balance = %d, want %d", summary.Balance.Cents, wantBalance)
	}
	if summary.MTDIncome.Cents != 300000 {
		t.Errorf("MTD income = %d, want 300000", summary.MTDIncome.Cents)
	}
	if summary.MTDExpenses.Cents != 80000 {
		t.Errorf("MTD expenses = %d, want 80000", summary.MTDExpenses.Cents)
	}
	if summary.SavingsProgress != 50 {
		t.Errorf("savings progress = %d, want 50", summary.SavingsProgress)
	}

	if len(summary.ByCategory) != 2 {
		t.Fatalf("categories = %d, want 2", len(summary.ByCategory))
	}
	// Sorted by spend descending; case variants collapse to one entry.
	if summary.ByCategory[0].Amount.Cents != 60000 {
		t.Errorf("top category = %d, want 60000", summary.ByCategory[0].Amount.Cents)
	}
	if summary.ByCategory[1].Amount.Cents != 20000 {
		t.Errorf("second category = %d, want 20000", summary.ByCategory[1].Amount.Cents)
	}

	if len(summary.Monthly) != monthsOfHistory {
		t.Fatalf("monthly series length = %d, want %d", len(summary.Monthly), monthsOfHistory)
	}
	first, last := summary.Monthly[0], summary.Monthly[len(summary.Monthly)-1]
	if first.Year != 2025 || first.Month != 1 {
		t.Errorf("series starts at %d-%d, want 2025-1", first.Year, first.Month)
	}
	if last.Year != 2025 || last.Month != 6 {
		t.Errorf("series ends at %d-%d, want 2025-6", last.Year, last.Month)
	}
	if last.Expenses.Cents != 80000 || last.Income.Cents != 300000 {
		t.Errorf("current month flow = %+v", last)
	}
	april := summary.Monthly[3]
	if april.Expenses.Cents != 99999 {
		t.Errorf("april expenses = %d, want 99999", april.Expenses.Cents)
	}
}

func TestDashboardSummaryEmptyUser(t *testing.T) {
	svc, _ := newDashboardFixture(t, date(2025, 6, 17))

	summary, err := svc.Summary(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Balance.Cents != 0 || summary.SavingsProgress != 0 {
		t.Fatalf("empty summary should be zeroed, got %+v", summary)
	}
	if len(summary.Monthly) != monthsOfHistory {
		t.Fatalf("monthly series length = %d, want %d", len(summary.Monthly), monthsOfHistory)
	}
}

func TestDashboardSummaryCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newDashboardFixture(t, date(2025, 6, 17))

	seedExpense(t, store, "e1", "u1", "Groceries", 1000, date(2025, 6, 5))

	first, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	// A write the service does not know about is hidden by the cache.
	seedExpense(t, store, "e2", "u1", "Groceries", 2000, date(2025, 6, 6))
	cached, _ := svc.Summary(ctx, "u1")
	if cached.MTDExpenses.Cents != first.MTDExpenses.Cents {
		t.Fatalf("expected cached summary, got %d", cached.MTDExpenses.Cents)
	}

	svc.Invalidate("u1")
	fresh, _ := svc.Summary(ctx, "u1")
	if fresh.MTDExpenses.Cents != 3000 {
		t.Fatalf("after invalidation expenses = %d, want 3000", fresh.MTDExpenses.Cents)
	}
}

func TestDashboardUpcomingBills(t *testing.T) {
	ctx := context.Background()
	svc, store := newDashboardFixture(t, date(2025, 6, 17))

	seedBudget(t, store, core.Budget{
		ID: "rent", UserID: "u1", Name: "Rent", Category: "Housing",
		AllocatedAmount: core.Money{Cents: 100000}, Period: core.Monthly,
		IsRecurringBill: true, DueDateDay: 25,
	})
	seedBudget(t, store, core.Budget{
		ID: "gym", UserID: "u1", Name: "Gym", Category: "Health",
		AllocatedAmount: core.Money{Cents: 5000}, Period: core.Monthly,
		IsRecurringBill: true, DueDateDay: 10, // already passed, rolls to July
	})
	seedBudget(t, store, core.Budget{
		ID: "not-a-bill", UserID: "u1", Name: "Groceries", Category: "Groceries",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Monthly,
	})
	// Recurring flag and due day alone are not enough: only monthly bills
	// follow the month-by-month projection.
	seedBudget(t, store, core.Budget{
		ID: "not-monthly", UserID: "u1", Name: "Insurance", Category: "Insurance",
		AllocatedAmount: core.Money{Cents: 30000}, Period: core.Quarterly,
		IsRecurringBill: true, DueDateDay: 5,
	})

	// Rent paid this cycle.
	seedExpense(t, store, "e1", "u1", "Housing", 100000, date(2025, 6, 2))

	bills, err := svc.UpcomingBills(ctx, "u1")
	if err != nil {
		t.Fatalf("upcoming bills: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("bills = %d, want 2", len(bills))
	}

	// Soonest due first: rent on June 25, gym rolled to July 10.
	if bills[0].BudgetID != "rent" || !bills[0].DueDate.Equal(date(2025, 6, 25)) {
		t.Fatalf("first bill = %+v", bills[0])
	}
	if !bills[0].Paid {
		t.Error("rent should be marked paid")
	}
	if bills[1].BudgetID != "gym" || !bills[1].DueDate.Equal(date(2025, 7, 10)) {
		t.Fatalf("second bill = %+v", bills[1])
	}
	if bills[1].Paid {
		t.Error("gym should not be marked paid")
	}
}
