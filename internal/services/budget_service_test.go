package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newBudgetFixture(t *testing.T, now time.Time) (*BudgetService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := testLogger()
	recalc := NewSpendRecalculator(store, logger)
	recalc.now = fixedClock(now)
	return NewBudgetService(store, recalc, logger), store
}

func TestBudgetCreateSeedsSpentFromExistingTransactions(t *testing.T) {
	ctx := context.Background()
	svc, store := newBudgetFixture(t, date(2025, 6, 17))

	seedExpense(t, store, "t1", "u1", "Groceries", 3000, date(2025, 6, 5))
	seedExpense(t, store, "t2", "u1", "Groceries", 2000, date(2025, 5, 5)) // previous month

	created, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "Groceries June", Category: "Groceries",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Monthly,
		StartDate: datePtr(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SpentAmount.Cents != 3000 {
		t.Fatalf("seeded spent = %d, want 3000", created.SpentAmount.Cents)
	}
}

func TestBudgetCreateWithoutWindowKeepsZeroSpent(t *testing.T) {
	ctx := context.Background()
	svc, store := newBudgetFixture(t, date(2025, 6, 17))

	seedExpense(t, store, "t1", "u1", "Misc", 3000, date(2025, 6, 5))

	created, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "Quarterly misc", Category: "Misc",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Quarterly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SpentAmount.Cents != 0 {
		t.Fatalf("spent = %d, want 0 for untracked period", created.SpentAmount.Cents)
	}
}

func TestBudgetCreateRejectsInvalid(t *testing.T) {
	svc, _ := newBudgetFixture(t, date(2025, 6, 17))

	_, err := svc.Create(context.Background(), core.Budget{
		UserID: "u1", Name: "", Category: "c",
		AllocatedAmount: core.Money{Cents: 1}, Period: core.Monthly,
	})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestBudgetUpdateOptionalFieldSemantics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBudgetFixture(t, date(2025, 6, 17))

	start := date(2025, 6, 1)
	end := date(2025, 6, 30)
	created, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "Trip", Category: "Travel",
		AllocatedAmount: core.Money{Cents: 100000}, Period: core.Custom,
		StartDate: &start, EndDate: &end,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	base := BudgetUpdate{
		Name:            "Trip",
		Category:        "Travel",
		AllocatedAmount: core.Money{Cents: 100000},
		Period:          core.Custom,
	}

	// Absent fields leave stored dates alone.
	updated, err := svc.Update(ctx, "u1", created.ID, base)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StartDate == nil || !updated.StartDate.Equal(start) {
		t.Fatalf("absent start date should be kept, got %v", updated.StartDate)
	}
	if updated.EndDate == nil || !updated.EndDate.Equal(end) {
		t.Fatalf("absent end date should be kept, got %v", updated.EndDate)
	}

	// Present with a value replaces it.
	newEnd := date(2025, 7, 15)
	withNewEnd := base
	withNewEnd.EndDate = OptionalDate{Set: true, Value: &newEnd}
	updated, err = svc.Update(ctx, "u1", created.ID, withNewEnd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.EndDate == nil || !updated.EndDate.Equal(newEnd) {
		t.Fatalf("end date should be replaced, got %v", updated.EndDate)
	}

	// Present with null clears it; custom budgets then lose their window
	// but remain storable under a monthly period.
	cleared := base
	cleared.Period = core.Monthly
	cleared.StartDate = OptionalDate{Set: true, Value: nil}
	cleared.EndDate = OptionalDate{Set: true, Value: nil}
	updated, err = svc.Update(ctx, "u1", created.ID, cleared)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StartDate != nil || updated.EndDate != nil {
		t.Fatalf("dates should be cleared, got start=%v end=%v", updated.StartDate, updated.EndDate)
	}
}

func TestBudgetUpdateCategoryRecalculatesSpend(t *testing.T) {
	ctx := context.Background()
	svc, store := newBudgetFixture(t, date(2025, 6, 17))

	seedExpense(t, store, "t1", "u1", "Groceries", 3000, date(2025, 6, 5))
	seedExpense(t, store, "t2", "u1", "Dining", 4500, date(2025, 6, 6))

	created, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "Food", Category: "Groceries",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Monthly,
		StartDate: datePtr(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SpentAmount.Cents != 3000 {
		t.Fatalf("spent = %d, want 3000", created.SpentAmount.Cents)
	}

	updated, err := svc.Update(ctx, "u1", created.ID, BudgetUpdate{
		Name: "Food", Category: "Dining",
		AllocatedAmount: core.Money{Cents: 40000}, Period: core.Monthly,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SpentAmount.Cents != 4500 {
		t.Fatalf("spent after category change = %d, want 4500", updated.SpentAmount.Cents)
	}
}

func TestBudgetUpdateDueDateDay(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBudgetFixture(t, date(2025, 6, 17))

	created, err := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "Rent", Category: "Housing",
		AllocatedAmount: core.Money{Cents: 100000}, Period: core.Monthly,
		IsRecurringBill: true, DueDateDay: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, "u1", created.ID, BudgetUpdate{
		Name: "Rent", Category: "Housing",
		AllocatedAmount: core.Money{Cents: 100000}, Period: core.Monthly,
		IsRecurringBill: true,
		DueDateDay:      OptionalInt{Set: true, Value: 15},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DueDateDay != 15 {
		t.Fatalf("due day = %d, want 15", updated.DueDateDay)
	}

	// An invalid due day on a recurring bill is rejected.
	_, err = svc.Update(ctx, "u1", created.ID, BudgetUpdate{
		Name: "Rent", Category: "Housing",
		AllocatedAmount: core.Money{Cents: 100000}, Period: core.Monthly,
		IsRecurringBill: true,
		DueDateDay:      OptionalInt{Set: true, Value: 32},
	})
	if !errors.Is(err, core.ErrInvalidDueDateDay) {
		t.Fatalf("expected ErrInvalidDueDateDay, got %v", err)
	}
}

func TestBudgetDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBudgetFixture(t, date(2025, 6, 17))

	created, _ := svc.Create(ctx, core.Budget{
		UserID: "u1", Name: "g", Category: "Groceries",
		AllocatedAmount: core.Money{Cents: 1}, Period: core.Monthly,
	})

	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
