package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// OptionalDate is a three-state update field: absent leaves the stored value
// alone, present with a value sets it, present with null clears it.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

// OptionalInt mirrors OptionalDate for integer fields; clearing stores zero.
type OptionalInt struct {
	Set   bool
	Value int
}

// BudgetUpdate carries the new state for a budget. Required fields replace
// the stored ones; optional fields follow the three-state semantics above.
type BudgetUpdate struct {
	Name            string
	Category        string
	AllocatedAmount core.Money
	Period          core.BudgetPeriod
	IsRecurringBill bool
	StartDate       OptionalDate
	EndDate         OptionalDate
	DueDateDay      OptionalInt
}

// BudgetService manages budget envelopes. The spent amount is derived state:
// it is seeded on create and overwritten on every recalculation, never
// accepted from the caller.
type BudgetService struct {
	store  storage.Store
	recalc *SpendRecalculator
	logger *log.Logger
}

func NewBudgetService(store storage.Store, recalc *SpendRecalculator, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:  store,
		recalc: recalc,
		logger: logger.WithComponent(log.ComponentBudget),
	}
}

// Create validates and persists a new budget, then seeds its spent amount
// from the transactions already inside its window.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	b.SpentAmount = core.Money{}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if err := s.store.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	s.recalc.RecalculateBudget(ctx, b)

	created, err := s.store.GetBudget(ctx, b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("reload budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget created",
		log.FieldBudgetID, created.ID,
		log.FieldUserID, created.UserID,
		log.FieldCategory, created.Category,
		log.FieldSpentCents, created.SpentAmount.Cents)
	return created, nil
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

// Update applies the new state and recalculates the spent amount, since the
// category or window may have changed.
func (s *BudgetService) Update(ctx context.Context, userID, id string, upd BudgetUpdate) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}

	b.Name = upd.Name
	b.Category = upd.Category
	b.AllocatedAmount = upd.AllocatedAmount
	b.Period = upd.Period
	b.IsRecurringBill = upd.IsRecurringBill
	if upd.StartDate.Set {
		b.StartDate = upd.StartDate.Value
	}
	if upd.EndDate.Set {
		b.EndDate = upd.EndDate.Value
	}
	if upd.DueDateDay.Set {
		b.DueDateDay = upd.DueDateDay.Value
	}

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}

	s.recalc.RecalculateBudget(ctx, b)

	updated, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("reload budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget updated",
		log.FieldBudgetID, id,
		log.FieldUserID, userID,
		log.FieldCategory, updated.Category)
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget deleted",
		log.FieldBudgetID, id,
		log.FieldUserID, userID)
	return nil
}
