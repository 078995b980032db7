package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// SpendRecalculator keeps budget spent amounts in sync with the transactions
// that fall inside each budget's tracking window. Recalculation is a full
// overwrite, so running it twice in a row is a no-op.
type SpendRecalculator struct {
	store  storage.Store
	logger *log.Logger
	now    func() time.Time
}

func NewSpendRecalculator(store storage.Store, logger *log.Logger) *SpendRecalculator {
	return &SpendRecalculator{
		store:  store,
		logger: logger.WithComponent(log.ComponentRecalc),
		now:    time.Now,
	}
}

// RecalculateCategory recomputes the spent amount of every budget of the user
// whose canonical category matches the given category. Failures are logged
// and swallowed so a recalculation problem never fails the transaction
// mutation that triggered it.
func (r *SpendRecalculator) RecalculateCategory(ctx context.Context, userID, category string) {
	key := core.CategoryKey(category)
	if key == "" {
		return
	}

	budgets, err := r.store.ListBudgetsByCategoryKey(ctx, userID, key)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list budgets for recalculation",
			log.FieldUserID, userID,
			log.FieldCategoryKey, key,
			log.FieldError, err.Error())
		return
	}

	for _, b := range budgets {
		r.recalculateBudget(ctx, b)
	}
}

// RecalculateBudget recomputes a single budget's spent amount. Used when a
// budget itself is created or its category or window changes.
func (r *SpendRecalculator) RecalculateBudget(ctx context.Context, b core.Budget) {
	r.recalculateBudget(ctx, b)
}

func (r *SpendRecalculator) recalculateBudget(ctx context.Context, b core.Budget) {
	window, outcome := ResolveWindow(b, r.now())
	if outcome != WindowOK {
		r.logger.InfoContext(ctx, "Skipping spend recalculation",
			log.FieldBudgetID, b.ID,
			log.FieldPeriod, string(b.Period),
			log.FieldWindowOutcome, string(outcome))
		return
	}

	key := core.CategoryKey(b.Category)
	total, err := r.store.SumExpensesInWindow(ctx, b.UserID, key, window.From, window.To)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to sum expenses for budget",
			log.FieldBudgetID, b.ID,
			log.FieldCategoryKey, key,
			log.FieldError, err.Error())
		return
	}

	if err := r.store.UpdateBudgetSpent(ctx, b.UserID, b.ID, total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to store recalculated spend",
			log.FieldBudgetID, b.ID,
			log.FieldSpentCents, total,
			log.FieldError, err.Error())
		return
	}

	r.logger.DebugContext(ctx, "Budget spend recalculated",
		log.FieldBudgetID, b.ID,
		log.FieldCategoryKey, key,
		log.FieldSpentCents, total)
}
