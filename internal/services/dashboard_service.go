package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// monthsOfHistory is how many months the dashboard cashflow series spans,
// current month included.
const monthsOfHistory = 6

// DashboardService derives the overview numbers from the user's records.
// Summaries are cached per user and invalidated on every mutation.
type DashboardService struct {
	store  storage.Store
	cache  *cache.LRUCache[core.DashboardSummary]
	logger *log.Logger
	now    func() time.Time
}

func NewDashboardService(store storage.Store, summaryCache *cache.LRUCache[core.DashboardSummary], logger *log.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		cache:  summaryCache,
		logger: logger.WithComponent(log.ComponentDashboard),
		now:    time.Now,
	}
}

// Invalidate drops the cached summary for a user. Called after any write to
// the user's transactions, budgets or goals.
func (s *DashboardService) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}

// Summary computes the dashboard overview for a user.
func (s *DashboardService) Summary(ctx context.Context, userID string) (core.DashboardSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(userID); ok {
			s.logger.DebugContext(ctx, "Dashboard summary cache hit", log.FieldUserID, userID)
			return cached, nil
		}
	}

	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list goals: %w", err)
	}

	now := s.now()
	summary := core.DashboardSummary{
		Balance:         balanceOf(transactions),
		MTDIncome:       monthIncome(transactions, now.Year(), now.Month()),
		MTDExpenses:     monthExpenses(transactions, now.Year(), now.Month()),
		SavingsProgress: savingsProgress(goals),
		ByCategory:      categorySpending(transactions, now.Year(), now.Month()),
		Monthly:         monthlySeries(transactions, now),
	}

	if s.cache != nil {
		s.cache.Set(userID, summary)
	}
	return summary, nil
}

// UpcomingBills lists the user's recurring bills with their next due date and
// whether they look paid for that cycle, soonest due first.
func (s *DashboardService) UpcomingBills(ctx context.Context, userID string) ([]core.UpcomingBill, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	now := s.now()
	var bills []core.UpcomingBill
	for _, b := range budgets {
		// Projection assumes one occurrence per calendar month, so only
		// monthly bills with a usable due day are listed.
		if !b.IsRecurringBill || b.Period != core.Monthly || b.DueDateDay < 1 || b.DueDateDay > 31 {
			continue
		}
		due := NextDueDate(b.DueDateDay, now)
		bills = append(bills, core.UpcomingBill{
			BudgetID: b.ID,
			Name:     b.Name,
			Category: b.Category,
			Amount:   b.AllocatedAmount,
			DueDate:  due,
			Paid:     BillPaid(b, due, transactions),
		})
	}

	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].DueDate.Before(bills[j].DueDate)
	})
	return bills, nil
}

func balanceOf(transactions []core.Transaction) core.Money {
	var total int64
	for _, tx := range transactions {
		total += tx.Amount.Cents
	}
	return core.Money{Cents: total}
}

func monthIncome(transactions []core.Transaction, year int, month time.Month) core.Money {
	var total int64
	for _, tx := range transactions {
		if tx.Type == core.Income && tx.Date.Year() == year && tx.Date.Month() == month {
			total += tx.Amount.Cents
		}
	}
	return core.Money{Cents: total}
}

func monthExpenses(transactions []core.Transaction, year int, month time.Month) core.Money {
	var total int64
	for _, tx := range transactions {
		if tx.Type == core.Expense && tx.Date.Year() == year && tx.Date.Month() == month {
			total += tx.Amount.Abs().Cents
		}
	}
	return core.Money{Cents: total}
}

// savingsProgress returns aggregate goal completion as a whole percentage.
func savingsProgress(goals []core.Goal) int {
	var current, target int64
	for _, g := range goals {
		current += g.CurrentAmount.Cents
		target += g.TargetAmount.Cents
	}
	if target == 0 {
		return 0
	}
	return int(current * 100 / target)
}

// categorySpending groups the month's expenses by canonical category. The
// display name is taken from the most recent transaction in each group.
func categorySpending(transactions []core.Transaction, year int, month time.Month) []core.CategoryAmount {
	totals := make(map[string]int64)
	names := make(map[string]string)
	for _, tx := range transactions {
		if tx.Type != core.Expense || tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		key := core.CategoryKey(tx.Category)
		totals[key] += tx.Amount.Abs().Cents
		if _, seen := names[key]; !seen {
			names[key] = tx.Category
		}
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for key, cents := range totals {
		out = append(out, core.CategoryAmount{Name: names[key], Amount: core.Money{Cents: cents}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// monthlySeries returns income and expense totals for the trailing months,
// oldest first, current month last.
func monthlySeries(transactions []core.Transaction, now time.Time) []core.MonthFlow {
	series := make([]core.MonthFlow, 0, monthsOfHistory)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsOfHistory - 1), 0)
	for i := 0; i < monthsOfHistory; i++ {
		m := first.AddDate(0, i, 0)
		series = append(series, core.MonthFlow{
			Year:     m.Year(),
			Month:    int(m.Month()),
			Income:   monthIncome(transactions, m.Year(), m.Month()),
			Expenses: monthExpenses(transactions, m.Year(), m.Month()),
		})
	}
	return series
}
