package storage

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

// Store is the persistence surface for all finance records. Every read and
// write is scoped to a single owning user; implementations must never let a
// record leak across user boundaries.
type Store interface {
	TransactionStore
	BudgetStore
	GoalStore

	Close() error
}

// TransactionStore persists income and expense records.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	// ListTransactions returns the user's transactions ordered by date
	// descending, newest first.
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	// ListTransactionsInRange returns the user's transactions dated inside
	// [from, to] inclusive, ordered like ListTransactions.
	ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	// SumExpensesInWindow returns the sum of absolute amounts of expense
	// transactions whose canonical category matches categoryKey and whose
	// date falls inside [from, to] inclusive.
	SumExpensesInWindow(ctx context.Context, userID, categoryKey string, from, to time.Time) (int64, error)
}

// BudgetStore persists budget envelopes and recurring bills.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	// ListBudgetsByCategoryKey returns budgets whose canonical category
	// matches categoryKey.
	ListBudgetsByCategoryKey(ctx context.Context, userID, categoryKey string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	// UpdateBudgetSpent overwrites the derived spent amount only, leaving
	// the rest of the budget untouched.
	UpdateBudgetSpent(ctx context.Context, userID, id string, spentCents int64) error
	DeleteBudget(ctx context.Context, userID, id string) error
}

// GoalStore persists savings goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, g core.Goal) error
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, userID, id string) error
}
