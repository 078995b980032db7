package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

// MemoryStore is an in-memory Store used for tests and local development.
// It keeps creation order so listings are deterministic.
type MemoryStore struct {
	mu sync.RWMutex

	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	goals        map[string]core.Goal

	txOrder     []string
	budgetOrder []string
	goalOrder   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		goals:        make(map[string]core.Goal),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	s.txOrder = append(s.txOrder, tx.ID)
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, id := range s.txOrder {
		if tx, ok := s.transactions[id]; ok && tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *MemoryStore) ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	all, err := s.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, tx := range all {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return ErrNotFound
	}
	s.transactions[tx.ID] = tx
	return nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[id]
	if !ok || existing.UserID != userID {
		return ErrNotFound
	}
	delete(s.transactions, id)
	for i, txID := range s.txOrder {
		if txID == id {
			s.txOrder = append(s.txOrder[:i], s.txOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) SumExpensesInWindow(_ context.Context, userID, categoryKey string, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, tx := range s.transactions {
		if tx.UserID != userID || tx.Type != core.Expense {
			continue
		}
		if core.CategoryKey(tx.Category) != categoryKey {
			continue
		}
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		total += tx.Amount.Abs().Cents
	}
	return total, nil
}

func (s *MemoryStore) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	s.budgetOrder = append(s.budgetOrder, b.ID)
	return nil
}

func (s *MemoryStore) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, id := range s.budgetOrder {
		if b, ok := s.budgets[id]; ok && b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListBudgetsByCategoryKey(_ context.Context, userID, categoryKey string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, id := range s.budgetOrder {
		b, ok := s.budgets[id]
		if ok && b.UserID == userID && core.CategoryKey(b.Category) == categoryKey {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return ErrNotFound
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *MemoryStore) UpdateBudgetSpent(_ context.Context, userID, id string, spentCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	b.SpentAmount = core.Money{Cents: spentCents}
	s.budgets[id] = b
	return nil
}

func (s *MemoryStore) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[id]
	if !ok || existing.UserID != userID {
		return ErrNotFound
	}
	delete(s.budgets, id)
	for i, bID := range s.budgetOrder {
		if bID == id {
			s.budgetOrder = append(s.budgetOrder[:i], s.budgetOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	s.goalOrder = append(s.goalOrder, g.ID)
	return nil
}

func (s *MemoryStore) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, ErrNotFound
	}
	return g, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Goal
	for _, id := range s.goalOrder {
		if g, ok := s.goals[id]; ok && g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return ErrNotFound
	}
	s.goals[g.ID] = g
	return nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[id]
	if !ok || existing.UserID != userID {
		return ErrNotFound
	}
	delete(s.goals, id)
	for i, gID := range s.goalOrder {
		if gID == id {
			s.goalOrder = append(s.goalOrder[:i], s.goalOrder[i+1:]...)
			break
		}
	}
	return nil
}
