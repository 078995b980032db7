package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalUpdate carries the new state for a savings goal. CurrentAmount is not
// updatable here; funds move only through AddFunds.
type GoalUpdate struct {
	Name         string
	TargetAmount core.Money
	TargetDate   OptionalDate
	Description  string
}

// GoalService manages savings goals.
type GoalService struct {
	store  storage.Store
	logger *log.Logger
}

func NewGoalService(store storage.Store, logger *log.Logger) *GoalService {
	return &GoalService{
		store:  store,
		logger: logger.WithComponent(log.ComponentGoal),
	}
}

func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	s.logger.InfoContext(ctx, "Goal created",
		log.FieldGoalID, g.ID,
		log.FieldUserID, g.UserID)
	return g, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (core.Goal, error) {
	return s.store.GetGoal(ctx, userID, id)
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, userID)
}

// Update replaces a goal's descriptive fields. If the new target is below the
// saved amount the update is rejected by validation rather than clamping.
func (s *GoalService) Update(ctx context.Context, userID, id string, upd GoalUpdate) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}

	g.Name = upd.Name
	g.TargetAmount = upd.TargetAmount
	g.Description = upd.Description
	if upd.TargetDate.Set {
		g.TargetDate = upd.TargetDate.Value
	}

	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}

	s.logger.InfoContext(ctx, "Goal updated",
		log.FieldGoalID, id,
		log.FieldUserID, userID)
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Goal deleted",
		log.FieldGoalID, id,
		log.FieldUserID, userID)
	return nil
}

// AddFunds moves a positive amount into the goal, clamping at the target so
// the saved amount never exceeds it.
func (s *GoalService) AddFunds(ctx context.Context, userID, id string, amount core.Money) (core.Goal, error) {
	if amount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}

	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}

	funded := g.CurrentAmount.Cents + amount.Cents
	if funded > g.TargetAmount.Cents {
		funded = g.TargetAmount.Cents
	}
	g.CurrentAmount = core.Money{Cents: funded}

	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("add funds: %w", err)
	}

	s.logger.InfoContext(ctx, "Goal funded",
		log.FieldGoalID, id,
		log.FieldUserID, userID,
		log.FieldAmountCents, amount.Cents)
	return g, nil
}
