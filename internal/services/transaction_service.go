package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// EventPublisher publishes transaction change notifications for downstream
// consumers such as the sheets export worker.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

// TransactionService orchestrates transaction writes: persistence, budget
// spend recalculation and change event publishing. Recalculation and event
// publishing are best-effort; only the store write can fail the request.
type TransactionService struct {
	store     storage.Store
	recalc    *SpendRecalculator
	publisher EventPublisher
	logger    *log.Logger
}

func NewTransactionService(store storage.Store, recalc *SpendRecalculator, publisher EventPublisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		recalc:    recalc,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentTransaction),
	}
}

// Create validates and persists a new transaction, then recalculates budgets
// tracking its category.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.recalc.RecalculateCategory(ctx, tx.UserID, tx.Category)
	s.publishEvent(ctx, amqp.ActionCreated, tx)

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, tx.ID,
		log.FieldUserID, tx.UserID,
		log.FieldCategory, tx.Category,
		log.FieldAmountCents, tx.Amount.Cents)
	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// MonthFilter narrows a transaction listing to one calendar month.
type MonthFilter struct {
	Year  int
	Month time.Month
}

// List returns the user's transactions, newest first. A nil filter returns
// everything; otherwise only the filtered month's transactions.
func (s *TransactionService) List(ctx context.Context, userID string, filter *MonthFilter) ([]core.Transaction, error) {
	if filter == nil {
		return s.store.ListTransactions(ctx, userID)
	}
	window := MonthWindow(filter.Year, filter.Month)
	return s.store.ListTransactionsInRange(ctx, userID, window.From, window.To)
}

// Update replaces a transaction's mutable fields. Budgets tracking the new
// category are always recalculated; budgets tracking the original category
// are recalculated too when the category or type changed, so amounts moved
// out of a category stop counting against it.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	original, err := s.store.GetTransaction(ctx, tx.UserID, tx.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.recalc.RecalculateCategory(ctx, tx.UserID, tx.Category)
	categoryChanged := core.CategoryKey(original.Category) != core.CategoryKey(tx.Category)
	if categoryChanged || original.Type != tx.Type {
		s.recalc.RecalculateCategory(ctx, tx.UserID, original.Category)
	}
	s.publishEvent(ctx, amqp.ActionUpdated, tx)

	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldTransactionID, tx.ID,
		log.FieldUserID, tx.UserID,
		log.FieldCategory, tx.Category)
	return tx, nil
}

// Delete removes a transaction and recalculates budgets tracking its category.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	original, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.recalc.RecalculateCategory(ctx, userID, original.Category)
	s.publishEvent(ctx, amqp.ActionDeleted, original)

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldUserID, userID,
		log.FieldCategory, original.Category)
	return nil
}

func (s *TransactionService) publishEvent(ctx context.Context, action string, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	msg := &amqp.TransactionEventMessage{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Action:        action,
		Date:          tx.Date,
		Description:   tx.Description,
		Category:      tx.Category,
		AmountCents:   tx.Amount.Cents,
		Type:          string(tx.Type),
		Timestamp:     time.Now(),
	}
	if err := s.publisher.PublishTransactionEvent(ctx, msg); err != nil {
		// The record is saved; a lost event only delays the export mirror.
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, tx.ID,
			log.FieldOperation, action,
			log.FieldError, err.Error())
	}
}
