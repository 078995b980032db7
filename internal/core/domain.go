package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Monthly   BudgetPeriod = "Monthly"
	Quarterly BudgetPeriod = "Quarterly"
	Yearly    BudgetPeriod = "Yearly"
	Custom    BudgetPeriod = "Custom"
)

type (
	TransactionType string

	BudgetPeriod string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense entry. Amount is signed:
	// positive for income, negative for expense, matching Type.
	Transaction struct {
		ID          string
		UserID      string
		Date        time.Time
		Description string
		Category    string
		Amount      Money
		Type        TransactionType
	}

	// Budget tracks spending in one category over a period. SpentAmount is
	// derived from the matching expense transactions and overwritten on every
	// recalculation, never incremented.
	Budget struct {
		ID              string
		UserID          string
		Name            string
		Category        string
		AllocatedAmount Money
		SpentAmount     Money
		Period          BudgetPeriod
		StartDate       *time.Time
		EndDate         *time.Time
		IsRecurringBill bool
		DueDateDay      int // 1-31, only meaningful with IsRecurringBill and Monthly
	}

	// Goal is a savings target funded by explicit deposits. CurrentAmount is
	// clamped to TargetAmount on deposit.
	Goal struct {
		ID            string
		UserID        string
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    *time.Time
		Description   string
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidDueDateDay  = errors.New("due date day must be between 1 and 31")
	ErrAmountTypeMismatch = errors.New("amount sign does not match transaction type")
)

// validationError marks Validate failures that have no dedicated sentinel.
type validationError string

func (e validationError) Error() string { return string(e) }

// IsValidationError reports whether err comes from domain validation, as
// opposed to a storage or infrastructure failure. The HTTP layer uses this
// to choose between 422 and 500.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidAmount, ErrEmptyDescription, ErrEmptyCategory, ErrEmptyName,
		ErrInvalidType, ErrInvalidPeriod, ErrInvalidDueDateDay, ErrAmountTypeMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var v validationError
	return errors.As(err, &v)
}

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// IsValid reports whether p is one of the known budget periods.
func (p BudgetPeriod) IsValid() bool {
	switch p {
	case Monthly, Quarterly, Yearly, Custom:
		return true
	default:
		return false
	}
}

// CategoryKey returns the canonical matching key for a category label.
// Transactions and budgets are associated by this key, so "Groceries" and
// " groceries " land in the same bucket.
func CategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func (tx Transaction) Validate() error {
	if tx.Date.IsZero() {
		return validationError("date cannot be zero")
	}
	if len(strings.TrimSpace(tx.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(tx.Description) > 200 {
		return validationError("description too long (max 200 characters)")
	}
	if len(strings.TrimSpace(tx.Category)) == 0 {
		return ErrEmptyCategory
	}
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if tx.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if tx.Type == Income && tx.Amount.Cents < 0 {
		return ErrAmountTypeMismatch
	}
	if tx.Type == Expense && tx.Amount.Cents > 0 {
		return ErrAmountTypeMismatch
	}
	return nil
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(strings.TrimSpace(b.Category)) == 0 {
		return ErrEmptyCategory
	}
	if b.AllocatedAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if b.SpentAmount.Cents < 0 {
		return validationError("spent amount cannot be negative")
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		return validationError("end date must not be before start date")
	}
	if b.IsRecurringBill && b.Period == Monthly {
		if b.DueDateDay < 1 || b.DueDateDay > 31 {
			return ErrInvalidDueDateDay
		}
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents < 0 {
		return validationError("current amount cannot be negative")
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return validationError("current amount cannot exceed target amount")
	}
	return nil
}
