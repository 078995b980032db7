package services

import (
	"time"

	"fintrack/internal/core"
)

// paidThresholdPercent is how much of a bill's allocated amount an expense
// must cover before the bill counts as paid for the cycle.
const paidThresholdPercent = 80

// NextDueDate returns the next occurrence of a monthly bill's due day on or
// after today. The due day is clamped to the length of the month, so a bill
// due on the 31st falls on the 28th or 29th in February.
func NextDueDate(dueDay int, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	due := clampedDate(today.Year(), today.Month(), dueDay)
	if due.Before(today) {
		next := today.AddDate(0, 1, 0)
		due = clampedDate(next.Year(), next.Month(), dueDay)
	}
	return due
}

// BillPaid reports whether any single expense in the bill's category, dated
// in the due date's month, covers enough of the allocated amount.
func BillPaid(bill core.Budget, dueDate time.Time, transactions []core.Transaction) bool {
	key := core.CategoryKey(bill.Category)
	threshold := bill.AllocatedAmount.Cents * paidThresholdPercent / 100

	for _, tx := range transactions {
		if tx.Type != core.Expense {
			continue
		}
		if core.CategoryKey(tx.Category) != key {
			continue
		}
		if tx.Date.Year() != dueDate.Year() || tx.Date.Month() != dueDate.Month() {
			continue
		}
		if tx.Amount.Abs().Cents >= threshold {
			return true
		}
	}
	return false
}

func clampedDate(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
