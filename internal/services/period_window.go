// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for resolving the date window a
// budget tracks. Each budget period has its own resolver that encapsulates
// the logic for computing the window bounds.

package services

import (
	"time"

	"fintrack/internal/core"
)

// WindowOutcome describes whether a budget produced a usable tracking window.
type WindowOutcome string

const (
	// WindowOK means the window bounds were resolved.
	WindowOK WindowOutcome = "ok"
	// WindowMissingDates means a custom budget lacks the explicit dates it needs.
	WindowMissingDates WindowOutcome = "missing_dates"
	// WindowUnsupportedPeriod means spend tracking is not defined for the period.
	WindowUnsupportedPeriod WindowOutcome = "unsupported_period"
)

// Window is an inclusive date range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// WindowResolver is the strategy interface for computing a budget's tracking
// window from its period type and anchor dates. The reference instant is
// passed through for period types that need it.
type WindowResolver interface {
	Resolve(b core.Budget, ref time.Time) (Window, WindowOutcome)
}

// MonthlyWindowResolver resolves to the calendar month containing the
// budget's start date. A monthly budget without a start date has an
// indeterminate window and is skipped rather than recalculated.
type MonthlyWindowResolver struct{}

func (MonthlyWindowResolver) Resolve(b core.Budget, _ time.Time) (Window, WindowOutcome) {
	if b.StartDate == nil {
		return Window{}, WindowMissingDates
	}
	return MonthWindow(b.StartDate.Year(), b.StartDate.Month()), WindowOK
}

// CustomWindowResolver resolves to the budget's explicit start and end dates.
type CustomWindowResolver struct{}

func (CustomWindowResolver) Resolve(b core.Budget, _ time.Time) (Window, WindowOutcome) {
	if b.StartDate == nil || b.EndDate == nil {
		return Window{}, WindowMissingDates
	}
	return Window{From: dayStart(*b.StartDate), To: dayEnd(*b.EndDate)}, WindowOK
}

// UnsupportedWindowResolver marks a period as having no defined spend window.
// Quarterly and yearly budgets can be stored but their spend is not tracked.
type UnsupportedWindowResolver struct{}

func (UnsupportedWindowResolver) Resolve(core.Budget, time.Time) (Window, WindowOutcome) {
	return Window{}, WindowUnsupportedPeriod
}

// windowResolvers maps budget periods to their corresponding resolvers.
var windowResolvers = map[core.BudgetPeriod]WindowResolver{
	core.Monthly:   MonthlyWindowResolver{},
	core.Custom:    CustomWindowResolver{},
	core.Quarterly: UnsupportedWindowResolver{},
	core.Yearly:    UnsupportedWindowResolver{},
}

// ResolveWindow computes the tracking window for a budget. An unknown period
// is reported the same way as a known-but-untracked one.
func ResolveWindow(b core.Budget, ref time.Time) (Window, WindowOutcome) {
	resolver, ok := windowResolvers[b.Period]
	if !ok {
		return Window{}, WindowUnsupportedPeriod
	}
	return resolver.Resolve(b, ref)
}

// MonthWindow returns the inclusive window covering a whole calendar month.
func MonthWindow(year int, month time.Month) Window {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Window{From: from, To: to}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return dayStart(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
