package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthFlow is the income/expense total for one calendar month.
type MonthFlow struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
}

// DashboardSummary is the aggregated view backing the dashboard page.
type DashboardSummary struct {
	Balance         Money
	MTDIncome       Money
	MTDExpenses     Money
	SavingsProgress int // 0-100, sum of goal progress across all goals
	ByCategory      []CategoryAmount
	Monthly         []MonthFlow
}

// UpcomingBill is the projected next occurrence of a recurring bill.
type UpcomingBill struct {
	BudgetID string
	Name     string
	Category string
	Amount   Money
	DueDate  time.Time
	Paid     bool
}
