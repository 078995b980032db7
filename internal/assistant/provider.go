// Package assistant wraps the OpenAI chat API behind typed prompt/response
// methods for the finance advice flows.
package assistant

import "context"

// Provider defines the assistant methods used by the HTTP layer.
type Provider interface {
	CategorizeTransaction(ctx context.Context, req CategorizeRequest) (CategorizeResponse, error)
	SuggestBudgets(ctx context.Context, req BudgetSuggestionRequest) (BudgetSuggestionResponse, error)
	IdentifySavings(ctx context.Context, req SavingsRequest) (SavingsResponse, error)
}

// CategorizeRequest describes a transaction to be categorized.
type CategorizeRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type CategorizeResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// BudgetSuggestionRequest carries the user's income and a free-text
// description of their spending habits.
type BudgetSuggestionRequest struct {
	MonthlyIncome  string `json:"monthly_income"`
	SpendingHabits string `json:"spending_habits"`
}

type BudgetSuggestionResponse struct {
	SuggestedBudgets string `json:"suggested_budgets"`
}

// SavingsRequest carries a description of recent spending and, optionally,
// the user's savings goals.
type SavingsRequest struct {
	SpendingData string `json:"spending_data"`
	Goals        string `json:"goals,omitempty"`
}

type SavingsOpportunity struct {
	Area             string `json:"area"`
	Suggestion       string `json:"suggestion"`
	PotentialSavings string `json:"potential_savings"`
}

type SavingsResponse struct {
	SavingsOpportunities  []SavingsOpportunity `json:"savings_opportunities"`
	TotalPotentialSavings string               `json:"total_potential_savings"`
}
