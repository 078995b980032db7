// Response payloads and status mapping. All amounts render as decimal
// strings via core.Money.Decimal.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps a service error onto the API status vocabulary:
// missing records are 404, validation failures 422, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case core.IsValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type transactionResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Date:        tx.Date.Format(dateLayout),
		Description: tx.Description,
		Category:    tx.Category,
		Amount:      tx.Amount.Decimal(),
		Type:        string(tx.Type),
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

type budgetResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	AllocatedAmount string  `json:"allocated_amount"`
	SpentAmount     string  `json:"spent_amount"`
	Period          string  `json:"period"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	IsRecurringBill bool    `json:"is_recurring_bill"`
	DueDateDay      int     `json:"due_date_day,omitempty"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:              b.ID,
		Name:            b.Name,
		Category:        b.Category,
		AllocatedAmount: b.AllocatedAmount.Decimal(),
		SpentAmount:     b.SpentAmount.Decimal(),
		Period:          string(b.Period),
		StartDate:       formatDatePtr(b.StartDate),
		EndDate:         formatDatePtr(b.EndDate),
		IsRecurringBill: b.IsRecurringBill,
		DueDateDay:      b.DueDateDay,
	}
}

func toBudgetResponses(budgets []core.Budget) []budgetResponse {
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	return out
}

type goalResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  string  `json:"target_amount"`
	CurrentAmount string  `json:"current_amount"`
	TargetDate    *string `json:"target_date"`
	Description   string  `json:"description"`
}

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.Decimal(),
		CurrentAmount: g.CurrentAmount.Decimal(),
		TargetDate:    formatDatePtr(g.TargetDate),
		Description:   g.Description,
	}
}

func toGoalResponses(goals []core.Goal) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	return out
}

type categoryAmountResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type monthFlowResponse struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

type summaryResponse struct {
	Balance         string                   `json:"balance"`
	MTDIncome       string                   `json:"mtd_income"`
	MTDExpenses     string                   `json:"mtd_expenses"`
	SavingsProgress int                      `json:"savings_progress"`
	ByCategory      []categoryAmountResponse `json:"by_category"`
	Monthly         []monthFlowResponse      `json:"monthly"`
}

func toSummaryResponse(s core.DashboardSummary) summaryResponse {
	resp := summaryResponse{
		Balance:         s.Balance.Decimal(),
		MTDIncome:       s.MTDIncome.Decimal(),
		MTDExpenses:     s.MTDExpenses.Decimal(),
		SavingsProgress: s.SavingsProgress,
		ByCategory:      make([]categoryAmountResponse, 0, len(s.ByCategory)),
		Monthly:         make([]monthFlowResponse, 0, len(s.Monthly)),
	}
	for _, c := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{
			Name:   c.Name,
			Amount: c.Amount.Decimal(),
		})
	}
	for _, m := range s.Monthly {
		resp.Monthly = append(resp.Monthly, monthFlowResponse{
			Year:     m.Year,
			Month:    m.Month,
			Income:   m.Income.Decimal(),
			Expenses: m.Expenses.Decimal(),
		})
	}
	return resp
}

type upcomingBillResponse struct {
	BudgetID string `json:"budget_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	DueDate  string `json:"due_date"`
	Paid     bool   `json:"paid"`
}

func toUpcomingBillResponses(bills []core.UpcomingBill) []upcomingBillResponse {
	out := make([]upcomingBillResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, upcomingBillResponse{
			BudgetID: b.BudgetID,
			Name:     b.Name,
			Category: b.Category,
			Amount:   b.Amount.Decimal(),
			DueDate:  b.DueDate.Format(dateLayout),
			Paid:     b.Paid,
		})
	}
	return out
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
