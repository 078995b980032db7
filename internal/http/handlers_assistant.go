package http

import (
	"errors"
	"net/http"

	"fintrack/internal/assistant"
	"fintrack/internal/log"
)

// writeAssistantError maps assistant failures: an unconfigured provider is
// 503, everything else is a 502 from the upstream model.
func (s *Server) writeAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, assistant.ErrNoAPIKey) {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	s.logger.ErrorContext(r.Context(), "Assistant call failed",
		log.FieldError, err.Error())
	writeError(w, http.StatusBadGateway, "assistant request failed")
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req assistant.CategorizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusUnprocessableEntity, "description is required")
		return
	}

	resp, err := s.assistant.CategorizeTransaction(r.Context(), req)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBudgetSuggestions(w http.ResponseWriter, r *http.Request) {
	var req assistant.BudgetSuggestionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MonthlyIncome == "" {
		writeError(w, http.StatusUnprocessableEntity, "monthly_income is required")
		return
	}

	resp, err := s.assistant.SuggestBudgets(r.Context(), req)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	var req assistant.SavingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SpendingData == "" {
		writeError(w, http.StatusUnprocessableEntity, "spending_data is required")
		return
	}

	resp, err := s.assistant.IdentifySavings(r.Context(), req)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
