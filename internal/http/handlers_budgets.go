package http

import (
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := userID(r.Context())
	b, err := req.toBudget(user)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.budgets.Create(r.Context(), b)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Budget create failed",
			log.FieldUserID, user, log.FieldError, err.Error())
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	budgets, err := s.budgets.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponses(budgets))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	b, err := s.budgets.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd, err := req.toUpdate()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user := userID(r.Context())
	updated, err := s.budgets.Update(r.Context(), user, r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	if err := s.budgets.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.dashboard.Invalidate(user)
	w.WriteHeader(http.StatusNoContent)
}
