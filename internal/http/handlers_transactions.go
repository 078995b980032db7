package http

import (
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := userID(r.Context())
	tx, err := req.toTransaction(user)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction create failed",
			log.FieldUserID, user, log.FieldError, err.Error())
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	filter, err := monthFilter(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txs, err := s.transactions.List(r.Context(), user, filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction list failed",
			log.FieldUserID, user, log.FieldError, err.Error())
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	tx, err := s.transactions.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := userID(r.Context())
	tx, err := req.toTransaction(user)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = r.PathValue("id")

	updated, err := s.transactions.Update(r.Context(), tx)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	if err := s.transactions.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.dashboard.Invalidate(user)
	w.WriteHeader(http.StatusNoContent)
}
