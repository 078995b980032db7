package http

import (
	"net/http"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := userID(r.Context())
	g, err := req.toGoal(user)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.goals.Create(r.Context(), g)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	goals, err := s.goals.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponses(goals))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	g, err := s.goals.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
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
	updated, err := s.goals.Update(r.Context(), user, r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusOK, toGoalResponse(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	if err := s.goals.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.dashboard.Invalidate(user)
	w.WriteHeader(http.StatusNoContent)
}

// handleAddGoalFunds moves money into a goal. Deposits clamp at the target;
// non-positive amounts are rejected without touching the goal.
func (s *Server) handleAddGoalFunds(w http.ResponseWriter, r *http.Request) {
	var req fundsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := req.toMoney()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user := userID(r.Context())
	funded, err := s.goals.AddFunds(r.Context(), user, r.PathValue("id"), amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.dashboard.Invalidate(user)
	writeJSON(w, http.StatusOK, toGoalResponse(funded))
}
