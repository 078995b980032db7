package http

import (
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	summary, err := s.dashboard.Summary(r.Context(), user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard summary failed",
			log.FieldUserID, user, log.FieldError, err.Error())
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleUpcomingBills(w http.ResponseWriter, r *http.Request) {
	user := userID(r.Context())
	bills, err := s.dashboard.UpcomingBills(r.Context(), user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Upcoming bills failed",
			log.FieldUserID, user, log.FieldError, err.Error())
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUpcomingBillResponses(bills))
}
