package http

import (
	"context"
	"net/http"
)

// userHeader carries the authenticated user identity. Authentication itself
// is terminated upstream by the identity-aware proxy; this service trusts
// the header it injects.
const userHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// userID extracts the authenticated user from the request context.
func userID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// withUser rejects requests without an identity header and stores the user
// ID in the request context for handlers.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(userHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		next(w, r.WithContext(ctx))
	}
}
