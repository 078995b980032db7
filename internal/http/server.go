package http

import (
	"context"
	"net/http"
	"sync"

	"fintrack/internal/assistant"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Dependencies holds everything the server needs to handle requests.
type Dependencies struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Dashboard    *services.DashboardService
	Assistant    assistant.Provider
	Logger       *log.Logger
}

// Server is the JSON API server. It embeds http.Server so callers run it
// with ListenAndServe and stop it with Shutdown.
type Server struct {
	http.Server

	transactions *services.TransactionService
	budgets      *services.BudgetService
	goals        *services.GoalService
	dashboard    *services.DashboardService
	assistant    assistant.Provider
	logger       *log.Logger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		transactions: deps.Transactions,
		budgets:      deps.Budgets,
		goals:        deps.Goals,
		dashboard:    deps.Dashboard,
		assistant:    deps.Assistant,
		logger:       deps.Logger.WithComponent(log.ComponentHTTP),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     security.NewDetector(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /transactions", s.withUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", s.withUser(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/{id}", s.withUser(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withUser(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withUser(s.handleDeleteTransaction))

	mux.HandleFunc("POST /budgets", s.withUser(s.handleCreateBudget))
	mux.HandleFunc("GET /budgets", s.withUser(s.handleListBudgets))
	mux.HandleFunc("GET /budgets/{id}", s.withUser(s.handleGetBudget))
	mux.HandleFunc("PUT /budgets/{id}", s.withUser(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.withUser(s.handleDeleteBudget))

	mux.HandleFunc("POST /goals", s.withUser(s.handleCreateGoal))
	mux.HandleFunc("GET /goals", s.withUser(s.handleListGoals))
	mux.HandleFunc("GET /goals/{id}", s.withUser(s.handleGetGoal))
	mux.HandleFunc("PUT /goals/{id}", s.withUser(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /goals/{id}", s.withUser(s.handleDeleteGoal))
	mux.HandleFunc("POST /goals/{id}/funds", s.withUser(s.handleAddGoalFunds))

	mux.HandleFunc("GET /dashboard/summary", s.withUser(s.handleDashboardSummary))
	mux.HandleFunc("GET /dashboard/upcoming-bills", s.withUser(s.handleUpcomingBills))

	mux.HandleFunc("POST /assistant/categorize", s.withUser(s.handleCategorize))
	mux.HandleFunc("POST /assistant/budget-suggestions", s.withUser(s.handleBudgetSuggestions))
	mux.HandleFunc("POST /assistant/savings", s.withUser(s.handleSavings))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(deps.Logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(headers.Middleware(s.screenRequests(s.limitMutations(mux)))),
	}
	return s
}

// screenRequests logs requests matching known probe patterns. They are not
// blocked; the signal feeds monitoring.
func (s *Server) screenRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// limitMutations applies per-IP rate limiting to write requests. Reads are
// unthrottled; the dashboard cache absorbs those.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			clientIP := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter's cleanup goroutine and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
