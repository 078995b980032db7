package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/assistant"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// fakeAssistant returns canned responses, or a fixed error when set.
type fakeAssistant struct {
	err error
}

func (f *fakeAssistant) CategorizeTransaction(context.Context, assistant.CategorizeRequest) (assistant.CategorizeResponse, error) {
	if f.err != nil {
		return assistant.CategorizeResponse{}, f.err
	}
	return assistant.CategorizeResponse{Category: "Groceries", Confidence: 0.9}, nil
}

func (f *fakeAssistant) SuggestBudgets(context.Context, assistant.BudgetSuggestionRequest) (assistant.BudgetSuggestionResponse, error) {
	if f.err != nil {
		return assistant.BudgetSuggestionResponse{}, f.err
	}
	return assistant.BudgetSuggestionResponse{SuggestedBudgets: "Groceries: 400.00"}, nil
}

func (f *fakeAssistant) IdentifySavings(context.Context, assistant.SavingsRequest) (assistant.SavingsResponse, error) {
	if f.err != nil {
		return assistant.SavingsResponse{}, f.err
	}
	return assistant.SavingsResponse{TotalPotentialSavings: "120.00"}, nil
}

func newTestServer(t *testing.T, provider assistant.Provider) *Server {
	t.Helper()

	store := storage.NewMemoryStore()
	logger := testLogger()
	recalc := services.NewSpendRecalculator(store, logger)
	summaryCache := cache.NewLRUCache[core.DashboardSummary](10, time.Minute)

	if provider == nil {
		provider = &fakeAssistant{}
	}

	s := NewServer(":0", Dependencies{
		Transactions: services.NewTransactionService(store, recalc, nil, logger),
		Budgets:      services.NewBudgetService(store, recalc, logger),
		Goals:        services.NewGoalService(store, logger),
		Dashboard:    services.NewDashboardService(store, summaryCache, logger),
		Assistant:    provider,
		Logger:       logger,
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body, user string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return l
}

func TestHealthEndpointsSkipAuth(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestMissingUserHeaderRejected(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/transactions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if m := decodeMap(t, rec); m["error"] == "" {
		t.Fatal("expected error message in body")
	}
}

func TestTransactionLifecycleUpdatesBudgetSpend(t *testing.T) {
	s := newTestServer(t, nil)
	today := time.Now().UTC().Format(dateLayout)

	rec := doRequest(t, s, http.MethodPost, "/budgets",
		fmt.Sprintf(`{"name":"Food","category":"Groceries","allocated_amount":"400.00","period":"Monthly","start_date":%q}`, today), "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget = %d: %s", rec.Code, rec.Body.String())
	}
	budgetID := decodeMap(t, rec)["id"].(string)

	rec = doRequest(t, s, http.MethodPost, "/transactions",
		fmt.Sprintf(`{"date":%q,"description":"weekly shop","category":"groceries","amount":"50.00","type":"expense"}`, today), "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction = %d: %s", rec.Code, rec.Body.String())
	}
	tx := decodeMap(t, rec)
	if tx["amount"] != "-50.00" {
		t.Errorf("amount = %v, want -50.00 (expense sign applied)", tx["amount"])
	}
	txID := tx["id"].(string)

	rec = doRequest(t, s, http.MethodGet, "/budgets/"+budgetID, "", "u1")
	if got := decodeMap(t, rec)["spent_amount"]; got != "50.00" {
		t.Errorf("spent_amount after create = %v, want 50.00", got)
	}

	// Moving the transaction to another category releases the spend.
	rec = doRequest(t, s, http.MethodPut, "/transactions/"+txID,
		fmt.Sprintf(`{"date":%q,"description":"dinner out","category":"Dining","amount":"50.00","type":"expense"}`, today), "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("update transaction = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, s, http.MethodGet, "/budgets/"+budgetID, "", "u1")
	if got := decodeMap(t, rec)["spent_amount"]; got != "0.00" {
		t.Errorf("spent_amount after category move = %v, want 0.00", got)
	}

	rec = doRequest(t, s, http.MethodDelete, "/transactions/"+txID, "", "u1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete transaction = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/transactions/"+txID, "", "u1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted transaction = %d, want 404", rec.Code)
	}
}

func TestTransactionValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "non numeric amount",
			body: `{"date":"2025-06-10","description":"x","category":"misc","amount":"abc","type":"expense"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "negative amount string",
			body: `{"date":"2025-06-10","description":"x","category":"misc","amount":"-5.00","type":"expense"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown transaction type",
			body: `{"date":"2025-06-10","description":"x","category":"misc","amount":"5.00","type":"transfer"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: `{"date":"10/06/2025","description":"x","category":"misc","amount":"5.00","type":"expense"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "empty description",
			body: `{"date":"2025-06-10","description":"  ","category":"misc","amount":"5.00","type":"expense"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown field",
			body: `{"date":"2025-06-10","description":"x","category":"misc","amount":"5.00","type":"expense","extra":1}`,
			want: http.StatusBadRequest,
		},
		{
			name: "not json",
			body: `date=2025-06-10`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/transactions", tt.body, "u1")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTransactionListMonthFilter(t *testing.T) {
	s := newTestServer(t, nil)

	doRequest(t, s, http.MethodPost, "/transactions",
		`{"date":"2025-05-20","description":"may shop","category":"Groceries","amount":"10.00","type":"expense"}`, "u1")
	doRequest(t, s, http.MethodPost, "/transactions",
		`{"date":"2025-06-05","description":"june shop","category":"Groceries","amount":"20.00","type":"expense"}`, "u1")

	rec := doRequest(t, s, http.MethodGet, "/transactions?year=2025&month=6", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list = %d: %s", rec.Code, rec.Body.String())
	}
	list := decodeList(t, rec)
	if len(list) != 1 || list[0]["description"] != "june shop" {
		t.Fatalf("filtered list = %+v, want only the June transaction", list)
	}

	if list := decodeList(t, doRequest(t, s, http.MethodGet, "/transactions", "", "u1")); len(list) != 2 {
		t.Fatalf("unfiltered list = %d entries, want 2", len(list))
	}

	for _, query := range []string{"?year=2025", "?month=6", "?year=2025&month=13", "?year=abc&month=6"} {
		rec := doRequest(t, s, http.MethodGet, "/transactions"+query, "", "u1")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("GET /transactions%s = %d, want 422", query, rec.Code)
		}
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/transactions",
		`{"date":"2025-06-10","description":"salary","category":"Salary","amount":"3000.00","type":"income"}`, "alice")
	txID := decodeMap(t, rec)["id"].(string)

	if rec := doRequest(t, s, http.MethodGet, "/transactions/"+txID, "", "bob"); rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get = %d, want 404", rec.Code)
	}
	if list := decodeList(t, doRequest(t, s, http.MethodGet, "/transactions", "", "bob")); len(list) != 0 {
		t.Errorf("cross-user list has %d entries, want 0", len(list))
	}
}

func TestBudgetUpdateTernaryDates(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/budgets",
		`{"name":"Trip","category":"Travel","allocated_amount":"900.00","period":"Custom","start_date":"2025-06-01","end_date":"2025-06-30"}`, "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget = %d: %s", rec.Code, rec.Body.String())
	}
	id := decodeMap(t, rec)["id"].(string)

	// Omitting the dates keeps them.
	rec = doRequest(t, s, http.MethodPut, "/budgets/"+id,
		`{"name":"Trip","category":"Travel","allocated_amount":"950.00","period":"Custom"}`, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("update budget = %d: %s", rec.Code, rec.Body.String())
	}
	b := decodeMap(t, rec)
	if b["start_date"] != "2025-06-01" || b["end_date"] != "2025-06-30" {
		t.Errorf("dates after omitted update = %v / %v, want kept", b["start_date"], b["end_date"])
	}

	// Explicit nulls clear them; the period must leave Custom to stay valid.
	rec = doRequest(t, s, http.MethodPut, "/budgets/"+id,
		`{"name":"Trip","category":"Travel","allocated_amount":"950.00","period":"Monthly","start_date":null,"end_date":null}`, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("clearing update = %d: %s", rec.Code, rec.Body.String())
	}
	b = decodeMap(t, rec)
	if b["start_date"] != nil || b["end_date"] != nil {
		t.Errorf("dates after null update = %v / %v, want null", b["start_date"], b["end_date"])
	}
}

func TestBudgetRejectsInvalidDueDay(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/budgets",
		`{"name":"Rent","category":"Housing","allocated_amount":"1200.00","period":"Monthly","is_recurring_bill":true,"due_date_day":32}`, "u1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestGoalFundingClampsAtTarget(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/goals",
		`{"name":"Emergency fund","target_amount":"1000.00"}`, "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal = %d: %s", rec.Code, rec.Body.String())
	}
	id := decodeMap(t, rec)["id"].(string)

	rec = doRequest(t, s, http.MethodPost, "/goals/"+id+"/funds", `{"amount":"900.00"}`, "u1")
	if got := decodeMap(t, rec)["current_amount"]; got != "900.00" {
		t.Fatalf("current after first deposit = %v, want 900.00", got)
	}

	rec = doRequest(t, s, http.MethodPost, "/goals/"+id+"/funds", `{"amount":"200.00"}`, "u1")
	if got := decodeMap(t, rec)["current_amount"]; got != "1000.00" {
		t.Fatalf("current after overshoot = %v, want clamped 1000.00", got)
	}

	for _, amount := range []string{"0", "-50.00", "abc"} {
		rec = doRequest(t, s, http.MethodPost, "/goals/"+id+"/funds", `{"amount":"`+amount+`"}`, "u1")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("deposit %q = %d, want 422", amount, rec.Code)
		}
	}

	rec = doRequest(t, s, http.MethodGet, "/goals/"+id, "", "u1")
	if got := decodeMap(t, rec)["current_amount"]; got != "1000.00" {
		t.Fatalf("current after rejected deposits = %v, want unchanged 1000.00", got)
	}
}

func TestDashboardSummaryReflectsMutations(t *testing.T) {
	s := newTestServer(t, nil)
	today := time.Now().UTC().Format(dateLayout)

	doRequest(t, s, http.MethodPost, "/transactions",
		fmt.Sprintf(`{"date":%q,"description":"salary","category":"Salary","amount":"3000.00","type":"income"}`, today), "u1")

	rec := doRequest(t, s, http.MethodGet, "/dashboard/summary", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary = %d: %s", rec.Code, rec.Body.String())
	}
	m := decodeMap(t, rec)
	if m["balance"] != "3000.00" || m["mtd_income"] != "3000.00" {
		t.Errorf("summary = balance %v income %v, want 3000.00 both", m["balance"], m["mtd_income"])
	}
	if series, ok := m["monthly"].([]any); !ok || len(series) != 6 {
		t.Errorf("monthly series length = %v, want 6", m["monthly"])
	}

	// A mutation through the API must invalidate the cached summary.
	doRequest(t, s, http.MethodPost, "/transactions",
		fmt.Sprintf(`{"date":%q,"description":"groceries","category":"Groceries","amount":"80.00","type":"expense"}`, today), "u1")

	m = decodeMap(t, doRequest(t, s, http.MethodGet, "/dashboard/summary", "", "u1"))
	if m["balance"] != "2920.00" {
		t.Errorf("balance after expense = %v, want 2920.00", m["balance"])
	}
	if m["mtd_expenses"] != "80.00" {
		t.Errorf("mtd_expenses = %v, want 80.00", m["mtd_expenses"])
	}
}

func TestUpcomingBillsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	doRequest(t, s, http.MethodPost, "/budgets",
		`{"name":"Rent","category":"Housing","allocated_amount":"1200.00","period":"Monthly","is_recurring_bill":true,"due_date_day":28}`, "u1")
	doRequest(t, s, http.MethodPost, "/budgets",
		`{"name":"Food","category":"Groceries","allocated_amount":"400.00","period":"Monthly"}`, "u1")

	rec := doRequest(t, s, http.MethodGet, "/dashboard/upcoming-bills", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("upcoming bills = %d: %s", rec.Code, rec.Body.String())
	}
	bills := decodeList(t, rec)
	if len(bills) != 1 {
		t.Fatalf("got %d bills, want 1 (plain budgets excluded)", len(bills))
	}
	if bills[0]["name"] != "Rent" || bills[0]["paid"] != false {
		t.Errorf("bill = %+v, want unpaid Rent", bills[0])
	}
}

func TestAssistantEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/assistant/categorize",
		`{"description":"shell station","amount":"40.00"}`, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("categorize = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMap(t, rec)["category"]; got != "Groceries" {
		t.Errorf("category = %v, want Groceries", got)
	}

	rec = doRequest(t, s, http.MethodPost, "/assistant/categorize", `{"amount":"40.00"}`, "u1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("categorize without description = %d, want 422", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/assistant/budget-suggestions",
		`{"monthly_income":"3000.00","spending_habits":"mostly groceries"}`, "u1")
	if rec.Code != http.StatusOK {
		t.Errorf("budget-suggestions = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/assistant/savings",
		`{"spending_data":"groceries 400, dining 300"}`, "u1")
	if rec.Code != http.StatusOK {
		t.Errorf("savings = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAssistantUnconfiguredReturns503(t *testing.T) {
	s := newTestServer(t, &fakeAssistant{err: assistant.ErrNoAPIKey})

	rec := doRequest(t, s, http.MethodPost, "/assistant/categorize",
		`{"description":"shell station","amount":"40.00"}`, "u1")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestAssistantUpstreamFailureReturns502(t *testing.T) {
	s := newTestServer(t, &fakeAssistant{err: errors.New("model timeout")})

	rec := doRequest(t, s, http.MethodPost, "/assistant/savings",
		`{"spending_data":"groceries 400"}`, "u1")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}
