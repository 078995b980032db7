// Package http exposes the JSON API over the domain services.
//
// This file holds the request payloads and their conversion into domain
// values. Amounts travel as decimal strings; the transaction type carries
// the sign. Optional fields on update payloads are three-state: absent
// keeps the stored value, null clears it, a value replaces it.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

var errMalformedBody = errors.New("malformed request body")

// decodeBody unmarshals the JSON request body into dst, rejecting unknown
// fields so client typos surface as errors instead of silent no-ops.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return errMalformedBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errMalformedBody
	}
	return nil
}

// optionalString distinguishes an absent JSON field from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// optionalInt mirrors optionalString for integer fields.
type optionalInt struct {
	Set   bool
	Value int
}

func (o *optionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = 0
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
}

func (req transactionRequest) toTransaction(userID string) (core.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	txType := core.TransactionType(req.Type)
	if !txType.IsValid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	amount := core.Money{Cents: cents}
	if txType == core.Expense {
		amount = amount.Negate()
	}
	return core.Transaction{
		UserID:      userID,
		Date:        date,
		Description: req.Description,
		Category:    req.Category,
		Amount:      amount,
		Type:        txType,
	}, nil
}

type budgetRequest struct {
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	AllocatedAmount string         `json:"allocated_amount"`
	Period          string         `json:"period"`
	IsRecurringBill bool           `json:"is_recurring_bill"`
	StartDate       optionalString `json:"start_date"`
	EndDate         optionalString `json:"end_date"`
	DueDateDay      optionalInt    `json:"due_date_day"`
}

func (req budgetRequest) toBudget(userID string) (core.Budget, error) {
	upd, err := req.toUpdate()
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		UserID:          userID,
		Name:            upd.Name,
		Category:        upd.Category,
		AllocatedAmount: upd.AllocatedAmount,
		Period:          upd.Period,
		IsRecurringBill: upd.IsRecurringBill,
	}
	if upd.StartDate.Set {
		b.StartDate = upd.StartDate.Value
	}
	if upd.EndDate.Set {
		b.EndDate = upd.EndDate.Value
	}
	if upd.DueDateDay.Set {
		b.DueDateDay = upd.DueDateDay.Value
	}
	return b, nil
}

func (req budgetRequest) toUpdate() (services.BudgetUpdate, error) {
	cents, err := core.ParseDecimalToCents(req.AllocatedAmount)
	if err != nil {
		return services.BudgetUpdate{}, fmt.Errorf("allocated_amount: %w", err)
	}
	upd := services.BudgetUpdate{
		Name:            req.Name,
		Category:        req.Category,
		AllocatedAmount: core.Money{Cents: cents},
		Period:          core.BudgetPeriod(req.Period),
		IsRecurringBill: req.IsRecurringBill,
	}
	if upd.StartDate, err = toOptionalDate(req.StartDate, "start_date"); err != nil {
		return services.BudgetUpdate{}, err
	}
	if upd.EndDate, err = toOptionalDate(req.EndDate, "end_date"); err != nil {
		return services.BudgetUpdate{}, err
	}
	if req.DueDateDay.Set {
		upd.DueDateDay = services.OptionalInt{Set: true, Value: req.DueDateDay.Value}
	}
	return upd, nil
}

type goalRequest struct {
	Name         string         `json:"name"`
	TargetAmount string         `json:"target_amount"`
	TargetDate   optionalString `json:"target_date"`
	Description  string         `json:"description"`
}

func (req goalRequest) toGoal(userID string) (core.Goal, error) {
	upd, err := req.toUpdate()
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{
		UserID:       userID,
		Name:         upd.Name,
		TargetAmount: upd.TargetAmount,
		Description:  upd.Description,
	}
	if upd.TargetDate.Set {
		g.TargetDate = upd.TargetDate.Value
	}
	return g, nil
}

func (req goalRequest) toUpdate() (services.GoalUpdate, error) {
	cents, err := core.ParseDecimalToCents(req.TargetAmount)
	if err != nil {
		return services.GoalUpdate{}, fmt.Errorf("target_amount: %w", err)
	}
	upd := services.GoalUpdate{
		Name:         req.Name,
		TargetAmount: core.Money{Cents: cents},
		Description:  req.Description,
	}
	if upd.TargetDate, err = toOptionalDate(req.TargetDate, "target_date"); err != nil {
		return services.GoalUpdate{}, err
	}
	return upd, nil
}

type fundsRequest struct {
	Amount string `json:"amount"`
}

func (req fundsRequest) toMoney() (core.Money, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// monthFilter reads the optional ?year=&month= pair narrowing a transaction
// listing to one calendar month. Neither given means no filter.
func monthFilter(r *http.Request) (*services.MonthFilter, error) {
	yearRaw := r.URL.Query().Get("year")
	monthRaw := r.URL.Query().Get("month")
	if yearRaw == "" && monthRaw == "" {
		return nil, nil
	}
	if yearRaw == "" || monthRaw == "" {
		return nil, errors.New("year and month must be given together")
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil || year < 1 {
		return nil, fmt.Errorf("invalid year %q", yearRaw)
	}
	month, err := strconv.Atoi(monthRaw)
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %q: use 1-12", monthRaw)
	}
	return &services.MonthFilter{Year: year, Month: time.Month(month)}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
}

func toOptionalDate(o optionalString, field string) (services.OptionalDate, error) {
	if !o.Set {
		return services.OptionalDate{}, nil
	}
	if o.Value == nil {
		return services.OptionalDate{Set: true, Value: nil}, nil
	}
	t, err := parseDate(*o.Value)
	if err != nil {
		return services.OptionalDate{}, fmt.Errorf("%s: %w", field, err)
	}
	return services.OptionalDate{Set: true, Value: &t}, nil
}
