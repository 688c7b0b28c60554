package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finledger/internal/core"
	"finledger/internal/ledger"
	"finledger/internal/log"
)

type entryResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

type totalsResponse struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Savings string `json:"savings"`
	Count   int    `json:"count"`
}

type categoryResponse struct {
	Name       string  `json:"name"`
	Amount     string  `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type monthResponse struct {
	YearMonth  string             `json:"year_month"`
	Income     string             `json:"income"`
	Expense    string             `json:"expense"`
	Savings    string             `json:"savings"`
	Count      int                `json:"count"`
	Categories []categoryResponse `json:"categories"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Date:        e.Date.String(),
		Kind:        e.Kind.String(),
		Category:    e.Category,
		Amount:      e.Amount.String(),
		AmountCents: e.Amount.Cents,
		Description: e.Description,
	}
}

func toEntryResponses(entries []core.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func toTotalsResponse(t core.Totals) totalsResponse {
	return totalsResponse{
		Income:  t.Income.String(),
		Expense: t.Expense.String(),
		Savings: t.Savings.String(),
		Count:   t.Count,
	}
}

func toMonthResponse(b core.MonthBreakdown) monthResponse {
	cats := make([]categoryResponse, 0, len(b.ByCategory))
	for _, c := range b.ByCategory {
		cats = append(cats, categoryResponse{Name: c.Name, Amount: c.Amount.String(), Percentage: c.Percentage})
	}
	return monthResponse{
		YearMonth:  b.YearMonth,
		Income:     b.Income.String(),
		Expense:    b.Expense.String(),
		Savings:    b.Savings.String(),
		Count:      b.Count,
		Categories: cats,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a ledger error onto an HTTP status. Malformed query
// parameters are 400, rejected entry fields 422.
func statusFor(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidSortField),
		errors.Is(err, core.ErrInvalidSearchMode),
		errors.Is(err, core.ErrInvalidYearMonth):
		return http.StatusBadRequest
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())

	body := errorResponse{Error: err.Error()}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}

	switch status {
	case http.StatusServiceUnavailable:
		logger.Error("Storage unavailable", log.FieldError, err)
		body.Error = ledger.ErrPersistenceUnavailable.Error()
	case http.StatusInternalServerError:
		logger.Error("Unhandled error", log.FieldError, err)
		body.Error = http.StatusText(status)
	default:
		logger.Debug("Request rejected", log.FieldError, err, log.FieldStatusCode, status)
	}
	writeJSON(w, status, body)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).Warn("Rate limit exceeded")
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}
