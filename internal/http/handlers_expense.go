package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type createExpenseRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

type updateExpenseRequest struct {
	Amount      *float64 `json:"amount"`
	Currency    *string  `json:"currency"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
}

type expenseResponse struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	BaseAmount  float64 `json:"base_amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

func toExpenseResponse(e core.ExpenseRecord) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		BaseAmount:  e.BaseAmount,
		Category:    e.Category,
		Date:        core.DateOnly(e.Date).Format(core.DateFormat),
		Description: e.Description,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency.Base()
	}

	created, err := s.expenses.Create(r.Context(), core.ExpenseRecord{
		UserID:      userIDFrom(r),
		Amount:      req.Amount,
		Currency:    currency,
		Category:    req.Category,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toExpenseResponse(*created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExpenseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.expenses.List(r.Context(), userIDFrom(r), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]expenseResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toExpenseResponse(rec))
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": out, "count": len(out)})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := s.expenses.Get(r.Context(), id, userIDFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(*rec))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	params := storage.UpdateExpenseParams{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if currency == "" {
			respondError(w, http.StatusBadRequest, "empty currency code")
			return
		}
		params.Currency = &currency
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		params.Date = &date
	}

	rec, err := s.expenses.Update(r.Context(), id, userIDFrom(r), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(*rec))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.expenses.Delete(r.Context(), id, userIDFrom(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid expense ID")
		return 0, false
	}
	return id, true
}

// parseExpenseFilter reads the optional from, to, category and limit
// query parameters.
func parseExpenseFilter(r *http.Request) (core.ExpenseFilter, error) {
	var filter core.ExpenseFilter
	q := r.URL.Query()

	parseBound := func(name string) (*time.Time, error) {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return nil, nil
		}
		t, err := core.ParseDate(v)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}

	var err error
	if filter.From, err = parseBound("from"); err != nil {
		return filter, errors.New("invalid from date, expected YYYY-MM-DD")
	}
	if filter.To, err = parseBound("to"); err != nil {
		return filter, errors.New("invalid to date, expected YYYY-MM-DD")
	}

	filter.Category = strings.TrimSpace(q.Get("category"))
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}
