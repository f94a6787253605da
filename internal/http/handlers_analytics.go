package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// parseYearMonth extracts year and month from query parameters,
// defaulting to the current calendar month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

// queryInt reads an optional positive integer query parameter; zero
// lets the service apply its default.
func queryInt(r *http.Request, name string) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	summary, err := s.analytics.MonthlySummary(r.Context(), userIDFrom(r), year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategoryDistribution(w http.ResponseWriter, r *http.Request) {
	shares, err := s.analytics.CategoryDistribution(r.Context(), userIDFrom(r), queryInt(r, "months"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"distribution": shares})
}

func (s *Server) handleDailyTrend(w http.ResponseWriter, r *http.Request) {
	daily, err := s.analytics.DailyTrend(r.Context(), userIDFrom(r), queryInt(r, "days"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"daily": daily})
}

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	monthly, err := s.analytics.MonthlyTotals(r.Context(), userIDFrom(r), queryInt(r, "months"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"monthly": monthly})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.SpendingStatistics(r.Context(), userIDFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	income := s.defaultIncome
	if v := strings.TrimSpace(r.URL.Query().Get("income")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid income")
			return
		}
		income = parsed
	}

	estimate, err := s.analytics.EstimateMonthlySavings(r.Context(), userIDFrom(r), income)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}
