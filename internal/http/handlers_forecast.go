package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleNextMonth(w http.ResponseWriter, r *http.Request) {
	result, err := s.forecast.NextMonth(r.Context(), userIDFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months")
	if months > 24 {
		respondError(w, http.StatusBadRequest, "months out of range (max 24)")
		return
	}

	forecasts, err := s.forecast.Forecast(r.Context(), userIDFrom(r), months)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"forecast": forecasts})
}

func (s *Server) handleCategoryForecast(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if !core.ValidCategory(category) {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}

	result, err := s.forecast.Category(r.Context(), userIDFrom(r), category)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	result, err := s.forecast.Patterns(r.Context(), userIDFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
