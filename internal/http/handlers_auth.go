package http

import (
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "username": req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"categories": core.Categories})
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"base":       s.currency.Base(),
		"currencies": s.currency.Supported(r.Context()),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount < 0 {
		respondError(w, http.StatusBadRequest, "invalid amount, expected a non-negative number")
		return
	}
	from := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("from")))
	if from == "" {
		respondError(w, http.StatusBadRequest, "missing from currency")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"amount":    amount,
		"from":      from,
		"base":      s.currency.Base(),
		"converted": s.currency.Convert(r.Context(), amount, from),
	})
}
