// Package http exposes the JSON API: auth, expense CRUD, analytics and
// forecasts.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/currency"
	"fintrack/internal/forecast"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	auth      *auth.Service
	expenses  *services.ExpenseService
	analytics *analytics.Service
	forecast  *forecast.Engine
	currency  *currency.Service

	defaultIncome float64

	rateLimiter  *rateLimiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer wires all routes and middleware and returns a
// ready-to-run server.
func NewServer(addr string, authSvc *auth.Service, expenses *services.ExpenseService,
	analyticsSvc *analytics.Service, forecastEng *forecast.Engine,
	currencySvc *currency.Service, defaultIncome float64, logger *log.Logger) *Server {

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		auth:          authSvc,
		expenses:      expenses,
		analytics:     analyticsSvc,
		forecast:      forecastEng,
		currency:      currencySvc,
		defaultIncome: defaultIncome,
		rateLimiter:   newRateLimiter(),
		logger:        logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withMiddleware(s.handleLogin))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("GET /api/currencies", s.withMiddleware(s.handleCurrencies))
	mux.HandleFunc("GET /api/currencies/convert", s.withMiddleware(s.handleConvert))

	mux.HandleFunc("POST /api/expenses", s.withMiddleware(s.requireAuth(s.handleCreateExpense)))
	mux.HandleFunc("GET /api/expenses", s.withMiddleware(s.requireAuth(s.handleListExpenses)))
	mux.HandleFunc("GET /api/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleGetExpense)))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteExpense)))

	mux.HandleFunc("GET /api/analytics/monthly-summary", s.withMiddleware(s.requireAuth(s.handleMonthlySummary)))
	mux.HandleFunc("GET /api/analytics/category-distribution", s.withMiddleware(s.requireAuth(s.handleCategoryDistribution)))
	mux.HandleFunc("GET /api/analytics/daily-trend", s.withMiddleware(s.requireAuth(s.handleDailyTrend)))
	mux.HandleFunc("GET /api/analytics/monthly-totals", s.withMiddleware(s.requireAuth(s.handleMonthlyTotals)))
	mux.HandleFunc("GET /api/analytics/statistics", s.withMiddleware(s.requireAuth(s.handleStatistics)))
	mux.HandleFunc("GET /api/analytics/savings", s.withMiddleware(s.requireAuth(s.handleSavings)))

	mux.HandleFunc("GET /api/forecast/next-month", s.withMiddleware(s.requireAuth(s.handleNextMonth)))
	mux.HandleFunc("GET /api/forecast", s.withMiddleware(s.requireAuth(s.handleForecast)))
	mux.HandleFunc("GET /api/forecast/category/{category}", s.withMiddleware(s.requireAuth(s.handleCategoryForecast)))
	mux.HandleFunc("GET /api/forecast/patterns", s.withMiddleware(s.requireAuth(s.handlePatterns)))

	return s
}

// withMiddleware adds security headers, rate limiting and request
// logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter cleanup goroutine and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
