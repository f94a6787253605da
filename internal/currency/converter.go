// Package currency converts expense amounts into the accounting
// currency. Rates come from an exchange-rate HTTP API and are held in
// an explicit time-bounded cache; a static fallback table covers API
// outages. The analytics core never calls into this package — records
// carry their converted base amount from the moment they are stored.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

// pivotCurrency is the currency all rates are quoted against.
const pivotCurrency = "USD"

// RateCache holds one fetched rate table with a validity window. The
// clock is injected so expiry is testable.
type RateCache struct {
	mu        sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewRateCache(ttl time.Duration, now func() time.Time) *RateCache {
	if now == nil {
		now = time.Now
	}
	return &RateCache{ttl: ttl, now: now}
}

// Get returns the cached table if it is still fresh.
func (c *RateCache) Get() (map[string]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates == nil || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.rates, true
}

// Set replaces the cached table and restarts the validity window.
func (c *RateCache) Set(rates map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates = rates
	c.fetchedAt = c.now()
}

// Service fetches rates and converts amounts into the base currency.
type Service struct {
	apiURL string
	apiKey string
	base   string
	client *http.Client
	cache  *RateCache
}

// NewService builds a converter for the given base (accounting)
// currency. A nil now falls back to the wall clock.
func NewService(apiURL, apiKey, base string, ttl time.Duration, now func() time.Time) *Service {
	return &Service{
		apiURL: apiURL,
		apiKey: apiKey,
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  NewRateCache(ttl, now),
	}
}

// Base returns the accounting currency code.
func (s *Service) Base() string {
	return s.base
}

type ratesResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// Rates returns the current USD-pivoted rate table, fetching at most
// once per cache window. Fetch failures degrade to the static fallback
// table; the fallback is never cached so a recovered API is picked up
// on the next call.
func (s *Service) Rates(ctx context.Context) map[string]float64 {
	if rates, ok := s.cache.Get(); ok {
		return rates
	}

	rates, err := s.fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Rate fetch failed, using fallback table", "error", err)
		return fallbackRates()
	}

	s.cache.Set(rates)
	return rates
}

// Refresh forces a fetch, replacing the cache on success. Used by the
// background cron job to keep the cache warm.
func (s *Service) Refresh(ctx context.Context) error {
	rates, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh rates: %w", err)
	}
	s.cache.Set(rates)
	slog.InfoContext(ctx, "Exchange rates refreshed", "currencies", len(rates))
	return nil
}

func (s *Service) fetch(ctx context.Context) (map[string]float64, error) {
	url := s.apiURL + s.apiKey + "/latest/" + pivotCurrency
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Result != "success" {
		return nil, fmt.Errorf("api error: %s", parsed.ErrorType)
	}
	if len(parsed.ConversionRates) == 0 {
		return nil, fmt.Errorf("api returned no rates")
	}

	return parsed.ConversionRates, nil
}

// Convert converts amount from the given currency into the base
// currency, pivoting over USD, rounded to two decimals. Unknown
// currency codes rate as 1, matching the lenient original behavior.
func (s *Service) Convert(ctx context.Context, amount float64, from string) float64 {
	if from == s.base {
		return amount
	}

	rates := s.Rates(ctx)

	amountUSD := amount
	if from != pivotCurrency {
		fromRate, ok := rates[from]
		if !ok || fromRate == 0 {
			fromRate = 1
		}
		amountUSD = amount / fromRate
	}

	toRate, ok := rates[s.base]
	if !ok {
		toRate = 1
	}

	return core.Round2(amountUSD * toRate)
}

// Supported lists the known currency codes with the base currency
// first, the rest alphabetical.
func (s *Service) Supported(ctx context.Context) []string {
	rates := s.Rates(ctx)

	codes := make([]string, 0, len(rates))
	for code := range rates {
		if code != s.base {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return append([]string{s.base}, codes...)
}

// fallbackRates are approximate USD-pivoted rates used when the API is
// unreachable.
func fallbackRates() map[string]float64 {
	return map[string]float64{
		"USD": 1.0,
		"INR": 83.0,
		"EUR": 0.92,
		"GBP": 0.79,
		"JPY": 149.0,
		"AUD": 1.53,
		"CAD": 1.36,
		"CNY": 7.24,
		"SGD": 1.34,
		"AED": 3.67,
	}
}
