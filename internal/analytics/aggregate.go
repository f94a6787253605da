package analytics

import (
	"context"
	"sort"

	"fintrack/internal/core"
)

// MonthKeyFormat is the monthly bucket key, e.g. "2025-03".
const MonthKeyFormat = "2006-01"

// Default trailing windows for the trend aggregates.
const (
	DefaultTrendDays   = 30
	DefaultTrendMonths = 6
)

// ByCategory sums base amounts per distinct category. Each category
// present in the dataset appears exactly once; an empty dataset yields
// an empty map.
func ByCategory(ds Dataset) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range ds {
		totals[rec.Category] += rec.BaseAmount
	}
	return totals
}

// ByDay sums base amounts per calendar day, keyed YYYY-MM-DD.
func ByDay(ds Dataset) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range ds {
		totals[rec.Date.Format(core.DateFormat)] += rec.BaseAmount
	}
	return totals
}

// ByMonth sums base amounts per (year, month) bucket, keyed YYYY-MM.
func ByMonth(ds Dataset) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range ds {
		totals[rec.Date.Format(MonthKeyFormat)] += rec.BaseAmount
	}
	return totals
}

// SortedKeys returns map keys in chronological order. Day and month
// bucket keys sort chronologically as plain strings.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DailyTrend reports per-day spending over the trailing window of the
// given number of days (default 30 when days <= 0), rounded to two
// decimals.
func (s *Service) DailyTrend(ctx context.Context, userID int64, days int) (map[string]float64, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	ds, err := s.Window(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	daily := ByDay(ds)
	for k, v := range daily {
		daily[k] = core.Round2(v)
	}
	return daily, nil
}

// MonthlyTotals reports per-month spending over a trailing window of
// months × 30 days (default 6 months when months <= 0), rounded to two
// decimals. The fixed 30-day month width is a deliberate approximation
// kept for parity with the summary windows downstream consumers expect;
// MonthlySummary is the calendar-accurate counterpart.
func (s *Service) MonthlyTotals(ctx context.Context, userID int64, months int) (map[string]float64, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	ds, err := s.Window(ctx, userID, months*30)
	if err != nil {
		return nil, err
	}

	monthly := ByMonth(ds)
	for k, v := range monthly {
		monthly[k] = core.Round2(v)
	}
	return monthly, nil
}
