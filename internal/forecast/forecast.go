// Package forecast fits linear spending trends over monthly aggregates
// and derives next-month predictions, multi-month forecasts,
// per-category predictions and spending-pattern insights. Insufficient
// history is never an error here: every degraded state comes back as an
// explicit low-confidence or null-prediction result.
package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// Confidence labels derived from the fit's coefficient of
// determination.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Trend labels for the sign of the fitted slope.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

const (
	trainingMonths     = 6
	categoryWindowDays = 180
	patternWindowDays  = 90
)

// Engine produces spending forecasts from the analytics pipeline.
type Engine struct {
	analytics *analytics.Service
	now       func() time.Time
}

func NewEngine(svc *analytics.Service, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{analytics: svc, now: now}
}

// NextMonthResult is the point prediction for next month's total
// spending. Prediction is nil when fewer than two monthly buckets
// exist; Message then explains why.
type NextMonthResult struct {
	Prediction        *float64 `json:"prediction"`
	Confidence        string   `json:"confidence"`
	Message           string   `json:"message,omitempty"`
	RSquared          float64  `json:"r_squared,omitempty"`
	HistoricalAverage float64  `json:"historical_average"`
	Trend             string   `json:"trend,omitempty"`
	MonthlyChange     float64  `json:"monthly_change,omitempty"`
}

// MonthForecast is one future month's predicted total.
type MonthForecast struct {
	Month             string  `json:"month"`
	PredictedSpending float64 `json:"predicted_spending"`
}

// CategoryResult is the prediction for a single category. When fewer
// than two monthly buckets exist for the category, Prediction falls
// back to the simple average with low confidence.
type CategoryResult struct {
	Prediction        *float64 `json:"prediction"`
	HistoricalAverage float64  `json:"historical_average,omitempty"`
	Confidence        string   `json:"confidence,omitempty"`
	Message           string   `json:"message,omitempty"`
}

// PatternResult summarizes spending habits over the trailing 90 days.
type PatternResult struct {
	Pattern         string             `json:"pattern"`
	Insights        []string           `json:"insights"`
	TopCategories   map[string]float64 `json:"top_categories,omitempty"`
	PeakSpendingDay string             `json:"peak_spending_day,omitempty"`
}

// trainingSeries returns the trailing monthly totals in chronological
// order, oldest first.
func (e *Engine) trainingSeries(ctx context.Context, userID int64) ([]float64, error) {
	totals, err := e.analytics.MonthlyTotals(ctx, userID, trainingMonths)
	if err != nil {
		return nil, err
	}
	return seriesOf(totals), nil
}

func seriesOf(totals map[string]float64) []float64 {
	keys := analytics.SortedKeys(totals)
	values := make([]float64, 0, len(keys))
	for _, k := range keys {
		values = append(values, totals[k])
	}
	return values
}

// NextMonth predicts next month's total spending by fitting a linear
// trend over the trailing monthly totals and evaluating it one month
// past the window. Predictions are clamped at zero.
func (e *Engine) NextMonth(ctx context.Context, userID int64) (NextMonthResult, error) {
	values, err := e.trainingSeries(ctx, userID)
	if err != nil {
		return NextMonthResult{}, err
	}

	if len(values) < 2 {
		return NextMonthResult{
			Confidence: ConfidenceLow,
			Message:    "Insufficient data for prediction. Need at least 2 months of data.",
		}, nil
	}

	model := fitLine(values)
	prediction := core.Round2(math.Max(0, model.at(len(values))))

	trend := TrendDecreasing
	if model.slope > 0 {
		trend = TrendIncreasing
	}

	return NextMonthResult{
		Prediction:        &prediction,
		Confidence:        confidenceFor(model.rsquared),
		RSquared:          core.Round3(model.rsquared),
		HistoricalAverage: core.Round2(stat.Mean(values, nil)),
		Trend:             trend,
		MonthlyChange:     core.Round2(model.slope),
	}, nil
}

// Forecast predicts totals for the next monthsAhead months (default 3)
// from a single fit over the trailing window. Future buckets are
// labeled by adding 30 days per step to now, a fixed-width
// approximation of a month kept for parity with the trailing windows.
// Insufficient history yields an empty forecast, not an error.
func (e *Engine) Forecast(ctx context.Context, userID int64, monthsAhead int) ([]MonthForecast, error) {
	if monthsAhead <= 0 {
		monthsAhead = 3
	}

	values, err := e.trainingSeries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return []MonthForecast{}, nil
	}

	model := fitLine(values)
	now := e.now()

	forecasts := make([]MonthForecast, 0, monthsAhead)
	for i := 0; i < monthsAhead; i++ {
		label := now.AddDate(0, 0, 30*(i+1)).Format("January 2006")
		forecasts = append(forecasts, MonthForecast{
			Month:             label,
			PredictedSpending: core.Round2(math.Max(0, model.at(len(values)+i))),
		})
	}
	return forecasts, nil
}

// Category predicts next month's spending for one category over the
// trailing 180 days. Category-level fits never report high confidence;
// the per-category series is too short and noisy for that.
func (e *Engine) Category(ctx context.Context, userID int64, category string) (CategoryResult, error) {
	ds, err := e.analytics.Window(ctx, userID, categoryWindowDays)
	if err != nil {
		return CategoryResult{}, err
	}
	if len(ds) == 0 {
		return CategoryResult{Message: "No data available"}, nil
	}

	catDS := make(analytics.Dataset, 0, len(ds))
	for _, rec := range ds {
		if rec.Category == category {
			catDS = append(catDS, rec)
		}
	}
	if len(catDS) == 0 {
		return CategoryResult{Message: fmt.Sprintf("No data for category: %s", category)}, nil
	}

	values := seriesOf(analytics.ByMonth(catDS))
	if len(values) < 2 {
		avg := core.Round2(stat.Mean(values, nil))
		return CategoryResult{
			Prediction: &avg,
			Confidence: ConfidenceLow,
			Message:    "Limited data, using average",
		}, nil
	}

	model := fitLine(values)
	prediction := core.Round2(math.Max(0, model.at(len(values))))

	confidence := ConfidenceLow
	if model.rsquared >= 0.4 {
		confidence = ConfidenceMedium
	}

	return CategoryResult{
		Prediction:        &prediction,
		HistoricalAverage: core.Round2(stat.Mean(values, nil)),
		Confidence:        confidence,
	}, nil
}

// Patterns analyzes the trailing 90 days of spending: the weekday with
// the highest total, the top three categories, the top category's
// share of the window total, and the trend from the next-month
// prediction, each rendered as a human-readable insight. An empty
// window yields the "unknown" pattern.
func (e *Engine) Patterns(ctx context.Context, userID int64) (PatternResult, error) {
	ds, err := e.analytics.Window(ctx, userID, patternWindowDays)
	if err != nil {
		return PatternResult{}, err
	}
	if len(ds) == 0 {
		return PatternResult{
			Pattern:  "unknown",
			Insights: []string{"Not enough data to analyze patterns"},
		}, nil
	}

	insights := []string{}

	peakDay := peakWeekday(ds)
	insights = append(insights, fmt.Sprintf("You spend most on %ss", peakDay))

	categories := analytics.ByCategory(ds)
	top := topCategories(categories, 3)
	var total float64
	for _, amount := range categories {
		total += amount
	}
	if total > 0 {
		share := core.Round1(categories[top[0]] / total * 100)
		insights = append(insights, fmt.Sprintf("%s accounts for %.1f%% of your spending", top[0], share))
	}

	prediction, err := e.NextMonth(ctx, userID)
	if err != nil {
		return PatternResult{}, err
	}
	pattern := "stable"
	if prediction.Prediction != nil {
		pattern = prediction.Trend
		direction := "downward"
		if prediction.Trend == TrendIncreasing {
			direction = "upward"
		}
		insights = append(insights, fmt.Sprintf("Your spending is trending %s by ₹%.2f/month",
			direction, math.Abs(prediction.MonthlyChange)))
	}

	topTotals := make(map[string]float64, len(top))
	for _, name := range top {
		topTotals[name] = core.Round2(categories[name])
	}

	return PatternResult{
		Pattern:         pattern,
		Insights:        insights,
		TopCategories:   topTotals,
		PeakSpendingDay: peakDay,
	}, nil
}

// peakWeekday returns the weekday name with the highest total
// spending. Ties break on weekday order, Sunday first.
func peakWeekday(ds analytics.Dataset) string {
	var totals [7]float64
	for _, rec := range ds {
		totals[rec.Date.Weekday()] += rec.BaseAmount
	}

	peak := time.Sunday
	for day := time.Monday; day <= time.Saturday; day++ {
		if totals[day] > totals[peak] {
			peak = day
		}
	}
	return peak.String()
}

// topCategories returns up to n category names ordered by descending
// total, ties broken alphabetically.
func topCategories(totals map[string]float64, n int) []string {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
