package analytics

import (
	"context"
	"sort"
	"time"

	"fintrack/internal/core"
)

// MonthlySummaryResult describes one calendar month of spending.
type MonthlySummaryResult struct {
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	Average    float64            `json:"average"`
	Categories map[string]float64 `json:"categories"`
	DailyAvg   float64            `json:"daily_avg"`
}

// SpendingStatisticsResult combines trailing 30- and 90-day windows.
type SpendingStatisticsResult struct {
	Total30Days        float64 `json:"total_30_days"`
	Total90Days        float64 `json:"total_90_days"`
	ExpenseCount30Days int     `json:"expense_count_30_days"`
	HighestCategory    string  `json:"highest_category"`
	LowestCategory     string  `json:"lowest_category"`
	AverageExpense     float64 `json:"average_expense"`
	HighestExpense     float64 `json:"highest_expense"`
	LowestExpense      float64 `json:"lowest_expense"`
}

// SavingsEstimateResult reports income left over after the current
// month's spending.
type SavingsEstimateResult struct {
	Income      float64 `json:"income"`
	Spent       float64 `json:"spent"`
	Savings     float64 `json:"savings"`
	SavingsRate float64 `json:"savings_rate"`
}

// MonthlySummary computes total, count, mean, per-category totals and
// the daily average for exactly the given calendar month. Month bounds
// follow calendar rules (leap years, December rollover). A month with
// no records yields the zero-valued shape, never an error.
func (s *Service) MonthlySummary(ctx context.Context, userID int64, year, month int) (MonthlySummaryResult, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1) // last day of the month

	ds, err := s.Dataset(ctx, userID, &start, &end)
	if err != nil {
		return MonthlySummaryResult{}, err
	}

	if len(ds) == 0 {
		return MonthlySummaryResult{Categories: map[string]float64{}}, nil
	}

	var total float64
	for _, rec := range ds {
		total += rec.BaseAmount
	}

	categories := ByCategory(ds)
	for k, v := range categories {
		categories[k] = core.Round2(v)
	}

	daysInMonth := end.Day()

	return MonthlySummaryResult{
		Total:      core.Round2(total),
		Count:      len(ds),
		Average:    core.Round2(total / float64(len(ds))),
		Categories: categories,
		DailyAvg:   core.Round2(total / float64(daysInMonth)),
	}, nil
}

// CategoryDistribution reports each category's percentage share of
// spending over a trailing window of months × 30 days (the same
// fixed-width month approximation as MonthlyTotals). Shares are rounded
// to one decimal; a window with no spending yields an empty map.
func (s *Service) CategoryDistribution(ctx context.Context, userID int64, months int) (map[string]float64, error) {
	if months <= 0 {
		months = 3
	}
	ds, err := s.Window(ctx, userID, months*30)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, rec := range ds {
		total += rec.BaseAmount
	}
	if total == 0 {
		return map[string]float64{}, nil
	}

	shares := make(map[string]float64)
	for cat, amount := range ByCategory(ds) {
		shares[cat] = core.Round1(amount / total * 100)
	}
	return shares, nil
}

// SpendingStatistics combines the trailing 30- and 90-day windows.
// Category extremes break ties lexicographically, which keeps the
// result deterministic; the tie order itself carries no meaning.
func (s *Service) SpendingStatistics(ctx context.Context, userID int64) (SpendingStatisticsResult, error) {
	stats := SpendingStatisticsResult{
		HighestCategory: "N/A",
		LowestCategory:  "N/A",
	}

	ds30, err := s.Window(ctx, userID, 30)
	if err != nil {
		return stats, err
	}
	ds90, err := s.Window(ctx, userID, 90)
	if err != nil {
		return stats, err
	}

	if len(ds30) > 0 {
		var total float64
		highest := ds30[0].BaseAmount
		lowest := ds30[0].BaseAmount
		for _, rec := range ds30 {
			total += rec.BaseAmount
			if rec.BaseAmount > highest {
				highest = rec.BaseAmount
			}
			if rec.BaseAmount < lowest {
				lowest = rec.BaseAmount
			}
		}
		stats.Total30Days = core.Round2(total)
		stats.ExpenseCount30Days = len(ds30)
		stats.AverageExpense = core.Round2(total / float64(len(ds30)))
		stats.HighestExpense = core.Round2(highest)
		stats.LowestExpense = core.Round2(lowest)

		categories := ByCategory(ds30)
		names := make([]string, 0, len(categories))
		for name := range categories {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if stats.HighestCategory == "N/A" || categories[name] > categories[stats.HighestCategory] {
				stats.HighestCategory = name
			}
			if stats.LowestCategory == "N/A" || categories[name] < categories[stats.LowestCategory] {
				stats.LowestCategory = name
			}
		}
	}

	if len(ds90) > 0 {
		var total float64
		for _, rec := range ds90 {
			total += rec.BaseAmount
		}
		stats.Total90Days = core.Round2(total)
	}

	return stats, nil
}

// EstimateMonthlySavings reports projected savings for the current
// month against the given income. A non-positive income yields a zero
// savings rate instead of a division fault.
func (s *Service) EstimateMonthlySavings(ctx context.Context, userID int64, income float64) (SavingsEstimateResult, error) {
	now := s.now()
	summary, err := s.MonthlySummary(ctx, userID, now.Year(), int(now.Month()))
	if err != nil {
		return SavingsEstimateResult{}, err
	}

	savings := income - summary.Total
	var rate float64
	if income > 0 {
		rate = savings / income * 100
	}

	return SavingsEstimateResult{
		Income:      income,
		Spent:       core.Round2(summary.Total),
		Savings:     core.Round2(savings),
		SavingsRate: core.Round1(rate),
	}, nil
}
