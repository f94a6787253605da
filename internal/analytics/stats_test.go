package analytics

import (
	"context"
	"math"
	"testing"

	"fintrack/internal/core"
)

func TestMonthlySummaryLeapFebruary(t *testing.T) {
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, date(2024, 2, 1), "Rent", 200),
		rec(1, date(2024, 2, 29), "Groceries", 90),
		rec(1, date(2024, 3, 1), "Groceries", 999), // next month
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.MonthlySummary(context.Background(), 1, 2024, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Total != 290 {
		t.Errorf("expected total 290, got %v", got.Total)
	}
	if got.Count != 2 {
		t.Errorf("expected count 2, got %d", got.Count)
	}
	if got.Average != 145 {
		t.Errorf("expected average 145, got %v", got.Average)
	}
	// 290 over 29 days in leap February.
	if got.DailyAvg != 10 {
		t.Errorf("expected daily average 10, got %v", got.DailyAvg)
	}
	if got.Categories["Rent"] != 200 || got.Categories["Groceries"] != 90 {
		t.Errorf("unexpected category totals: %v", got.Categories)
	}
}

func TestMonthlySummaryDecember(t *testing.T) {
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, date(2024, 12, 31), "Travel", 62),
		rec(1, date(2025, 1, 1), "Travel", 500),
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.MonthlySummary(context.Background(), 1, 2024, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 62 || got.Count != 1 {
		t.Fatalf("expected only December's record, got %+v", got)
	}
	if got.DailyAvg != 2 {
		t.Errorf("expected daily average 2 over 31 days, got %v", got.DailyAvg)
	}
}

func TestMonthlySummaryEmptyMonth(t *testing.T) {
	svc := NewService(&stubSource{}, fixedNow)

	got, err := svc.MonthlySummary(context.Background(), 1, 2025, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 0 || got.Count != 0 || got.Average != 0 || got.DailyAvg != 0 {
		t.Errorf("expected zero summary, got %+v", got)
	}
	if got.Categories == nil || len(got.Categories) != 0 {
		t.Errorf("expected empty category map, got %v", got.Categories)
	}
}

func TestCategoryDistribution(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, now.AddDate(0, 0, -1), "Rent", 600),
		rec(1, now.AddDate(0, 0, -2), "Groceries", 300),
		rec(1, now.AddDate(0, 0, -3), "Travel", 100),
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.CategoryDistribution(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["Rent"] != 60 || got["Groceries"] != 30 || got["Travel"] != 10 {
		t.Errorf("unexpected shares: %v", got)
	}

	var sum float64
	for _, v := range got {
		sum += v
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("expected shares to sum to ~100, got %v", sum)
	}
}

func TestCategoryDistributionEmpty(t *testing.T) {
	svc := NewService(&stubSource{}, fixedNow)

	got, err := svc.CategoryDistribution(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestSpendingStatisticsWindows(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, now.AddDate(0, 0, -5), "Groceries", 100),
		rec(1, now.AddDate(0, 0, -10), "Rent", 400),
		rec(1, now.AddDate(0, 0, -60), "Travel", 250), // 90-day window only
		rec(1, now.AddDate(0, 0, -120), "Travel", 999),
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.SpendingStatistics(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Total30Days != 500 {
		t.Errorf("expected 30-day total 500, got %v", got.Total30Days)
	}
	if got.Total90Days != 750 {
		t.Errorf("expected 90-day total 750, got %v", got.Total90Days)
	}
	if got.ExpenseCount30Days != 2 {
		t.Errorf("expected 2 expenses in 30 days, got %d", got.ExpenseCount30Days)
	}
	if got.AverageExpense != 250 {
		t.Errorf("expected average 250, got %v", got.AverageExpense)
	}
	if got.HighestExpense != 400 || got.LowestExpense != 100 {
		t.Errorf("unexpected extremes: %v / %v", got.HighestExpense, got.LowestExpense)
	}
	if got.HighestCategory != "Rent" || got.LowestCategory != "Groceries" {
		t.Errorf("unexpected category extremes: %q / %q", got.HighestCategory, got.LowestCategory)
	}
}

func TestSpendingStatisticsTieBreak(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, now.AddDate(0, 0, -1), "Travel", 50),
		rec(1, now.AddDate(0, 0, -2), "Groceries", 50),
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.SpendingStatistics(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HighestCategory != "Groceries" || got.LowestCategory != "Groceries" {
		t.Errorf("expected lexicographic tie-break on Groceries, got %q / %q",
			got.HighestCategory, got.LowestCategory)
	}
}

func TestSpendingStatisticsEmpty(t *testing.T) {
	svc := NewService(&stubSource{}, fixedNow)

	got, err := svc.SpendingStatistics(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HighestCategory != "N/A" || got.LowestCategory != "N/A" {
		t.Errorf("expected N/A categories, got %+v", got)
	}
	if got.Total30Days != 0 || got.Total90Days != 0 || got.ExpenseCount30Days != 0 {
		t.Errorf("expected zero totals, got %+v", got)
	}
}

func TestEstimateMonthlySavings(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, date(now.Year(), now.Month(), 3), "Rent", 30000),
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.EstimateMonthlySavings(context.Background(), 1, 50000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Spent != 30000 || got.Savings != 20000 {
		t.Errorf("unexpected estimate: %+v", got)
	}
	if got.SavingsRate != 40 {
		t.Errorf("expected 40%% savings rate, got %v", got.SavingsRate)
	}
}

func TestEstimateMonthlySavingsZeroIncome(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, date(now.Year(), now.Month(), 3), "Rent", 100),
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.EstimateMonthlySavings(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SavingsRate != 0 {
		t.Errorf("expected zero savings rate for zero income, got %v", got.SavingsRate)
	}
	if got.Savings != -100 {
		t.Errorf("expected savings -100, got %v", got.Savings)
	}
}
