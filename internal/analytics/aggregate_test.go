package analytics

import (
	"context"
	"reflect"
	"testing"

	"fintrack/internal/core"
)

func TestByCategory(t *testing.T) {
	ds := Dataset{
		rec(1, date(2025, 6, 1), "Groceries", 40),
		rec(1, date(2025, 6, 2), "Groceries", 60),
		rec(1, date(2025, 6, 3), "Rent", 500),
	}

	got := ByCategory(ds)
	want := map[string]float64{"Groceries": 100, "Rent": 500}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := ByCategory(Dataset{}); len(got) != 0 {
		t.Fatalf("expected empty map for empty dataset, got %v", got)
	}
}

func TestByDayAndByMonth(t *testing.T) {
	ds := Dataset{
		rec(1, date(2025, 5, 31), "Groceries", 10),
		rec(1, date(2025, 5, 31), "Rent", 20),
		rec(1, date(2025, 6, 1), "Groceries", 5),
	}

	daily := ByDay(ds)
	wantDaily := map[string]float64{"2025-05-31": 30, "2025-06-01": 5}
	if !reflect.DeepEqual(daily, wantDaily) {
		t.Fatalf("expected %v, got %v", wantDaily, daily)
	}

	monthly := ByMonth(ds)
	wantMonthly := map[string]float64{"2025-05": 30, "2025-06": 5}
	if !reflect.DeepEqual(monthly, wantMonthly) {
		t.Fatalf("expected %v, got %v", wantMonthly, monthly)
	}
}

func TestSortedKeysChronological(t *testing.T) {
	m := map[string]float64{"2025-03": 1, "2024-12": 2, "2025-01": 3}
	got := SortedKeys(m)
	want := []string{"2024-12", "2025-01", "2025-03"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDailyTrendWindow(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, now.AddDate(0, 0, -5), "Groceries", 12.346),
		rec(1, now.AddDate(0, 0, -40), "Groceries", 99), // outside 30-day window
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.DailyTrend(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := now.AddDate(0, 0, -5).Format("2006-01-02")
	if len(got) != 1 {
		t.Fatalf("expected 1 day bucket, got %v", got)
	}
	if got[key] != 12.35 {
		t.Fatalf("expected rounded total 12.35, got %v", got[key])
	}
}

func TestMonthlyTotalsWindow(t *testing.T) {
	now := fixedNow()
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, now.AddDate(0, 0, -10), "Rent", 500),
		rec(1, now.AddDate(0, 0, -100), "Rent", 500),
		rec(1, now.AddDate(0, 0, -200), "Rent", 500), // outside the 180-day window
	}}
	svc := NewService(src, fixedNow)

	got, err := svc.MonthlyTotals(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum float64
	for _, v := range got {
		sum += v
	}
	if sum != 1000 {
		t.Fatalf("expected 1000 inside the 180-day window, got %v (%v)", sum, got)
	}

	if _, ok := got[now.AddDate(0, 0, -200).Format(MonthKeyFormat)]; ok {
		t.Fatalf("expected record outside the window to be excluded: %v", got)
	}
}

func TestAggregatesEmptyDataset(t *testing.T) {
	svc := NewService(&stubSource{}, fixedNow)

	daily, err := svc.DailyTrend(context.Background(), 1, 30)
	if err != nil || len(daily) != 0 {
		t.Fatalf("expected empty daily trend, got %v (err=%v)", daily, err)
	}
	monthly, err := svc.MonthlyTotals(context.Background(), 1, 6)
	if err != nil || len(monthly) != 0 {
		t.Fatalf("expected empty monthly totals, got %v (err=%v)", monthly, err)
	}
}
