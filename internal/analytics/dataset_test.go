package analytics

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"fintrack/internal/core"
)

// stubSource implements ExpenseSource over an in-memory slice, applying
// the same inclusive date-range semantics as the SQLite store.
type stubSource struct {
	records []core.ExpenseRecord
	err     error
}

func (s *stubSource) Fetch(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []core.ExpenseRecord{}
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		day := core.DateOnly(rec.Date)
		if f.From != nil && day.Before(core.DateOnly(*f.From)) {
			continue
		}
		if f.To != nil && day.After(core.DateOnly(*f.To)) {
			continue
		}
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
}

func rec(user int64, day time.Time, category string, base float64) core.ExpenseRecord {
	return core.ExpenseRecord{
		UserID:     user,
		Amount:     base,
		Currency:   "INR",
		BaseAmount: base,
		Category:   category,
		Date:       day,
	}
}

func TestCleanDefaults(t *testing.T) {
	raw := []core.ExpenseRecord{
		{UserID: 1, Date: time.Date(2025, 3, 9, 18, 45, 12, 0, time.UTC), Category: "", BaseAmount: 10, Amount: 10},
		{UserID: 1, Date: date(2025, 3, 10), Category: "Gadgets", BaseAmount: math.NaN(), Amount: math.Inf(1)},
		{UserID: 1, Category: "Groceries", BaseAmount: 5, Amount: 5}, // zero date dropped
	}

	ds := Clean(raw)

	if len(ds) != 2 {
		t.Fatalf("expected 2 cleaned records, got %d", len(ds))
	}
	if !ds[0].Date.Equal(date(2025, 3, 9)) {
		t.Errorf("expected date truncated to midnight, got %v", ds[0].Date)
	}
	if ds[0].Category != core.CategoryOther {
		t.Errorf("expected blank category defaulted to Other, got %q", ds[0].Category)
	}
	if ds[1].Category != core.CategoryOther {
		t.Errorf("expected unknown category defaulted to Other, got %q", ds[1].Category)
	}
	if ds[1].BaseAmount != 0 || ds[1].Amount != 0 {
		t.Errorf("expected non-finite amounts coerced to 0, got %v / %v", ds[1].BaseAmount, ds[1].Amount)
	}
}

func TestCleanIdempotent(t *testing.T) {
	raw := []core.ExpenseRecord{
		rec(1, time.Date(2025, 3, 9, 13, 0, 0, 0, time.UTC), "", 10.5),
		rec(1, date(2025, 3, 10), "Groceries", 22),
	}

	once := Clean(raw)
	twice := Clean(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("cleaning is not idempotent: %v vs %v", once, twice)
	}
}

func TestDatasetInvertedRangeIsEmpty(t *testing.T) {
	src := &stubSource{records: []core.ExpenseRecord{rec(1, date(2025, 6, 1), "Rent", 100)}}
	svc := NewService(src, fixedNow)

	from := date(2025, 6, 10)
	to := date(2025, 6, 1)
	ds, err := svc.Dataset(context.Background(), 1, &from, &to)
	if err != nil {
		t.Fatalf("expected normalized empty dataset, got error %v", err)
	}
	if len(ds) != 0 {
		t.Fatalf("expected empty dataset, got %d records", len(ds))
	}
}

func TestDatasetScopedToUser(t *testing.T) {
	src := &stubSource{records: []core.ExpenseRecord{
		rec(1, date(2025, 6, 1), "Rent", 100),
		rec(2, date(2025, 6, 1), "Rent", 999),
	}}
	svc := NewService(src, fixedNow)

	ds, err := svc.Dataset(context.Background(), 1, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds) != 1 || ds[0].BaseAmount != 100 {
		t.Fatalf("expected only user 1's record, got %v", ds)
	}
}
