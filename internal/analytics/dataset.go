// Package analytics turns raw expense records into cleaned datasets,
// time-bucketed aggregates, and summary statistics. Everything here is
// a pure computation over a snapshot fetched from the expense store;
// nothing is cached or mutated, and the reference "now" is injected so
// every trailing window is deterministic under test.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"fintrack/internal/core"
)

// ExpenseSource is the slice of the expense store the analytics
// pipeline consumes. It must return an empty slice, not an error, when
// no records match.
type ExpenseSource interface {
	Fetch(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseRecord, error)
}

// Dataset is an ordered, cleaned collection of one user's expense
// records. It is rebuilt on every analytics call.
type Dataset []core.ExpenseRecord

// Service wires the expense store to the aggregate and statistics
// functions.
type Service struct {
	source ExpenseSource
	now    func() time.Time
}

func NewService(source ExpenseSource, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, now: now}
}

// Clean normalizes raw records into a well-typed dataset: categories
// default to "Other", descriptions to "", non-finite amounts to 0, and
// dates are truncated to their calendar day. Records without a date are
// dropped. Clean is idempotent.
func Clean(records []core.ExpenseRecord) Dataset {
	ds := make(Dataset, 0, len(records))
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		rec.Date = core.DateOnly(rec.Date)
		rec.Category = core.NormalizeCategory(rec.Category)
		if !isFinite(rec.Amount) {
			rec.Amount = 0
		}
		if !isFinite(rec.BaseAmount) {
			rec.BaseAmount = 0
		}
		ds = append(ds, rec)
	}
	return ds
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Dataset fetches and cleans one user's records for an optional
// inclusive date range. An inverted range normalizes to an empty
// dataset rather than an error.
func (s *Service) Dataset(ctx context.Context, userID int64, from, to *time.Time) (Dataset, error) {
	if from != nil && to != nil && from.After(*to) {
		return Dataset{}, nil
	}

	records, err := s.source.Fetch(ctx, userID, core.ExpenseFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return Clean(records), nil
}

// Window returns the dataset for the trailing window of the given
// number of days ending at the injected now.
func (s *Service) Window(ctx context.Context, userID int64, days int) (Dataset, error) {
	to := s.now()
	from := to.AddDate(0, 0, -days)
	return s.Dataset(ctx, userID, &from, &to)
}
