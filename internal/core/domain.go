package core

import (
	"errors"
	"strings"
	"time"
)

// CategoryOther is the catch-all bucket records fall into when no
// category was supplied.
const CategoryOther = "Other"

// Categories is the fixed expense taxonomy. Order matters only for
// presentation (forms, dropdowns); aggregation treats labels as opaque.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Personal Care",
	"Groceries",
	"Rent",
	"Insurance",
	"Investments",
	CategoryOther,
}

type (
	// ExpenseRecord is one logged transaction. Amount is in the original
	// currency, BaseAmount in the accounting currency all analytics run on.
	ExpenseRecord struct {
		ID          int64
		UserID      int64
		Amount      float64
		Currency    string
		BaseAmount  float64
		Category    string
		Date        time.Time // calendar date, UTC midnight
		Description string
		CreatedAt   time.Time
	}

	// ExpenseFilter narrows a fetch from the expense store. Nil bounds mean
	// unbounded on that side; both bounds are inclusive.
	ExpenseFilter struct {
		From     *time.Time
		To       *time.Time
		Category string
		Limit    int
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyCurrency   = errors.New("empty currency code")
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DateOnly strips any time-of-day component, keeping the UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidCategory reports whether label is one of the fixed taxonomy entries.
func ValidCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

// NormalizeCategory maps blank or unknown labels to CategoryOther.
func NormalizeCategory(label string) string {
	label = strings.TrimSpace(label)
	if label == "" || !ValidCategory(label) {
		return CategoryOther
	}
	return label
}

// Validate checks an expense record at the entry boundary. Cleaning inside
// the analytics pipeline is more forgiving; creation is strict.
func (e ExpenseRecord) Validate() error {
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Currency) == "" {
		return ErrEmptyCurrency
	}
	if !ValidCategory(e.Category) {
		return ErrInvalidCategory
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
