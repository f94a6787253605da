package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type fakeStore struct {
	expenses map[int64]core.ExpenseRecord
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{expenses: map[int64]core.ExpenseRecord{}, nextID: 1}
}

func (f *fakeStore) CreateExpense(ctx context.Context, e core.ExpenseRecord) (int64, error) {
	id := f.nextID
	f.nextID++
	e.ID = id
	f.expenses[id] = e
	return id, nil
}

func (f *fakeStore) GetExpense(ctx context.Context, id, userID int64) (*core.ExpenseRecord, error) {
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (f *fakeStore) UpdateExpense(ctx context.Context, id, userID int64, p storage.UpdateExpenseParams) error {
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return storage.ErrNotFound
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
	}
	if p.BaseAmount != nil {
		e.BaseAmount = *p.BaseAmount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = core.DateOnly(*p.Date)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	f.expenses[id] = e
	return nil
}

func (f *fakeStore) DeleteExpense(ctx context.Context, id, userID int64) error {
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeStore) Fetch(ctx context.Context, userID int64, filter core.ExpenseFilter) ([]core.ExpenseRecord, error) {
	out := []core.ExpenseRecord{}
	for _, e := range f.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

// fixedConverter multiplies by a fixed rate per source currency.
type fixedConverter struct {
	rates map[string]float64
}

func (c *fixedConverter) Convert(ctx context.Context, amount float64, from string) float64 {
	rate, ok := c.rates[from]
	if !ok {
		return amount
	}
	return core.Round2(amount * rate)
}

type recordingPublisher struct {
	events []string
	fail   error
}

func (p *recordingPublisher) PublishExpenseEvent(ctx context.Context, id int64, action string) error {
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, action)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

func validExpense() core.ExpenseRecord {
	return core.ExpenseRecord{
		UserID:      1,
		Amount:      100,
		Currency:    "USD",
		Category:    "Groceries",
		Date:        time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		Description: "weekly shop",
	}
}

func newTestService(store *fakeStore, pub *recordingPublisher) *ExpenseService {
	conv := &fixedConverter{rates: map[string]float64{"USD": 80, "INR": 1}}
	return NewExpenseService(store, conv, pub, testLogger())
}

func TestCreateConvertsAndPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	got, err := svc.Create(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got.ID != 1 {
		t.Errorf("expected ID 1, got %d", got.ID)
	}
	if got.BaseAmount != 8000 {
		t.Errorf("expected base amount 8000, got %v", got.BaseAmount)
	}
	if !got.Date.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected date truncated to midnight, got %v", got.Date)
	}
	if len(pub.events) != 1 || pub.events[0] != amqp.ActionCreated {
		t.Errorf("expected one created event, got %v", pub.events)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingPublisher{})

	e := validExpense()
	e.Amount = -5
	if _, err := svc.Create(context.Background(), e); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateSurvivesDeadPublisher(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{fail: errors.New("broker down")}
	svc := newTestService(store, pub)

	got, err := svc.Create(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create should succeed despite dead broker, got %v", err)
	}
	if _, ok := store.expenses[got.ID]; !ok {
		t.Error("expected expense stored")
	}
}

func TestCreateWithoutPublisher(t *testing.T) {
	conv := &fixedConverter{rates: map[string]float64{}}
	svc := NewExpenseService(newFakeStore(), conv, nil, testLogger())

	if _, err := svc.Create(context.Background(), validExpense()); err != nil {
		t.Fatalf("create without publisher: %v", err)
	}
}

func TestUpdateRecomputesBaseAmount(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	created, err := svc.Create(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := 50.0
	got, err := svc.Update(context.Background(), created.ID, 1, storage.UpdateExpenseParams{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Amount != 50 || got.BaseAmount != 4000 {
		t.Errorf("expected amount 50 / base 4000, got %v / %v", got.Amount, got.BaseAmount)
	}

	// Description-only updates leave the base amount alone.
	desc := "monthly shop"
	got, err = svc.Update(context.Background(), created.ID, 1, storage.UpdateExpenseParams{Description: &desc})
	if err != nil {
		t.Fatalf("update description: %v", err)
	}
	if got.BaseAmount != 4000 {
		t.Errorf("expected base amount unchanged at 4000, got %v", got.BaseAmount)
	}
}

func TestUpdateRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingPublisher{})

	created, err := svc.Create(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	zero := 0.0
	if _, err := svc.Update(context.Background(), created.ID, 1, storage.UpdateExpenseParams{Amount: &zero}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDeleteScopedToOwnerAndPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	created, err := svc.Create(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(pub.events) != 2 || pub.events[1] != amqp.ActionDeleted {
		t.Errorf("expected created+deleted events, got %v", pub.events)
	}
}
