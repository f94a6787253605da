// Package services orchestrates expense operations across the store,
// the currency converter and the event bus.
package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ExpenseStore is the repository surface the expense service uses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.ExpenseRecord) (int64, error)
	GetExpense(ctx context.Context, id, userID int64) (*core.ExpenseRecord, error)
	UpdateExpense(ctx context.Context, id, userID int64, p storage.UpdateExpenseParams) error
	DeleteExpense(ctx context.Context, id, userID int64) error
	Fetch(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseRecord, error)
	Close() error
}

// Converter turns an amount in a given currency into the base
// currency. Conversion never fails; unknown currencies pass through at
// a rate of 1 and the rate source falls back to a static table.
type Converter interface {
	Convert(ctx context.Context, amount float64, from string) float64
}

// EventPublisher emits expense change events for the backup pipeline.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, id int64, action string) error
	Close() error
}

// ExpenseService validates, converts and stores expenses, then
// publishes change events. Event publication is best effort: the store
// is the source of truth and a dead broker never fails a request.
type ExpenseService struct {
	store     ExpenseStore
	converter Converter
	publisher EventPublisher
	logger    *log.Logger
}

func NewExpenseService(store ExpenseStore, converter Converter, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		converter: converter,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// Create validates the expense, converts its amount into the base
// currency and stores it. The stored record is returned with its ID
// and base amount filled in.
func (s *ExpenseService) Create(ctx context.Context, e core.ExpenseRecord) (*core.ExpenseRecord, error) {
	e.Category = core.NormalizeCategory(e.Category)
	e.Date = core.DateOnly(e.Date)
	if err := e.Validate(); err != nil {
		return nil, err
	}

	e.BaseAmount = s.converter.Convert(ctx, e.Amount, e.Currency)

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.publishEvent(ctx, id, amqp.ActionCreated)

	s.logger.InfoContext(ctx, "expense created",
		log.FieldExpenseID, id,
		log.FieldUserID, e.UserID,
		log.FieldCategory, e.Category,
		log.FieldAmount, e.Amount,
		log.FieldCurrency, e.Currency,
		log.FieldBaseAmount, e.BaseAmount)
	return &e, nil
}

// Get returns one expense scoped to its owner.
func (s *ExpenseService) Get(ctx context.Context, id, userID int64) (*core.ExpenseRecord, error) {
	return s.store.GetExpense(ctx, id, userID)
}

// List returns a user's expenses matching the filter, newest first.
func (s *ExpenseService) List(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseRecord, error) {
	return s.store.Fetch(ctx, userID, f)
}

// Update applies a partial update. When the amount or currency changes
// the base amount is recomputed from the merged record; a change event
// re-triggers the backup.
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, p storage.UpdateExpenseParams) (*core.ExpenseRecord, error) {
	current, err := s.store.GetExpense(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if p.Category != nil {
		normalized := core.NormalizeCategory(*p.Category)
		p.Category = &normalized
	}
	if p.Amount != nil && *p.Amount <= 0 {
		return nil, core.ErrInvalidAmount
	}

	if p.Amount != nil || p.Currency != nil {
		amount := current.Amount
		if p.Amount != nil {
			amount = *p.Amount
		}
		currency := current.Currency
		if p.Currency != nil {
			currency = *p.Currency
		}
		base := s.converter.Convert(ctx, amount, currency)
		p.BaseAmount = &base
	}

	if err := s.store.UpdateExpense(ctx, id, userID, p); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, id, amqp.ActionCreated)

	return s.store.GetExpense(ctx, id, userID)
}

// Delete removes an expense and publishes a deletion event so the
// backup row goes away too.
func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.store.DeleteExpense(ctx, id, userID); err != nil {
		return err
	}

	s.publishEvent(ctx, id, amqp.ActionDeleted)

	s.logger.InfoContext(ctx, "expense deleted",
		log.FieldExpenseID, id, log.FieldUserID, userID)
	return nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, id int64, action string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "event publisher not configured, skipping event",
			log.FieldExpenseID, id, "action", action)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, id, action); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish expense event",
			log.FieldExpenseID, id, "action", action, log.FieldError, err)
	}
}

// Close closes the store and the event publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
