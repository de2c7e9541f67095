package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"weekspend/internal/amqp"
	"weekspend/internal/core"
	"weekspend/internal/store"
)

// EventPublisher announces expense changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, evt *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates expense writes across the store and AMQP.
type ExpenseService struct {
	store     store.Store
	publisher EventPublisher
}

// NewExpenseService wires the store with an optional publisher; pass nil to
// run without events.
func NewExpenseService(s store.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     s,
		publisher: publisher,
	}
}

// CreateExpense validates and saves e, then publishes expense.created.
// A publish failure is logged and never fails the request: the store is
// the source of truth.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseCreated, saved.ID, saved.Date))
	return saved, nil
}

// DeleteExpense removes the expense and publishes expense.deleted.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.RemoveExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseDeleted, id, core.Date{}))
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, evt *amqp.ExpenseEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP not configured, skipping expense event", "type", evt.Type)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", evt.Type, "id", evt.ID, "error", err)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
