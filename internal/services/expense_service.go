package services

import (
	"context"
	"fmt"
	"log/slog"

	"loadbook/internal/core"
)

// ExpenseService persists expense records and resolves them into their typed
// variants for callers. Saves publish a sync message so the ledger worker
// mirrors the change; the local save is authoritative.
type ExpenseService struct {
	expenses ExpenseStore
	events   EventPublisher
}

func NewExpenseService(expenses ExpenseStore, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		events:   events,
	}
}

// List returns resolved expenses for one load, or all expenses when loadID
// is zero.
func (s *ExpenseService) List(ctx context.Context, loadID int64) ([]core.Expense, error) {
	recs, err := s.expenses.GetExpensesForLoad(ctx, loadID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.ResolveAll(recs), nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	rec, err := s.expenses.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Resolve(rec), nil
}

// Save validates and persists a record, then publishes a sync message.
// Publish failures are logged, never returned; the next save of the same
// record will carry a higher version and re-sync it.
func (s *ExpenseService) Save(ctx context.Context, rec *core.ExpenseRecord) (core.Expense, error) {
	if err := rec.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.expenses.SaveExpense(ctx, rec); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishExpenseSync(ctx, rec.ID, rec.Version); err != nil {
			slog.WarnContext(ctx, "failed to publish expense sync message",
				"expense_id", rec.ID, "version", rec.Version, "error", err)
		}
	}
	return core.Resolve(*rec), nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	return s.expenses.DeleteExpense(ctx, id)
}
