package bookings

import (
	"context"
	"fmt"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
)

// ListExpenses returns the expenses of a bucket. ApartmentID in f is ignored.
func (s *Service) ListExpenses(ctx context.Context, f repository.Filter) ([]models.Expense, error) {
	out, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	for i := range out {
		out[i] = out[i].In(s.loc)
	}
	return out, nil
}

func (s *Service) GetExpense(ctx context.Context, id string) (models.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return models.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e.In(s.loc), nil
}

// CreateExpense stores e in the bucket of its date, read in the service location.
func (s *Service) CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	if err := e.Validate(); err != nil {
		return models.Expense{}, err
	}
	e.Date = e.Date.In(s.loc)
	e.Year, e.Month = e.Date.Year(), int(e.Date.Month())
	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return models.Expense{}, fmt.Errorf("store expense: %w", err)
	}
	e.ID = id
	return e, nil
}

// UpdateExpense applies patch. A new date moves the expense to another bucket.
func (s *Service) UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (models.Expense, error) {
	current, err := s.GetExpense(ctx, id)
	if err != nil {
		return models.Expense{}, err
	}
	if patch.Date != nil {
		d := patch.Date.In(s.loc)
		patch.Date = &d
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return models.Expense{}, err
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateExpense(ctx, updated); err != nil {
		return models.Expense{}, fmt.Errorf("store expense: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}
