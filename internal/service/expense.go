// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/money"
	"github.com/spendwise/spendwise/internal/repository"
)

const dateOnlyLayout = "2006-01-02"

// ExpenseStore is the persistence the expense service needs.
// *repository.Repository satisfies it.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *model.Expense) error
	GetExpenseForUser(ctx context.Context, id, userID string) (*model.Expense, error)
	ListExpensesByUser(ctx context.Context, userID string, filter repository.ExpenseFilter) ([]*model.Expense, error)
	UpdateExpenseForUser(ctx context.Context, e *model.Expense) error
	DeleteExpenseForUser(ctx context.Context, id, userID string) error
}

// ExpenseService handles expense business logic.
type ExpenseService struct {
	store   ExpenseStore
	metrics metrics.Recorder
	now     func() time.Time
	newID   func() string
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store ExpenseStore, recorder metrics.Recorder) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExpenseService{
		store:   store,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:   func() string { return ulid.Make().String() },
	}
}

// ExpenseInput carries client-supplied expense fields.
// Each field records whether it was sent and whether it was null.
type ExpenseInput struct {
	Name        model.Optional[string]
	Amount      model.Optional[decimal.Decimal]
	Date        model.Optional[string]
	Category    model.Optional[string]
	Description model.Optional[string]
}

// UpdateExpenseInput is a merge-patch against an existing expense.
type UpdateExpenseInput struct {
	ID string
	ExpenseInput
}

// ListExpensesInput bounds a listing by date. Both ends are inclusive and optional.
type ListExpensesInput struct {
	From string
	To   string
}

// List returns the caller's expenses, newest date first.
func (s *ExpenseService) List(ctx context.Context, callerID string, input ListExpensesInput) ([]*model.Expense, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}

	filter, err := s.listFilter(input)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByUser(ctx, callerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, nil
}

// Get returns one expense owned by the caller.
func (s *ExpenseService) Get(ctx context.Context, callerID, id string) (*model.Expense, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}
	if id == "" {
		return nil, s.invalid(MsgMissingID)
	}

	return s.lookup(ctx, callerID, id)
}

// Create validates input and stores a new expense for the caller.
func (s *ExpenseService) Create(ctx context.Context, callerID string, input ExpenseInput) (*model.Expense, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}

	name := strings.TrimSpace(input.Name.Value)
	if !input.Name.Present() || name == "" ||
		!input.Amount.Present() ||
		!input.Date.Present() || input.Date.Value == "" ||
		!input.Category.Present() || input.Category.Value == "" {
		return nil, s.invalid(MsgMissingFields)
	}

	amount, err := s.normalizeAmount(input.Amount.Value)
	if err != nil {
		return nil, err
	}

	category, ok := model.ParseCategory(input.Category.Value)
	if !ok {
		return nil, s.invalid(MsgInvalidCategory)
	}

	date, err := parseDate(input.Date.Value)
	if err != nil {
		return nil, s.invalid(MsgInvalidDate)
	}

	now := s.now()
	expense := &model.Expense{
		ID:          s.newID(),
		UserID:      callerID,
		Name:        name,
		Amount:      amount,
		Date:        date,
		Category:    category,
		Description: descriptionOrNil(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.metrics.IncExpenseCreated()

	return expense, nil
}

// Update applies a merge-patch to an owned expense.
// Ownership is checked before field validation; a foreign expense is not found.
func (s *ExpenseService) Update(ctx context.Context, callerID string, input UpdateExpenseInput) (*model.Expense, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}
	if input.ID == "" {
		return nil, s.invalid(MsgMissingID)
	}

	existing, err := s.lookup(ctx, callerID, input.ID)
	if err != nil {
		return nil, err
	}

	merged, err := s.merge(existing, input.ExpenseInput)
	if err != nil {
		return nil, err
	}
	merged.UpdatedAt = s.now()

	if err := s.store.UpdateExpenseForUser(ctx, merged); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	s.metrics.IncExpenseUpdated()

	return merged, nil
}

// Delete permanently removes an owned expense.
func (s *ExpenseService) Delete(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return auth.ErrUnauthenticated
	}
	if id == "" {
		return s.invalid(MsgMissingID)
	}

	if err := s.store.DeleteExpenseForUser(ctx, id, callerID); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.metrics.IncExpenseDeleted()

	return nil
}

func (s *ExpenseService) lookup(ctx context.Context, callerID, id string) (*model.Expense, error) {
	expense, err := s.store.GetExpenseForUser(ctx, id, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// merge returns a copy of existing with every present field of patch applied.
// existing is never modified, so a rejected patch leaves no trace.
func (s *ExpenseService) merge(existing *model.Expense, patch ExpenseInput) (*model.Expense, error) {
	merged := existing.Clone()

	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, s.invalid(MsgNameEmpty)
		}
		merged.Name = name
	}

	if patch.Amount.Set {
		if patch.Amount.Null {
			return nil, s.invalid(MsgAmountPositive)
		}
		amount, err := s.normalizeAmount(patch.Amount.Value)
		if err != nil {
			return nil, err
		}
		merged.Amount = amount
	}

	if patch.Date.Set {
		if patch.Date.Null {
			return nil, s.invalid(MsgInvalidDate)
		}
		date, err := parseDate(patch.Date.Value)
		if err != nil {
			return nil, s.invalid(MsgInvalidDate)
		}
		merged.Date = date
	}

	if patch.Category.Set {
		category, ok := model.ParseCategory(patch.Category.Value)
		if patch.Category.Null || !ok {
			return nil, s.invalid(MsgInvalidCategory)
		}
		merged.Category = category
	}

	if patch.Description.Set {
		merged.Description = descriptionOrNil(patch.Description)
	}

	return merged, nil
}

func (s *ExpenseService) normalizeAmount(major decimal.Decimal) (int64, error) {
	cents, err := money.ToMinorUnits(major)
	switch {
	case errors.Is(err, money.ErrTooLarge):
		return 0, s.invalid(MsgAmountTooLarge)
	case err != nil:
		return 0, s.invalid(MsgAmountPositive)
	}
	return cents, nil
}

func (s *ExpenseService) listFilter(input ListExpensesInput) (repository.ExpenseFilter, error) {
	var filter repository.ExpenseFilter

	if input.From != "" {
		from, err := parseDate(input.From)
		if err != nil {
			return filter, s.invalid(MsgInvalidDateRange)
		}
		filter.From = &from
	}

	if input.To != "" {
		to, err := parseDate(input.To)
		if err != nil {
			return filter, s.invalid(MsgInvalidDateRange)
		}
		// A bare calendar day covers the whole day.
		if len(input.To) == len(dateOnlyLayout) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &to
	}

	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, s.invalid(MsgInvalidDateRange)
	}

	return filter, nil
}

func (s *ExpenseService) invalid(msg string) error {
	s.metrics.IncValidationFailure()
	return newValidationError(msg)
}

// parseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD days (UTC midnight).
// Results are truncated to the microsecond precision of timestamptz.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Truncate(time.Microsecond), nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// descriptionOrNil maps null and "" to no description.
func descriptionOrNil(opt model.Optional[string]) *string {
	if !opt.Present() || opt.Value == "" {
		return nil
	}
	d := opt.Value
	return &d
}
