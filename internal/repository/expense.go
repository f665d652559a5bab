package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spendwise/spendwise/internal/model"
)

// Common errors for expense repository operations.
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrExpenseInvalid  = errors.New("expense violates a table constraint")
)

// ExpenseFilter narrows a listing. Zero value lists everything for the owner.
type ExpenseFilter struct {
	From *time.Time
	To   *time.Time
}

const expenseColumns = `id, user_id, name, amount, date, category, description, created_at, updated_at`

// CreateExpense inserts a new expense.
func (r *Repository) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, name, amount, date, category, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Name,
		e.Amount,
		e.Date,
		string(e.Category),
		e.Description,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return ErrUserNotFound
		case isCheckViolation(err):
			return fmt.Errorf("%w: %v", ErrExpenseInvalid, err)
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetExpenseForUser fetches an expense only if userID owns it.
// A foreign-owned expense yields ErrExpenseNotFound, same as a missing one.
func (r *Repository) GetExpenseForUser(ctx context.Context, id, userID string) (*model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return e, nil
}

// ListExpensesByUser returns the owner's expenses, newest date first.
func (r *Repository) ListExpensesByUser(ctx context.Context, userID string, filter ExpenseFilter) ([]*model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if filter.From != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIndex)
		args = append(args, *filter.To)
	}

	query += " ORDER BY date DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*model.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// UpdateExpenseForUser writes every mutable field of e.
// The owner filter is part of the statement, so a concurrent delete or a
// foreign owner both surface as ErrExpenseNotFound.
func (r *Repository) UpdateExpenseForUser(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE expenses
		SET name = $3, amount = $4, date = $5, category = $6, description = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Name,
		e.Amount,
		e.Date,
		string(e.Category),
		e.Description,
		e.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", ErrExpenseInvalid, err)
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// DeleteExpenseForUser permanently removes an owned expense.
func (r *Repository) DeleteExpenseForUser(ctx context.Context, id, userID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// scanExpense scans one row from either QueryRow or Rows.
func scanExpense(row pgx.Row) (*model.Expense, error) {
	var (
		e        model.Expense
		category string
	)
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Name,
		&e.Amount,
		&e.Date,
		&category,
		&e.Description,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Category = model.Category(category)
	return &e, nil
}
