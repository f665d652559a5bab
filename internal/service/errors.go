package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every resource-not-found error.
// Resources the caller does not own are reported the same way.
var ErrNotFound = errors.New("not found")

// Resource-specific not-found errors. All match ErrNotFound via errors.Is.
var (
	ErrExpenseNotFound = fmt.Errorf("expense %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrAPIKeyNotFound  = fmt.Errorf("API key %w", ErrNotFound)
)

// Client-facing validation messages.
const (
	MsgMissingFields    = "Missing required fields: name, amount, date, category"
	MsgMissingID        = "Expense ID is required"
	MsgAmountPositive   = "Amount must be positive"
	MsgAmountTooLarge   = "Amount is too large"
	MsgInvalidCategory  = "Invalid category"
	MsgInvalidDate      = "Invalid date"
	MsgNameEmpty        = "Name cannot be empty"
	MsgInvalidDateRange = "Invalid date range"
	MsgInvalidScope     = "Invalid scope"
)

// ValidationError is a client input problem. Message is safe to return verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
