package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/service"
)

// ExpenseRequest is the body of create, update and delete calls.
// Every field tracks presence so updates can merge-patch.
// amount accepts a JSON number or a numeric string in major units.
type ExpenseRequest struct {
	ID          string                          `json:"id,omitempty"`
	Name        model.Optional[string]          `json:"name"`
	Amount      model.Optional[decimal.Decimal] `json:"amount"`
	Date        model.Optional[string]          `json:"date"`
	Category    model.Optional[string]          `json:"category"`
	Description model.Optional[string]          `json:"description"`
}

// ToInput converts the request to service input.
func (r *ExpenseRequest) ToInput() service.ExpenseInput {
	return service.ExpenseInput{
		Name:        r.Name,
		Amount:      r.Amount,
		Date:        r.Date,
		Category:    r.Category,
		Description: r.Description,
	}
}

// ExpenseResponse is an expense as the dashboard reads it.
// amount is in minor units.
type ExpenseResponse struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Amount      int64          `json:"amount"`
	Date        time.Time      `json:"date"`
	Category    model.Category `json:"category"`
	Description *string        `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ToExpenseResponse converts an Expense to its wire form.
func ToExpenseResponse(e *model.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Name:        e.Name,
		Amount:      e.Amount,
		Date:        e.Date.UTC(),
		Category:    e.Category,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

// ToExpenseListResponse converts a listing. An empty listing is [] not null.
func ToExpenseListResponse(expenses []*model.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, ToExpenseResponse(e))
	}
	return out
}

// UserResponse is the caller's profile.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToUserResponse converts a User to its wire form.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

// MessageResponse confirms an action without returning a resource.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
