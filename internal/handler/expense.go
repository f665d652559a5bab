package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/handler/dto"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/service"
)

// ExpenseService is the expense business logic the handlers call.
type ExpenseService interface {
	List(ctx context.Context, callerID string, input service.ListExpensesInput) ([]*model.Expense, error)
	Get(ctx context.Context, callerID, id string) (*model.Expense, error)
	Create(ctx context.Context, callerID string, input service.ExpenseInput) (*model.Expense, error)
	Update(ctx context.Context, callerID string, input service.UpdateExpenseInput) (*model.Expense, error)
	Delete(ctx context.Context, callerID, id string) error
}

// ExpenseHandler handles HTTP requests for expense operations.
type ExpenseHandler struct {
	svc    ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/expense.
// Optional from and to query parameters bound the date inclusively.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := service.ListExpensesInput{
		From: query.Get("from"),
		To:   query.Get("to"),
	}

	expenses, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()), input)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExpenseListResponse(expenses))
}

// Get handles GET /api/v1/expense/{id}.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Create handles POST /api/v1/expense.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	expense, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), req.ToInput())
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("expense_created",
		slog.String("expense_id", expense.ID),
		slog.String("user_id", expense.UserID),
		slog.String("category", string(expense.Category)),
	)

	writeJSON(w, http.StatusCreated, dto.ToExpenseResponse(expense))
}

// Replace handles PUT /api/v1/expense with the id in the body.
// Despite the verb, absent fields are left unchanged.
func (h *ExpenseHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	h.update(w, r, req.ID, &req)
}

// Patch handles PATCH /api/v1/expense/{id}.
func (h *ExpenseHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	h.update(w, r, chi.URLParam(r, "id"), &req)
}

func (h *ExpenseHandler) update(w http.ResponseWriter, r *http.Request, id string, req *dto.ExpenseRequest) {
	expense, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), service.UpdateExpenseInput{
		ID:           id,
		ExpenseInput: req.ToInput(),
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("expense_updated",
		slog.String("expense_id", expense.ID),
		slog.String("user_id", expense.UserID),
	)

	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Delete handles DELETE /api/v1/expense?id= and DELETE /api/v1/expense
// with an {"id": ...} body.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		var req dto.ExpenseRequest
		err := decodeJSON(r, &req)
		switch {
		case errors.Is(err, errEmptyBody):
		case err != nil:
			writeDecodeError(w, err)
			return
		default:
			id = req.ID
		}
	}

	h.delete(w, r, id)
}

// DeleteByPath handles DELETE /api/v1/expense/{id}.
func (h *ExpenseHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, chi.URLParam(r, "id"))
}

func (h *ExpenseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	callerID := auth.UserIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), callerID, id); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("expense_deleted",
		slog.String("expense_id", id),
		slog.String("user_id", callerID),
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Expense deleted successfully"})
}
