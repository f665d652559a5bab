package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/handler/dto"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/service"
)

// APIKeyService manages a caller's API keys.
type APIKeyService interface {
	Create(ctx context.Context, callerID string, input service.CreateAPIKeyInput) (*service.CreatedAPIKey, error)
	List(ctx context.Context, callerID string) ([]*model.APIKey, error)
	Revoke(ctx context.Context, callerID, keyID string) error
}

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	svc    APIKeyService
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(svc APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{svc: svc, logger: logger}
}

// CreateAPIKey handles POST /api/v1/api-keys.
// The plaintext key is in this response and nowhere else.
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAPIKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), req.ToInput())
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToAPIKeyCreated(created))
}

// ListAPIKeys handles GET /api/v1/api-keys.
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAPIKeyListResponse(keys))
}

// RevokeAPIKey handles DELETE /api/v1/api-keys/{key_id}.
// Foreign and already revoked keys are both 404.
func (h *APIKeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Revoke(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "key_id")); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
