package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

// APIKeyStore is the persistence the API key service needs.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKeyForUser(ctx context.Context, id, userID string) error
}

// AuthInvalidator drops cached principals of a revoked key.
type AuthInvalidator interface {
	InvalidateKeyAuthContexts(ctx context.Context, keyID string) error
}

// APIKeyService issues and revokes API keys for their owners.
type APIKeyService struct {
	store       APIKeyStore
	invalidator AuthInvalidator
	logger      *slog.Logger
	env         string
}

// NewAPIKeyService creates a new APIKeyService. invalidator may be nil.
func NewAPIKeyService(store APIKeyStore, invalidator AuthInvalidator, env string, logger *slog.Logger) *APIKeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyService{
		store:       store,
		invalidator: invalidator,
		logger:      logger,
		env:         env,
	}
}

// CreateAPIKeyInput describes a key to issue.
type CreateAPIKeyInput struct {
	Name          string
	Scopes        []string
	RateLimitTier string
}

// CreatedAPIKey pairs the stored key with its plaintext, which is never stored.
type CreatedAPIKey struct {
	Key       *model.APIKey
	Plaintext string
}

// Create issues a new key for the caller.
func (s *APIKeyService) Create(ctx context.Context, callerID string, input CreateAPIKeyInput) (*CreatedAPIKey, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}

	scopes := input.Scopes
	if len(scopes) == 0 {
		scopes = []string{model.ScopeRead}
	}
	for _, scope := range scopes {
		if !slices.Contains(model.ValidScopes, scope) {
			return nil, newValidationError(MsgInvalidScope + ": " + scope)
		}
	}

	tier := input.RateLimitTier
	if tier == "" {
		tier = model.TierFree
	}
	if !model.IsValidTier(tier) {
		return nil, newValidationError("Invalid rate limit tier: " + tier)
	}

	generated, err := auth.GenerateAPIKey(s.env)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        callerID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: tier,
		Name:          input.Name,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	s.logger.Info("api_key_created",
		slog.String("key_id", key.ID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.String("user_id", key.UserID),
	)

	return &CreatedAPIKey{Key: key, Plaintext: generated.Plaintext}, nil
}

// List returns every key the caller owns, revoked ones included.
func (s *APIKeyService) List(ctx context.Context, callerID string) ([]*model.APIKey, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}

	keys, err := s.store.ListAPIKeysByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

// Revoke disables an owned key and evicts its cached principals.
func (s *APIKeyService) Revoke(ctx context.Context, callerID, keyID string) error {
	if callerID == "" {
		return auth.ErrUnauthenticated
	}
	if keyID == "" {
		return newValidationError("Key ID is required")
	}

	if err := s.store.RevokeAPIKeyForUser(ctx, keyID, callerID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return ErrAPIKeyNotFound
		}
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateKeyAuthContexts(ctx, keyID); err != nil {
			s.logger.Warn("auth cache invalidation failed",
				slog.String("key_id", keyID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("api_key_revoked",
		slog.String("key_id", keyID),
		slog.String("user_id", callerID),
	)

	return nil
}
