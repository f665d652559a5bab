package dto

import (
	"time"

	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/service"
)

// CreateAPIKeyRequest is the body of POST /api-keys.
type CreateAPIKeyRequest struct {
	Name          string   `json:"name,omitempty"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier,omitempty"`
}

func (r *CreateAPIKeyRequest) ToInput() service.CreateAPIKeyInput {
	return service.CreateAPIKeyInput{
		Name:          r.Name,
		Scopes:        r.Scopes,
		RateLimitTier: r.RateLimitTier,
	}
}

// APIKey is a stored key as listed to its owner. The hash never leaves the server.
type APIKey struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	KeyPrefix     string     `json:"key_prefix"`
	Scopes        []string   `json:"scopes"`
	RateLimitTier string     `json:"rate_limit_tier"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	Revoked       bool       `json:"revoked"`
}

// APIKeyCreated carries the plaintext key. It is returned exactly once.
type APIKeyCreated struct {
	ID            string    `json:"id"`
	Key           string    `json:"key"`
	Name          string    `json:"name,omitempty"`
	KeyPrefix     string    `json:"key_prefix"`
	Scopes        []string  `json:"scopes"`
	RateLimitTier string    `json:"rate_limit_tier"`
	CreatedAt     time.Time `json:"created_at"`
}

type APIKeyListResponse struct {
	Keys []APIKey `json:"keys"`
}

func ToAPIKey(k *model.APIKey) APIKey {
	return APIKey{
		ID:            k.ID,
		Name:          k.Name,
		KeyPrefix:     k.KeyPrefix,
		Scopes:        k.Scopes,
		RateLimitTier: k.RateLimitTier,
		CreatedAt:     k.CreatedAt.UTC(),
		LastUsedAt:    k.LastUsedAt,
		Revoked:       k.IsRevoked(),
	}
}

func ToAPIKeyListResponse(keys []*model.APIKey) APIKeyListResponse {
	out := make([]APIKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, ToAPIKey(k))
	}
	return APIKeyListResponse{Keys: out}
}

func ToAPIKeyCreated(created *service.CreatedAPIKey) APIKeyCreated {
	k := created.Key
	return APIKeyCreated{
		ID:            k.ID,
		Key:           created.Plaintext,
		Name:          k.Name,
		KeyPrefix:     k.KeyPrefix,
		Scopes:        k.Scopes,
		RateLimitTier: k.RateLimitTier,
		CreatedAt:     k.CreatedAt.UTC(),
	}
}
