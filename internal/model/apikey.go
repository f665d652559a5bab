// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	// ScopeAdmin implies every other scope.
	ScopeAdmin = "admin"
)

// ValidScopes lists every grantable scope.
var ValidScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

const (
	TierFree      = "free"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

// TierLimit is a token bucket: refill per minute and bucket size.
// A zero RequestsPerMinute disables limiting.
type TierLimit struct {
	RequestsPerMinute int
	Burst             int
}

var tierLimits = map[string]TierLimit{
	TierFree:      {RequestsPerMinute: 120, Burst: 20},
	TierPro:       {RequestsPerMinute: 600, Burst: 50},
	TierUnlimited: {},
}

// IsValidTier reports whether tier names a known rate-limit tier.
func IsValidTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}

// LimitsFor returns the bucket for tier. Unknown tiers get the free bucket.
func LimitsFor(tier string) TierLimit {
	if limit, ok := tierLimits[tier]; ok {
		return limit
	}
	return tierLimits[TierFree]
}

// APIKey lets a user call the API from scripts without a browser session.
// Only the argon2id hash of the key is stored.
type APIKey struct {
	ID            string
	UserID        string
	KeyHash       string
	KeyPrefix     string
	Scopes        []string
	RateLimitTier string
	Name          string
	RevokedAt     *time.Time
	LastUsedAt    *time.Time
	CreatedAt     time.Time
}

func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

func (k *APIKey) HasScope(scope string) bool {
	return grants(k.Scopes, scope)
}

// Principal sources.
const (
	SourceSession = "session"
	SourceAPIKey  = "api_key"
)

// AuthContext is the resolved caller identity for one request.
// KeyID and KeyPrefix are empty for session principals.
// ExpiresAt is the session token expiry; zero for API keys.
type AuthContext struct {
	UserID        string
	Source        string
	KeyID         string
	KeyPrefix     string
	Scopes        []string
	RateLimitTier string
	ExpiresAt     time.Time
}

func (a *AuthContext) HasScope(scope string) bool {
	return grants(a.Scopes, scope)
}

// LimiterKey identifies the principal for per-caller rate limiting.
// Keys are limited individually; sessions share one bucket per user.
func (a *AuthContext) LimiterKey() string {
	if a.KeyID != "" {
		return "key:" + a.KeyID
	}
	return "user:" + a.UserID
}

func grants(held []string, scope string) bool {
	return slices.Contains(held, ScopeAdmin) || slices.Contains(held, scope)
}
