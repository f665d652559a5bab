package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spendwise/spendwise/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for cached principals.
	authCachePrefix = "auth:ctx:"
	// authKeyIndexPrefix indexes cache entries by API key id for revocation.
	authKeyIndexPrefix = "auth:key:"
	// AuthCacheTTL is how long a verified principal is trusted without re-checking.
	AuthCacheTTL = 5 * time.Minute
)

// cachedAuthContext is the Redis representation of a principal.
type cachedAuthContext struct {
	UserID        string   `json:"user_id"`
	Source        string   `json:"source"`
	KeyID         string   `json:"key_id,omitempty"`
	KeyPrefix     string   `json:"key_prefix,omitempty"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier,omitempty"`
	ExpiresAt     int64    `json:"expires_at,omitempty"`
}

// GetAuthContext returns the principal cached under cacheKey.
// A miss or an unreadable entry returns (nil, nil).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authCachePrefix+cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth context: %w", err)
	}

	var cached cachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr // corrupted entry is a miss
	}

	principal := &model.AuthContext{
		UserID:        cached.UserID,
		Source:        cached.Source,
		KeyID:         cached.KeyID,
		KeyPrefix:     cached.KeyPrefix,
		Scopes:        cached.Scopes,
		RateLimitTier: cached.RateLimitTier,
	}
	if cached.ExpiresAt > 0 {
		principal.ExpiresAt = time.Unix(cached.ExpiresAt, 0).UTC()
	}
	return principal, nil
}

// SetAuthContext caches a verified principal. API key principals are also
// indexed by key id so revocation can evict them. A session principal is
// never cached past its token expiry.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	ttl := authContextTTL(auth, time.Now())
	if ttl <= 0 {
		return nil
	}

	entry := cachedAuthContext{
		UserID:        auth.UserID,
		Source:        auth.Source,
		KeyID:         auth.KeyID,
		KeyPrefix:     auth.KeyPrefix,
		Scopes:        auth.Scopes,
		RateLimitTier: auth.RateLimitTier,
	}
	if !auth.ExpiresAt.IsZero() {
		entry.ExpiresAt = auth.ExpiresAt.Unix()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, authCachePrefix+cacheKey, data, ttl)
	if auth.KeyID != "" {
		indexKey := authKeyIndexPrefix + auth.KeyID
		pipe.SAdd(ctx, indexKey, cacheKey)
		pipe.Expire(ctx, indexKey, AuthCacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set auth context: %w", err)
	}
	return nil
}

// InvalidateKeyAuthContexts evicts every cached principal of an API key.
func (c *Cache) InvalidateKeyAuthContexts(ctx context.Context, keyID string) error {
	indexKey := authKeyIndexPrefix + keyID

	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read auth key index: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, authCachePrefix+m)
	}
	keys = append(keys, indexKey)

	return c.client.Del(ctx, keys...).Err()
}

func authContextTTL(auth *model.AuthContext, now time.Time) time.Duration {
	if auth.ExpiresAt.IsZero() {
		return AuthCacheTTL
	}
	return min(AuthCacheTTL, auth.ExpiresAt.Sub(now))
}
