package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/service"
)

// DefaultSessionCookie is the cookie the dashboard stores its session token in.
const DefaultSessionCookie = "__session"

const lastUsedTimeout = 5 * time.Second

// APIKeyLookup finds API key candidates by their public prefix.
type APIKeyLookup interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// SessionVerifier validates identity provider session tokens.
type SessionVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// UserMirror records the account behind a verified session.
type UserMirror interface {
	Mirror(ctx context.Context, identity *auth.Identity) (*model.User, error)
}

// AuthCache stores verified principals between requests.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
}

// AuthConfig holds dependencies for the auth middleware.
// Cache, Users and Metrics are optional.
type AuthConfig struct {
	Logger        *slog.Logger
	Keys          APIKeyLookup
	Sessions      SessionVerifier
	Users         UserMirror
	Cache         AuthCache
	Metrics       metrics.Recorder
	SessionCookie string
	// MinDuration pads every outcome so timing does not reveal which check failed.
	MinDuration time.Duration
}

// Auth resolves the caller from a session token or an API key and stores
// the principal in the request context. Every failure gets the same 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, reason := authenticate(cfg, r)
			if principal == nil {
				cfg.Logger.Warn("auth failed",
					slog.String("reason", reason),
					slog.String("ip", getClientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate returns the principal, or nil and a log reason.
func authenticate(cfg AuthConfig, r *http.Request) (*model.AuthContext, string) {
	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed < cfg.MinDuration {
			time.Sleep(cfg.MinDuration - elapsed)
		}
	}()

	credential := extractCredential(r, cfg.SessionCookie)
	if credential == "" {
		return nil, "missing_credential"
	}

	ctx := r.Context()
	cacheKey := auth.CacheKey(credential)

	if cfg.Cache != nil {
		cached, err := cfg.Cache.GetAuthContext(ctx, cacheKey)
		if err != nil {
			cfg.Logger.Warn("auth cache read failed", slog.String("error", err.Error()))
		}
		if cached != nil {
			cfg.Metrics.IncAuthCacheHit()
			return cached, ""
		}
		cfg.Metrics.IncAuthCacheMiss()
	}

	var (
		principal *model.AuthContext
		reason    string
		cacheable bool
	)
	if auth.LooksLikeAPIKey(credential) {
		principal, reason = authenticateAPIKey(cfg, ctx, credential)
		cacheable = principal != nil
	} else {
		principal, cacheable, reason = authenticateSession(cfg, ctx, credential)
	}
	if principal == nil {
		return nil, reason
	}

	if cfg.Cache != nil && cacheable {
		if err := cfg.Cache.SetAuthContext(ctx, cacheKey, principal); err != nil {
			cfg.Logger.Warn("auth cache write failed", slog.String("error", err.Error()))
		}
	}

	return principal, ""
}

func authenticateAPIKey(cfg AuthConfig, ctx context.Context, credential string) (*model.AuthContext, string) {
	if cfg.Keys == nil {
		return nil, "api_keys_disabled"
	}

	parsed, err := auth.ParseAPIKey(credential)
	if err != nil {
		return nil, "invalid_format"
	}

	candidates, err := cfg.Keys.GetAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("api key lookup failed", slog.String("error", err.Error()))
		return nil, "lookup_failed"
	}

	for _, key := range candidates {
		ok, err := auth.VerifySecret(credential, key.KeyHash)
		if err != nil || !ok {
			continue
		}

		go touchLastUsed(cfg, key.ID)

		return &model.AuthContext{
			UserID:        key.UserID,
			Source:        model.SourceAPIKey,
			KeyID:         key.ID,
			KeyPrefix:     key.KeyPrefix,
			Scopes:        key.Scopes,
			RateLimitTier: key.RateLimitTier,
		}, ""
	}

	return nil, "key_not_found"
}

// authenticateSession verifies a session token and refreshes the user mirror.
// A principal whose mirror could not be written is not cached, so the next
// request retries the write.
func authenticateSession(cfg AuthConfig, ctx context.Context, token string) (*model.AuthContext, bool, string) {
	if cfg.Sessions == nil {
		return nil, false, "sessions_disabled"
	}

	identity, err := cfg.Sessions.Verify(token)
	if err != nil {
		return nil, false, "invalid_session"
	}

	principal := &model.AuthContext{
		UserID:        identity.UserID,
		Source:        model.SourceSession,
		Scopes:        append([]string(nil), model.ValidScopes...),
		RateLimitTier: model.TierPro,
		ExpiresAt:     identity.ExpiresAt,
	}

	if cfg.Users == nil {
		return principal, true, ""
	}

	if _, err := cfg.Users.Mirror(ctx, identity); err != nil {
		level := slog.LevelError
		if errors.Is(err, service.ErrIdentityWithoutEmail) || errors.Is(err, service.ErrEmailTaken) {
			level = slog.LevelWarn
		}
		cfg.Logger.Log(ctx, level, "user mirror failed",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		return principal, false, ""
	}

	return principal, true, ""
}

// touchLastUsed records key usage off the request path.
func touchLastUsed(cfg AuthConfig, keyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), lastUsedTimeout)
	defer cancel()
	if err := cfg.Keys.UpdateAPIKeyLastUsed(ctx, keyID); err != nil {
		cfg.Logger.Warn("failed to update last_used_at",
			slog.String("key_id", keyID),
			slog.String("error", err.Error()),
		)
	}
}

// extractCredential reads the caller credential.
// Order: Authorization Bearer, X-API-Key, then the session cookie.
func extractCredential(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}

	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="spendwise"`)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
}
