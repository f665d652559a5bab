// Package auth resolves callers: session tokens, API keys, and the request context.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/spendwise/spendwise/internal/model"
)

// ErrUnauthenticated means no verified caller is attached to the request.
var ErrUnauthenticated = errors.New("unauthenticated")

type principalKey struct{}

// ContextWithAuth attaches the verified principal to ctx.
func ContextWithAuth(ctx context.Context, principal *model.AuthContext) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// AuthFromContext returns the principal, or nil for anonymous requests.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	principal, _ := ctx.Value(principalKey{}).(*model.AuthContext)
	return principal
}

// UserIDFromContext returns the caller's user id, or "" when unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if principal := AuthFromContext(ctx); principal != nil {
		return principal.UserID
	}
	return ""
}

// CacheKey derives the principal cache key for a raw credential.
// The credential itself never reaches Redis.
func CacheKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:16])
}
