package middleware

import (
	"log/slog"
	"net/http"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/model"
)

// RequireScope rejects principals holding none of the required scopes.
// Must be applied after Auth. Admin implies every scope.
func RequireScope(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.AuthFromContext(r.Context())
			if principal == nil {
				writeAuthError(w)
				return
			}

			for _, scope := range required {
				if principal.HasScope(scope) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Warn("scope denied",
				slog.String("user_id", principal.UserID),
				slog.String("key_id", principal.KeyID),
				slog.Any("required", required),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			writeError(w, http.StatusForbidden, "FORBIDDEN",
				"Insufficient permissions. Required scope: "+required[0])
		})
	}
}

// RequireRead requires the read scope.
func RequireRead() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeRead)
}

// RequireWrite requires the write scope.
func RequireWrite() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeWrite)
}

// RequireAdmin requires the admin scope.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeAdmin)
}
