package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/utils"
)

type ctxClaimsKey struct{}

// RequireToken verifies the Bearer token and injects the verified claims
// into the request context.
func RequireToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				utils.JSONError(w, http.StatusUnauthorized, "authorization required")
				return
			}
			claims, err := ParseToken(secret, parts[1])
			if err != nil {
				logger.Warn("invalid_token", zap.String("path", r.URL.Path), zap.Error(err))
				utils.JSONError(w, http.StatusForbidden, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxClaimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose verified role is not admin. It must be
// chained after RequireToken.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			utils.JSONError(w, http.StatusForbidden, "admin rights required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified claims or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	if v := ctx.Value(ctxClaimsKey{}); v != nil {
		if c, ok := v.(*Claims); ok {
			return c
		}
	}
	return nil
}
