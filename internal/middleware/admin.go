package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/auth"
)

type contextKey string

const AdminClaimsContextKey contextKey = "adminClaims"

func GetAdminClaims(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(AdminClaimsContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// AdminAuthMiddleware guards admin-only routes. The check is a pure,
// in-process claims verification: no I/O beyond signature validation.
type AdminAuthMiddleware struct {
	tokens *auth.TokenManager
}

func NewAdminAuthMiddleware(tokens *auth.TokenManager) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{tokens: tokens}
}

func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		claims, err := m.tokens.ParseToken(token)
		if err != nil {
			log.Warn().Msg("admin auth: invalid or expired token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		if claims.Role != auth.RoleAdmin {
			log.Warn().Str("role", claims.Role).Msg("admin auth: non-admin token")
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Forbidden",
			})
			return
		}

		ctx := context.WithValue(r.Context(), AdminClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
