package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/http/response"
	"github.com/hackfest/ideavote/internal/session"
	"github.com/hackfest/ideavote/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// Require validates the bearer token and, when roles are given, checks the
// session's stored role against them.
func Require(sessions *session.Manager, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing bearer token")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")

			claims, err := sessions.Parse(r.Context(), raw)
			if err != nil {
				response.Unauthorized(w, "invalid session")
				return
			}

			if len(allowed) > 0 && !allowed[claims.Role] {
				response.Forbidden(w, "role may not access this resource")
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, logger.RoleKey, string(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the session claims Require stored on the context.
func ClaimsFrom(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(CtxClaims).(*session.Claims)
	return claims, ok
}
