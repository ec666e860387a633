package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/stockauth/internal/auth/tokens"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

type ctxKey string

const ctxUserIDKey ctxKey = "user_id"

// BearerToken extrae el token de "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// UserIDFrom retorna el userId autenticado por RequireAccess.
func UserIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserIDKey).(string)
	return v
}

// RequireAccess exige un access token válido en el header Authorization.
func RequireAccess(access *tokens.AccessService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := access.Verify(BearerToken(r))
			if err != nil {
				WriteError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserIDKey, p.UserID)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(p.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
