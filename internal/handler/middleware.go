package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/graphql"
	"go.uber.org/zap"
)

// BearerTokenMiddleware forwards the caller's bearer token to the trading
// backend. Requests without an Authorization header pass through and use the
// service token; a header that is not a bearer token is rejected.
// Token validity is decided by the backend.
func BearerTokenMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			ctx := graphql.WithBearerToken(r.Context(), strings.TrimSpace(parts[1]))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
