package middleware

import (
	"net/http"
	"strings"

	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

// Auth requires a bearer token and stores it in the request context. The
// booking backend owns validation; every backend call forwards this token.
func Auth(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" || token == authHeader {
				log.Warn("Malformed authorization header",
					zap.String("path", r.URL.Path),
				)
				utils.ResponseUnauthorized(w, "Invalid authorization header")
				return
			}

			ctx := utils.SetTokenContext(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
