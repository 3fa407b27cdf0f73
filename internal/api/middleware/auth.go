package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/theblitlabs/vecstake/pkg/auth"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

const claimsKey contextKey = "claims"

// Claims returns the verified token claims of an authenticated request.
func Claims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// Auth requires a valid bearer token signed with secret. An empty secret
// disables the check.
func Auth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		log := logger.WithComponent("auth")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := auth.VerifyToken(secret, token)
			if err != nil {
				log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("Rejected request token")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
