package middleware

import (
	"context"
	"net/http"
	"strings"

	"insight_gateway/internal/auth"
	"insight_gateway/internal/utils"
)

const (
	// AdminEmailKey holds the authenticated admin email
	AdminEmailKey ContextKey = "adminEmail"
)

// AdminJWT validates the bearer token and checks the email against the
// allow-list. Handlers behind it can rely on GetAdminEmail succeeding.
func AdminJWT(secret []byte, allowedEmails []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			claims, err := auth.ValidateAdminJWT(tokenString, secret)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if !auth.IsAllowedAdmin(claims.Email, allowedEmails) {
				utils.RespondWithError(w, http.StatusForbidden, "Not an administrator")
				return
			}

			ctx := context.WithValue(r.Context(), AdminEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminEmail retrieves the authenticated admin email from the context.
func GetAdminEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(AdminEmailKey).(string)
	return email, ok
}
