package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// AdminRole is the role required for catalog mutation
const AdminRole = "admin"

// RequireAdmin rejects requests whose authenticated principal is not an admin
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context", zap.String("path", r.URL.Path))
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if role != AdminRole {
				logger.Warn("Non-admin user attempted an admin operation",
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
