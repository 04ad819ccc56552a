package middleware

import (
	"context"
	"net/http"
	"strings"

	"notedev-server/pkg/jwt"
	"notedev-server/pkg/response"

	"go.uber.org/zap"
)

type contextKey string

const AdminKey contextKey = "admin"

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware admits only requests carrying a valid admin access token.
func AuthMiddleware(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				logger.Debug("Rejected admin token", zap.String("path", r.URL.Path), zap.Error(err))
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAdmin(r *http.Request) string {
	admin, ok := r.Context().Value(AdminKey).(string)
	if !ok {
		return ""
	}
	return admin
}
