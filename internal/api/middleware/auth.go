package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dom/shared-lists/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	ClaimsKey contextKey = "claims"
)

// TokenValidator verifies access tokens. Both this middleware and the
// websocket handshake use the same AuthService.
type TokenValidator interface {
	ValidateToken(token string) (*service.AccessClaims, error)
}

func Auth(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				logger.Debug("missing or malformed authorization header", zap.String("path", r.URL.Path))
				unauthorized(w, "Authorization header required")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Debug("token validation failed", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				unauthorized(w, "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetClaims(ctx context.Context) (*service.AccessClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*service.AccessClaims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
