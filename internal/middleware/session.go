package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// AccessTokenCookie is the cookie holding the short-lived access token.
const AccessTokenCookie = "accessToken"

type userCtxKey struct{}

// TokenVerifier checks an access token and returns the user it was issued to.
type TokenVerifier interface {
	VerifyAccess(token string) (primitive.ObjectID, error)
}

// UserLoader resolves an authenticated identity to its account record with
// credential fields excluded.
type UserLoader interface {
	FindPublicByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// RequireSession guards protected routes. It extracts the access token from
// the accessToken cookie or the Authorization header, verifies it, loads the
// user, and attaches it to the request context. The request is rejected with
// 401 before reaching any handler when the token is absent, malformed,
// expired, or refers to a nonexistent user.
func RequireSession(tokens TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := extractToken(r)
			if token == "" {
				logger.Warn("missing access token", "path", r.URL.Path)
				writeUnauthorized(w, "authentication required")
				return
			}

			userID, err := tokens.VerifyAccess(token)
			if err != nil {
				logger.Warn("access token rejected", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "invalid or expired access token")
				return
			}

			user, err := users.FindPublicByID(ctx, userID)
			if err != nil {
				logger.Warn("session user lookup failed", "userId", userID.Hex(), "error", err)
				writeUnauthorized(w, "invalid or expired access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext retrieves the authenticated user attached by RequireSession.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(models.User)
	return user, ok
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"success":    false,
		"errors":     []string{},
	})
}
