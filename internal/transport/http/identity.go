package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"career-assessment-service/internal/domain"
)

// ErrUnknownToken is returned by resolvers that do not recognise a token.
var ErrUnknownToken = errors.New("unknown token")

// UserResolver maps a bearer token to a user id, e.g. by asking an
// external authentication provider.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// StaticTokens resolves tokens from a fixed token -> user id table.
type StaticTokens map[string]string

func (t StaticTokens) ResolveUser(_ context.Context, token string) (string, error) {
	if userID, ok := t[token]; ok {
		return userID, nil
	}
	return "", ErrUnknownToken
}

type contextKey string

const userContextKey contextKey = "user_id"

// UserIDFromContext returns the request's user, or the anonymous placeholder.
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userContextKey).(string); ok && userID != "" {
		return userID
	}
	return domain.AnonymousUserID
}

// ContextWithUserID adds the resolved user to ctx.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// identify resolves the caller from a bearer token, the X-User-ID header or
// the userId query parameter (browsers cannot set headers on WebSocket
// upgrades). Resolution never rejects a request: failures fall back to the
// anonymous user. A presented bearer token is authoritative, so a rejected
// token never falls through to the caller-claimed id.
func identify(resolver UserResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := resolveUser(r, resolver, logger)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

func resolveUser(r *http.Request, resolver UserResolver, logger *zap.Logger) string {
	if token := bearerToken(r); token != "" {
		if resolver == nil {
			logger.Warn("bearer token presented without a resolver, continuing anonymously")
			return domain.AnonymousUserID
		}
		userID, err := resolver.ResolveUser(r.Context(), token)
		if err != nil || userID == "" {
			logger.Warn("token resolution failed, continuing anonymously", zap.Error(err))
			return domain.AnonymousUserID
		}
		return userID
	}
	if userID := strings.TrimSpace(r.Header.Get("X-User-ID")); userID != "" {
		return userID
	}
	if userID := strings.TrimSpace(r.URL.Query().Get("userId")); userID != "" {
		return userID
	}
	return domain.AnonymousUserID
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
