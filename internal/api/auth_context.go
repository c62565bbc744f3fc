package api

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	sessionIDKey ctxKey = "sessionID"
	clientKey    ctxKey = "client"
)

// GetUserID returns the authenticated user ID from context.
// This is the owner every library operation is scoped to.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", domainerrors.NotAuthenticated("authentication required")
	}
	return userID, nil
}

// getSessionID returns the session the access token was issued for.
func getSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDKey).(string)
	return sessionID
}

// getClientInfo returns the caller's address and user agent.
func getClientInfo(ctx context.Context) service.ClientInfo {
	client, _ := ctx.Value(clientKey).(service.ClientInfo)
	return client
}

// authMiddleware validates Bearer tokens and stores the owner in context.
// If no token is present or it is invalid, the request continues without
// an owner and protected handlers reject it through GetUserID.
func authMiddleware(auth *service.AuthService, trustedProxies []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientKey, service.ClientInfo{
				IPAddress: getClientIP(r, trustedProxies),
				UserAgent: r.UserAgent(),
			})

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			user, claims, err := auth.VerifyAccessToken(ctx, token)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = context.WithValue(ctx, userIDKey, user.ID)
			ctx = context.WithValue(ctx, sessionIDKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
