package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/cache"
	apperr "github.com/shifthunter/backend/internal/errors"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const userIDKey ctxKey = "userID"

// RequireAuth wraps a handler with cookie-session authentication.
// The session cookie carries an opaque token resolved to a user id in
// Redis; the id is placed in the request context for UserID.
func RequireAuth(appCtx *app.AppContext, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(appCtx.Config.Session.CookieName)
		if err != nil || c.Value == "" {
			WriteError(w, apperr.ErrNotAuthenticated)
			return
		}

		userID, err := appCtx.RedisCache.GetAuthSession(r.Context(), c.Value)
		if err != nil {
			if errors.Is(err, cache.ErrNoSession) {
				WriteError(w, apperr.ErrNotAuthenticated)
				return
			}
			appCtx.Logger.Error("session lookup failed", "err", err)
			WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// UserID extracts the authenticated user id set by RequireAuth.
func UserID(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(userIDKey).(uint64)
	return id, ok
}

// SessionToken reads the raw session token from the request cookie.
func SessionToken(appCtx *app.AppContext, r *http.Request) string {
	c, err := r.Cookie(appCtx.Config.Session.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
