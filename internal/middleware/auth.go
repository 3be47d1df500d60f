package middleware

import (
	"net/http"

	"github.com/dukerupert/marketd/internal/auth"
	"github.com/dukerupert/marketd/internal/store"
)

const sessionCookieName = "marketd_session"

// RequireAuth validates the session cookie and populates the principal.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the principal when a valid session cookie is
// present but lets anonymous requests through. Free-content access checks
// need to distinguish "anonymous" from "signed in" without rejecting
// either outright.
func OptionalAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				if sess, err := sessionStore.GetByToken(cookie.Value); err == nil && sess != nil {
					ctx := auth.WithPrincipal(r.Context(), auth.Principal{
						UserID:    sess.UserID,
						SessionID: sess.ID,
					})
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionCookie builds the session cookie for a token. MaxAge 0 with an
// empty token clears it.
func SessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
