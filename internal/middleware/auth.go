// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package middleware provides HTTP middleware for the site flags server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"siteflags/internal/models"
	"siteflags/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
	csrfKey    contextKey = "csrf"
	requestKey contextKey = "request_id"
)

// LoadSession retrieves the session and stores it in the request context.
// Downstream handlers can access it via SessionFromCtx(). This middleware
// does NOT enforce authentication.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Treat as unauthenticated.
				slog.Warn("session load failed", "error", err, "request_id", RequestIDFromCtx(r.Context()))
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects unauthenticated users to the login page.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require2FA redirects users who haven't completed 2FA to the setup page.
// Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireNetworkAdmin returns 403 unless the user administers the whole
// network. Must be applied after RequireAuth and Require2FA.
func RequireNetworkAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || models.Role(sess.Role) != models.RoleNetworkAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
