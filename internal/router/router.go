// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// site flags server. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"siteflags/internal/handlers"
	"siteflags/internal/middleware"
	"siteflags/internal/session"
)

// Login attempts allowed per client address and window.
const (
	loginLimit  = 10
	loginWindow = 15 * time.Minute
)

// Options configures the router.
type Options struct {
	Sessions     *session.Store
	Admin        *handlers.Admin
	Auth         *handlers.Auth
	Public       *handlers.Public
	Static       fs.FS // served under /static/, may be nil
	SecureCookie bool
	TrustProxy   bool // key login limits on forwarding headers
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(opts.Sessions))

	r.Get("/health", healthHandler)

	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static))))
	}

	// Public language switcher, no session required.
	r.Get("/sites/{id}/menu", opts.Public.Menu)
	r.Get("/api/sites/{id}/menu", opts.Public.MenuJSON)

	admin, auth := opts.Admin, opts.Auth
	loginLimiter := middleware.NewRateLimiter(loginLimit, loginWindow)
	loginLimiter.TrustProxy = opts.TrustProxy

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookie))

		r.Get("/login", auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA requires a session but not a completed second factor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.With(loginLimiter.Middleware).Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/admin/sites", http.StatusSeeOther)
			})

			r.Route("/sites", func(r chi.Router) {
				r.Get("/", admin.SitesList)
				r.Get("/{id}/settings", admin.SiteSettings)
				r.Post("/{id}/settings", admin.SiteSettingsSave)
				r.Post("/{id}/flag", admin.FlagUpload)
			})

			// Network screens, network admins only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireNetworkAdmin)

				r.Get("/modules", admin.ModulesList)
				r.Post("/modules/{id}/toggle", admin.ModuleToggle)

				r.Get("/network/sites/new", admin.SiteNew)
				r.Post("/network/sites", admin.SiteCreate)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
