// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"siteflags/internal/session"
)

// newTestSession creates a session.Data value suitable for testing.
func newTestSession(role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@siteflags.local",
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// ctxWithSession simulates the state after LoadSession has run.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func TestLoadSession(t *testing.T) {
	store := session.NewStore(session.NewMemoryBackend(time.Hour), false)
	rec := httptest.NewRecorder()
	store.Create(context.Background(), rec, newTestSession("network_admin", true))
	cookie := rec.Result().Cookies()[0]

	var got *session.Data
	h := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.Email != "test@siteflags.local" {
		t.Fatalf("session not loaded: %+v", got)
	}

	got = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))
	if got != nil {
		t.Errorf("expected no session without cookie, got %+v", got)
	}
}

func TestAuthChain(t *testing.T) {
	tests := []struct {
		name       string
		sess       *session.Data
		mw         func(http.Handler) http.Handler
		wantStatus int
		wantLoc    string
	}{
		{"auth: anonymous", nil, RequireAuth, http.StatusSeeOther, "/admin/login"},
		{"auth: logged in", newTestSession("site_admin", false), RequireAuth, http.StatusOK, ""},
		{"2fa: pending", newTestSession("site_admin", false), Require2FA, http.StatusSeeOther, "/admin/2fa/setup"},
		{"2fa: done", newTestSession("site_admin", true), Require2FA, http.StatusOK, ""},
		{"network: site admin", newTestSession("site_admin", true), RequireNetworkAdmin, http.StatusForbidden, ""},
		{"network: anonymous", nil, RequireNetworkAdmin, http.StatusForbidden, ""},
		{"network: network admin", newTestSession("network_admin", true), RequireNetworkAdmin, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/admin/sites", nil)
			if tt.sess != nil {
				req = req.WithContext(ctxWithSession(req.Context(), tt.sess))
			}
			rec := httptest.NewRecorder()
			tt.mw(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location: got %q, want %q", loc, tt.wantLoc)
			}
			if *called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called = %v", *called)
			}
		})
	}
}

func TestCSRFIssuesTokenIntoContext(t *testing.T) {
	var inCtx string
	h := NewCSRF(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inCtx = CSRFTokenFromCtx(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("CSRF cookie not set")
	}
	if !cookie.Secure || cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie flags: secure=%v samesite=%v", cookie.Secure, cookie.SameSite)
	}
	if inCtx == "" || inCtx != cookie.Value {
		t.Errorf("context token %q does not match cookie %q", inCtx, cookie.Value)
	}
}

func TestCSRFValidation(t *testing.T) {
	const token = "abc123"
	tests := []struct {
		name   string
		header string
		form   string
		want   int
	}{
		{"missing", "", "", http.StatusForbidden},
		{"wrong header", "nope", "", http.StatusForbidden},
		{"header", token, "", http.StatusOK},
		{"form field", "", token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			h := NewCSRF(false)(next)

			form := url.Values{}
			if tt.form != "" {
				form.Set(CSRFFormField, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/admin/sites/1/settings", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoggerRequestIDAndRecovery(t *testing.T) {
	var seen string
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromCtx(r.Context())
		if r.URL.Path == "/boom" {
			panic("boom")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d", rec.Code)
	}
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("request id: ctx %q header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, given)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != given {
		t.Errorf("incoming request id not kept: %q", seen)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("panic status: got %d, want 500", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request within the window should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other clients are not affected")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a") {
		t.Error("request after the window should pass")
	}
}

func sendFrom(h http.Handler, remote, xff string) int {
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	next, _ := okHandler()
	h := rl.Middleware(next)

	if got := sendFrom(h, "10.0.0.1:1234", ""); got != http.StatusOK {
		t.Fatalf("first: %d", got)
	}
	if got := sendFrom(h, "10.0.0.1:5678", ""); got != http.StatusTooManyRequests {
		t.Errorf("same IP, other port: %d", got)
	}
	if got := sendFrom(h, "10.0.0.2:1234", ""); got != http.StatusOK {
		t.Errorf("other IP: %d", got)
	}
}

func TestRateLimiterMiddleware_IgnoresForwardedHeaders(t *testing.T) {
	rl := NewRateLimiter(10, 15*time.Minute)
	next, _ := okHandler()
	h := rl.Middleware(next)

	limited := 0
	for i := 0; i < 50; i++ {
		if sendFrom(h, "203.0.113.7:4000", fmt.Sprintf("10.0.0.%d", i)) == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 40 {
		t.Errorf("got %d limited requests, want 40", limited)
	}
}

func TestRateLimiterMiddleware_TrustProxy(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.TrustProxy = true
	next, _ := okHandler()
	h := rl.Middleware(next)

	if got := sendFrom(h, "10.0.0.1:1234", "203.0.113.9, 10.0.0.1"); got != http.StatusOK {
		t.Fatalf("first forwarded client: %d", got)
	}
	if got := sendFrom(h, "10.0.0.1:1234", "203.0.113.10"); got != http.StatusOK {
		t.Errorf("second forwarded client: %d", got)
	}
	if got := sendFrom(h, "10.0.0.1:1234", "203.0.113.9"); got != http.StatusTooManyRequests {
		t.Errorf("repeated forwarded client: %d", got)
	}
}

func TestSecureHeaders(t *testing.T) {
	next, _ := okHandler()
	rec := httptest.NewRecorder()
	SecureHeaders(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "img-src 'self' https:") {
		t.Errorf("CSP should allow https flag images: %q", rec.Header().Get("Content-Security-Policy"))
	}
}
