// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"siteflags/internal/middleware"
	"siteflags/internal/session"
)

type fixedStyles string

func (s fixedStyles) StyleTags() template.HTML { return template.HTML(s) }

// helperSession returns a session.Data suitable for rendering admin templates.
func helperSession(role string) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@siteflags.local",
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   true,
	}
}

// renderPage runs Page behind the CSRF middleware so the token is in the
// request context, as it is in the router.
func renderPage(t *testing.T, rn *Renderer, name string, sess *session.Data, data *PageData) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/"+name, nil)
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: "test-token"})
	if sess != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
	}

	rec := httptest.NewRecorder()
	middleware.NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rn.Page(w, r, name, data)
	})).ServeHTTP(rec, req)
	return rec
}

func TestNewLoadsAllTemplates(t *testing.T) {
	rn, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"login", "2fa_setup", "2fa_verify", "sites_list", "site_settings", "site_new", "modules"} {
		if !rn.Has(name) {
			t.Errorf("template %q not loaded", name)
		}
	}
	if rn.Has("base") {
		t.Error("base layout should not be a page")
	}
}

func TestPageInjectsContext(t *testing.T) {
	rn, _ := New(fixedStyles(`<link rel="stylesheet" id="site-flags-back-css" href="/static/css/backend.css">`))

	rec := renderPage(t, rn, "sites_list", helperSession("network_admin"), &PageData{
		Title:   "Sites",
		Section: "sites",
		Data: map[string]any{
			"Sites": []map[string]any{
				{"ID": 1, "Name": "English", "URL": "https://en.example.com", "LanguageTag": `<img src="x"> en-US`},
			},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`value="test-token"`,
		"Test User",
		"site-flags-back-css",
		`<img src="x"> en-US`,
		`href="/admin/modules"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestNetworkLinksHiddenForSiteAdmins(t *testing.T) {
	rn, _ := New(nil)
	rec := renderPage(t, rn, "sites_list", helperSession("site_admin"), &PageData{
		Title: "Sites",
		Data:  map[string]any{},
	})
	if strings.Contains(rec.Body.String(), "/admin/modules") {
		t.Error("site admins should not see network links")
	}
}

func TestStandaloneTemplates(t *testing.T) {
	rn, _ := New(nil)
	rec := renderPage(t, rn, "login", nil, &PageData{
		Title: "Sign In",
		Data:  map[string]any{"Error": "Invalid email or password."},
	})
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid email or password.") {
		t.Error("login error not rendered")
	}
	if strings.Contains(body, "admin-bar") {
		t.Error("standalone page rendered with the base layout")
	}
}

func TestMissingTemplate(t *testing.T) {
	rn, _ := New(nil)
	rec := renderPage(t, rn, "nope", nil, &PageData{})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestMenu(t *testing.T) {
	rn, _ := New(nil)

	var b strings.Builder
	err := rn.Menu(&b, &MenuData{
		SiteName: "Français",
		Language: "fr-FR",
		Items: []MenuItem{
			{SiteID: 1, Title: "English", URL: "https://en.example.com", Language: "en-US"},
			{SiteID: 5, Title: `<img src="https://example.com/fr.svg"> Français`, URL: "https://fr.example.com", Language: "fr-FR", Current: true},
		},
	})
	if err != nil {
		t.Fatalf("Menu: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `<img src="https://example.com/fr.svg"> Français`) {
		t.Errorf("filtered title not emitted as markup:\n%s", out)
	}
	if !strings.Contains(out, "current-menu-item") || !strings.Contains(out, `hreflang="en-US"`) {
		t.Errorf("menu output incomplete:\n%s", out)
	}
}
