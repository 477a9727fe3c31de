// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests. The environment runs on the in-memory stores so no external
// service is needed.
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"siteflags/internal/assets"
	"siteflags/internal/flags"
	"siteflags/internal/hooks"
	"siteflags/internal/middleware"
	"siteflags/internal/models"
	"siteflags/internal/module"
	"siteflags/internal/render"
	"siteflags/internal/session"
	"siteflags/internal/store"
)

const (
	testEmail    = "admin@siteflags.local"
	testPassword = "admin"
)

// fakeUploader records uploads and returns a fixed public URL.
type fakeUploader struct {
	contentType string
	body        []byte
	err         error
}

func (u *fakeUploader) UploadFlag(_ context.Context, siteID int64, contentType string, body io.Reader, _ int64) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.contentType = contentType
	u.body, _ = io.ReadAll(body)
	return fmt.Sprintf("https://cdn.example.com/flags/%d/flag.svg", siteID), nil
}

// mapMenuCache is an in-process MenuCache.
type mapMenuCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gen     int64
}

func (c *mapMenuCache) Get(_ context.Context, key string) ([]byte, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, c.gen, ok
}

func (c *mapMenuCache) Set(_ context.Context, key string, gen int64, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.entries[key] = body
	}
}

func (c *mapMenuCache) InvalidateAll(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Sites    *store.MemorySiteStore
	Users    *store.MemoryUserStore
	Modules  *module.Manager
	Services *flags.Services
	Sessions *session.Store
	Uploader *fakeUploader
	Menus    *mapMenuCache

	Admin  *Admin
	Auth   *Auth
	Public *Public

	User *models.User
}

// newTestEnv builds a network of three sites with the site flags module
// bound to every context. activeModule sets the module's initial state.
func newTestEnv(t *testing.T, activeModule bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	sites := store.NewMemorySiteStore(
		models.Site{ID: 1, Name: "English", Slug: "english", Language: "en-US", URL: "https://en.example.com"},
		models.Site{ID: 2, Name: "Français", Slug: "francais", Language: "fr-FR", URL: "https://fr.example.com"},
		models.Site{ID: 3, Name: "Deutsch", Slug: "deutsch", Language: "de-DE", URL: "https://de.example.com"},
	)
	users := store.NewMemoryUserStore()
	user, err := users.Create(ctx, testEmail, testPassword, "Admin", models.RoleNetworkAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	modules := module.NewManager(store.NewMemoryModuleStateStore())
	provider := flags.NewServiceProvider()
	if _, err := provider.RegisterModule(modules); err != nil {
		t.Fatalf("register module: %v", err)
	}
	if activeModule {
		if err := modules.Activate(ctx, flags.ModuleID); err != nil {
			t.Fatalf("activate module: %v", err)
		}
	}

	static := fstest.MapFS{
		"css/backend.css":  {Data: []byte(".site-flag{}")},
		"css/frontend.css": {Data: []byte(".site-flag{}")},
	}
	services, err := provider.Register(flags.Deps{
		Settings:  store.NewMemorySiteSettingStore(),
		Languages: sites,
		Assets:    assets.NewLocations().Add(assets.LocationCSS, static, "css", "/static/css"),
	})
	if err != nil {
		t.Fatalf("register services: %v", err)
	}

	surface := func(c flags.Context) (Surface, *assets.Manager) {
		reg := hooks.NewRegistry()
		reg.SetGate(modules.IsActive)
		styles := assets.NewManager()
		if err := provider.ActivateModule(c, services, flags.Host{Hooks: reg, Assets: styles}); err != nil {
			t.Fatalf("activate %s: %v", c, err)
		}
		reg.Lock()
		return Surface{Hooks: reg, Styles: styles}, styles
	}
	site, siteStyles := surface(flags.ContextAdmin)
	network, _ := surface(flags.ContextNetworkAdmin)
	frontend, _ := surface(flags.ContextFrontend)

	renderer, err := render.New(siteStyles)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(session.NewMemoryBackend(time.Hour), false)
	uploader := &fakeUploader{}
	menus := &mapMenuCache{entries: make(map[string][]byte)}

	admin := NewAdmin(renderer, sites, modules, site, network, uploader, services.Repository)
	admin.OnModuleToggle(func(ctx context.Context, _ string) { menus.InvalidateAll(ctx) })

	return &testEnv{
		Sites:    sites,
		Users:    users,
		Modules:  modules,
		Services: services,
		Sessions: sessions,
		Uploader: uploader,
		Menus:    menus,
		Admin:    admin,
		Auth:     NewAuth(renderer, sessions, users),
		Public:   NewPublic(renderer, sites, frontend, menus),
		User:     user,
	}
}

// testSession creates a session.Data for the env user.
func (e *testEnv) testSession(twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      e.User.ID,
		Email:       e.User.Email,
		DisplayName: e.User.DisplayName,
		Role:        string(e.User.Role),
		TwoFADone:   twoFADone,
	}
}

// withSession stores sess in the session store, attaches its cookie to
// req and puts it in the request context like LoadSession does.
func (e *testEnv) withSession(t *testing.T, req *http.Request, sess *session.Data) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	if _, err := e.Sessions.Create(req.Context(), rec, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
}

// withURLParams sets chi URL parameters on req, given as key/value pairs.
func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func ctxWithSession(ctx context.Context, sess *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, sess)
}

func anonymousSession() *session.Data {
	return &session.Data{UserID: uuid.New(), Email: "nobody@siteflags.local", Role: string(models.RoleSiteAdmin)}
}
