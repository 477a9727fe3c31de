// Package main is the entry point for the site flags server.
// It loads configuration, connects to services, wires the site flags module
// into each page context, and starts the HTTP server with graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"siteflags/internal/assets"
	"siteflags/internal/cache"
	"siteflags/internal/config"
	"siteflags/internal/database"
	"siteflags/internal/flags"
	"siteflags/internal/handlers"
	"siteflags/internal/hooks"
	"siteflags/internal/models"
	"siteflags/internal/module"
	"siteflags/internal/render"
	"siteflags/internal/router"
	"siteflags/internal/session"
	"siteflags/internal/storage"
	"siteflags/internal/store"
	"siteflags/web"
)

// siteStore is what both the handlers and the flag factory need from sites.
type siteStore interface {
	handlers.SiteStore
	flags.LanguageResolver
}

// stores groups the persistence layer selected by STORAGE_DRIVER.
type stores struct {
	users    handlers.UserStore
	sites    siteStore
	settings cache.SettingsBackend
	modules  module.StateStore
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.StorageDriver,
	)

	ctx := context.Background()

	var (
		st     stores
		valkey *redis.Client
	)
	if cfg.UsesMemory() {
		st, err = memoryStores(ctx)
		if err != nil {
			slog.Error("failed to prepare memory stores", "error", err)
			os.Exit(1)
		}
		slog.Warn("memory storage selected, data is lost on exit")
	} else {
		db, err := openDatabase(cfg)
		if err != nil {
			slog.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		st = stores{
			users:    store.NewUserStore(db),
			sites:    store.NewSiteStore(db),
			settings: store.NewSiteSettingStore(db),
			modules:  store.NewModuleStateStore(db),
		}

		valkey, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkey.Close()
	}

	// Sessions and caches live in Valkey when it is available.
	secureCookies := !cfg.IsDev()
	var (
		sessionBackend session.Backend
		settings       flags.SettingsStorage = st.settings
		menus          handlers.MenuCache
		menuCache      *cache.MenuCache
	)
	if valkey != nil {
		sessionBackend = session.NewValkeyBackend(valkey)

		menuCache = cache.NewMenuCache(valkey, cache.DefaultMenuTTL)
		settingsCache := cache.NewSettingsCache(valkey, st.settings, cache.DefaultSettingsTTL)
		settingsCache.OnChange(func(ctx context.Context, siteID int64) {
			menuCache.InvalidateAll(ctx)
		})
		settings = settingsCache
		menus = menuCache
	} else {
		sessionBackend = session.NewMemoryBackend(session.DefaultTTL)
	}
	sessionStore := session.NewStore(sessionBackend, secureCookies)

	modules := module.NewManager(st.modules)
	provider := flags.NewServiceProvider()
	if err := modules.Load(ctx); err != nil {
		slog.Error("failed to load module states", "error", err)
		os.Exit(1)
	}
	if _, err := provider.RegisterModule(modules); err != nil {
		slog.Error("failed to register site flags module", "error", err)
		os.Exit(1)
	}

	deps := flags.Deps{
		Settings:  settings,
		Languages: st.sites,
		Assets: assets.NewLocations().
			Add(assets.LocationPlugin, web.Static(), ".", cfg.AssetsURL).
			Add(assets.LocationCSS, web.Static(), "css", cfg.AssetsURL+"/css").
			Add(assets.LocationJS, web.Static(), "js", cfg.AssetsURL+"/js"),
		Formatter: flags.NewDefaultFormatter(cfg.FlagClass),
	}
	if cfg.Markup == config.MarkupImage {
		deps.Renderer = flags.ImageRenderer{Class: cfg.FlagClass}
	}
	services, err := provider.Register(deps)
	if err != nil {
		slog.Error("failed to build site flags module", "error", err)
		os.Exit(1)
	}

	siteAdmin, err := newSurface(provider, services, modules, flags.ContextAdmin)
	if err != nil {
		slog.Error("failed to activate module", "context", flags.ContextAdmin, "error", err)
		os.Exit(1)
	}
	networkAdmin, err := newSurface(provider, services, modules, flags.ContextNetworkAdmin)
	if err != nil {
		slog.Error("failed to activate module", "context", flags.ContextNetworkAdmin, "error", err)
		os.Exit(1)
	}
	frontend, err := newSurface(provider, services, modules, flags.ContextFrontend)
	if err != nil {
		slog.Error("failed to activate module", "context", flags.ContextFrontend, "error", err)
		os.Exit(1)
	}

	renderer, err := render.New(siteAdmin.Styles)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Flag uploads are optional; the settings page hides the upload form
	// when no bucket is configured.
	var uploader handlers.FlagUploader
	if cfg.HasS3() {
		client, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if client != nil {
			uploader = client
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketPublic)
		}
	} else {
		slog.Warn("s3 storage not configured, flag uploads disabled")
	}

	admin := handlers.NewAdmin(renderer, st.sites, modules, siteAdmin, networkAdmin, uploader, services.Repository)
	if menuCache != nil {
		// Cached menus carry the module's flags and stylesheet.
		admin.OnModuleToggle(func(ctx context.Context, _ string) {
			menuCache.InvalidateAll(ctx)
		})
	}

	r := router.New(router.Options{
		Sessions:     sessionStore,
		Admin:        admin,
		Auth:         handlers.NewAuth(renderer, sessionStore, st.users),
		Public:       handlers.NewPublic(renderer, st.sites, frontend, menus),
		Static:       web.Static(),
		SecureCookie: secureCookies,
		TrustProxy:   cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openDatabase connects to PostgreSQL, applies migrations and, in
// development, seeds the admin account and example sites.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// memoryStores returns process-local stores holding the development
// admin and example sites.
func memoryStores(ctx context.Context) (stores, error) {
	users := store.NewMemoryUserStore()
	if _, err := users.Create(ctx, database.DevAdminEmail, database.DevAdminPassword, database.DevAdminName, models.RoleNetworkAdmin); err != nil {
		return stores{}, err
	}
	slog.Info("development admin available", "email", database.DevAdminEmail)

	return stores{
		users:    users,
		sites:    store.NewMemorySiteStore(database.DevSites()...),
		settings: store.NewMemorySiteSettingStore(),
		modules:  store.NewMemoryModuleStateStore(),
	}, nil
}

// newSurface activates the module into a fresh hook registry and style
// manager for context c. Hooks and styles only apply while the module is
// active, so toggling it takes effect without a restart.
func newSurface(p *flags.ServiceProvider, s *flags.Services, modules *module.Manager, c flags.Context) (handlers.Surface, error) {
	reg := hooks.NewRegistry()
	reg.SetGate(modules.IsActive)

	styles := assets.NewManager()
	if err := p.ActivateModule(c, s, flags.Host{Hooks: reg, Assets: styles}); err != nil {
		return handlers.Surface{}, err
	}
	reg.Lock()

	return handlers.Surface{
		Hooks:  reg,
		Styles: gatedStyles{styles: styles, active: func() bool { return modules.IsActive(flags.ModuleID) }},
	}, nil
}

// gatedStyles emits the enqueued styles only while active reports true.
type gatedStyles struct {
	styles *assets.Manager
	active func() bool
}

func (g gatedStyles) StyleTags() template.HTML {
	if !g.active() {
		return ""
	}
	return g.styles.StyleTags()
}
