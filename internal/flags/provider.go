// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"errors"
	"fmt"

	"siteflags/internal/assets"
	"siteflags/internal/hooks"
	"siteflags/internal/module"
)

// ModuleID identifies the site flags module.
const ModuleID = "multilingualpress-site-flags"

// Style handles registered by the module.
const (
	StyleBackend  = "multilingualpress-site-flags-back"
	StyleFrontend = "multilingualpress-site-flags-front"
)

// ErrMissingDependency is returned by Register when a required
// dependency is nil.
var ErrMissingDependency = errors.New("missing dependency")

// Context is the execution context a module is activated in.
type Context int

const (
	ContextAdmin Context = iota
	ContextNetworkAdmin
	ContextFrontend
)

func (c Context) String() string {
	switch c {
	case ContextAdmin:
		return "admin"
	case ContextNetworkAdmin:
		return "network-admin"
	case ContextFrontend:
		return "frontend"
	}
	return fmt.Sprintf("context(%d)", int(c))
}

// Deps are the collaborators the module is built from.
type Deps struct {
	Settings  SettingsStorage
	Languages LanguageResolver
	Assets    *assets.Locations

	// Optional. Renderer defaults to PlaceholderRenderer and Formatter to
	// DefaultFormatter.
	Renderer  MarkupRenderer
	Formatter Formatter
}

// Services are the module's components, built once by Register.
type Services struct {
	Repository       *Repository
	Factory          *Factory
	Filter           *Filter
	FlagURLSetting   SiteFlagURLSetting
	MenuStyleSetting SiteMenuLanguageStyleSetting
	SiteSettings     *SettingsView
	NewSiteSettings  *SettingsView
	Updater          *SiteSettingsUpdater
	AssetFactory     *assets.Factory
}

// Host is what the module hooks into for one execution context.
type Host struct {
	Hooks  *hooks.Registry
	Assets *assets.Manager
}

// ServiceProvider registers the site flags module and wires it into a host.
type ServiceProvider struct{}

// NewServiceProvider returns the module's provider.
func NewServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

// RegisterModule registers the module descriptor and reports whether the
// module is active.
func (p *ServiceProvider) RegisterModule(m *module.Manager) (bool, error) {
	return m.Register(module.Module{
		ID:          ModuleID,
		Name:        "MultilingualPress Site Flags",
		Description: "Enable Site Flags for MultilingualPress.",
		Active:      false,
		Disabled:    false,
	})
}

// Register builds the module's services.
func (p *ServiceProvider) Register(d Deps) (*Services, error) {
	switch {
	case d.Settings == nil:
		return nil, fmt.Errorf("site flags: settings storage: %w", ErrMissingDependency)
	case d.Languages == nil:
		return nil, fmt.Errorf("site flags: language resolver: %w", ErrMissingDependency)
	case d.Assets == nil:
		return nil, fmt.Errorf("site flags: asset locations: %w", ErrMissingDependency)
	}

	repo := NewRepository(d.Settings)
	factory := NewFactory(repo, d.Languages, d.Renderer)
	urlSetting := NewSiteFlagURLSetting(repo)
	styleSetting := NewSiteMenuLanguageStyleSetting(repo)

	return &Services{
		Repository:       repo,
		Factory:          factory,
		Filter:           NewFilter(repo, factory, d.Formatter),
		FlagURLSetting:   urlSetting,
		MenuStyleSetting: styleSetting,
		SiteSettings:     NewSettingsView("Site Flags", urlSetting, styleSetting),
		NewSiteSettings:  NewSettingsView("Site Flags", urlSetting, styleSetting),
		Updater:          NewSiteSettingsUpdater(repo),
		AssetFactory:     assets.NewFactory(d.Assets),
	}, nil
}

// ActivateModule binds the services to host for execution context c.
// The network admin context includes everything the admin context does.
func (p *ServiceProvider) ActivateModule(c Context, s *Services, host Host) error {
	var err error
	switch c {
	case ContextAdmin:
		err = p.bootstrapAdmin(s, host)
	case ContextNetworkAdmin:
		if err = p.bootstrapAdmin(s, host); err == nil {
			err = p.bootstrapNetworkAdmin(s, host)
		}
	case ContextFrontend:
		err = p.bootstrapFrontend(s, host)
	default:
		err = fmt.Errorf("unknown context %d", int(c))
	}
	if err != nil {
		return fmt.Errorf("activate %s in %s: %w", ModuleID, c, err)
	}
	return nil
}

func (p *ServiceProvider) bootstrapAdmin(s *Services, host Host) error {
	err := host.Hooks.AddSettingsSection(hooks.SectionSiteSettings, hooks.Handler[hooks.SettingsSectionAction]{
		Owner: ModuleID,
		Name:  "site-flags-settings",
		Fn:    s.SiteSettings.Render,
	})
	if err != nil {
		return err
	}

	err = host.Hooks.AddUpdateSettings(hooks.Handler[hooks.SettingsAction]{
		Owner:    ModuleID,
		Name:     "site-flags-update",
		Priority: 20,
		Fn:       s.Updater.UpdateSettings,
	})
	if err != nil {
		return err
	}

	if err := p.enqueue(s, host, StyleBackend, "backend.css"); err != nil {
		return err
	}

	return host.Hooks.AddSiteLanguageTagFilter(hooks.Handler[hooks.SiteLanguageTagFilter]{
		Owner: ModuleID,
		Name:  "site-flags-language-tag",
		Fn:    s.Filter.TableListPostsRelations,
	})
}

func (p *ServiceProvider) bootstrapNetworkAdmin(s *Services, host Host) error {
	err := host.Hooks.AddSettingsSection(hooks.SectionNewSiteSettings, hooks.Handler[hooks.SettingsSectionAction]{
		Owner: ModuleID,
		Name:  "site-flags-new-site-settings",
		Fn:    s.NewSiteSettings.Render,
	})
	if err != nil {
		return err
	}

	return host.Hooks.AddDefineInitialSettings(hooks.Handler[hooks.SettingsAction]{
		Owner: ModuleID,
		Name:  "site-flags-initial-settings",
		Fn:    s.Updater.DefineInitialSettings,
	})
}

func (p *ServiceProvider) bootstrapFrontend(s *Services, host Host) error {
	if err := p.enqueue(s, host, StyleFrontend, "frontend.css"); err != nil {
		return err
	}

	return host.Hooks.AddNavMenuItemTitleFilter(hooks.Handler[hooks.NavMenuItemTitleFilter]{
		Owner: ModuleID,
		Name:  "site-flags-menu-title",
		Fn:    s.Filter.NavMenuItems,
	})
}

func (p *ServiceProvider) enqueue(s *Services, host Host, handle, file string) error {
	style, err := s.AssetFactory.InternalStyle(handle, file)
	if err != nil {
		return err
	}
	if err := host.Assets.RegisterStyle(style); err != nil {
		return err
	}
	return host.Assets.EnqueueStyle(handle)
}
