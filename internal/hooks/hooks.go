// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hooks provides the typed extension points through which modules
// alter host output: filters that transform a value and actions that react
// to an event. Each point has a fixed handler signature; handlers are
// called in ascending priority, ties in registration order.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"

	"siteflags/internal/models"
)

// Extension point names, used in errors and logs.
const (
	PointNavMenuItemTitle      = "nav_menu_item_title"
	PointSiteLanguageTag       = "site_language_tag"
	PointSettingsSection       = "settings_section"
	PointUpdateSettings        = "update_site_settings"
	PointDefineInitialSettings = "define_initial_settings"
)

// Settings sections rendered by the admin.
const (
	SectionSiteSettings    = "site-settings"
	SectionNewSiteSettings = "new-site-settings"
)

// DefaultPriority is the priority used when a handler leaves it at zero.
const DefaultPriority = 10

var (
	// ErrHandlerExists is returned when a handler name is reused on a point.
	ErrHandlerExists = errors.New("hook handler already registered")
	// ErrRegistryLocked is returned for registrations after Lock.
	ErrRegistryLocked = errors.New("hook registry is locked")
)

// NavMenuItemTitleFilter transforms a rendered menu item title.
type NavMenuItemTitleFilter func(ctx context.Context, title string, item models.MenuItem) string

// SiteLanguageTagFilter transforms the language label of a site in admin tables.
type SiteLanguageTagFilter func(ctx context.Context, tag string, siteID int64) string

// SettingsSectionAction renders extra fields into an admin settings section.
// siteID is 0 on the new-site form.
type SettingsSectionAction func(ctx context.Context, w io.Writer, siteID int64) error

// SettingsAction reacts to a submitted settings form of a site.
type SettingsAction func(ctx context.Context, siteID int64, form url.Values) error

// Handler binds Fn to an extension point. Owner is the module ID the
// handler belongs to; Name must be unique per point.
type Handler[T any] struct {
	Owner    string
	Name     string
	Priority int
	Fn       T
}

type entry[T any] struct {
	Handler[T]
	seq int
}

// Registry holds the handlers of every extension point. It is written
// during module activation and only read once locked.
type Registry struct {
	mu     sync.RWMutex
	locked bool
	seq    int
	names  map[string]struct{}
	gate   func(owner string) bool

	menuTitle   []entry[NavMenuItemTitleFilter]
	languageTag []entry[SiteLanguageTagFilter]
	sections    map[string][]entry[SettingsSectionAction]
	update      []entry[SettingsAction]
	initial     []entry[SettingsAction]
}

// NewRegistry returns an empty, unlocked registry.
func NewRegistry() *Registry {
	return &Registry{
		names:    make(map[string]struct{}),
		sections: make(map[string][]entry[SettingsSectionAction]),
	}
}

// SetGate installs a predicate consulted on every dispatch; handlers whose
// owner it rejects are skipped. Handlers without owner always run.
func (r *Registry) SetGate(gate func(owner string) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = gate
}

// Lock forbids further registrations.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// Locked reports whether Lock has been called.
func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

func add[T any](r *Registry, point string, list []entry[T], h Handler[T]) ([]entry[T], error) {
	if r.locked {
		return list, fmt.Errorf("%s/%s: %w", point, h.Name, ErrRegistryLocked)
	}
	key := point + "/" + h.Name
	if _, dup := r.names[key]; dup {
		return list, fmt.Errorf("%s: %w", key, ErrHandlerExists)
	}
	if h.Priority == 0 {
		h.Priority = DefaultPriority
	}

	r.names[key] = struct{}{}
	r.seq++
	list = append(list, entry[T]{Handler: h, seq: r.seq})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].seq < list[j].seq
	})
	return list, nil
}

// AddNavMenuItemTitleFilter registers a menu item title filter.
func (r *Registry) AddNavMenuItemTitleFilter(h Handler[NavMenuItemTitleFilter]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	r.menuTitle, err = add(r, PointNavMenuItemTitle, r.menuTitle, h)
	return err
}

// AddSiteLanguageTagFilter registers a language tag filter.
func (r *Registry) AddSiteLanguageTagFilter(h Handler[SiteLanguageTagFilter]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	r.languageTag, err = add(r, PointSiteLanguageTag, r.languageTag, h)
	return err
}

// AddSettingsSection registers a renderer for one admin settings section.
func (r *Registry) AddSettingsSection(section string, h Handler[SettingsSectionAction]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := add(r, PointSettingsSection+":"+section, r.sections[section], h)
	r.sections[section] = list
	return err
}

// AddUpdateSettings registers a handler for submitted site settings.
func (r *Registry) AddUpdateSettings(h Handler[SettingsAction]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	r.update, err = add(r, PointUpdateSettings, r.update, h)
	return err
}

// AddDefineInitialSettings registers a handler for the settings of a new site.
func (r *Registry) AddDefineInitialSettings(h Handler[SettingsAction]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	r.initial, err = add(r, PointDefineInitialSettings, r.initial, h)
	return err
}

// active returns the handlers of list that pass the gate. The caller must
// hold at least the read lock.
func active[T any](r *Registry, list []entry[T]) []T {
	out := make([]T, 0, len(list))
	for _, e := range list {
		if e.Owner != "" && r.gate != nil && !r.gate(e.Owner) {
			continue
		}
		out = append(out, e.Fn)
	}
	return out
}

// FilterNavMenuItemTitle runs title through every menu title filter.
func (r *Registry) FilterNavMenuItemTitle(ctx context.Context, title string, item models.MenuItem) string {
	r.mu.RLock()
	fns := active(r, r.menuTitle)
	r.mu.RUnlock()

	for _, fn := range fns {
		title = fn(ctx, title, item)
	}
	return title
}

// FilterSiteLanguageTag runs tag through every language tag filter.
func (r *Registry) FilterSiteLanguageTag(ctx context.Context, tag string, siteID int64) string {
	r.mu.RLock()
	fns := active(r, r.languageTag)
	r.mu.RUnlock()

	for _, fn := range fns {
		tag = fn(ctx, tag, siteID)
	}
	return tag
}

// RenderSettingsSection writes every renderer of section to w, stopping at
// the first error.
func (r *Registry) RenderSettingsSection(ctx context.Context, section string, w io.Writer, siteID int64) error {
	r.mu.RLock()
	fns := active(r, r.sections[section])
	r.mu.RUnlock()

	for _, fn := range fns {
		if err := fn(ctx, w, siteID); err != nil {
			return fmt.Errorf("render section %s: %w", section, err)
		}
	}
	return nil
}

// UpdateSettings runs every update handler; all handlers run and their
// errors are joined.
func (r *Registry) UpdateSettings(ctx context.Context, siteID int64, form url.Values) error {
	r.mu.RLock()
	fns := active(r, r.update)
	r.mu.RUnlock()
	return runActions(ctx, fns, siteID, form)
}

// DefineInitialSettings runs every initial-settings handler for a new site.
func (r *Registry) DefineInitialSettings(ctx context.Context, siteID int64, form url.Values) error {
	r.mu.RLock()
	fns := active(r, r.initial)
	r.mu.RUnlock()
	return runActions(ctx, fns, siteID, form)
}

func runActions(ctx context.Context, fns []SettingsAction, siteID int64, form url.Values) error {
	var errs []error
	for _, fn := range fns {
		if err := fn(ctx, siteID, form); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
