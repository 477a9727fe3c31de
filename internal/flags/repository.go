// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package flags implements the site flags module: per-site flag settings,
// the flag value object and its factory, the filter that decorates menu
// titles and admin language tags, the admin setting views, and the
// provider that wires all of it into the module manager and hooks.
package flags

import (
	"context"
	"log/slog"

	"siteflags/internal/models"
)

// Setting keys stored per site.
const (
	KeySiteFlagURL           = "flag_url"
	KeySiteMenuLanguageStyle = "menu_flag_style"
)

// SettingsStorage is the per-site key/value storage the repository sits on.
type SettingsStorage interface {
	SiteSettings(ctx context.Context, siteID int64) (models.SiteSettings, error)
	UpdateSetting(ctx context.Context, siteID int64, key, value string) error
}

// Repository reads and writes the flag settings of a site. Values are
// plain strings and are not validated here; unset values read as "".
type Repository struct {
	storage SettingsStorage
}

// NewRepository returns a Repository over storage.
func NewRepository(storage SettingsStorage) *Repository {
	return &Repository{storage: storage}
}

// SiteFlagURL returns the flag URL of a site, or "" if unset.
func (r *Repository) SiteFlagURL(ctx context.Context, siteID int64) string {
	return r.setting(ctx, siteID, KeySiteFlagURL)
}

// UpdateSiteFlagURL stores the flag URL of a site and reports success.
func (r *Repository) UpdateSiteFlagURL(ctx context.Context, url string, siteID int64) bool {
	return r.update(ctx, siteID, KeySiteFlagURL, url)
}

// SiteMenuLanguageStyle returns the menu label style of a site, or "".
func (r *Repository) SiteMenuLanguageStyle(ctx context.Context, siteID int64) string {
	return r.setting(ctx, siteID, KeySiteMenuLanguageStyle)
}

// UpdateMenuLanguageStyle stores the menu label style of a site.
func (r *Repository) UpdateMenuLanguageStyle(ctx context.Context, style string, siteID int64) bool {
	return r.update(ctx, siteID, KeySiteMenuLanguageStyle, style)
}

func (r *Repository) setting(ctx context.Context, siteID int64, key string) string {
	if siteID <= 0 {
		return ""
	}
	settings, err := r.storage.SiteSettings(ctx, siteID)
	if err != nil {
		slog.Error("read site setting failed", "site_id", siteID, "key", key, "error", err)
		return ""
	}
	return settings.Get(key)
}

func (r *Repository) update(ctx context.Context, siteID int64, key, value string) bool {
	if siteID <= 0 {
		return false
	}
	if err := r.storage.UpdateSetting(ctx, siteID, key, value); err != nil {
		slog.Error("update site setting failed", "site_id", siteID, "key", key, "error", err)
		return false
	}
	return true
}
