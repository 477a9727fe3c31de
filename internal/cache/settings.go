// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"siteflags/internal/models"
)

const (
	settingsKeyPrefix = "site_settings:"

	// settingsGenerationPrefix keys the per-site invalidation counters.
	settingsGenerationPrefix = "site_settings_generation:"

	// filledField marks a cached hash so that a site with no settings is
	// still a cache hit.
	filledField = "\x00filled"

	// DefaultSettingsTTL bounds how stale settings written by another
	// process can be.
	DefaultSettingsTTL = 10 * time.Minute
)

// SettingsBackend is the authoritative per-site settings storage.
type SettingsBackend interface {
	SiteSettings(ctx context.Context, siteID int64) (models.SiteSettings, error)
	UpdateSetting(ctx context.Context, siteID int64, key, value string) error
}

// SettingsCache is a read-through Valkey cache in front of a
// SettingsBackend. Each site is cached as one hash. Cache failures
// degrade to the backend and are logged, never returned.
type SettingsCache struct {
	client   *redis.Client
	backend  SettingsBackend
	ttl      time.Duration
	onChange []func(ctx context.Context, siteID int64)
}

// NewSettingsCache wraps backend with a Valkey cache.
func NewSettingsCache(client *redis.Client, backend SettingsBackend, ttl time.Duration) *SettingsCache {
	if ttl == 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsCache{client: client, backend: backend, ttl: ttl}
}

// OnChange registers fn to run after every successful write.
func (c *SettingsCache) OnChange(fn func(ctx context.Context, siteID int64)) {
	c.onChange = append(c.onChange, fn)
}

func settingsKey(siteID int64) string {
	return fmt.Sprintf("%s%d", settingsKeyPrefix, siteID)
}

func settingsGenerationKey(siteID int64) string {
	return fmt.Sprintf("%s%d", settingsGenerationPrefix, siteID)
}

// SiteSettings returns a site's settings, from Valkey when cached.
func (c *SettingsCache) SiteSettings(ctx context.Context, siteID int64) (models.SiteSettings, error) {
	key := settingsKey(siteID)

	cached, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		slog.Warn("settings cache get error", "site_id", siteID, "error", err)
	}
	if _, ok := cached[filledField]; ok {
		delete(cached, filledField)
		return models.SiteSettings(cached), nil
	}

	// Read the generation before the backend so a write landing in
	// between makes the fill below a no-op.
	gen, err := generation(ctx, c.client, settingsGenerationKey(siteID))
	if err != nil {
		slog.Warn("settings cache generation error", "site_id", siteID, "error", err)
		gen = -1
	}

	settings, err := c.backend.SiteSettings(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if gen >= 0 {
		c.fill(ctx, siteID, gen, settings)
	}
	return settings, nil
}

// fill caches settings read under gen, unless the site was invalidated
// after gen was read.
func (c *SettingsCache) fill(ctx context.Context, siteID, gen int64, settings models.SiteSettings) {
	key := settingsKey(siteID)
	values := make([]any, 0, 2*len(settings)+2)
	values = append(values, filledField, "1")
	for k, v := range settings {
		values = append(values, k, v)
	}

	err := writeIfCurrent(ctx, c.client, settingsGenerationKey(siteID), gen, func(pipe redis.Pipeliner) {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, c.ttl)
	})
	switch {
	case isStale(err):
		slog.Debug("settings cache fill skipped after write", "site_id", siteID)
	case err != nil:
		slog.Warn("settings cache set error", "key", key, "error", err)
	}
}

// UpdateSetting writes through to the backend and drops the cached hash.
func (c *SettingsCache) UpdateSetting(ctx context.Context, siteID int64, key, value string) error {
	if err := c.backend.UpdateSetting(ctx, siteID, key, value); err != nil {
		return err
	}
	c.Invalidate(ctx, siteID)
	for _, fn := range c.onChange {
		fn(ctx, siteID)
	}
	return nil
}

// Invalidate removes a site's cached settings and discards fills that
// started before it.
func (c *SettingsCache) Invalidate(ctx context.Context, siteID int64) {
	if err := c.client.Incr(ctx, settingsGenerationKey(siteID)).Err(); err != nil {
		slog.Warn("settings cache generation bump error", "site_id", siteID, "error", err)
	}
	if err := c.client.Del(ctx, settingsKey(siteID)).Err(); err != nil {
		slog.Warn("settings cache invalidate error", "site_id", siteID, "error", err)
	}
	slog.Debug("settings cache invalidated", "site_id", siteID)
}
