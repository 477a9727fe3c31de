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
)

const (
	menuKeyPrefix = "menu:"

	// menuGenerationKey counts InvalidateAll calls. It lives outside
	// menuKeyPrefix so the invalidation scan leaves it alone.
	menuGenerationKey = "menu_generation"

	// DefaultMenuTTL is how long a rendered menu stays cached.
	DefaultMenuTTL = 5 * time.Minute
)

// MenuCache stores rendered public menus so repeated requests skip the
// settings lookups and flag decoration.
type MenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMenuCache creates a menu cache backed by client.
func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	if ttl == 0 {
		ttl = DefaultMenuTTL
	}
	return &MenuCache{client: client, ttl: ttl}
}

// MenuKey returns the cache key of a site's menu in the given format.
func MenuKey(siteID int64, format string) string {
	return fmt.Sprintf("%d:%s", siteID, format)
}

// Get returns a cached menu. The bool is false on miss; the generation
// must then be passed to Set with the freshly rendered body. A negative
// generation means the cache is unavailable.
func (mc *MenuCache) Get(ctx context.Context, key string) ([]byte, int64, bool) {
	val, err := mc.client.Get(ctx, menuKeyPrefix+key).Bytes()
	if err == nil {
		slog.Debug("menu cache hit", "key", key)
		return val, 0, true
	}
	if err != redis.Nil {
		slog.Warn("menu cache get error", "key", key, "error", err)
		return nil, -1, false
	}

	gen, err := generation(ctx, mc.client, menuGenerationKey)
	if err != nil {
		slog.Warn("menu cache generation error", "error", err)
		return nil, -1, false
	}
	return nil, gen, false
}

// Set stores a rendered menu with the configured TTL, unless the cache
// was invalidated since the miss that returned gen.
func (mc *MenuCache) Set(ctx context.Context, key string, gen int64, body []byte) {
	if gen < 0 {
		return
	}
	err := writeIfCurrent(ctx, mc.client, menuGenerationKey, gen, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, menuKeyPrefix+key, body, mc.ttl)
	})
	switch {
	case isStale(err):
		slog.Debug("menu cache set skipped after invalidation", "key", key)
	case err != nil:
		slog.Warn("menu cache set error", "key", key, "error", err)
	}
}

// InvalidateAll drops every cached menu. Any site's flag can appear in
// any other site's language switcher, so a single settings change
// affects all menus. Renders in flight when it runs are not stored.
func (mc *MenuCache) InvalidateAll(ctx context.Context) {
	if err := mc.client.Incr(ctx, menuGenerationKey).Err(); err != nil {
		slog.Warn("menu cache generation bump error", "error", err)
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := mc.client.Scan(ctx, cursor, menuKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("menu cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := mc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("menu cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("menu cache cleared", "deleted", deleted)
	}
}
