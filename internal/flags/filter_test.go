// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"context"
	"strings"
	"testing"

	"siteflags/internal/models"
	"siteflags/internal/store"
)

func newTestFilter(t *testing.T) (*Filter, *Repository) {
	t.Helper()
	sites := store.NewMemorySiteStore(
		models.Site{ID: 1, Slug: "en", Name: "English", Language: "en-US"},
		models.Site{ID: 5, Slug: "fr", Name: "Français", Language: "fr-FR"},
	)
	repo := NewRepository(store.NewMemorySiteSettingStore())
	return NewFilter(repo, NewFactory(repo, sites, nil), nil), repo
}

func TestTableListPostsRelationsWithFlag(t *testing.T) {
	ctx := context.Background()
	filter, repo := newTestFilter(t)
	repo.UpdateSiteFlagURL(ctx, "https://example.com/fr.svg", 5)

	got := filter.TableListPostsRelations(ctx, "fr-FR", 5)
	if !strings.Contains(got, "https://example.com/fr.svg") || !strings.Contains(got, "fr-FR") {
		t.Errorf("got %q, want URL and tag", got)
	}
}

func TestTableListPostsRelationsUnconfigured(t *testing.T) {
	ctx := context.Background()
	filter, _ := newTestFilter(t)

	for _, id := range []int64{1, 0, 404} {
		if got := filter.TableListPostsRelations(ctx, "en-US", id); got != "en-US" {
			t.Errorf("site %d: got %q, want unchanged", id, got)
		}
	}
}

func TestNavMenuItemsWithoutSite(t *testing.T) {
	ctx := context.Background()
	filter, repo := newTestFilter(t)
	repo.UpdateSiteFlagURL(ctx, "https://example.com/fr.svg", 5)

	item := models.MenuItem{ID: 9, Title: "About", URL: "/about"}
	if got := filter.NavMenuItems(ctx, "About", item); got != "About" {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestNavMenuItemsIdempotent(t *testing.T) {
	ctx := context.Background()
	filter, repo := newTestFilter(t)
	repo.UpdateSiteFlagURL(ctx, "https://example.com/fr.svg", 5)
	item := models.MenuItem{ID: 1, Title: "Français", SiteID: 5}

	for _, style := range []string{"", "flag_and_text", "only_flag", "only_text"} {
		repo.UpdateMenuLanguageStyle(ctx, style, 5)

		once := filter.NavMenuItems(ctx, "Français", item)
		twice := filter.NavMenuItems(ctx, once, item)
		if once != twice {
			t.Errorf("style %q: second pass changed %q to %q", style, once, twice)
		}
		if style != "only_text" && !strings.Contains(once, "https://example.com/fr.svg") {
			t.Errorf("style %q: flag missing from %q", style, once)
		}
	}
}

func TestNavMenuItemsSiteWithoutFlag(t *testing.T) {
	ctx := context.Background()
	filter, _ := newTestFilter(t)

	item := models.MenuItem{ID: 1, Title: "English", SiteID: 1}
	if got := filter.NavMenuItems(ctx, "English", item); got != "English" {
		t.Errorf("got %q, want unchanged", got)
	}
}
