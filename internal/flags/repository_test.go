// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"context"
	"errors"
	"testing"

	"siteflags/internal/models"
	"siteflags/internal/store"
)

type failingStorage struct{}

func (failingStorage) SiteSettings(context.Context, int64) (models.SiteSettings, error) {
	return nil, errors.New("storage down")
}

func (failingStorage) UpdateSetting(context.Context, int64, string, string) error {
	return errors.New("storage down")
}

func TestRepositoryUnsetReadsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemorySiteSettingStore())

	for _, id := range []int64{1, 2, 99} {
		if got := repo.SiteFlagURL(ctx, id); got != "" {
			t.Errorf("SiteFlagURL(%d) = %q, want empty", id, got)
		}
		if got := repo.SiteMenuLanguageStyle(ctx, id); got != "" {
			t.Errorf("SiteMenuLanguageStyle(%d) = %q, want empty", id, got)
		}
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemorySiteSettingStore())

	tests := []struct {
		siteID int64
		url    string
		style  string
	}{
		{1, "https://example.com/en.svg", "only_flag"},
		{2, "", "flag_and_text"},
		{3, "not a url at all", "whatever"},
	}
	for _, tt := range tests {
		if !repo.UpdateSiteFlagURL(ctx, tt.url, tt.siteID) {
			t.Fatalf("UpdateSiteFlagURL(%q, %d) failed", tt.url, tt.siteID)
		}
		if !repo.UpdateMenuLanguageStyle(ctx, tt.style, tt.siteID) {
			t.Fatalf("UpdateMenuLanguageStyle(%q, %d) failed", tt.style, tt.siteID)
		}
	}
	for _, tt := range tests {
		if got := repo.SiteFlagURL(ctx, tt.siteID); got != tt.url {
			t.Errorf("site %d url: got %q, want %q", tt.siteID, got, tt.url)
		}
		if got := repo.SiteMenuLanguageStyle(ctx, tt.siteID); got != tt.style {
			t.Errorf("site %d style: got %q, want %q", tt.siteID, got, tt.style)
		}
	}
}

func TestRepositoryInvalidSiteID(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemorySiteSettingStore()
	repo := NewRepository(storage)

	if repo.UpdateSiteFlagURL(ctx, "https://example.com/x.svg", 0) {
		t.Error("write for site 0 should fail")
	}
	if repo.UpdateMenuLanguageStyle(ctx, "only_flag", -1) {
		t.Error("write for site -1 should fail")
	}
	all, _ := storage.All(ctx)
	if len(all) != 0 {
		t.Errorf("storage touched for invalid site IDs: %v", all)
	}
}

func TestRepositoryStorageErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(failingStorage{})

	if got := repo.SiteFlagURL(ctx, 1); got != "" {
		t.Errorf("read error should yield empty, got %q", got)
	}
	if repo.UpdateSiteFlagURL(ctx, "https://example.com/x.svg", 1) {
		t.Error("write error should yield false")
	}
}
