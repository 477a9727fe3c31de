// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hooks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"testing"

	"siteflags/internal/models"
)

func suffix(s string) NavMenuItemTitleFilter {
	return func(_ context.Context, title string, _ models.MenuItem) string { return title + s }
}

func TestFilterOrderByPriority(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Name: "late", Priority: 20, Fn: suffix("-late")})
	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Name: "first", Fn: suffix("-a")})
	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Name: "second", Fn: suffix("-b")})
	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Name: "early", Priority: 1, Fn: suffix("-early")})

	got := r.FilterNavMenuItemTitle(ctx, "Home", models.MenuItem{})
	if want := "Home-early-a-b-late"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNoHandlersPassThrough(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	if got := r.FilterNavMenuItemTitle(ctx, "Home", models.MenuItem{}); got != "Home" {
		t.Errorf("title: got %q", got)
	}
	if got := r.FilterSiteLanguageTag(ctx, "fr-FR", 5); got != "fr-FR" {
		t.Errorf("tag: got %q", got)
	}
	var buf bytes.Buffer
	if err := r.RenderSettingsSection(ctx, SectionSiteSettings, &buf, 5); err != nil || buf.Len() != 0 {
		t.Errorf("render: %q, %v", buf.String(), err)
	}
}

func TestDuplicateHandlerName(t *testing.T) {
	r := NewRegistry()
	h := Handler[SiteLanguageTagFilter]{Name: "flags", Fn: func(_ context.Context, tag string, _ int64) string { return tag }}

	if err := r.AddSiteLanguageTagFilter(h); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := r.AddSiteLanguageTagFilter(h); !errors.Is(err, ErrHandlerExists) {
		t.Errorf("second add: got %v, want ErrHandlerExists", err)
	}

	// Same name on a different point is fine.
	err := r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Name: "flags", Fn: suffix("")})
	if err != nil {
		t.Errorf("same name on other point: %v", err)
	}
}

func TestLockedRegistry(t *testing.T) {
	r := NewRegistry()
	r.Lock()

	if !r.Locked() {
		t.Fatal("Locked() = false after Lock")
	}
	err := r.AddUpdateSettings(Handler[SettingsAction]{Name: "x", Fn: func(context.Context, int64, url.Values) error { return nil }})
	if !errors.Is(err, ErrRegistryLocked) {
		t.Errorf("got %v, want ErrRegistryLocked", err)
	}
}

func TestGateSkipsInactiveOwners(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	enabled := map[string]bool{"on": true}
	r.SetGate(func(owner string) bool { return enabled[owner] })

	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Owner: "on", Name: "a", Fn: suffix("-on")})
	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Owner: "off", Name: "b", Fn: suffix("-off")})
	r.AddNavMenuItemTitleFilter(Handler[NavMenuItemTitleFilter]{Name: "c", Fn: suffix("-core")})

	if got := r.FilterNavMenuItemTitle(ctx, "x", models.MenuItem{}); got != "x-on-core" {
		t.Errorf("got %q, want x-on-core", got)
	}

	enabled["off"] = true
	if got := r.FilterNavMenuItemTitle(ctx, "x", models.MenuItem{}); got != "x-on-off-core" {
		t.Errorf("after activation: got %q", got)
	}
}

func TestSettingsSections(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.AddSettingsSection(SectionSiteSettings, Handler[SettingsSectionAction]{
		Name: "flags",
		Fn: func(_ context.Context, w io.Writer, siteID int64) error {
			_, err := io.WriteString(w, "<fieldset>flags</fieldset>")
			return err
		},
	})

	var buf bytes.Buffer
	if err := r.RenderSettingsSection(ctx, SectionSiteSettings, &buf, 5); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "<fieldset>flags</fieldset>" {
		t.Errorf("site section: got %q", buf.String())
	}

	buf.Reset()
	r.RenderSettingsSection(ctx, SectionNewSiteSettings, &buf, 0)
	if buf.Len() != 0 {
		t.Errorf("new-site section should be empty, got %q", buf.String())
	}
}

func TestActionsJoinErrors(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	errA := errors.New("a failed")
	var ranB bool

	r.AddDefineInitialSettings(Handler[SettingsAction]{Name: "a", Fn: func(context.Context, int64, url.Values) error { return errA }})
	r.AddDefineInitialSettings(Handler[SettingsAction]{Name: "b", Fn: func(context.Context, int64, url.Values) error { ranB = true; return nil }})

	err := r.DefineInitialSettings(ctx, 5, url.Values{})
	if !errors.Is(err, errA) {
		t.Errorf("got %v, want errA", err)
	}
	if !ranB {
		t.Error("later handlers must still run after an error")
	}
}
