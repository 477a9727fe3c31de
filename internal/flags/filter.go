// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"context"
	"log/slog"

	"siteflags/internal/models"
)

// Filter decorates menu item titles and admin language tags with the flag
// of the site they refer to. Both methods are pure functions of the
// stored settings and their arguments.
type Filter struct {
	repo      *Repository
	factory   *Factory
	formatter Formatter
}

// NewFilter returns a Filter. A nil formatter uses DefaultFormatter.
func NewFilter(repo *Repository, factory *Factory, formatter Formatter) *Filter {
	if formatter == nil {
		formatter = NewDefaultFormatter("site-flag")
	}
	return &Filter{repo: repo, factory: factory, formatter: formatter}
}

// NavMenuItems returns title decorated with the flag of the site item
// links to. Items without a site, sites without a flag URL and flags that
// cannot be built leave title unchanged.
func (f *Filter) NavMenuItems(ctx context.Context, title string, item models.MenuItem) string {
	if !item.HasSite() {
		return title
	}

	flag, ok := f.flag(ctx, item.SiteID)
	if !ok {
		return title
	}

	style := ParseMenuStyle(f.repo.SiteMenuLanguageStyle(ctx, item.SiteID))
	return f.formatter.MenuTitle(title, flag, style)
}

// TableListPostsRelations returns languageTag decorated with the flag of
// siteID, or unchanged when the site has no flag.
func (f *Filter) TableListPostsRelations(ctx context.Context, languageTag string, siteID int64) string {
	flag, ok := f.flag(ctx, siteID)
	if !ok {
		return languageTag
	}
	return f.formatter.LanguageTag(languageTag, flag)
}

func (f *Filter) flag(ctx context.Context, siteID int64) (Flag, bool) {
	if siteID <= 0 {
		return nil, false
	}

	flag, err := f.factory.Create(ctx, siteID)
	if err != nil {
		slog.Warn("site flag unavailable", "site_id", siteID, "error", err)
		return nil, false
	}
	if flag.URL() == "" {
		return nil, false
	}
	return flag, true
}
