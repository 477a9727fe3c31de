// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned when a site's language tag cannot be parsed.
var ErrUnknownLanguage = errors.New("unknown site language")

// LanguageResolver returns the language tag configured for a site.
type LanguageResolver interface {
	SiteLanguage(ctx context.Context, siteID int64) (string, error)
}

// Factory builds flags from the stored settings and the site language.
// Every call reads the repository; nothing is cached.
type Factory struct {
	repo      *Repository
	languages LanguageResolver
	renderer  MarkupRenderer
}

// NewFactory returns a Factory. A nil renderer renders no markup.
func NewFactory(repo *Repository, languages LanguageResolver, renderer MarkupRenderer) *Factory {
	return &Factory{repo: repo, languages: languages, renderer: renderer}
}

// Create returns the flag of a site.
func (f *Factory) Create(ctx context.Context, siteID int64) (Flag, error) {
	raw, err := f.languages.SiteLanguage(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("flag for site %d: %w", siteID, err)
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("flag for site %d: %w: %q", siteID, ErrUnknownLanguage, raw)
	}

	return NewSvg(siteID, tag, f.repo.SiteFlagURL(ctx, siteID), f.renderer), nil
}
