// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidFlagURL is returned for flag URLs that are not absolute
	// http or https URLs.
	ErrInvalidFlagURL = errors.New("flag URL must be an absolute http or https URL")
	// ErrSaveFailed is returned when the repository rejects a write.
	ErrSaveFailed = errors.New("saving site flag settings failed")
)

// SiteSettingsUpdater saves the flag settings submitted with a site
// settings form.
type SiteSettingsUpdater struct {
	repo *Repository
}

// NewSiteSettingsUpdater returns an updater writing through repo.
func NewSiteSettingsUpdater(repo *Repository) *SiteSettingsUpdater {
	return &SiteSettingsUpdater{repo: repo}
}

// UpdateSettings stores the fields present in form. Absent fields keep
// their stored value. An invalid URL is not stored; the style is still
// saved and the returned error says why.
func (u *SiteSettingsUpdater) UpdateSettings(ctx context.Context, siteID int64, form url.Values) error {
	var errs []error

	if form.Has(FieldFlagURL) {
		raw, err := SanitizeFlagURL(form.Get(FieldFlagURL))
		switch {
		case err != nil:
			errs = append(errs, err)
		case !u.repo.UpdateSiteFlagURL(ctx, raw, siteID):
			errs = append(errs, fmt.Errorf("site %d flag URL: %w", siteID, ErrSaveFailed))
		}
	}

	if form.Has(FieldMenuStyle) {
		style := ParseMenuStyle(strings.TrimSpace(form.Get(FieldMenuStyle)))
		if !u.repo.UpdateMenuLanguageStyle(ctx, string(style), siteID) {
			errs = append(errs, fmt.Errorf("site %d menu style: %w", siteID, ErrSaveFailed))
		}
	}

	return errors.Join(errs...)
}

// DefineInitialSettings stores the settings of a newly created site. Both
// values are written, empty when missing from form.
func (u *SiteSettingsUpdater) DefineInitialSettings(ctx context.Context, siteID int64, form url.Values) error {
	initial := url.Values{
		FieldFlagURL:   {form.Get(FieldFlagURL)},
		FieldMenuStyle: {form.Get(FieldMenuStyle)},
	}
	return u.UpdateSettings(ctx, siteID, initial)
}

// SanitizeFlagURL trims raw and checks it is empty or an absolute http(s)
// URL.
func SanitizeFlagURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidFlagURL)
	}
	return u.String(), nil
}
