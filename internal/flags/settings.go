// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"context"
	"html/template"
	"io"
	"strings"
)

// Form fields of the flag settings.
const (
	FieldFlagURL   = "siteflags_flag_url"
	FieldMenuStyle = "siteflags_menu_style"
)

// SettingView renders one row of a site settings form. siteID is 0 when
// the form creates a new site.
type SettingView interface {
	Render(ctx context.Context, w io.Writer, siteID int64) error
}

var settingTemplates = template.Must(template.New("settings").Parse(`
{{define "flag_url"}}<tr class="form-field">
	<th scope="row"><label for="{{.Field}}">Flag image URL</label></th>
	<td>
		<input type="url" class="regular-text" id="{{.Field}}" name="{{.Field}}" value="{{.Value}}" placeholder="https://">
		{{if .Value}}<img class="site-flag-preview" src="{{.Value}}" alt="">{{end}}
	</td>
</tr>
{{end}}
{{define "menu_style"}}<tr class="form-field">
	<th scope="row"><label for="{{.Field}}">Language menu style</label></th>
	<td>
		<select id="{{.Field}}" name="{{.Field}}">
		{{- range .Options}}
			<option value="{{.Style}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
		{{- end}}
		</select>
	</td>
</tr>
{{end}}
{{define "section"}}<div class="site-flags-settings">
<h2>{{.Title}}</h2>
<table class="form-table">
{{.Rows}}</table>
</div>
{{end}}`))

// SiteFlagURLSetting is the flag URL input.
type SiteFlagURLSetting struct {
	repo *Repository
}

// NewSiteFlagURLSetting returns the flag URL setting view.
func NewSiteFlagURLSetting(repo *Repository) SiteFlagURLSetting {
	return SiteFlagURLSetting{repo: repo}
}

// Render writes the input filled with the stored URL.
func (s SiteFlagURLSetting) Render(ctx context.Context, w io.Writer, siteID int64) error {
	return settingTemplates.ExecuteTemplate(w, "flag_url", map[string]any{
		"Field": FieldFlagURL,
		"Value": s.repo.SiteFlagURL(ctx, siteID),
	})
}

// SiteMenuLanguageStyleSetting is the menu style select.
type SiteMenuLanguageStyleSetting struct {
	repo *Repository
}

// NewSiteMenuLanguageStyleSetting returns the menu style setting view.
func NewSiteMenuLanguageStyleSetting(repo *Repository) SiteMenuLanguageStyleSetting {
	return SiteMenuLanguageStyleSetting{repo: repo}
}

type styleOption struct {
	Style    MenuStyle
	Label    string
	Selected bool
}

// Render writes the select with the stored style selected. An unset or
// unknown style selects flag and text.
func (s SiteMenuLanguageStyleSetting) Render(ctx context.Context, w io.Writer, siteID int64) error {
	current := ParseMenuStyle(s.repo.SiteMenuLanguageStyle(ctx, siteID))
	if current == MenuStyleDefault {
		current = MenuStyleFlagAndText
	}

	opts := make([]styleOption, 0, len(MenuStyles))
	for _, ms := range MenuStyles {
		opts = append(opts, styleOption{Style: ms.Style, Label: ms.Label, Selected: ms.Style == current})
	}
	return settingTemplates.ExecuteTemplate(w, "menu_style", map[string]any{
		"Field":   FieldMenuStyle,
		"Options": opts,
	})
}

// SettingsView renders a titled group of setting views.
type SettingsView struct {
	Title string
	views []SettingView
}

// NewSettingsView returns a view rendering views in order.
func NewSettingsView(title string, views ...SettingView) *SettingsView {
	return &SettingsView{Title: title, views: views}
}

// Render writes the whole group. It matches hooks.SettingsSectionAction.
func (v *SettingsView) Render(ctx context.Context, w io.Writer, siteID int64) error {
	var rows strings.Builder
	for _, view := range v.views {
		if err := view.Render(ctx, &rows, siteID); err != nil {
			return err
		}
	}
	return settingTemplates.ExecuteTemplate(w, "section", map[string]any{
		"Title": v.Title,
		"Rows":  template.HTML(rows.String()),
	})
}
