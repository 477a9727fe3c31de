// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"siteflags/internal/hooks"
	"siteflags/internal/models"
	"siteflags/internal/module"
	"siteflags/internal/render"
	"siteflags/internal/slug"
	"siteflags/internal/storage"
)

// maxUploadBody bounds a flag upload request including multipart framing.
const maxUploadBody = storage.MaxFlagSize + 64<<10

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer *render.Renderer
	sites    SiteStore
	modules  *module.Manager
	site     Surface
	network  Surface
	uploader FlagUploader
	flagURLs FlagURLWriter
	onToggle []func(ctx context.Context, moduleID string)
}

// NewAdmin creates a new Admin handler group. site is the surface of the
// per-site screens, network the one of the network screens. uploader may
// be nil when object storage is not configured.
func NewAdmin(renderer *render.Renderer, sites SiteStore, modules *module.Manager, site, network Surface, uploader FlagUploader, flagURLs FlagURLWriter) *Admin {
	return &Admin{
		renderer: renderer,
		sites:    sites,
		modules:  modules,
		site:     site,
		network:  network,
		uploader: uploader,
		flagURLs: flagURLs,
	}
}

// OnModuleToggle registers fn to run after a module is activated or
// deactivated from the modules screen.
func (a *Admin) OnModuleToggle(fn func(ctx context.Context, moduleID string)) {
	a.onToggle = append(a.onToggle, fn)
}

// siteRow is one line of the sites table. LanguageTag is HTML.
type siteRow struct {
	ID          int64
	Name        string
	URL         string
	LanguageTag string
}

// SitesList renders the sites of the network with their language tags
// decorated by the language tag filters.
func (a *Admin) SitesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sites, err := a.sites.List(ctx)
	if err != nil {
		slog.Error("list sites failed", "error", err)
	}

	rows := make([]siteRow, 0, len(sites))
	for _, s := range sites {
		rows = append(rows, siteRow{
			ID:          s.ID,
			Name:        s.Name,
			URL:         s.URL,
			LanguageTag: a.site.Hooks.FilterSiteLanguageTag(ctx, html.EscapeString(s.Language), s.ID),
		})
	}

	a.renderer.Page(w, r, "sites_list", &render.PageData{
		Title:   "Sites",
		Section: "sites",
		Styles:  a.site.styleTags(),
		Data:    map[string]any{"Sites": rows},
	})
}

// SiteSettings renders the settings form of a site.
func (a *Admin) SiteSettings(w http.ResponseWriter, r *http.Request) {
	site, ok := a.findSite(w, r)
	if !ok {
		return
	}

	var flashes []render.Flash
	switch r.URL.Query().Get("updated") {
	case "settings":
		flashes = append(flashes, render.Flash{Type: "success", Message: "Settings saved."})
	case "flag":
		flashes = append(flashes, render.Flash{Type: "success", Message: "Flag uploaded."})
	}
	a.settingsPage(w, r, site, http.StatusOK, "", flashes)
}

// SiteSettingsSave runs the settings update handlers on the submitted form.
func (a *Admin) SiteSettingsSave(w http.ResponseWriter, r *http.Request) {
	site, ok := a.findSite(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := a.site.Hooks.UpdateSettings(r.Context(), site.ID, r.PostForm); err != nil {
		slog.Warn("update site settings failed", "site_id", site.ID, "error", err)
		a.settingsPage(w, r, site, http.StatusUnprocessableEntity, settingsErrorMessage(err), nil)
		return
	}

	slog.Info("site settings updated", "site_id", site.ID)
	http.Redirect(w, r, settingsPath(site.ID)+"?updated=settings", http.StatusSeeOther)
}

// FlagUpload stores an uploaded flag image and saves its public URL as
// the flag URL of the site.
func (a *Admin) FlagUpload(w http.ResponseWriter, r *http.Request) {
	if a.uploader == nil {
		http.Error(w, "Flag uploads are not configured", http.StatusNotFound)
		return
	}
	site, ok := a.findSite(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(storage.MaxFlagSize); err != nil {
		a.settingsPage(w, r, site, http.StatusRequestEntityTooLarge, "The flag image is too large (max 512 KB).", nil)
		return
	}

	file, header, err := r.FormFile("flag")
	if err != nil {
		a.settingsPage(w, r, site, http.StatusBadRequest, "Choose a flag image to upload.", nil)
		return
	}
	defer file.Close()

	if header.Size > storage.MaxFlagSize {
		a.settingsPage(w, r, site, http.StatusRequestEntityTooLarge, "The flag image is too large (max 512 KB).", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	url, err := a.uploader.UploadFlag(r.Context(), site.ID, contentType, file, header.Size)
	if errors.Is(err, storage.ErrUnsupportedType) {
		a.settingsPage(w, r, site, http.StatusUnsupportedMediaType, "Flags must be SVG, PNG, GIF, WebP or JPEG images.", nil)
		return
	}
	if err != nil {
		slog.Error("flag upload failed", "site_id", site.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !a.flagURLs.UpdateSiteFlagURL(r.Context(), url, site.ID) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("flag uploaded", "site_id", site.ID, "url", url)
	http.Redirect(w, r, settingsPath(site.ID)+"?updated=flag", http.StatusSeeOther)
}

func (a *Admin) settingsPage(w http.ResponseWriter, r *http.Request, site *models.Site, status int, errMsg string, flashes []render.Flash) {
	var b strings.Builder
	if err := a.site.Hooks.RenderSettingsSection(r.Context(), hooks.SectionSiteSettings, &b, site.ID); err != nil {
		slog.Error("render settings section failed", "site_id", site.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Site":          site,
		"Sections":      template.HTML(b.String()),
		"UploadEnabled": a.uploader != nil,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "site_settings", &render.PageData{
		Title:   site.Name + " settings",
		Section: "sites",
		Styles:  a.site.styleTags(),
		Data:    data,
		Flashes: flashes,
		Status:  status,
	})
}

// findSite resolves the {id} parameter, writing a 404 when it names no site.
func (a *Admin) findSite(w http.ResponseWriter, r *http.Request) (*models.Site, bool) {
	id, ok := siteIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	site, err := a.sites.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find site failed", "site_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if site == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return site, true
}

func settingsPath(siteID int64) string {
	return fmt.Sprintf("/admin/sites/%d/settings", siteID)
}

// settingsErrorMessage turns joined update errors into one user-facing line.
func settingsErrorMessage(err error) string {
	var lines []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return "Some settings were not saved: " + strings.Join(lines, "; ") + "."
}

// --- Modules ---

// ModulesList renders the registered modules and their state.
func (a *Admin) ModulesList(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "modules", &render.PageData{
		Title:   "Modules",
		Section: "modules",
		Data:    map[string]any{"Modules": a.modules.Modules()},
	})
}

// ModuleToggle activates an inactive module or deactivates an active one.
func (a *Admin) ModuleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	mod, err := a.modules.Module(id)
	if errors.Is(err, module.ErrModuleNotFound) {
		http.NotFound(w, r)
		return
	}

	if mod.Active {
		err = a.modules.Deactivate(r.Context(), id)
	} else {
		err = a.modules.Activate(r.Context(), id)
	}
	switch {
	case errors.Is(err, module.ErrModuleDisabled):
		http.Error(w, "Module is disabled", http.StatusConflict)
		return
	case err != nil:
		slog.Error("toggle module failed", "module", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	for _, fn := range a.onToggle {
		fn(r.Context(), id)
	}

	http.Redirect(w, r, "/admin/modules", http.StatusSeeOther)
}

// --- Network ---

// SiteNew renders the new-site form with the new-site settings sections.
func (a *Admin) SiteNew(w http.ResponseWriter, r *http.Request) {
	a.newSitePage(w, r, http.StatusOK, map[string]any{})
}

// SiteCreate adds a site to the network and runs the initial settings
// handlers on the submitted form.
func (a *Admin) SiteCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.PostForm.Get("name"))
	lang := strings.TrimSpace(r.PostForm.Get("language"))
	siteURL := strings.TrimSpace(r.PostForm.Get("url"))

	if msg := validateSite(name, lang, siteURL); msg != "" {
		a.newSitePage(w, r, http.StatusUnprocessableEntity, map[string]any{
			"Error":    msg,
			"Name":     name,
			"Language": lang,
			"URL":      siteURL,
		})
		return
	}

	ctx := r.Context()
	site, err := a.sites.Create(ctx, models.Site{
		Name:     name,
		Slug:     slug.Generate(name),
		Language: canonicalLanguage(lang),
		URL:      siteURL,
	})
	if err != nil {
		slog.Error("create site failed", "name", name, "error", err)
		a.newSitePage(w, r, http.StatusUnprocessableEntity, map[string]any{
			"Error":    "The site could not be created. Its name may already be taken.",
			"Name":     name,
			"Language": lang,
			"URL":      siteURL,
		})
		return
	}

	if err := a.network.Hooks.DefineInitialSettings(ctx, site.ID, r.PostForm); err != nil {
		slog.Warn("initial site settings incomplete", "site_id", site.ID, "error", err)
	}

	slog.Info("site created", "site_id", site.ID, "language", site.Language)
	http.Redirect(w, r, settingsPath(site.ID), http.StatusSeeOther)
}

func (a *Admin) newSitePage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	var b strings.Builder
	if err := a.network.Hooks.RenderSettingsSection(r.Context(), hooks.SectionNewSiteSettings, &b, 0); err != nil {
		slog.Error("render new-site section failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data["Sections"] = template.HTML(b.String())

	a.renderer.Page(w, r, "site_new", &render.PageData{
		Title:   "Add site",
		Section: "new-site",
		Styles:  a.network.styleTags(),
		Data:    data,
		Status:  status,
	})
}
