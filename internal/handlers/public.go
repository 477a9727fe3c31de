// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"log/slog"
	"net/http"

	"siteflags/internal/cache"
	"siteflags/internal/models"
	"siteflags/internal/render"
)

// Public groups the handlers of the public language switcher. Rendered
// menus are served from the menu cache when one is configured.
type Public struct {
	renderer *render.Renderer
	sites    SiteStore
	frontend Surface
	menus    MenuCache
}

// NewPublic creates a new Public handler group. menus may be nil.
func NewPublic(renderer *render.Renderer, sites SiteStore, frontend Surface, menus MenuCache) *Public {
	return &Public{
		renderer: renderer,
		sites:    sites,
		frontend: frontend,
		menus:    menus,
	}
}

// menuEntry is one item of the JSON menu.
type menuEntry struct {
	SiteID   int64  `json:"site_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Language string `json:"language"`
	Current  bool   `json:"current"`
}

type menuResponse struct {
	SiteID   int64       `json:"site_id"`
	Language string      `json:"language"`
	Items    []menuEntry `json:"items"`
}

// Menu renders the language switcher of a site as an HTML page.
func (p *Public) Menu(w http.ResponseWriter, r *http.Request) {
	p.serveMenu(w, r, "html", "text/html; charset=utf-8", func(current *models.Site, items []render.MenuItem) ([]byte, error) {
		var buf bytes.Buffer
		err := p.renderer.Menu(&buf, &render.MenuData{
			SiteName: current.Name,
			Language: current.Language,
			Styles:   p.frontend.styleTags(),
			Items:    items,
		})
		return buf.Bytes(), err
	})
}

// MenuJSON returns the language switcher of a site as JSON. Titles are
// the filtered HTML.
func (p *Public) MenuJSON(w http.ResponseWriter, r *http.Request) {
	p.serveMenu(w, r, "json", "application/json", func(current *models.Site, items []render.MenuItem) ([]byte, error) {
		resp := menuResponse{
			SiteID:   current.ID,
			Language: current.Language,
			Items:    make([]menuEntry, 0, len(items)),
		}
		for _, it := range items {
			resp.Items = append(resp.Items, menuEntry(it))
		}
		return json.Marshal(resp)
	})
}

type menuEncoder func(current *models.Site, items []render.MenuItem) ([]byte, error)

func (p *Public) serveMenu(w http.ResponseWriter, r *http.Request, format, contentType string, encode menuEncoder) {
	ctx := r.Context()

	id, ok := siteIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	key := cache.MenuKey(id, format)
	var gen int64
	if p.menus != nil {
		cached, g, hit := p.menus.Get(ctx, key)
		if hit {
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("X-Cache", "HIT")
			w.Write(cached)
			return
		}
		gen = g
	}

	current, err := p.sites.FindByID(ctx, id)
	if err != nil {
		slog.Error("find site failed", "site_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if current == nil {
		http.NotFound(w, r)
		return
	}

	items, err := p.menuItems(ctx, current.ID)
	if err != nil {
		slog.Error("build menu failed", "site_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body, err := encode(current, items)
	if err != nil {
		slog.Error("encode menu failed", "site_id", id, "format", format, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.menus != nil {
		p.menus.Set(ctx, key, gen, body)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}

// menuItems builds one entry per site of the network, titled with the
// site name and passed through the menu title filters.
func (p *Public) menuItems(ctx context.Context, currentID int64) ([]render.MenuItem, error) {
	sites, err := p.sites.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]render.MenuItem, 0, len(sites))
	for _, s := range sites {
		title := p.frontend.Hooks.FilterNavMenuItemTitle(ctx, html.EscapeString(s.Name), models.MenuItem{
			ID:     s.ID,
			Title:  s.Name,
			URL:    s.URL,
			SiteID: s.ID,
		})
		items = append(items, render.MenuItem{
			SiteID:   s.ID,
			Title:    title,
			URL:      s.URL,
			Language: s.Language,
			Current:  s.ID == currentID,
		})
	}
	return items, nil
}
