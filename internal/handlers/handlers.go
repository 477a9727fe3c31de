// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Site Flags network.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"siteflags/internal/hooks"
	"siteflags/internal/models"
	"siteflags/internal/render"
)

// UserStore is the user persistence used by the auth handlers.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
}

// SiteStore is the site persistence used by the admin and public handlers.
// FindByID returns nil when the site does not exist.
type SiteStore interface {
	List(ctx context.Context) ([]models.Site, error)
	FindByID(ctx context.Context, id int64) (*models.Site, error)
	Create(ctx context.Context, site models.Site) (*models.Site, error)
}

// FlagUploader stores an uploaded flag image and returns its public URL.
type FlagUploader interface {
	UploadFlag(ctx context.Context, siteID int64, contentType string, body io.Reader, size int64) (string, error)
}

// FlagURLWriter saves the flag URL of a site.
type FlagURLWriter interface {
	UpdateSiteFlagURL(ctx context.Context, url string, siteID int64) bool
}

// MenuCache stores rendered public menus. On a miss Get returns a
// generation that Set uses to drop renders overtaken by an invalidation.
type MenuCache interface {
	Get(ctx context.Context, key string) (body []byte, gen int64, ok bool)
	Set(ctx context.Context, key string, gen int64, body []byte)
}

// Surface is the hook registry and stylesheets of one page context.
// Styles may be nil.
type Surface struct {
	Hooks  *hooks.Registry
	Styles render.StyleSource
}

func (s Surface) styleTags() template.HTML {
	if s.Styles == nil {
		return ""
	}
	return s.Styles.StyleTags()
}

// siteIDParam parses the {id} URL parameter. The bool is false when it is
// not a positive integer.
func siteIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
