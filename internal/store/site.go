// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"siteflags/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

const (
	siteCacheSize = 512
	siteCacheTTL  = time.Minute
)

const siteColumns = `id, name, slug, language, url, created_at`

// SiteStore reads and creates network sites. Lookups by ID go through a
// small expiring LRU because menus resolve the same handful of sites on
// every request.
type SiteStore struct {
	db    *sql.DB
	cache *expirable.LRU[int64, models.Site]
}

// NewSiteStore returns a SiteStore backed by db.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{
		db:    db,
		cache: expirable.NewLRU[int64, models.Site](siteCacheSize, nil, siteCacheTTL),
	}
}

// List returns all sites ordered by ID.
func (s *SiteStore) List(ctx context.Context) ([]models.Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		var site models.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Slug, &site.Language, &site.URL, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// FindByID returns the site with the given ID, or nil when it does not exist.
func (s *SiteStore) FindByID(ctx context.Context, id int64) (*models.Site, error) {
	if site, ok := s.cache.Get(id); ok {
		return &site, nil
	}

	var site models.Site
	err := s.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id).
		Scan(&site.ID, &site.Name, &site.Slug, &site.Language, &site.URL, &site.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site %d: %w", id, err)
	}

	s.cache.Add(id, site)
	return &site, nil
}

// Create inserts a new site and returns it with its assigned ID.
func (s *SiteStore) Create(ctx context.Context, site models.Site) (*models.Site, error) {
	created := site
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sites (name, slug, language, url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+siteColumns,
		site.Name, site.Slug, site.Language, site.URL,
	).Scan(&created.ID, &created.Name, &created.Slug, &created.Language, &created.URL, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	return &created, nil
}

// SiteLanguage returns the language tag configured for a site.
func (s *SiteStore) SiteLanguage(ctx context.Context, id int64) (string, error) {
	site, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if site == nil {
		return "", fmt.Errorf("site %d: %w", id, ErrNotFound)
	}
	return site.Language, nil
}
