// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"siteflags/internal/models"
)

const upsertSiteSetting = `
	INSERT INTO site_settings (site_id, key, value, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (site_id, key)
	DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// SiteSettingStore persists per-site settings in PostgreSQL.
type SiteSettingStore struct {
	db *sql.DB
}

// NewSiteSettingStore returns a SiteSettingStore backed by db.
func NewSiteSettingStore(db *sql.DB) *SiteSettingStore {
	return &SiteSettingStore{db: db}
}

// All returns the settings of every site in the network.
func (s *SiteSettingStore) All(ctx context.Context) (models.NetworkSettings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT site_id, key, value FROM site_settings ORDER BY site_id, key`)
	if err != nil {
		return nil, fmt.Errorf("list site settings: %w", err)
	}
	defer rows.Close()

	all := make(models.NetworkSettings)
	for rows.Next() {
		var (
			siteID int64
			k, v   string
		)
		if err := rows.Scan(&siteID, &k, &v); err != nil {
			return nil, fmt.Errorf("scan site setting: %w", err)
		}
		if all[siteID] == nil {
			all[siteID] = make(models.SiteSettings)
		}
		all[siteID][k] = v
	}
	return all, rows.Err()
}

// SiteSettings returns the settings of a single site. A site without
// settings yields an empty, non-nil map.
func (s *SiteSettingStore) SiteSettings(ctx context.Context, siteID int64) (models.SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM site_settings WHERE site_id = $1`, siteID)
	if err != nil {
		return nil, fmt.Errorf("site settings %d: %w", siteID, err)
	}
	defer rows.Close()

	settings := make(models.SiteSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan site setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// UpdateSetting upserts one setting of a site.
func (s *SiteSettingStore) UpdateSetting(ctx context.Context, siteID int64, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertSiteSetting, siteID, key, value, time.Now()); err != nil {
		return fmt.Errorf("update site setting %d/%s: %w", siteID, key, err)
	}
	return nil
}

// SetMany upserts several settings of a site in one transaction.
func (s *SiteSettingStore) SetMany(ctx context.Context, siteID int64, settings map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSiteSetting)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range settings {
		if _, err := stmt.ExecContext(ctx, siteID, k, v, now); err != nil {
			return fmt.Errorf("set site setting %d/%s: %w", siteID, k, err)
		}
	}

	return tx.Commit()
}
