// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// SiteSetting is a single key/value pair scoped to one site.
type SiteSetting struct {
	SiteID    int64     `json:"site_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings holds the settings of one site keyed by setting name.
type SiteSettings map[string]string

// Get returns the value for a key, or "" if the key is unset.
func (s SiteSettings) Get(key string) string {
	return s[key]
}

// NetworkSettings maps site IDs to their settings.
type NetworkSettings map[int64]SiteSettings

// Get returns the value of key for siteID, or "" when either is missing.
func (n NetworkSettings) Get(siteID int64, key string) string {
	return n[siteID].Get(key)
}
