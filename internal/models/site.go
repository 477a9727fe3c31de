// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and the value types shared across the network.
package models

import "time"

// Site is one tenant of the network. Sites are owned by the network admin;
// the flags module reads them but never creates or removes them on its own.
type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Language  string    `json:"language"` // BCP 47 tag, e.g. "fr-FR"
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// MenuItem is a single navigation menu entry. SiteID is 0 when the item
// does not point at a site of the network.
type MenuItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	SiteID int64  `json:"site_id,omitempty"`
}

// HasSite reports whether the item references a network site.
func (m MenuItem) HasSite() bool {
	return m.SiteID > 0
}
