// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import (
	"fmt"
	"html"

	"golang.org/x/text/language"
)

// Flag is the visual indicator of a site's language.
type Flag interface {
	SiteID() int64
	Language() language.Tag
	URL() string
	Markup() string
}

// MarkupRenderer produces the inline markup of a flag.
type MarkupRenderer interface {
	Render(f Flag) string
}

// MarkupRendererFunc adapts a function to MarkupRenderer.
type MarkupRendererFunc func(f Flag) string

// Render calls fn(f).
func (fn MarkupRendererFunc) Render(f Flag) string { return fn(f) }

// PlaceholderRenderer renders no markup. Formatters fall back to building
// an image element from the URL.
var PlaceholderRenderer MarkupRenderer = MarkupRendererFunc(func(Flag) string { return "" })

// ImageRenderer renders a flag as an <img> element carrying the flag
// marker attribute.
type ImageRenderer struct {
	Class string
}

// Render returns the <img> element for f, or "" when f has no URL.
func (r ImageRenderer) Render(f Flag) string {
	if f.URL() == "" {
		return ""
	}
	return imageTag(f, r.Class)
}

// markerAttr identifies flag markup already spliced into a string.
const markerAttr = "data-site-flag"

func marker(siteID int64) string {
	return fmt.Sprintf(`%s="%d"`, markerAttr, siteID)
}

func imageTag(f Flag, class string) string {
	return fmt.Sprintf(`<img class="%s" src="%s" alt="%s" %s>`,
		html.EscapeString(class),
		html.EscapeString(f.URL()),
		html.EscapeString(f.Language().String()),
		marker(f.SiteID()),
	)
}

// Svg is the flag of a site, backed by an image URL.
type Svg struct {
	siteID   int64
	lang     language.Tag
	url      string
	renderer MarkupRenderer
}

// NewSvg returns an immutable flag. A nil renderer renders no markup.
func NewSvg(siteID int64, lang language.Tag, url string, renderer MarkupRenderer) *Svg {
	if renderer == nil {
		renderer = PlaceholderRenderer
	}
	return &Svg{siteID: siteID, lang: lang, url: url, renderer: renderer}
}

// SiteID returns the site the flag belongs to.
func (s *Svg) SiteID() int64 { return s.siteID }

// Language returns the site language.
func (s *Svg) Language() language.Tag { return s.lang }

// URL returns the flag image URL, possibly "".
func (s *Svg) URL() string { return s.url }

// Markup returns the rendered markup of the flag.
func (s *Svg) Markup() string { return s.renderer.Render(s) }
