// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package flags

import "strings"

// MenuStyle selects how a flag is combined with a menu item title.
type MenuStyle string

const (
	// MenuStyleDefault is what an unset style means: flag and text.
	MenuStyleDefault     MenuStyle = ""
	MenuStyleFlagAndText MenuStyle = "flag_and_text"
	MenuStyleOnlyFlag    MenuStyle = "only_flag"
	MenuStyleOnlyText    MenuStyle = "only_text"
)

// MenuStyles lists the styles offered in the admin, in display order.
var MenuStyles = []struct {
	Style MenuStyle
	Label string
}{
	{MenuStyleFlagAndText, "Flag and language name"},
	{MenuStyleOnlyFlag, "Flag only"},
	{MenuStyleOnlyText, "Language name only"},
}

// ParseMenuStyle maps a stored value to a known style; anything unknown
// becomes MenuStyleDefault.
func ParseMenuStyle(s string) MenuStyle {
	switch MenuStyle(s) {
	case MenuStyleFlagAndText, MenuStyleOnlyFlag, MenuStyleOnlyText:
		return MenuStyle(s)
	}
	return MenuStyleDefault
}

// Formatter merges flag markup into menu titles and language tags.
// Implementations must return their input unchanged when it already
// carries the markup of the same flag.
type Formatter interface {
	MenuTitle(title string, f Flag, style MenuStyle) string
	LanguageTag(tag string, f Flag) string
}

// DefaultFormatter prefixes the flag markup to the text, joined by
// Separator. When the flag renders no markup of its own an <img> element
// with Class is used.
type DefaultFormatter struct {
	Class     string
	Separator string
}

// NewDefaultFormatter returns a formatter using class for generated images
// and a single space as separator.
func NewDefaultFormatter(class string) DefaultFormatter {
	return DefaultFormatter{Class: class, Separator: " "}
}

func (d DefaultFormatter) markup(f Flag) string {
	if m := f.Markup(); m != "" {
		return m
	}
	return imageTag(f, d.Class)
}

// MenuTitle composes title and flag according to style.
func (d DefaultFormatter) MenuTitle(title string, f Flag, style MenuStyle) string {
	if style == MenuStyleOnlyText {
		return title
	}

	m := d.markup(f)
	if strings.Contains(title, m) {
		return title
	}
	if style == MenuStyleOnlyFlag {
		return m
	}
	return m + d.Separator + title
}

// LanguageTag prefixes the flag to tag.
func (d DefaultFormatter) LanguageTag(tag string, f Flag) string {
	m := d.markup(f)
	if strings.Contains(tag, m) {
		return tag
	}
	return m + d.Separator + tag
}
