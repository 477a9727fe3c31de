package handlers

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// Validation limits for site fields.
const (
	maxSiteNameLen = 200
	maxSiteURLLen  = 2_000
)

// validateSite checks the new-site form inputs and returns the first
// error found.
func validateSite(name, lang, siteURL string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Site name is required."
	}
	if utf8.RuneCountInString(name) > maxSiteNameLen {
		return "Site name is too long (max 200 characters)."
	}

	if strings.TrimSpace(lang) == "" {
		return "Language is required."
	}
	if _, err := language.Parse(lang); err != nil {
		return "Language must be a BCP 47 tag such as fr-FR."
	}

	siteURL = strings.TrimSpace(siteURL)
	if siteURL == "" {
		return "Site URL is required."
	}
	if len(siteURL) > maxSiteURLLen {
		return "Site URL is too long (max 2,000 characters)."
	}
	u, err := url.Parse(siteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "Site URL must be an absolute http or https URL."
	}
	return ""
}

// canonicalLanguage returns the canonical form of a valid language tag.
func canonicalLanguage(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return lang
	}
	return tag.String()
}
