package handlers

import (
	"strings"
	"testing"
)

func TestValidateSite(t *testing.T) {
	tests := []struct {
		name      string
		siteName  string
		lang      string
		url       string
		wantError bool
	}{
		{"valid", "Français", "fr-FR", "https://fr.example.com", false},
		{"valid http", "English", "en", "http://en.example.com/", false},
		{"empty name", "", "fr-FR", "https://fr.example.com", true},
		{"whitespace name", "   ", "fr-FR", "https://fr.example.com", true},
		{"name too long", strings.Repeat("a", 201), "fr-FR", "https://fr.example.com", true},
		{"empty language", "Français", "", "https://fr.example.com", true},
		{"bad language", "Français", "!!", "https://fr.example.com", true},
		{"empty url", "Français", "fr-FR", "", true},
		{"relative url", "Français", "fr-FR", "/fr", true},
		{"ftp url", "Français", "fr-FR", "ftp://fr.example.com", true},
		{"url too long", "Français", "fr-FR", "https://fr.example.com/" + strings.Repeat("a", 2000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateSite(tt.siteName, tt.lang, tt.url)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestCanonicalLanguage(t *testing.T) {
	tests := map[string]string{
		"fr-fr":  "fr-FR",
		" en-us": "en-US",
		"de":     "de",
	}
	for in, want := range tests {
		if got := canonicalLanguage(in); got != want {
			t.Errorf("canonicalLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
