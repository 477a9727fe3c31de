// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// zipOf returns a zip archive holding files.
func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func translationServer(t *testing.T, packages map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/translations.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[
			{"language":"de_DE","version":"1.0.0","updated":"2026-01-02 10:00:00","package":"packages/de_DE.zip"},
			{"language":"fr_FR","version":"1.0.0","updated":"2026-01-03 10:00:00","package":"packages/fr_FR.zip"}
		]}`))
	})
	mux.HandleFunc("/api/packages/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := packages[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchManifest(t *testing.T) {
	srv := translationServer(t, nil)

	m, err := FetchManifest(context.Background(), srv.Client(), srv.URL+"/api/translations.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Translations) != 2 {
		t.Fatalf("got %d translations, want 2", len(m.Translations))
	}
	if m.Translations[1].Language != "fr_FR" || m.Translations[1].Package != "packages/fr_FR.zip" {
		t.Errorf("second translation: %+v", m.Translations[1])
	}
}

func TestDownloadTranslations(t *testing.T) {
	srv := translationServer(t, map[string][]byte{
		"de_DE.zip": zipOf(t, map[string]string{"site-flags-de_DE.po": "de", "site-flags-de_DE.mo": "mo"}),
		"fr_FR.zip": zipOf(t, map[string]string{"site-flags-fr_FR.po": "fr"}),
	})
	dir := filepath.Join(t.TempDir(), "languages")

	if err := DownloadTranslations(context.Background(), srv.Client(), srv.URL+"/api/translations.json", dir); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"site-flags-de_DE.po", "site-flags-de_DE.mo", "site-flags-fr_FR.po"} {
		if !exists(filepath.Join(dir, name)) {
			t.Errorf("%s not extracted", name)
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, "site-flags-fr_FR.po"))
	if string(data) != "fr" {
		t.Errorf("fr_FR.po: got %q", data)
	}
}

func TestDownloadTranslations_MissingPackage(t *testing.T) {
	srv := translationServer(t, map[string][]byte{
		"de_DE.zip": zipOf(t, map[string]string{"a.po": "a"}),
	})

	err := DownloadTranslations(context.Background(), srv.Client(), srv.URL+"/api/translations.json", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("got %v, want a 404 error", err)
	}
}

func TestDownloadTranslations_BadManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if err := DownloadTranslations(context.Background(), srv.Client(), srv.URL, t.TempDir()); err == nil {
		t.Error("expected a decode error")
	}
}

func TestExtractZip_RejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.po", "/abs/evil.po"} {
		data := zipOf(t, map[string]string{name: "x"})
		if err := extractZip(data, t.TempDir()); err == nil {
			t.Errorf("%q: expected an error", name)
		}
	}
}
