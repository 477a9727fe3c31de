// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const (
	// maxPackageSize caps one downloaded translation archive.
	maxPackageSize = 64 << 20

	// downloadWorkers bounds concurrent package downloads.
	downloadWorkers = 4
)

// Manifest lists the translation packages available for a project.
type Manifest struct {
	Translations []Translation `json:"translations"`
}

// Translation is one language package in a manifest. Package is the
// archive URL, possibly relative to the manifest.
type Translation struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Updated  string `json:"updated"`
	Package  string `json:"package"`
}

// FetchManifest downloads and decodes the manifest at rawURL.
func FetchManifest(ctx context.Context, client *http.Client, rawURL string) (*Manifest, error) {
	body, err := get(ctx, client, rawURL, maxPackageSize)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", rawURL, err)
	}
	return &m, nil
}

// DownloadTranslations fetches the manifest at manifestURL and extracts
// every package into dir.
func DownloadTranslations(ctx context.Context, client *http.Client, manifestURL, dir string) error {
	m, err := FetchManifest(ctx, client, manifestURL)
	if err != nil {
		return err
	}
	base, err := url.Parse(manifestURL)
	if err != nil {
		return fmt.Errorf("manifest url: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadWorkers)
	for _, t := range m.Translations {
		g.Go(func() error {
			ref, err := url.Parse(t.Package)
			if err != nil {
				return fmt.Errorf("package url for %s: %w", t.Language, err)
			}
			pkgURL := base.ResolveReference(ref).String()

			data, err := get(ctx, client, pkgURL, maxPackageSize)
			if err != nil {
				return err
			}
			if err := extractZip(data, dir); err != nil {
				return fmt.Errorf("extract %s: %w", t.Language, err)
			}
			slog.Info("translation installed", "language", t.Language, "version", t.Version)
			return nil
		})
	}
	return g.Wait()
}

// get returns the body of a 200 response, read up to limit bytes.
func get(ctx context.Context, client *http.Client, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("GET %s: response exceeds %d bytes", rawURL, limit)
	}
	return body, nil
}

// extractZip writes the files of the archive data below dir. Entries
// that would land outside dir are rejected.
func extractZip(data []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		name := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("entry %q escapes the target dir", f.Name)
		}
		target := filepath.Join(dir, name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(rc, maxPackageSize)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
