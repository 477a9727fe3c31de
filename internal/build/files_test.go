// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeTree creates files below dir from slash-separated relative paths.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// listTree returns the slash-separated relative paths of the files below dir.
func listTree(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(dir, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func TestCopyTree_SkipsExcluded(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "build")
	writeTree(t, src, map[string]string{
		"plugin.php":              "<?php",
		"src/Flag.php":            "<?php",
		"node_modules/x/index.js": "",
		".git/HEAD":               "ref",
		"notes.md":                "draft",
		"docs/readme.md":          "docs",
		IgnoreFile:                "# comment\n*.md\n",
	})

	patterns, err := loadIgnore(src)
	if err != nil {
		t.Fatal(err)
	}
	m := matcher{patterns: append(patterns, skipDirs...)}
	if err := CopyTree(src, dst, m); err != nil {
		t.Fatal(err)
	}

	want := []string{IgnoreFile, "plugin.php", "src/Flag.php"}
	if diff := cmp.Diff(want, listTree(t, dst)); diff != "" {
		t.Errorf("copied files (-want +got):\n%s", diff)
	}
}

func TestCopyTree_SkipsAbsoluteDirs(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt":         "a",
		"build/old.txt": "stale",
	})
	dst := filepath.Join(t.TempDir(), "out")

	m := matcher{abs: map[string]bool{filepath.Join(src, "build"): true}}
	if err := CopyTree(src, dst, m); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a.txt"}, listTree(t, dst)); diff != "" {
		t.Errorf("copied files (-want +got):\n%s", diff)
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	writeTree(t, build, map[string]string{"x/y.txt": "y"})

	if err := Clean(build, filepath.Join(dir, "missing")); err != nil {
		t.Fatal(err)
	}
	if exists(build) {
		t.Error("build dir still present")
	}
}

func TestArchive(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"plugin.php":         "<?php",
		"public/css/a.css":   "a{}",
		TrackingCodeFile:     "secret",
		"node_modules/x.js":  "",
		"languages/de_DE.mo": "mo",
	})
	dst := filepath.Join(t.TempDir(), "dist", "pkg-1.0.0.zip")

	if err := Archive(src, dst, "pkg", matcher{patterns: archiveSkip}); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"pkg/languages/de_DE.mo", "pkg/plugin.php", "pkg/public/css/a.css"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("archive entries (-want +got):\n%s", diff)
	}
}
