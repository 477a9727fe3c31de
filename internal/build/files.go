// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFile lists extra patterns excluded from builds and archives.
const IgnoreFile = ".distignore"

// Directories never copied into a build.
var skipDirs = []string{".git", "node_modules", "vendor"}

// Files kept out of dist archives.
var archiveSkip = []string{TrackingCodeFile, ConfigFile, IgnoreFile, ".git", "node_modules"}

// matcher decides which slash-separated relative paths are excluded.
type matcher struct {
	patterns []string
	abs      map[string]bool // absolute paths skipped with their subtree
}

// loadIgnore reads the patterns of the ignore file in dir, one per
// line. Blank lines and lines starting with # are skipped.
func loadIgnore(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, IgnoreFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.Trim(line, "/"))
	}
	return patterns, sc.Err()
}

// match reports whether rel, or its base name, matches a pattern.
func (m matcher) match(abs, rel string) bool {
	if m.abs[abs] {
		return true
	}
	base := path.Base(rel)
	for _, p := range m.patterns {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Clean removes dirs. Missing directories are ignored.
func Clean(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clean %s: %w", dir, err)
		}
	}
	return nil
}

// CopyTree copies the regular files and directories below src into dst,
// skipping everything m matches. File modes are preserved.
func CopyTree(src, dst string, m matcher) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0o755)
		}
		if m.match(p, filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return copyFile(p, target)
		}
		return nil // symlinks and devices are not packaged
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// exists reports whether the file at p exists.
func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
