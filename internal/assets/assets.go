// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package assets resolves stylesheet locations and keeps the styles a
// module registers and enqueues for a page context.
package assets

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

var (
	// ErrAssetExists is returned when a style handle is registered twice.
	ErrAssetExists = errors.New("asset already registered")
	// ErrAssetNotFound is returned when enqueueing an unregistered handle.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrLocationNotFound is returned for unknown location names.
	ErrLocationNotFound = errors.New("asset location not found")
)

// Location names of the module's assets. Factory resolves styles
// through LocationCSS.
const (
	LocationPlugin = "plugin"
	LocationCSS    = "css"
	LocationJS     = "js"
)

// Location maps a directory of files to the URL it is served from.
type Location struct {
	Name string
	FS   fs.FS
	Dir  string
	URL  string
}

// Locations is a set of named asset locations.
type Locations struct {
	byName map[string]Location
}

// NewLocations returns an empty set.
func NewLocations() *Locations {
	return &Locations{byName: make(map[string]Location)}
}

// Add registers the location name found at dir inside fsys and served
// under url. A later Add with the same name replaces the earlier one.
func (l *Locations) Add(name string, fsys fs.FS, dir, url string) *Locations {
	l.byName[name] = Location{Name: name, FS: fsys, Dir: dir, URL: strings.TrimSuffix(url, "/")}
	return l
}

// Get returns the named location.
func (l *Locations) Get(name string) (Location, error) {
	loc, ok := l.byName[name]
	if !ok {
		return Location{}, fmt.Errorf("%q: %w", name, ErrLocationNotFound)
	}
	return loc, nil
}

// Style is a registered stylesheet.
type Style struct {
	Handle string
	URL    string
	Media  string
}

// Factory builds styles from files in known locations.
type Factory struct {
	locations *Locations
}

// NewFactory returns a Factory over locations.
func NewFactory(locations *Locations) *Factory {
	return &Factory{locations: locations}
}

// InternalStyle returns the style for file in the css location. When a
// minified sibling (name.min.css) exists it is used instead.
func (f *Factory) InternalStyle(handle, file string) (Style, error) {
	loc, err := f.locations.Get(LocationCSS)
	if err != nil {
		return Style{}, fmt.Errorf("style %s: %w", handle, err)
	}

	name := file
	if minified := minName(file); minified != file && exists(loc, minified) {
		name = minified
	} else if !exists(loc, file) {
		return Style{}, fmt.Errorf("style %s: %s: %w", handle, file, fs.ErrNotExist)
	}

	return Style{Handle: handle, URL: loc.URL + "/" + name, Media: "all"}, nil
}

func minName(file string) string {
	ext := path.Ext(file)
	if strings.HasSuffix(file, ".min"+ext) {
		return file
	}
	return strings.TrimSuffix(file, ext) + ".min" + ext
}

func exists(loc Location, name string) bool {
	if loc.FS == nil {
		return false
	}
	_, err := fs.Stat(loc.FS, path.Join(loc.Dir, name))
	return err == nil
}

// Manager keeps registered and enqueued styles. It is safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	styles   map[string]Style
	enqueued []string
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{styles: make(map[string]Style)}
}

// RegisterStyle makes s available for enqueueing.
func (m *Manager) RegisterStyle(s Style) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.styles[s.Handle]; dup {
		return fmt.Errorf("style %s: %w", s.Handle, ErrAssetExists)
	}
	m.styles[s.Handle] = s
	return nil
}

// EnqueueStyle marks a registered style for output. Enqueueing twice is
// a no-op.
func (m *Manager) EnqueueStyle(handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.styles[handle]; !ok {
		return fmt.Errorf("style %s: %w", handle, ErrAssetNotFound)
	}
	for _, h := range m.enqueued {
		if h == handle {
			return nil
		}
	}
	m.enqueued = append(m.enqueued, handle)
	return nil
}

// Enqueued returns the enqueued styles in enqueue order.
func (m *Manager) Enqueued() []Style {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Style, 0, len(m.enqueued))
	for _, h := range m.enqueued {
		out = append(out, m.styles[h])
	}
	return out
}

var styleTag = template.Must(template.New("style").Parse(
	`{{range .}}<link rel="stylesheet" id="{{.Handle}}-css" href="{{.URL}}" media="{{.Media}}">
{{end}}`))

// StyleTags renders <link> elements for the enqueued styles.
func (m *Manager) StyleTags() template.HTML {
	var b strings.Builder
	if err := styleTag.Execute(&b, m.Enqueued()); err != nil {
		return ""
	}
	return template.HTML(b.String())
}
