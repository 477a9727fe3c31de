// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional defaults file read from the base directory.
const ConfigFile = "build.yml"

// EnvWooCommerce is the environment that requires a tracking code.
const EnvWooCommerce = "woocommerce"

// TrackingCodeFile holds the WooCommerce tracking token.
const TrackingCodeFile = ".woocommerce-tracking-code"

// Options configures a build. Field names in build.yml match the
// command line flags.
type Options struct {
	PackageVersion  string `yaml:"packageVersion"`
	PackageName     string `yaml:"packageName"`
	TextDomain      string `yaml:"textDomain"`
	BaseDir         string `yaml:"baseDir"`
	BuildDir        string `yaml:"buildDir"`
	DistDir         string `yaml:"distDir"`
	LangDir         string `yaml:"langDir"` // relative to the work dir
	DepsVersionPHP  string `yaml:"depsVersionPhp"`
	LicenseURL      string `yaml:"licenseUrl"`
	Environment     string `yaml:"environment"`
	TranslationsURL string `yaml:"translationsUrl"`
	Local           bool   `yaml:"local"`
	Quiet           bool   `yaml:"q"`
}

// Defaults returns the options used when neither build.yml nor a flag
// sets a value.
func Defaults(baseDir string) Options {
	return Options{
		PackageVersion: "0.0.0-alpha1",
		PackageName:    "multilingualpress-site-flags",
		TextDomain:     "multilingualpress-site-flags",
		BaseDir:        baseDir,
		BuildDir:       filepath.Join(baseDir, "build"),
		DistDir:        filepath.Join(baseDir, "dist"),
		LangDir:        "languages",
		DepsVersionPHP: "7.2",
	}
}

// LoadFile overlays the values present in the YAML file at path onto
// opts. A missing file is not an error.
func LoadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Resolve makes the build and dist directories absolute, relative ones
// being taken against BaseDir, and validates the result.
func (o *Options) Resolve() error {
	base, err := filepath.Abs(o.BaseDir)
	if err != nil {
		return fmt.Errorf("base dir: %w", err)
	}
	o.BaseDir = base
	if !filepath.IsAbs(o.BuildDir) {
		o.BuildDir = filepath.Join(base, o.BuildDir)
	}
	if !filepath.IsAbs(o.DistDir) {
		o.DistDir = filepath.Join(base, o.DistDir)
	}
	return o.validate()
}

func (o *Options) validate() error {
	switch {
	case o.PackageName == "":
		return errors.New("packageName is required")
	case strings.ContainsAny(o.PackageName, `/\`):
		return fmt.Errorf("packageName %q must not contain path separators", o.PackageName)
	case o.PackageVersion == "":
		return errors.New("packageVersion is required")
	case !filepath.IsLocal(o.LangDir):
		return fmt.Errorf("langDir %q must be relative to the work dir", o.LangDir)
	case o.BuildDir == o.BaseDir || within(o.BaseDir, o.BuildDir):
		return fmt.Errorf("buildDir %q must not contain the base dir", o.BuildDir)
	case o.DistDir == o.BaseDir || within(o.BaseDir, o.DistDir):
		return fmt.Errorf("distDir %q must not contain the base dir", o.DistDir)
	}
	return nil
}

// WorkDir is where tasks operate: the base dir in local mode, the build
// dir otherwise.
func (o *Options) WorkDir() string {
	if o.Local {
		return o.BaseDir
	}
	return o.BuildDir
}

// PluginFile is the main file carrying the package header.
func (o *Options) PluginFile() string {
	return filepath.Join(o.WorkDir(), o.PackageName+".php")
}

// ArchivePath is where the dist archive is written.
func (o *Options) ArchivePath() string {
	return filepath.Join(o.DistDir, fmt.Sprintf("%s-%s.zip", o.PackageName, o.PackageVersion))
}

// within reports whether path lies inside dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && filepath.IsLocal(rel)
}
