// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package build packages the site flags plugin: it copies the sources
// into a build directory, installs dependencies, compiles styles and
// translations, stamps the plugin header and zips the result. Tasks are
// composed with Series and Parallel and run by name.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownTask is returned by Run for a name no task carries.
var ErrUnknownTask = errors.New("unknown task")

// DefaultTask runs when no task is named.
const DefaultTask = "build"

// compileWorkers bounds concurrent sass and msgfmt processes.
const compileWorkers = 4

// Builder holds the configured tasks.
type Builder struct {
	opts   Options
	cmd    Commander
	client *http.Client
	out    io.Writer

	tasks []Task
	index map[string]Task
}

// New returns a builder for opts. cmd runs external tools, client
// downloads translations and out receives the help text.
func New(opts Options, cmd Commander, client *http.Client, out io.Writer) *Builder {
	b := &Builder{opts: opts, cmd: cmd, client: client, out: out, index: make(map[string]Task)}

	b.define("help", "Print the available tasks.", b.help)
	clean := b.define("clean", "Remove the build and dist directories.", b.clean)
	cp := b.define("copy", "Copy the sources into the build directory.", b.copy)
	installPhp := b.define("installPhp", "Install PHP dependencies with composer.", b.installPHP)
	installPhar := b.define("installPhar", "Install PHAR tools with phive.", b.installPhar)
	installJs := b.define("installJs", "Install JS dependencies with npm.", b.installJS)
	processCss := b.define("processCss", "Compile SCSS into minified CSS in public/css.", b.processCSS)
	processJs := b.define("processJs", "Bundle scripts with webpack.", b.processJS)
	processAssets := b.define("processAssets", "Process styles and scripts.", Parallel(processCss, processJs))
	makePot := b.define("makePot", "Extract translatable strings into a POT file.", b.makePot)
	download := b.define("downloadTranslations", "Download translation packages from the translations URL.", b.downloadTranslations)
	processTranslations := b.define("processTranslations", "Compile PO files into MO files.", b.processTranslations)
	archive := b.define("archive", "Zip the work directory into the dist directory.", b.archive)
	install := b.define("install", "Install all dependencies.", Series(installPhp, installPhar, installJs))
	license := b.define("setLicenseUrl", "Set the License URI header.", b.setLicenseURL)
	tracking := b.define("setWcTrackingCode", "Set the Woo header from "+TrackingCodeFile+".", b.setTrackingCode)
	version := b.define("setPluginVersion", "Set the Version header.", b.setVersion)
	props := b.define("setPluginProps", "Set all plugin header fields.", Series(version, license, tracking))
	process := b.define("process", "Process the sources and other files.", Series(
		props,
		Parallel(processAssets, Series(makePot, download, processTranslations)),
	))
	build := b.define("build", "Create a build in the build directory.", Series(clean, cp, install, process))
	b.define("dist", "Create a dist archive of a build.", Series(build, archive))

	return b
}

// define registers a task and returns its logged, error-labelled runner.
func (b *Builder) define(name, doc string, fn Func) Func {
	run := func(ctx context.Context) error {
		start := time.Now()
		slog.Info("task started", "task", name)
		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		slog.Info("task finished", "task", name, "duration", time.Since(start).Round(time.Millisecond))
		return nil
	}
	t := Task{Name: name, Doc: doc, Run: run}
	b.tasks = append(b.tasks, t)
	b.index[name] = t
	return run
}

// Tasks returns the tasks in definition order.
func (b *Builder) Tasks() []Task {
	return append([]Task(nil), b.tasks...)
}

// Run runs the named tasks in order, DefaultTask when names is empty.
// All names are checked before anything runs.
func (b *Builder) Run(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = []string{DefaultTask}
	}
	fns := make([]Func, 0, len(names))
	for _, name := range names {
		t, ok := b.index[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTask, name)
		}
		fns = append(fns, t.Run)
	}
	return Series(fns...)(ctx)
}

func (b *Builder) help(context.Context) error {
	tw := tabwriter.NewWriter(b.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Tasks:")
	for _, t := range b.tasks {
		fmt.Fprintf(tw, "  %s\t%s\n", t.Name, t.Doc)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Use -l to work in the base directory instead of the build directory, -q to log only warnings and errors.")
	return tw.Flush()
}

func (b *Builder) clean(context.Context) error {
	return Clean(b.opts.BuildDir, b.opts.DistDir)
}

// excludes returns the matcher for copying or archiving below root.
func (b *Builder) excludes(root string, extra []string) (matcher, error) {
	patterns, err := loadIgnore(root)
	if err != nil {
		return matcher{}, err
	}
	return matcher{
		patterns: append(patterns, extra...),
		abs:      map[string]bool{b.opts.BuildDir: true, b.opts.DistDir: true},
	}, nil
}

func (b *Builder) copy(context.Context) error {
	if b.opts.Local {
		slog.Info("local mode, nothing to copy")
		return nil
	}
	m, err := b.excludes(b.opts.BaseDir, skipDirs)
	if err != nil {
		return err
	}
	return CopyTree(b.opts.BaseDir, b.opts.BuildDir, m)
}

// ifPresent runs fn only when file exists in the work dir.
func (b *Builder) ifPresent(ctx context.Context, file string, fn Func) error {
	if !exists(filepath.Join(b.opts.WorkDir(), file)) {
		slog.Info("skipping, file not found", "file", file)
		return nil
	}
	return fn(ctx)
}

func (b *Builder) installPHP(ctx context.Context) error {
	dir := b.opts.WorkDir()
	return b.ifPresent(ctx, "composer.json", Series(
		func(ctx context.Context) error {
			return b.cmd.Run(ctx, dir, "composer", "config", "platform.php", b.opts.DepsVersionPHP)
		},
		func(ctx context.Context) error {
			return b.cmd.Run(ctx, dir, "composer", "install", "--no-dev", "--prefer-dist", "--optimize-autoloader", "--no-interaction")
		},
	))
}

func (b *Builder) installPhar(ctx context.Context) error {
	return b.ifPresent(ctx, "phive.xml", func(ctx context.Context) error {
		return b.cmd.Run(ctx, b.opts.WorkDir(), "phive", "--no-progress", "install", "--copy")
	})
}

func (b *Builder) installJS(ctx context.Context) error {
	dir := b.opts.WorkDir()
	return b.ifPresent(ctx, "package.json", func(ctx context.Context) error {
		if exists(filepath.Join(dir, "package-lock.json")) {
			return b.cmd.Run(ctx, dir, "npm", "ci")
		}
		return b.cmd.Run(ctx, dir, "npm", "install")
	})
}

// StyleSources lists the SCSS entry points below dir. Partials, whose
// names start with an underscore, are left to their importers.
func StyleSources(dir string) ([]string, error) {
	var sources []string
	for _, pattern := range []string{"src/modules/*/resources/scss/*.scss", "resources/scss/*.scss"} {
		matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !strings.HasPrefix(filepath.Base(m), "_") {
				sources = append(sources, m)
			}
		}
	}
	return sources, nil
}

func (b *Builder) processCSS(ctx context.Context) error {
	dir := b.opts.WorkDir()
	sources, err := StyleSources(dir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		slog.Info("no stylesheets to compile")
		return nil
	}
	outDir := filepath.Join(dir, "public", "css")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(compileWorkers)
	for _, src := range sources {
		dst := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(src), ".scss")+".min.css")
		g.Go(func() error {
			return b.cmd.Run(ctx, dir, "sass", "--style=compressed", "--no-error-css", src, dst)
		})
	}
	return g.Wait()
}

func (b *Builder) processJS(ctx context.Context) error {
	return b.ifPresent(ctx, "webpack.config.js", func(ctx context.Context) error {
		return b.cmd.Run(ctx, b.opts.WorkDir(), "npx", "webpack", "--mode=production")
	})
}

func (b *Builder) langDir() string {
	return filepath.Join(b.opts.WorkDir(), b.opts.LangDir)
}

func (b *Builder) makePot(ctx context.Context) error {
	if err := os.MkdirAll(b.langDir(), 0o755); err != nil {
		return err
	}
	pot := filepath.ToSlash(filepath.Join(b.opts.LangDir, b.opts.TextDomain+".pot"))
	return b.cmd.Run(ctx, b.opts.WorkDir(), "wp", "i18n", "make-pot", ".", pot,
		"--domain="+b.opts.TextDomain, "--exclude=node_modules,vendor,build,dist")
}

func (b *Builder) downloadTranslations(ctx context.Context) error {
	if b.opts.TranslationsURL == "" {
		slog.Info("no translations url configured, skipping download")
		return nil
	}
	return DownloadTranslations(ctx, b.client, b.opts.TranslationsURL, b.langDir())
}

func (b *Builder) processTranslations(ctx context.Context) error {
	catalogs, err := filepath.Glob(filepath.Join(b.langDir(), "*.po"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(compileWorkers)
	for _, po := range catalogs {
		mo := strings.TrimSuffix(po, ".po") + ".mo"
		g.Go(func() error {
			return b.cmd.Run(ctx, b.langDir(), "msgfmt", "-o", mo, po)
		})
	}
	return g.Wait()
}

func (b *Builder) archive(context.Context) error {
	m, err := b.excludes(b.opts.WorkDir(), archiveSkip)
	if err != nil {
		return err
	}
	dst := b.opts.ArchivePath()
	if err := Archive(b.opts.WorkDir(), dst, b.opts.PackageName, m); err != nil {
		return err
	}
	slog.Info("archive written", "path", dst)
	return nil
}

// pluginHeader sets one header field of the plugin file. A missing
// plugin file is skipped with a warning.
func (b *Builder) pluginHeader(name, value string) error {
	file := b.opts.PluginFile()
	if !exists(file) {
		slog.Warn("plugin file not found, header not set", "file", file, "header", name)
		return nil
	}
	return setHeaderInFile(file, name, value)
}

func (b *Builder) setVersion(context.Context) error {
	return b.pluginHeader(HeaderVersion, b.opts.PackageVersion)
}

func (b *Builder) setLicenseURL(context.Context) error {
	if b.opts.LicenseURL == "" {
		return nil
	}
	return b.pluginHeader(HeaderLicenseURI, b.opts.LicenseURL)
}

// setTrackingCode copies the WooCommerce token into the Woo header. The
// token file is required only for the woocommerce environment.
func (b *Builder) setTrackingCode(context.Context) error {
	if b.opts.Environment != EnvWooCommerce {
		return nil
	}
	code, err := readFirstLine(filepath.Join(b.opts.WorkDir(), TrackingCodeFile))
	if err != nil {
		return fmt.Errorf("tracking code: %w", err)
	}
	if code == "" {
		return fmt.Errorf("tracking code: %s is empty", TrackingCodeFile)
	}
	return b.pluginHeader(HeaderWoo, code)
}
