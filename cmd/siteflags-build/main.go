// Package main is the packaging tool of the site flags plugin. It runs
// named build tasks such as clean, copy, install, process, build and dist.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"siteflags/internal/build"
)

// flagValues holds what was given on the command line.
var flagValues build.Options

var rootCmd = &cobra.Command{
	Use:   "siteflags-build [task...]",
	Short: "Build and package the site flags plugin",
	Long: `Runs build tasks in order, "build" when none is named.

Defaults come from build.yml in the base directory; flags override it.
Run "siteflags-build help" for the task list.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagValues.PackageVersion, "packageVersion", "", "version stamped into the plugin header")
	f.StringVar(&flagValues.PackageName, "packageName", "", "package and main plugin file name")
	f.StringVar(&flagValues.TextDomain, "textDomain", "", "translation text domain")
	f.StringVar(&flagValues.BaseDir, "baseDir", "", "source directory (default: current directory)")
	f.StringVar(&flagValues.BuildDir, "buildDir", "", "build directory (default: <baseDir>/build)")
	f.StringVar(&flagValues.DistDir, "distDir", "", "dist directory (default: <baseDir>/dist)")
	f.StringVar(&flagValues.LangDir, "langDir", "", "translations directory, relative to the work dir")
	f.StringVar(&flagValues.DepsVersionPHP, "depsVersionPhp", "", "PHP platform version for dependency resolution")
	f.StringVar(&flagValues.LicenseURL, "licenseUrl", "", "License URI stamped into the plugin header")
	f.StringVar(&flagValues.Environment, "environment", "", `target environment, "woocommerce" requires `+build.TrackingCodeFile)
	f.StringVar(&flagValues.TranslationsURL, "translationsUrl", "", "translation manifest URL")
	f.BoolVarP(&flagValues.Local, "local", "l", false, "work in the base directory instead of the build directory")
	f.BoolVarP(&flagValues.Quiet, "quiet", "q", false, "log only warnings and errors")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.Quiet {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	runner := &build.Runner{}
	if !opts.Quiet {
		runner.Stdout = os.Stdout
	}
	client := &http.Client{Timeout: 2 * time.Minute}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := build.New(opts, runner, client, cmd.OutOrStdout())
	if err := b.Run(ctx, args...); err != nil {
		slog.Error("build failed", "error", err)
		return err
	}
	return nil
}

// loadOptions layers the defaults, build.yml and the flags that were set.
func loadOptions(cmd *cobra.Command) (build.Options, error) {
	base := flagValues.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return build.Options{}, err
		}
		base = wd
	}

	opts := build.Defaults(base)
	if err := build.LoadFile(filepath.Join(base, build.ConfigFile), &opts); err != nil {
		return build.Options{}, err
	}
	opts.BaseDir = base

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("packageVersion", &opts.PackageVersion, flagValues.PackageVersion)
	override("packageName", &opts.PackageName, flagValues.PackageName)
	override("textDomain", &opts.TextDomain, flagValues.TextDomain)
	override("buildDir", &opts.BuildDir, flagValues.BuildDir)
	override("distDir", &opts.DistDir, flagValues.DistDir)
	override("langDir", &opts.LangDir, flagValues.LangDir)
	override("depsVersionPhp", &opts.DepsVersionPHP, flagValues.DepsVersionPHP)
	override("licenseUrl", &opts.LicenseURL, flagValues.LicenseURL)
	override("environment", &opts.Environment, flagValues.Environment)
	override("translationsUrl", &opts.TranslationsURL, flagValues.TranslationsURL)
	if flags.Changed("local") {
		opts.Local = flagValues.Local
	}
	if flags.Changed("quiet") {
		opts.Quiet = flagValues.Quiet
	}

	if err := opts.Resolve(); err != nil {
		return build.Options{}, fmt.Errorf("options: %w", err)
	}
	return opts, nil
}
