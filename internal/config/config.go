// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Flag markup renderers.
const (
	MarkupPlaceholder = "placeholder"
	MarkupImage       = "image"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"APP_PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"` // "development", "production", "testing"

	// TrustProxy honours X-Forwarded-For and X-Real-IP for client addresses.
	// Enable only behind a reverse proxy that sets them.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	// StorageDriver selects where sites and settings live: "postgres" or
	// "memory". Memory needs no database or Valkey and loses data on exit.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// PostgreSQL connection
	DBHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	DBPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER" envDefault:"siteflags"`
	DBPassword string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	DBName     string `env:"POSTGRES_DB" envDefault:"siteflags"`

	// Valkey (Redis-compatible cache)
	ValkeyHost     string `env:"VALKEY_HOST" envDefault:"localhost"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`

	// S3-compatible storage for uploaded flag images
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3BucketPublic string `env:"S3_BUCKET_PUBLIC" envDefault:"siteflags-public"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`

	// Site flags module
	AssetsURL string `env:"SITEFLAGS_ASSETS_URL" envDefault:"/static"`
	FlagClass string `env:"SITEFLAGS_FLAG_CLASS" envDefault:"site-flag"`
	Markup    string `env:"SITEFLAGS_MARKUP" envDefault:"placeholder"` // "placeholder", "image"
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is read first when present. Returns an error if critical values are
// missing in production mode.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}

	switch c.Markup {
	case MarkupPlaceholder, MarkupImage:
	default:
		return fmt.Errorf("SITEFLAGS_MARKUP must be %q or %q, got %q", MarkupPlaceholder, MarkupImage, c.Markup)
	}

	if c.Env == "production" {
		if c.StorageDriver == StoragePostgres && c.DBPassword == "changeme" {
			return errors.New("POSTGRES_PASSWORD must be set in production")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsesMemory reports whether the in-memory storage driver is selected.
func (c *Config) UsesMemory() bool {
	return c.StorageDriver == StorageMemory
}

// HasS3 reports whether object storage for flag uploads is configured.
func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
