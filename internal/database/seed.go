package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"siteflags/internal/models"
)

// Development admin credentials.
const (
	DevAdminEmail    = "admin@siteflags.local"
	DevAdminPassword = "admin"
	DevAdminName     = "Network Admin"
)

// DevSites returns the development network: one site per language so the
// language switcher has something to show.
func DevSites() []models.Site {
	return []models.Site{
		{Name: "English", Slug: "en", Language: "en-US", URL: "http://localhost:8080/sites/1"},
		{Name: "Français", Slug: "fr", Language: "fr-FR", URL: "http://localhost:8080/sites/2"},
		{Name: "Deutsch", Slug: "de", Language: "de-DE", URL: "http://localhost:8080/sites/3"},
	}
}

// Seed populates an empty database with a network admin and a small
// development network. Tables that already hold rows are left alone.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedSites(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is enrolled on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, DevAdminEmail, string(hash), DevAdminName, string(models.RoleNetworkAdmin), false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", DevAdminEmail,
		"password", DevAdminPassword,
	)
	return nil
}

func seedSites(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sites").Scan(&count); err != nil {
		return fmt.Errorf("seed check sites: %w", err)
	}
	if count > 0 {
		slog.Info("sites already seeded, skipping")
		return nil
	}

	sites := DevSites()
	for _, s := range sites {
		if _, err := db.Exec(`
			INSERT INTO sites (name, slug, language, url) VALUES ($1, $2, $3, $4)
		`, s.Name, s.Slug, s.Language, s.URL); err != nil {
			return fmt.Errorf("seed insert site %s: %w", s.Slug, err)
		}
	}

	slog.Info("database seeded with development sites", "count", len(sites))
	return nil
}
