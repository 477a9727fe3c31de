// store_test.go provides the shared database helper for the store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"siteflags/internal/database"
	"siteflags/internal/models"
)

func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "siteflags")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "siteflags")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens the test database and runs migrations, skipping the test
// when PostgreSQL is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testSite creates a throwaway site and removes it (and its settings, by
// cascade) when the test finishes.
func testSite(t *testing.T, db *sql.DB, slug string) *models.Site {
	t.Helper()

	db.Exec("DELETE FROM sites WHERE slug = $1", slug)
	site, err := NewSiteStore(db).Create(context.Background(), models.Site{
		Name:     "Test " + slug,
		Slug:     slug,
		Language: "fr-FR",
	})
	if err != nil {
		t.Fatalf("create test site: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM sites WHERE id = $1", site.ID) })
	return site
}

func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}
