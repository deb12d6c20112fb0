//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/platform/postgres"
	"github.com/phrazzld/docgen-api/internal/redact"
)

// Environment variables consulted, in order
var urlEnvVars = []string{"DATABASE_URL", "DOCGEN_TEST_DATABASE_URL", "DOCGEN_DATABASE_URL"}

var migrateOnce sync.Once

// DatabaseURL returns the first configured test database URL, or "".
func DatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Open connects to the test database, applies migrations once per test
// binary, and closes the pool when t finishes. It skips t when no database
// is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	db, err := postgres.Open(config.DatabaseConfig{URL: url, MaxOpenConns: 4, MaxIdleConns: 2})
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", redact.String(url), err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.Ping(ctx, db); err != nil {
		t.Fatalf("test database %s unreachable: %v", redact.String(url), err)
	}

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, postgres.MigrateUp, nil)
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}

	return db
}
