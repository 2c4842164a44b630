// store_test.go provides shared test database helpers for the store tests.
// Each test gets its own migrated and seeded SQLite file; the PostgreSQL
// variant is skipped when no server is reachable.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"checklater/internal/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDSN returns the PostgreSQL connection string for integration tests.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "checklater")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "checklater")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable&connect_timeout=2"
}

// testDB opens a fresh SQLite database with the schema and default
// categories in place. The connection is closed when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, database.DriverSQLite))
	require.NoError(t, database.Seed(context.Background(), db))
	return db
}

// testPostgresDB opens the shared PostgreSQL test database, skipping the
// test if it is unavailable.
func testPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(database.DriverPostgres, testDSN())
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, database.DriverPostgres))
	require.NoError(t, database.Seed(context.Background(), db))
	return db
}

// cleanEntries hard-deletes test rows. Only tests remove entries.
func cleanEntries(t *testing.T, db *sql.DB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM entries WHERE id = $1", id)
	}
}

func ownerID(id int64) *int64 { return &id }
