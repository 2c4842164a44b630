package database

import (
	"context"
	"database/sql"
	"testing"

	"checklater/internal/models"
)

func countCategories(t *testing.T, db *sql.DB) map[string]int {
	t.Helper()
	rows, err := db.Query("SELECT name, COUNT(*) FROM categories GROUP BY name")
	if err != nil {
		t.Fatalf("count categories: %v", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		counts[name] = n
	}
	return counts
}

func TestSeedIdempotentSQLite(t *testing.T) {
	db, err := Connect(DriverSQLite, testSQLitePath(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ctx := context.Background()
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	counts := countCategories(t, db)
	if len(counts) != len(models.DefaultCategories) {
		t.Errorf("categories: got %d distinct, want %d", len(counts), len(models.DefaultCategories))
	}
	for _, name := range models.DefaultCategories {
		if counts[name] != 1 {
			t.Errorf("category %q: got %d rows, want 1", name, counts[name])
		}
	}
}

func TestSeedIdempotentPostgres(t *testing.T) {
	db, err := Connect(DriverPostgres, testPostgresDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, DriverPostgres); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Other packages may share this database, so nothing is cleared first.
	ctx := context.Background()
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	counts := countCategories(t, db)
	for _, name := range models.DefaultCategories {
		if counts[name] != 1 {
			t.Errorf("category %q: got %d rows, want 1", name, counts[name])
		}
	}
}
