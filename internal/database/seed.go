package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"checklater/internal/models"
)

// Seed inserts the default category set. Existing rows are left untouched,
// so running it on every start never duplicates a category.
func Seed(ctx context.Context, db *sql.DB) error {
	return SeedCategories(ctx, db, models.DefaultCategories)
}

// SeedCategories inserts each name unless a category with that name exists.
func SeedCategories(ctx context.Context, db *sql.DB, names []string) error {
	var inserted int64
	for _, name := range names {
		res, err := db.ExecContext(ctx,
			`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			name,
		)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if inserted == 0 {
		slog.Info("categories already seeded, skipping")
		return nil
	}

	slog.Info("categories seeded", "inserted", inserted)
	return nil
}
