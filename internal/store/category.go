// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"time"

	"checklater/internal/models"
)

// CategoryStore reads the fixed category set. There is no create or delete
// path: categories are seeded by database.Seed and never change afterwards.
type CategoryStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewCategoryStore returns a new CategoryStore. A non-positive timeout
// selects DefaultTimeout.
func NewCategoryStore(db *sql.DB, timeout time.Duration) *CategoryStore {
	return &CategoryStore{db: db, timeout: normalizeTimeout(timeout)}
}

// ListCategories returns all categories ordered by name.
func (s *CategoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr("scan category", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list categories", err)
	}
	return items, nil
}

// Exists reports whether a category with the given name is known.
func (s *CategoryStore) Exists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return categoryExists(ctx, s.db, name)
}

func categoryExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, storageErr("check category", err)
	}
	return exists, nil
}
