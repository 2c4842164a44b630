// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"checklater/internal/models"
)

// DefaultTimeout bounds every backing-store call that does not configure
// its own timeout.
const DefaultTimeout = 5 * time.Second

// EntryStore owns entry records and the lifecycle rules around them:
// entries are inserted active, may be remapped to another known category,
// may be retired once, and are never deleted.
type EntryStore struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// NewEntryStore returns a new EntryStore. A non-positive timeout selects
// DefaultTimeout.
func NewEntryStore(db *sql.DB, timeout time.Duration) *EntryStore {
	return &EntryStore{
		db:      db,
		timeout: normalizeTimeout(timeout),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

const entryColumns = `id, owner_id, content, category, created_at, retired`

// scanEntry scans a row into an Entry struct.
func scanEntry(scanner interface{ Scan(...any) error }) (*models.Entry, error) {
	var e models.Entry
	var owner sql.NullInt64
	if err := scanner.Scan(&e.ID, &owner, &e.Content, &e.Category, &e.CreatedAt, &e.Retired); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.Int64
		e.OwnerID = &id
	}
	return &e, nil
}

// AddEntry inserts a new active entry and returns its id. The category must
// name a known category; content must not be blank.
func (s *EntryStore) AddEntry(ctx context.Context, ownerID *int64, content, category string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, &ValidationError{Field: "content", Value: content, Reason: "must not be empty"}
	}
	category = normalizeCategory(category)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.requireCategory(ctx, category); err != nil {
		return 0, err
	}

	var owner sql.NullInt64
	if ownerID != nil {
		owner = sql.NullInt64{Int64: *ownerID, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO entries (owner_id, content, category, created_at, retired)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id`,
		owner, content, category, s.now(),
	).Scan(&id)
	if err != nil {
		return 0, storageErr("add entry", err)
	}
	return id, nil
}

// UpdateCategory remaps an entry to another known category in a single
// statement. It returns false without error when the entry does not exist.
func (s *EntryStore) UpdateCategory(ctx context.Context, id int64, newCategory string) (bool, error) {
	newCategory = normalizeCategory(newCategory)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.requireCategory(ctx, newCategory); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET category = $1 WHERE id = $2`, newCategory, id,
	)
	if err != nil {
		return false, storageErr("update entry category", err)
	}
	return affectedOne(res, "update entry category")
}

// Retire flips an active entry to retired. It returns true only when this
// call performed the flip: a missing entry and an already retired entry
// both report false without error.
func (s *EntryStore) Retire(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET retired = TRUE WHERE id = $1 AND retired = FALSE`, id,
	)
	if err != nil {
		return false, storageErr("retire entry", err)
	}
	return affectedOne(res, "retire entry")
}

// SampleByCategory returns up to limit active entries of the category,
// drawn uniformly at random without repeats. When fewer are eligible all of
// them are returned. A non-positive limit yields no entries.
func (s *EntryStore) SampleByCategory(ctx context.Context, category string, limit int) ([]models.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE category = $1 AND retired = FALSE
		ORDER BY RANDOM()
		LIMIT $2`,
		normalizeCategory(category), limit,
	)
	if err != nil {
		return nil, storageErr("sample entries", err)
	}
	defer rows.Close()

	return collectEntries(rows, "sample entries")
}

// FindByID retrieves an entry by id. Returns nil if not found.
func (s *EntryStore) FindByID(ctx context.Context, id int64) (*models.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find entry", err)
	}
	return e, nil
}

// ListFilter narrows List. Zero values mean "no restriction".
type ListFilter struct {
	Category       string
	IncludeRetired bool
	Limit          int
}

// List returns entries ordered by id, newest last.
func (s *EntryStore) List(ctx context.Context, f ListFilter) ([]models.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, normalizeCategory(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if !f.IncludeRetired {
		where = append(where, "retired = FALSE")
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list entries", err)
	}
	defer rows.Close()

	return collectEntries(rows, "list entries")
}

// requireCategory returns a *ValidationError unless name is a known category.
func (s *EntryStore) requireCategory(ctx context.Context, name string) error {
	ok, err := categoryExists(ctx, s.db, name)
	if err != nil {
		return err
	}
	if !ok {
		return &ValidationError{Field: "category", Value: name, Reason: "unknown category"}
	}
	return nil
}

func collectEntries(rows *sql.Rows, op string) ([]models.Entry, error) {
	var items []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr(op, fmt.Errorf("scan entry: %w", err))
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}

func affectedOne(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr(op, err)
	}
	return n > 0, nil
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
