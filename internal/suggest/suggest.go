// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package suggest picks a small random set of saved entries to resurface
// for a category.
package suggest

import (
	"context"
	"strings"

	"checklater/internal/models"
)

// DefaultLimit is the number of entries suggested when none is configured.
const DefaultLimit = 3

// Sampler returns up to limit non-retired entries of a category chosen at
// random. *store.EntryStore satisfies it.
type Sampler interface {
	SampleByCategory(ctx context.Context, category string, limit int) ([]models.Entry, error)
}

// Suggestion is the outcome of one Suggest call. An empty suggestion is a
// normal result meaning nothing is left to resurface.
type Suggestion struct {
	Category string
	Entries  []models.Entry
}

// Empty reports whether there is nothing to suggest.
func (s *Suggestion) Empty() bool {
	return s == nil || len(s.Entries) == 0
}

// Engine composes the sampler with a fixed suggestion size.
type Engine struct {
	sampler Sampler
	limit   int
}

// New creates an Engine. A non-positive limit falls back to DefaultLimit.
func New(sampler Sampler, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{sampler: sampler, limit: limit}
}

// Limit returns the maximum number of entries per suggestion.
func (e *Engine) Limit() int {
	return e.limit
}

// Suggest samples entries for category and returns them unmodified.
// Store errors are returned as-is.
func (e *Engine) Suggest(ctx context.Context, category string) (*Suggestion, error) {
	category = strings.ToLower(strings.TrimSpace(category))

	entries, err := e.sampler.SampleByCategory(ctx, category, e.limit)
	if err != nil {
		return nil, err
	}

	return &Suggestion{Category: category, Entries: entries}, nil
}
