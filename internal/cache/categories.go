// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"checklater/internal/models"
)

const (
	categoriesKey = keyPrefix + "categories"

	// DefaultCategoryTTL is how long the category list stays cached. The
	// set is fixed after seeding, so this only bounds staleness after a
	// manual database change.
	DefaultCategoryTTL = time.Hour
)

// CategoryLister is the source of truth behind the cache.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CategoryCache serves the category list from Valkey and falls back to the
// wrapped lister on a miss. Cache failures are logged and never returned.
type CategoryCache struct {
	client *redis.Client
	next   CategoryLister
	ttl    time.Duration
}

// NewCategoryCache wraps next. A nil client disables caching.
func NewCategoryCache(client *redis.Client, next CategoryLister, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = DefaultCategoryTTL
	}
	return &CategoryCache{client: client, next: next, ttl: ttl}
}

// ListCategories returns the cached list, loading and storing it on a miss.
func (c *CategoryCache) ListCategories(ctx context.Context) ([]models.Category, error) {
	if c.client == nil {
		return c.next.ListCategories(ctx)
	}

	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	switch {
	case err == nil:
		var cats []models.Category
		if err := json.Unmarshal(raw, &cats); err == nil {
			slog.Debug("category cache hit")
			return cats, nil
		}
		slog.Warn("category cache holds invalid data, reloading", "error", err)
	case !errors.Is(err, redis.Nil):
		slog.Warn("category cache get error", "error", err)
	}

	cats, err := c.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cats)
	if err != nil {
		slog.Warn("category cache encode error", "error", err)
		return cats, nil
	}
	if err := c.client.Set(ctx, categoriesKey, data, c.ttl).Err(); err != nil {
		slog.Warn("category cache set error", "error", err)
	}
	return cats, nil
}

// Invalidate drops the cached list.
func (c *CategoryCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		slog.Warn("category cache invalidate error", "error", err)
	}
}
