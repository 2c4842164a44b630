// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"checklater/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// countingLister counts calls so tests can tell hits from misses.
type countingLister struct {
	cats  []models.Category
	err   error
	calls int
}

func (l *countingLister) ListCategories(context.Context) ([]models.Category, error) {
	l.calls++
	return l.cats, l.err
}

func defaultCats() []models.Category {
	return []models.Category{{ID: 2, Name: "book"}, {ID: 3, Name: "movie"}, {ID: 4, Name: "other"}, {ID: 1, Name: "youtube"}}
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestCategoryCacheNilClientPassesThrough(t *testing.T) {
	l := &countingLister{cats: defaultCats()}
	c := NewCategoryCache(nil, l, 0)

	for i := 0; i < 3; i++ {
		cats, err := c.ListCategories(context.Background())
		if err != nil {
			t.Fatalf("ListCategories: %v", err)
		}
		if len(cats) != 4 {
			t.Fatalf("got %d categories, want 4", len(cats))
		}
	}
	if l.calls != 3 {
		t.Errorf("lister calls: got %d, want 3", l.calls)
	}

	c.Invalidate(context.Background()) // no-op without a client
}

func TestCategoryCacheNilClientReturnsError(t *testing.T) {
	want := errors.New("boom")
	c := NewCategoryCache(nil, &countingLister{err: want}, 0)

	if _, err := c.ListCategories(context.Background()); !errors.Is(err, want) {
		t.Errorf("expected lister error, got %v", err)
	}
}

func TestCategoryCacheHitAndInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	ctx := context.Background()
	l := &countingLister{cats: defaultCats()}
	c := NewCategoryCache(client, l, time.Minute)
	c.Invalidate(ctx)

	first, err := c.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories (miss): %v", err)
	}
	second, err := c.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories (hit): %v", err)
	}
	if l.calls != 1 {
		t.Errorf("lister calls after hit: got %d, want 1", l.calls)
	}
	if len(first) != len(second) || second[0] != first[0] {
		t.Errorf("cached list differs: %v vs %v", second, first)
	}

	c.Invalidate(ctx)
	if _, err := c.ListCategories(ctx); err != nil {
		t.Fatalf("ListCategories (after invalidate): %v", err)
	}
	if l.calls != 2 {
		t.Errorf("lister calls after invalidate: got %d, want 2", l.calls)
	}
}

func TestCategoryCacheRecoversFromGarbage(t *testing.T) {
	client := testValkeyClient(t)
	ctx := context.Background()
	client.Set(ctx, categoriesKey, "not json", time.Minute)

	l := &countingLister{cats: defaultCats()}
	cats, err := NewCategoryCache(client, l, time.Minute).ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 4 || l.calls != 1 {
		t.Errorf("got %d categories with %d lister calls, want 4 and 1", len(cats), l.calls)
	}
}

func TestUpdateGuardNilClient(t *testing.T) {
	g := NewUpdateGuard(nil, 0)
	for i := 0; i < 2; i++ {
		if g.Seen(context.Background(), 42) {
			t.Error("nil-client guard must never report an update as seen")
		}
	}

	var nilGuard *UpdateGuard
	if nilGuard.Seen(context.Background(), 42) {
		t.Error("nil guard must never report an update as seen")
	}
}

func TestUpdateGuardSeen(t *testing.T) {
	client := testValkeyClient(t)
	g := NewUpdateGuard(client, time.Minute)
	ctx := context.Background()
	id := time.Now().UnixNano()

	if g.Seen(ctx, id) {
		t.Fatal("first delivery reported as seen")
	}
	if !g.Seen(ctx, id) {
		t.Error("redelivery not detected")
	}
	if g.Seen(ctx, id+1) {
		t.Error("different update reported as seen")
	}
}
