package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	updateKeyPrefix = keyPrefix + "update:"

	// DefaultUpdateTTL is how long a processed update id is remembered.
	// Telegram stops redelivering an update well within this window.
	DefaultUpdateTTL = 10 * time.Minute
)

// UpdateGuard remembers webhook update ids so a redelivered update is
// acknowledged without being processed twice.
type UpdateGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUpdateGuard creates a guard. With a nil client nothing is remembered.
func NewUpdateGuard(client *redis.Client, ttl time.Duration) *UpdateGuard {
	if ttl <= 0 {
		ttl = DefaultUpdateTTL
	}
	return &UpdateGuard{client: client, ttl: ttl}
}

// Seen records updateID and reports whether it had already been recorded.
// If Valkey is unavailable the update is treated as new.
func (g *UpdateGuard) Seen(ctx context.Context, updateID int64) bool {
	if g == nil || g.client == nil {
		return false
	}

	key := updateKeyPrefix + strconv.FormatInt(updateID, 10)
	fresh, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		slog.Warn("update guard error", "update_id", updateID, "error", err)
		return false
	}
	return !fresh
}
