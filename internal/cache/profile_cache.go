package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/models"
)

const profileKeyPrefix = "profile:snapshot:"

// ProfileCache is a read-through cache for profile snapshots. All failures
// are logged and treated as misses so callers fall back to the database.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProfileCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot for userID, or nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, userID string) *models.ProfileSnapshot {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, profileKeyPrefix+userID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	var snap models.ProfileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("profile cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return &snap
}

// Set stores the snapshot. Best effort only.
func (c *ProfileCache) Set(ctx context.Context, snap models.ProfileSnapshot) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileKeyPrefix+snap.UserID, data, c.ttl).Err(); err != nil {
		c.logger.Warn("profile cache write failed", zap.String("user_id", snap.UserID), zap.Error(err))
	}
}

// Invalidate drops the cached snapshot, used after profile edits so the next
// read picks up the new values.
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, profileKeyPrefix+userID).Err(); err != nil {
		c.logger.Warn("profile cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
