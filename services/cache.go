package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rallypoint/models"
)

// ProfileCache is a read-through Redis cache for /user/me. Users are never
// updated after registration, so entries only expire. A nil cache is a no-op.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewProfileCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl, log: log}
}

func profileKey(userID uint) string {
	return "profile:" + strconv.FormatUint(uint64(userID), 10)
}

func (c *ProfileCache) Get(ctx context.Context, userID uint) (*models.UserResponse, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("profile cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var profile models.UserResponse
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (c *ProfileCache) Set(ctx context.Context, profile models.UserResponse) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileKey(profile.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("profile cache write failed", zap.Uint("user_id", profile.ID), zap.Error(err))
	}
}
