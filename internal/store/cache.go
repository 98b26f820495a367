package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidstream/backend/internal/models"
)

// ProfileCache keeps sanitized user records in Redis so repeated /me reads
// skip Postgres. Entries expire on their own; writes to the user record
// invalidate eagerly.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

func cacheKey(id string) string { return "user:" + id }

// Get returns the cached record, or (nil, nil) on a miss.
func (c *ProfileCache) Get(ctx context.Context, id string) (*models.User, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *ProfileCache) Set(ctx context.Context, u *models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(u.ID), raw, c.ttl).Err()
}

func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, cacheKey(id)).Err()
}
