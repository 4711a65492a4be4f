package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
)

const defaultUserCacheTTL = 5 * time.Minute

// UserCache is a read-through cache in front of the credential store, used on
// the request hot path where every call re-resolves the authenticated user.
// Safe because user records are immutable within the current scope; the hash
// is never cached (it is excluded from the JSON form).
//
// Redis failures degrade to direct store reads, never to request failures.
type UserCache struct {
	client *redis.Client
	source ports.UserReader
	ttl    time.Duration
	log    zerolog.Logger
}

func NewUserCache(client *redis.Client, source ports.UserReader, ttl time.Duration, log zerolog.Logger) *UserCache {
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	return &UserCache{client: client, source: source, ttl: ttl, log: log}
}

func (c *UserCache) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	key := c.key(id)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var user domain.User
		if jsonErr := json.Unmarshal([]byte(raw), &user); jsonErr == nil {
			return &user, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = c.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.log.Warn().Err(err).Int64("user_id", id).Msg("user cache read failed, falling back to store")
	}

	user, err := c.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(user); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.log.Warn().Err(setErr).Int64("user_id", id).Msg("user cache write failed")
		}
	}
	return user, nil
}

func (c *UserCache) key(id int64) string {
	return fmt.Sprintf("user:%d", id)
}
