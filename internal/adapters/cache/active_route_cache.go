package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// Redis-backed read-through cache of each user's active route, so position
// ticks and route-page polls don't hit Postgres. Every route mutation must
// invalidate the owner's entry; the TTL only bounds staleness after missed
// invalidations.
type RedisActiveRouteCache struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ ports.ActiveRouteCache = (*RedisActiveRouteCache)(nil)

func NewRedisActiveRouteCache(client *redis.Client, ttl time.Duration) *RedisActiveRouteCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisActiveRouteCache{Client: client, TTL: ttl}
}

func key(userID uuid.UUID) string { return "route:active:" + userID.String() }

func (c *RedisActiveRouteCache) Get(ctx context.Context, userID uuid.UUID) (domain.Route, bool, error) {
	b, err := c.Client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, fmt.Errorf("active route cache get: %w", err)
	}

	var route domain.Route
	if err := json.Unmarshal(b, &route); err != nil {
		// A corrupt entry is unreadable forever; drop it and miss.
		_ = c.Client.Del(ctx, key(userID)).Err()
		return domain.Route{}, false, nil
	}
	return route, true, nil
}

func (c *RedisActiveRouteCache) Put(ctx context.Context, userID uuid.UUID, route domain.Route) error {
	b, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("active route cache put: marshal: %w", err)
	}

	if err := c.Client.Set(ctx, key(userID), b, c.TTL).Err(); err != nil {
		return fmt.Errorf("active route cache put: %w", err)
	}
	return nil
}

func (c *RedisActiveRouteCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.Client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("active route cache invalidate: %w", err)
	}
	return nil
}
