package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gatekeeper/internal/logger"
)

const (
	cacheVersionKey = "rbac:version"
	cacheKeyPrefix  = "rbac:perms"

	// bounds a shared fill, which outlives the caller that started it
	fillTimeout = 5 * time.Second
)

// Loader reads a role's permission names from the source of truth.
type Loader func(ctx context.Context, role string) ([]string, error)

// Cache keeps role permission lists in Redis. Keys embed a version counter;
// Invalidate bumps the counter so every older entry becomes unreachable and
// ages out through its TTL. A nil Cache, or one without a client, passes every
// lookup straight to the loader.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	lg     *zap.SugaredLogger
}

func NewCache(client *redis.Client, ttl time.Duration, lg *zap.SugaredLogger) *Cache {
	return &Cache{client: client, ttl: ttl, lg: logger.OrNop(lg)}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *Cache) Load(ctx context.Context, role string, load Loader) ([]string, error) {
	if !c.enabled() {
		return load(ctx, role)
	}
	key, err := c.key(ctx, role)
	if err != nil {
		c.lg.Warnw("rbac cache version unavailable", "error", err)
		return load(ctx, role)
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var names []string
		if jerr := json.Unmarshal(raw, &names); jerr == nil {
			return names, nil
		}
		c.lg.Warnw("rbac cache entry corrupt", "key", key)
	case !errors.Is(err, redis.Nil):
		c.lg.Warnw("rbac cache read failed", "key", key, "error", err)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		names, err := load(fillCtx, role)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = []string{}
		}
		if raw, err := json.Marshal(names); err == nil {
			if err := c.client.Set(fillCtx, key, raw, c.ttl).Err(); err != nil {
				c.lg.Warnw("rbac cache write failed", "key", key, "error", err)
			}
		}
		return names, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

// Invalidate drops every cached role.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) key(ctx context.Context, role string) (string, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver, err = 0, nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d", cacheKeyPrefix, role, ver), nil
}
