package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cognisync-backend/internal/platform/envutil"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

// ProfileCache is a read-through cache for the current system profile. It is
// optional: NewProfileCacheFromEnv returns nil when REDIS_ADDR is unset, and
// every method tolerates a nil receiver so callers never branch on it.
type ProfileCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewProfileCacheFromEnv(log *logger.Logger) *ProfileCache {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	ttl := time.Duration(envutil.Int("PROFILE_CACHE_TTL_SECONDS", 300)) * time.Second
	return &ProfileCache{rdb: rdb, ttl: ttl, log: log.With("client", "ProfileCache")}
}

func profileKey(learnerID string) string {
	return "profile:system:" + learnerID
}

func (c *ProfileCache) Get(ctx context.Context, learnerID string) (*types.Profile, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, profileKey(learnerID)).Bytes()
	if err != nil {
		return nil, false
	}
	var profile types.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		c.log.Warn("corrupt cached profile, dropping", "error", err)
		_ = c.rdb.Del(ctx, profileKey(learnerID)).Err()
		return nil, false
	}
	return &profile, true
}

func (c *ProfileCache) Set(ctx context.Context, learnerID string, profile types.Profile) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, profileKey(learnerID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("profile cache set failed", "error", err)
	}
}

func (c *ProfileCache) Invalidate(ctx context.Context, learnerID string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, profileKey(learnerID)).Err(); err != nil {
		c.log.Warn("profile cache invalidate failed", "error", err)
	}
}

func (c *ProfileCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
