package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/pkg/helpers"
)

// DirectoryCache stores listing snapshots in redis as JSON.
type DirectoryCache struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func NewDirectoryCache(rdb *redis.Client, logger *logrus.Logger) *DirectoryCache {
	return &DirectoryCache{rdb: rdb, logger: logger}
}

func (c *DirectoryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return helpers.RedisGetJSON(ctx, c.rdb, key, dest)
}

func (c *DirectoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return helpers.RedisSetJSON(ctx, c.rdb, key, value, ttl)
}

func (c *DirectoryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	n, err := helpers.RedisDelPrefix(ctx, c.rdb, prefix)
	if err != nil {
		return err
	}
	if c.logger != nil && n > 0 {
		c.logger.WithFields(logrus.Fields{"prefix": prefix, "keys": n}).Debug("directory cache invalidated")
	}
	return nil
}
