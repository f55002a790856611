package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/ilindan-dev/notification-engine/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Ensure TemplateCache implements the interface
var _ repo.TemplateCache = (*TemplateCache)(nil)

// TemplateCache implements the domain.TemplateCache interface
// using the standard go-redis client.
type TemplateCache struct {
	redis  *goredis.Client
	logger zerolog.Logger
}

// NewTemplateCache creates a new instance of the TemplateCache.
func NewTemplateCache(logger *zerolog.Logger, redis *goredis.Client) *TemplateCache {
	return &TemplateCache{
		redis:  redis,
		logger: logger.With().Str("layer", "redis_cache").Logger(),
	}
}

// Get retrieves a template from the cache. A miss is reported as repo.ErrNotFound.
func (c *TemplateCache) Get(ctx context.Context, id string) (*model.Template, error) {
	key := keybuilder.RedisTemplateKeyBuild(id)
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.logger.Debug().Str("key", key).Str("cache", "miss").Msg("template not found in cache")
			return nil, repo.ErrNotFound
		}
		c.logger.Error().Err(err).Str("key", key).Msg("failed to get key from redis")
		return nil, err
	}

	var t model.Template
	if err := json.Unmarshal(val, &t); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to unmarshal template from cache")
		return nil, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	c.logger.Debug().Str("key", key).Str("cache", "hit").Msg("template found in cache")
	return &t, nil
}

// Set adds a template to the cache for a specified duration.
func (c *TemplateCache) Set(ctx context.Context, t *model.Template, expiration time.Duration) error {
	key := keybuilder.RedisTemplateKeyBuild(t.ID)
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	if err := c.redis.Set(ctx, key, b, expiration).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to set key in redis")
		return err
	}
	return nil
}

// Delete removes a template from the cache.
func (c *TemplateCache) Delete(ctx context.Context, id string) error {
	key := keybuilder.RedisTemplateKeyBuild(id)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to delete key from redis")
		return err
	}

	c.logger.Debug().Str("key", key).Msg("successfully deleted key from redis")
	return nil
}
