package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/cache"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const cacheKeyAllServers = "servers:all"

func serverIDKey(id uuid.UUID) string {
	return "server:" + id.String()
}

func serverSlugKey(slug string) string {
	return "server:slug:" + slug
}

func themeKey(slug string) string {
	return "theme:server:" + slug
}

// readThrough reports a hit. Cache failures count as a miss.
func readThrough(ctx context.Context, c cache.Cache, key string, dest any) bool {
	if c == nil {
		return false
	}
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		logger.Log.Warn("Cache read failed, falling back to database",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return found
}

func writeCache(ctx context.Context, c cache.Cache, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Log.Warn("Cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// invalidate deletes keys in parallel. Failures are logged; the write that
// triggered the invalidation has already succeeded.
func invalidate(ctx context.Context, c cache.Cache, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(keys))
	// plain group: one failed delete must not cancel the others
	var g errgroup.Group
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		key := key
		g.Go(func() error {
			if err := c.Delete(ctx, key); err != nil {
				logger.Log.Error("Cache invalidation failed",
					zap.String("key", key),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
}
