// Package cache provides the read-through cache used by the listing and theme services.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	// Get decodes the value at key into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Observer receives hit and miss notifications, labelled by key family.
type Observer interface {
	CacheHit(family string)
	CacheMiss(family string)
}

// Family is the first segment of a colon-separated key: "server:42" -> "server".
func Family(key string) string {
	family, _, _ := strings.Cut(key, ":")
	return family
}
