// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// path.go provides a Valkey-backed cache of resolved category paths.
// Resolving "news/world/europe" walks the tree one level at a time, so the
// resulting category ID is stored under the path and reused until any tree
// mutation clears the cache.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// pathKeyPrefix is the Valkey key prefix for cached category paths.
	pathKeyPrefix = "catpath:"

	// DefaultPathTTL is how long a resolved path stays cached.
	DefaultPathTTL = 10 * time.Minute

	defaultSeparator = "/"
)

// PathCache maps category tree paths to category IDs in Valkey.
type PathCache struct {
	client *redis.Client
	ttl    time.Duration
	sep    string
}

// NewPathCache creates a new path cache backed by the given Valkey client.
// sep is the separator joining slugs in cached paths; empty means "/".
func NewPathCache(client *redis.Client, ttl time.Duration, sep string) *PathCache {
	if ttl == 0 {
		ttl = DefaultPathTTL
	}
	if sep == "" {
		sep = defaultSeparator
	}
	return &PathCache{client: client, ttl: ttl, sep: sep}
}

func (pc *PathCache) key(path string) string {
	return pathKeyPrefix + PathKey(path, pc.sep)
}

// Get returns the cached category ID for a path.
func (pc *PathCache) Get(ctx context.Context, path string) (uuid.UUID, bool) {
	val, err := pc.client.Get(ctx, pc.key(path)).Result()
	if err == redis.Nil {
		return uuid.Nil, false
	}
	if err != nil {
		slog.Warn("path cache get error", "path", path, "error", err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		slog.Warn("path cache holds invalid id", "path", path, "value", val)
		return uuid.Nil, false
	}
	slog.Debug("path cache hit", "path", path)
	return id, true
}

// Set stores the category ID for a path with the configured TTL.
func (pc *PathCache) Set(ctx context.Context, path string, id uuid.UUID) {
	if err := pc.client.Set(ctx, pc.key(path), id.String(), pc.ttl).Err(); err != nil {
		slog.Warn("path cache set error", "path", path, "error", err)
	}
}

// Invalidate removes a single path from the cache.
func (pc *PathCache) Invalidate(ctx context.Context, path string) {
	if err := pc.client.Del(ctx, pc.key(path)).Err(); err != nil {
		slog.Warn("path cache invalidate error", "path", path, "error", err)
	}
	slog.Debug("path cache invalidated", "path", path)
}

// InvalidateAll removes all cached paths by scanning for the prefix.
// Any move, rename or delete can change the path of a whole subtree.
func (pc *PathCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pathKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("path cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("path cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("path cache fully cleared", "deleted", deleted)
	}
}

// PathKey normalizes a path so "/news/world/" and "news/world" share a key
// when sep is "/". Only sep is trimmed.
func PathKey(path, sep string) string {
	return strings.Trim(path, sep)
}
