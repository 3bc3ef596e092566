package metadata

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache in front of a Source. Entry metadata is
// fetched once at creation time and never refreshed, so a long TTL is fine.
// All cache errors are ignored; the underlying source remains authoritative.
type Cache struct {
	src Source
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(src Source, rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		src: src,
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *Cache) Lookup(ctx context.Context, videoID string) (VideoInfo, error) {
	key := "metadata:" + videoID

	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
			var info VideoInfo
			if err := json.Unmarshal([]byte(raw), &info); err == nil {
				return info, nil
			}
		}
	}

	info, err := c.src.Lookup(ctx, videoID)
	if err != nil {
		return VideoInfo{}, err
	}

	if c.rdb != nil {
		if data, err := json.Marshal(info); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				log.Printf("metadata: cache set %s: %v", videoID, err)
			}
		}
	}

	return info, nil
}
