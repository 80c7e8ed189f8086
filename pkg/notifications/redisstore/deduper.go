package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper records event keys with SET NX so that every instance sharing the
// Redis server sees the same window.
type Deduper struct {
	client redis.UniversalClient
	prefix string
}

func NewDeduper(client redis.UniversalClient, opts ...Option) *Deduper {
	s := New(client, opts...)
	return &Deduper{client: client, prefix: s.prefix + "dedup:"}
}

func (d *Deduper) MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: dedup: %w", err)
	}
	return ok, nil
}
