package notifications

import (
	"context"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/cache"
)

const DefaultDedupTTL = 60 * time.Second

// Deduper remembers recently seen event keys.
type Deduper interface {
	// MarkIfNew records key for ttl and reports true if it was not already
	// recorded.
	MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryDeduper is a bounded in-process Deduper. The least recently seen key
// is evicted when capacity is reached.
type MemoryDeduper struct {
	seen *cache.LRU[string, struct{}]
}

const defaultDedupCapacity = 10_000

type MemoryDeduperOption func(*memoryDeduperConfig)

type memoryDeduperConfig struct {
	capacity int
	now      func() time.Time
}

func WithDedupCapacity(n int) MemoryDeduperOption {
	return func(c *memoryDeduperConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithDedupClock overrides the time source, for tests.
func WithDedupClock(now func() time.Time) MemoryDeduperOption {
	return func(c *memoryDeduperConfig) {
		if now != nil {
			c.now = now
		}
	}
}

func NewMemoryDeduper(opts ...MemoryDeduperOption) *MemoryDeduper {
	cfg := &memoryDeduperConfig{capacity: defaultDedupCapacity, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	return &MemoryDeduper{
		seen: cache.NewLRU[string, struct{}](cfg.capacity).WithClock(cfg.now),
	}
}

func (d *MemoryDeduper) MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.seen.PutIfAbsent(key, struct{}{}, ttl), nil
}
