package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/cache"
)

const (
	defaultMaxKeys = 10_000
	defaultIdleTTL = time.Hour
)

type bucket struct {
	tokens   int
	refilled time.Time
}

// MemoryStore keeps buckets in a bounded LRU. Buckets idle for longer than
// the idle TTL are forgotten, which is the same as refilling them.
type MemoryStore struct {
	mu      sync.Mutex
	buckets *cache.LRU[string, *bucket]
	idleTTL time.Duration
	now     func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

// WithMaxKeys bounds how many distinct keys are tracked.
func WithMaxKeys(n int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.buckets = cache.NewLRU[string, *bucket](n)
		}
	}
}

func WithIdleTTL(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets: cache.NewLRU[string, *bucket](defaultMaxKeys),
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buckets.WithClock(s.now)
	return s
}

func (s *MemoryStore) Take(_ context.Context, key string, n int, cfg Config) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: cfg.Capacity, refilled: now}
	}
	refill(b, now, cfg)

	remaining := b.tokens - n
	if remaining >= 0 {
		b.tokens = remaining
	}
	s.buckets.Put(key, b, s.idleTTL)

	return remaining, b.refilled.Add(cfg.RefillInterval), nil
}

func refill(b *bucket, now time.Time, cfg Config) {
	elapsed := now.Sub(b.refilled)
	if elapsed < cfg.RefillInterval {
		return
	}
	// Cap so that long idle periods cannot overflow.
	maxIntervals := int64(cfg.Capacity/cfg.RefillRate + 1)
	intervals := min(int64(elapsed/cfg.RefillInterval), maxIntervals)

	b.tokens = min(b.tokens+int(intervals)*cfg.RefillRate, cfg.Capacity)
	if b.tokens == cfg.Capacity {
		b.refilled = now
		return
	}
	b.refilled = b.refilled.Add(time.Duration(intervals) * cfg.RefillInterval)
}
