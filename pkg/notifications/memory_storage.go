package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

type subscriptionKey struct {
	channel  Channel
	endpoint string
}

// MemoryStore keeps subscriptions in process memory. Suitable for development,
// tests and single-instance deployments that can afford to lose state.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[subscriptionKey]memoryEntry
	seq  uint64
	now  func() time.Time
}

type memoryEntry struct {
	sub Subscription
	seq uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[subscriptionKey]memoryEntry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, sub Subscription) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscriptionKey{channel: sub.Channel, endpoint: sub.EndpointKey}
	now := s.now()

	if e, ok := s.subs[key]; ok {
		e.sub.Credentials = MergeCredentials(e.sub.Credentials, sub.Credentials)
		e.sub.UpdatedAt = now
		s.subs[key] = e
		return e.sub.clone(), nil
	}

	stored := sub.clone()
	if stored.Credentials == nil {
		stored.Credentials = map[string]string{}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = stored.CreatedAt
	s.seq++
	s.subs[key] = memoryEntry{sub: stored, seq: s.seq}
	return stored.clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, channel Channel, endpointKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscriptionKey{channel: channel, endpoint: endpointKey}
	if _, ok := s.subs[key]; !ok {
		return false, nil
	}
	delete(s.subs, key)
	return true, nil
}

// List returns subscriptions in registration order.
func (s *MemoryStore) List(ctx context.Context) ([]Subscription, error) {
	s.mu.RLock()
	entries := make([]memoryEntry, 0, len(s.subs))
	for _, e := range s.subs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Subscription, len(entries))
	for i, e := range entries {
		out[i] = e.sub.clone()
	}
	return out, nil
}
