package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

// Registry is the authoritative set of subscriptions. Writes are serialized
// through a mutex; reads return snapshot copies.
type Registry struct {
	store  Store
	logger *slog.Logger
	mu     sync.Mutex
}

type RegistryOption func(*Registry)

func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns a registry over store. A nil store means MemoryStore.
func NewRegistry(store Store, opts ...RegistryOption) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	r := &Registry{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or refreshes a subscription. Registering an existing
// (channel, endpointKey) never fails: credentials are merged and UpdatedAt
// moves forward.
func (r *Registry) Register(ctx context.Context, channel Channel, endpointKey string, credentials map[string]string) (Subscription, error) {
	if !channel.Valid() {
		return Subscription{}, ErrInvalidChannel
	}
	endpointKey = NormalizeEndpoint(channel, endpointKey)
	if endpointKey == "" {
		return Subscription{}, ErrEmptyEndpoint
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub, err := r.store.Upsert(ctx, Subscription{
		ID:          uuid.NewString(),
		Channel:     channel,
		EndpointKey: endpointKey,
		Credentials: credentials,
	})
	if err != nil {
		return Subscription{}, fmt.Errorf("register subscription: %w", err)
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "subscription registered",
		logger.Channel(string(channel)),
		logger.SubscriptionID(sub.ID),
		logger.Endpoint(endpointKey),
	)
	return sub, nil
}

// Remove deletes a subscription and reports whether it existed.
func (r *Registry) Remove(ctx context.Context, channel Channel, endpointKey string) (bool, error) {
	if !channel.Valid() {
		return false, ErrInvalidChannel
	}
	endpointKey = NormalizeEndpoint(channel, endpointKey)
	if endpointKey == "" {
		return false, ErrEmptyEndpoint
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed, err := r.store.Delete(ctx, channel, endpointKey)
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	if removed {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "subscription removed",
			logger.Channel(string(channel)),
			logger.Endpoint(endpointKey),
		)
	}
	return removed, nil
}

// ListAll returns a snapshot. Concurrent registrations after the call returns
// are not reflected.
func (r *Registry) ListAll(ctx context.Context) ([]Subscription, error) {
	subs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// CountByChannel returns the number of subscriptions per channel. Every
// supported channel is present in the map.
func (r *Registry) CountByChannel(ctx context.Context) (map[Channel]int, error) {
	subs, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[Channel]int, len(Channels()))
	for _, c := range Channels() {
		counts[c] = 0
	}
	for _, s := range subs {
		counts[s.Channel]++
	}
	return counts, nil
}
