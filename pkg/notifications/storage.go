package notifications

import (
	"context"
)

// Store persists subscriptions. Upsert must enforce (Channel, EndpointKey)
// uniqueness and merge credentials atomically on its backend.
type Store interface {
	// Upsert inserts sub or, if (Channel, EndpointKey) exists, merges its
	// credentials into the stored record and bumps UpdatedAt. The stored
	// record is returned.
	Upsert(ctx context.Context, sub Subscription) (Subscription, error)

	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, channel Channel, endpointKey string) (bool, error)

	// List returns a snapshot of every subscription.
	List(ctx context.Context) ([]Subscription, error)
}

// MergeCredentials returns a copy of existing overlaid with update. Keys
// absent from update are retained.
func MergeCredentials(existing, update map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(update))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}
