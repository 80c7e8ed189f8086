package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

const (
	defaultPrefix = "notify:"
	maxTxRetries  = 5
)

var ErrTxConflict = errors.New("redisstore: too many concurrent writes to one subscription")

// Store keeps each subscription in a hash and indexes the hash keys in a
// sorted set scored by creation time.
type Store struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces every key, default "notify:".
func WithPrefix(p string) Option {
	return func(s *Store) {
		if p != "" {
			s.prefix = p
		}
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) subKey(channel notifications.Channel, endpointKey string) string {
	return s.prefix + "sub:" + string(channel) + ":" + endpointKey
}

func (s *Store) indexKey() string {
	return s.prefix + "subs"
}

// Upsert merges under WATCH so concurrent registrations of one endpoint
// cannot lose credentials.
func (s *Store) Upsert(ctx context.Context, sub notifications.Subscription) (notifications.Subscription, error) {
	key := s.subKey(sub.Channel, sub.EndpointKey)

	var stored notifications.Subscription
	txf := func(tx *redis.Tx) error {
		now := time.Now().UTC()
		existing, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		if len(existing) == 0 {
			stored = sub
			stored.Credentials = notifications.MergeCredentials(nil, sub.Credentials)
			stored.CreatedAt, stored.UpdatedAt = now, now
		} else {
			stored, err = decode(existing)
			if err != nil {
				return err
			}
			stored.Credentials = notifications.MergeCredentials(stored.Credentials, sub.Credentials)
			stored.UpdatedAt = now
		}

		fields, err := encode(stored)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fields)
			p.ZAddNX(ctx, s.indexKey(), redis.Z{Score: float64(stored.CreatedAt.UnixNano()), Member: key})
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return notifications.Subscription{}, fmt.Errorf("redisstore: upsert: %w", err)
		}
	}
	return notifications.Subscription{}, ErrTxConflict
}

func (s *Store) Delete(ctx context.Context, channel notifications.Channel, endpointKey string) (bool, error) {
	key := s.subKey(channel, endpointKey)

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, key)
		p.ZRem(ctx, s.indexKey(), key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redisstore: delete: %w", err)
	}
	return del.Val() > 0, nil
}

// List skips index entries whose hash has disappeared.
func (s *Store) List(ctx context.Context) ([]notifications.Subscription, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list: %w", err)
	}
	subs := make([]notifications.Subscription, 0, len(keys))
	if len(keys) == 0 {
		return subs, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: list: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		sub, err := decode(fields)
		if err != nil {
			return nil, fmt.Errorf("redisstore: list: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func encode(sub notifications.Subscription) (map[string]any, error) {
	creds, err := json.Marshal(sub.Credentials)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":           sub.ID,
		"channel":      string(sub.Channel),
		"endpoint_key": sub.EndpointKey,
		"credentials":  string(creds),
		"created_at":   sub.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   sub.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

func decode(fields map[string]string) (notifications.Subscription, error) {
	sub := notifications.Subscription{
		ID:          fields["id"],
		Channel:     notifications.Channel(fields["channel"]),
		EndpointKey: fields["endpoint_key"],
		Credentials: map[string]string{},
	}
	if raw := fields["credentials"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sub.Credentials); err != nil {
			return notifications.Subscription{}, fmt.Errorf("decode credentials: %w", err)
		}
	}
	var err error
	if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return notifications.Subscription{}, fmt.Errorf("decode created_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return notifications.Subscription{}, fmt.Errorf("decode updated_at: %w", err)
	}
	return sub, nil
}
