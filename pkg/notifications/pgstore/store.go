package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/pg"
)

// ErrSchemaMissing is returned when the subscriptions table has not been
// migrated.
var ErrSchemaMissing = errors.New("pgstore: subscriptions table does not exist")

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store keeps subscriptions in Postgres. Uniqueness and credential merging
// happen in a single INSERT ... ON CONFLICT statement.
type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

const upsertSQL = `
INSERT INTO subscriptions (id, channel, endpoint_key, credentials, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (channel, endpoint_key) DO UPDATE
SET credentials = subscriptions.credentials || EXCLUDED.credentials,
    updated_at  = now()
RETURNING id, channel, endpoint_key, credentials, created_at, updated_at`

func (s *Store) Upsert(ctx context.Context, sub notifications.Subscription) (notifications.Subscription, error) {
	creds := sub.Credentials
	if creds == nil {
		creds = map[string]string{}
	}

	var out notifications.Subscription
	err := s.db.QueryRow(ctx, upsertSQL, sub.ID, string(sub.Channel), sub.EndpointKey, creds).
		Scan(&out.ID, &out.Channel, &out.EndpointKey, &out.Credentials, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return notifications.Subscription{}, wrap("upsert", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, channel notifications.Channel, endpointKey string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM subscriptions WHERE channel = $1 AND endpoint_key = $2`,
		string(channel), endpointKey,
	)
	if err != nil {
		return false, wrap("delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) List(ctx context.Context) ([]notifications.Subscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, channel, endpoint_key, credentials, created_at, updated_at
		 FROM subscriptions ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, wrap("list", err)
	}
	defer rows.Close()

	subs := []notifications.Subscription{}
	for rows.Next() {
		var sub notifications.Subscription
		if err := rows.Scan(&sub.ID, &sub.Channel, &sub.EndpointKey, &sub.Credentials, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, wrap("scan", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list", err)
	}
	return subs, nil
}

func wrap(op string, err error) error {
	if pg.IsUndefinedTableError(err) {
		return fmt.Errorf("pgstore: %s: %w", op, errors.Join(ErrSchemaMissing, err))
	}
	return fmt.Errorf("pgstore: %s: %w", op, err)
}
