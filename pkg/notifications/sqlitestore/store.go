package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id           TEXT PRIMARY KEY,
	channel      TEXT NOT NULL,
	endpoint_key TEXT NOT NULL,
	credentials  TEXT NOT NULL DEFAULT '{}',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL,
	UNIQUE (channel, endpoint_key)
)`

type row struct {
	ID          string    `db:"id"`
	Channel     string    `db:"channel"`
	EndpointKey string    `db:"endpoint_key"`
	Credentials string    `db:"credentials"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r row) subscription() (notifications.Subscription, error) {
	creds := map[string]string{}
	if r.Credentials != "" {
		if err := json.Unmarshal([]byte(r.Credentials), &creds); err != nil {
			return notifications.Subscription{}, fmt.Errorf("decode credentials: %w", err)
		}
	}
	return notifications.Subscription{
		ID:          r.ID,
		Channel:     notifications.Channel(r.Channel),
		EndpointKey: r.EndpointKey,
		Credentials: creds,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

// Store keeps subscriptions in a local SQLite file. Upsert reads, merges and
// writes inside one transaction.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitestore: init: %w", err)
		}
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Upsert(ctx context.Context, sub notifications.Subscription) (notifications.Subscription, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return notifications.Subscription{}, fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	var existing row
	err = tx.GetContext(ctx, &existing,
		`SELECT id, channel, endpoint_key, credentials, created_at, updated_at
		 FROM subscriptions WHERE channel = ? AND endpoint_key = ?`,
		string(sub.Channel), sub.EndpointKey,
	)

	var stored notifications.Subscription
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stored = sub
		stored.Credentials = notifications.MergeCredentials(nil, sub.Credentials)
		stored.CreatedAt, stored.UpdatedAt = now, now
		creds, err := json.Marshal(stored.Credentials)
		if err != nil {
			return notifications.Subscription{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (id, channel, endpoint_key, credentials, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			stored.ID, string(stored.Channel), stored.EndpointKey, string(creds), now, now,
		); err != nil {
			return notifications.Subscription{}, fmt.Errorf("sqlitestore: insert: %w", err)
		}
	case err != nil:
		return notifications.Subscription{}, fmt.Errorf("sqlitestore: select: %w", err)
	default:
		stored, err = existing.subscription()
		if err != nil {
			return notifications.Subscription{}, err
		}
		stored.Credentials = notifications.MergeCredentials(stored.Credentials, sub.Credentials)
		stored.UpdatedAt = now
		creds, err := json.Marshal(stored.Credentials)
		if err != nil {
			return notifications.Subscription{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET credentials = ?, updated_at = ? WHERE id = ?`,
			string(creds), now, stored.ID,
		); err != nil {
			return notifications.Subscription{}, fmt.Errorf("sqlitestore: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return notifications.Subscription{}, fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return stored, nil
}

func (s *Store) Delete(ctx context.Context, channel notifications.Channel, endpointKey string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE channel = ? AND endpoint_key = ?`,
		string(channel), endpointKey,
	)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlitestore: delete: %w", err)
	}
	return n > 0, nil
}

func (s *Store) List(ctx context.Context) ([]notifications.Subscription, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, channel, endpoint_key, credentials, created_at, updated_at
		 FROM subscriptions ORDER BY created_at, rowid`,
	); err != nil {
		return nil, fmt.Errorf("sqlitestore: list: %w", err)
	}

	subs := make([]notifications.Subscription, 0, len(rows))
	for _, r := range rows {
		sub, err := r.subscription()
		if err != nil {
			return nil, fmt.Errorf("sqlitestore: list: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
