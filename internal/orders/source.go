// Package orders reads the storefront orders table for the poller.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iamusmankhan101/visioncare/pkg/pg"
	"github.com/iamusmankhan101/visioncare/pkg/poller"
)

const DefaultTable = "orders"

var ErrTableMissing = errors.New("orders: table does not exist")

// Querier is the subset of *pgxpool.Pool used by Source.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Source implements poller.RecordSource over an orders table with the
// columns id, order_number, customer_name, total and created_at.
type Source struct {
	db    Querier
	table string
}

type Option func(*Source)

func WithTable(name string) Option {
	return func(s *Source) {
		if name != "" {
			s.table = name
		}
	}
}

func NewSource(db Querier, opts ...Option) *Source {
	s := &Source{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func (s *Source) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM "+s.ident()).Scan(&n); err != nil {
		return 0, wrap("count", err)
	}
	return n, nil
}

func (s *Source) Latest(ctx context.Context, n int) ([]poller.Record, error) {
	if n <= 0 {
		return []poller.Record{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id::text, coalesce(order_number, ''), coalesce(customer_name, ''), total, created_at
		 FROM `+s.ident()+` ORDER BY created_at DESC, id DESC LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, wrap("latest", err)
	}
	defer rows.Close()

	out := make([]poller.Record, 0, n)
	for rows.Next() {
		var (
			r       poller.Record
			total   *float64
			created time.Time
		)
		if err := rows.Scan(&r.ID, &r.Number, &r.Customer, &total, &created); err != nil {
			return nil, wrap("scan", err)
		}
		r.Total, r.CreatedAt = total, created
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("latest", err)
	}
	return out, nil
}

func wrap(op string, err error) error {
	if pg.IsUndefinedTableError(err) {
		return fmt.Errorf("orders: %s: %w", op, errors.Join(ErrTableMissing, err))
	}
	return fmt.Errorf("orders: %s: %w", op, err)
}
