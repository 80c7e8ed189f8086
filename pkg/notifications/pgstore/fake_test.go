package pgstore_test

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	data [][]any
	i    int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.i-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.i-1], dest)
}

// fakeDB records the last statement and replays canned results.
type fakeDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	row      fakeRow
	rows     *fakeRows
	queryErr error

	lastSQL  string
	lastArgs []any

	copyTable pgx.Identifier
	copyCols  []string
	copied    [][]any
	copyErr   error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func (f *fakeDB) CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	f.copyTable, f.copyCols = table, cols
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copied = append(f.copied, v)
	}
	return int64(len(f.copied)), src.Err()
}

// assign copies values into pointer destinations of matching types.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return errors.New("fake: column count mismatch")
	}
	for i, v := range values {
		if err := set(dest[i], v); err != nil {
			return err
		}
	}
	return nil
}
