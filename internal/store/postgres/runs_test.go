package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

type call struct {
	sql  string
	args []any
}

// fakeDB records statements and serves canned rows.
type fakeDB struct {
	execs   []call
	queries []call
	tag     pgconn.CommandTag
	rows    [][]any
	err     error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, call{sql, args})
	return f.tag, f.err
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, call{sql, args})
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{data: f.rows, pos: -1}, nil
}

type fakeRows struct {
	pgx.Rows
	data [][]any
	pos  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d dest for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			*d = row[i].(string)
		case *int:
			*d = row[i].(int)
		case *time.Time:
			*d = row[i].(time.Time)
		case *pgtype.Text:
			if row[i] == nil {
				*d = pgtype.Text{}
			} else {
				*d = pgtype.Text{String: row[i].(string), Valid: true}
			}
		default:
			return fmt.Errorf("scan: unsupported dest %T", d)
		}
	}
	return nil
}

func TestRunStore_Migrate(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewRunStore(db).Migrate(context.Background()))
	require.Len(t, db.execs, 1)
	require.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS run_history")
}

func TestRunStore_Save(t *testing.T) {
	db := &fakeDB{}
	store := NewRunStore(db)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := store.Save(context.Background(), core.RunRecord{
		ID:            "0b0c3b5e-4a39-4bd2-9d4b-6e0f4a0f8c11",
		FileName:      "orders.xlsx",
		AddressColumn: "收件人地址",
		Summary:       core.Summary{Total: 6, PostOffice: 1, HasDistrict: 3, NoDistrict: 2},
		ClientIP:      "192.0.2.10",
		CreatedAt:     created,
	})
	require.NoError(t, err)

	require.Len(t, db.execs, 1)
	args := db.execs[0].args
	require.Len(t, args, 10)
	require.Equal(t, "orders.xlsx", args[1])
	require.Equal(t, 3, args[5])

	ip, ok := args[7].(*netip.Addr)
	require.True(t, ok)
	require.Equal(t, "192.0.2.10", ip.String())
	require.Equal(t, pgtype.Text{}, args[8], "empty user agent is stored as NULL")
	require.Equal(t, created, args[9])
}

func TestRunStore_SaveUnparsableIPIsNull(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewRunStore(db).Save(context.Background(), core.RunRecord{ID: "x", ClientIP: "unknown"}))
	require.Nil(t, db.execs[0].args[7])
}

func TestRunStore_Recent(t *testing.T) {
	newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	db := &fakeDB{rows: [][]any{
		{"b", "b.csv", "地址", 2, 1, 1, 0, "192.0.2.1", "curl/8", newer},
		{"a", "a.xls", "收件地址", 1, 0, 0, 1, nil, nil, older},
	}}

	got, err := NewRunStore(db).Recent(context.Background(), 10)
	require.NoError(t, err)

	require.Equal(t, []any{10}, db.queries[0].args)
	require.Len(t, got, 2)
	require.Equal(t, core.RunRecord{
		ID:            "b",
		FileName:      "b.csv",
		AddressColumn: "地址",
		Summary:       core.Summary{Total: 2, PostOffice: 1, HasDistrict: 1},
		ClientIP:      "192.0.2.1",
		UserAgent:     "curl/8",
		CreatedAt:     newer,
	}, got[0])
	require.Empty(t, got[1].ClientIP)
	require.Empty(t, got[1].UserAgent)
}

func TestRunStore_Prune(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("DELETE 3")}
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := NewRunStore(db).Prune(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, []any{cutoff}, db.execs[0].args)
}

func TestRunStore_ErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	store := NewRunStore(&fakeDB{err: boom})
	ctx := context.Background()

	err := store.Save(ctx, core.RunRecord{ID: "r1"})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "save run r1")

	_, err = store.Recent(ctx, 5)
	require.ErrorIs(t, err, boom)

	_, err = store.Prune(ctx, time.Now())
	require.ErrorIs(t, err, boom)
}
