// Package postgres persists run history in PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS run_history (
	id             UUID PRIMARY KEY,
	file_name      TEXT NOT NULL,
	address_column TEXT NOT NULL,
	total          INTEGER NOT NULL,
	post_office    INTEGER NOT NULL,
	has_district   INTEGER NOT NULL,
	no_district    INTEGER NOT NULL,
	client_ip      INET,
	user_agent     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS run_history_created_at_idx ON run_history (created_at DESC);
`

const insertRun = `INSERT INTO run_history
	(id, file_name, address_column, total, post_office, has_district, no_district, client_ip, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING`

const selectRecent = `SELECT id::text, file_name, address_column, total, post_office, has_district, no_district,
	host(client_ip), user_agent, created_at
	FROM run_history ORDER BY created_at DESC LIMIT $1`

const deleteBefore = `DELETE FROM run_history WHERE created_at < $1`

// RunStore implements core.RunStore on PostgreSQL.
type RunStore struct {
	db DBTX
}

var _ core.RunStore = (*RunStore)(nil)

// NewRunStore wraps db. Call Migrate once before use.
func NewRunStore(db DBTX) *RunStore {
	return &RunStore{db: db}
}

// Migrate creates the history table if it does not exist.
func (s *RunStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate run_history: %w", err)
	}
	return nil
}

// Save inserts rec. Saving the same run twice is a no-op.
func (s *RunStore) Save(ctx context.Context, rec core.RunRecord) error {
	var ip *netip.Addr
	if addr, err := netip.ParseAddr(rec.ClientIP); err == nil {
		ip = &addr
	}

	_, err := s.db.Exec(ctx, insertRun,
		rec.ID,
		rec.FileName,
		rec.AddressColumn,
		rec.Summary.Total,
		rec.Summary.PostOffice,
		rec.Summary.HasDistrict,
		rec.Summary.NoDistrict,
		ip,
		pgtype.Text{String: rec.UserAgent, Valid: rec.UserAgent != ""},
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]core.RunRecord, error) {
	rows, err := s.db.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

	records := make([]core.RunRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read run history: %w", err)
	}
	return records, nil
}

// Prune deletes records created before cutoff.
func (s *RunStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune run history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRunRecord(rows pgx.Rows) (core.RunRecord, error) {
	var (
		rec       core.RunRecord
		clientIP  pgtype.Text
		userAgent pgtype.Text
	)

	err := rows.Scan(
		&rec.ID, &rec.FileName, &rec.AddressColumn,
		&rec.Summary.Total, &rec.Summary.PostOffice, &rec.Summary.HasDistrict, &rec.Summary.NoDistrict,
		&clientIP, &userAgent, &rec.CreatedAt,
	)
	if err != nil {
		return core.RunRecord{}, fmt.Errorf("scan run record: %w", err)
	}

	if clientIP.Valid {
		rec.ClientIP = clientIP.String
	}
	if userAgent.Valid {
		rec.UserAgent = userAgent.String
	}
	return rec, nil
}
