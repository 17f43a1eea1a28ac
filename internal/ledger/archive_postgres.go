package ledger

import (
	"context"
	"database/sql"
	"errors"

	"autodialer-platform/pkg/utils"
)

// PostgresArchive persists terminal call records for retention beyond the
// process lifetime. The in-memory Ledger stays the source of truth; the
// archive is best-effort and write-only.
//
// Expected schema:
//
//	CREATE TABLE call_records (
//	    id               TEXT PRIMARY KEY,
//	    phone_number     TEXT NOT NULL,
//	    message          TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    call_sid         TEXT,
//	    duration_seconds INT NOT NULL DEFAULT 0,
//	    last_error       TEXT,
//	    created_at       TIMESTAMPTZ NOT NULL
//	);
type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

// ArchiveRecord upserts one record. Re-archiving after a duplicate
// terminal event overwrites with identical values, so the operation is
// idempotent.
func (a *PostgresArchive) ArchiveRecord(ctx context.Context, r Record) error {
	if a == nil || a.db == nil {
		return errors.New("ledger: archive not configured")
	}
	if r.ID == "" {
		return errors.New("ledger: record id required")
	}

	return utils.WithTx(ctx, a.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO call_records (id, phone_number, message, status, call_sid, duration_seconds, last_error, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				call_sid = EXCLUDED.call_sid,
				duration_seconds = EXCLUDED.duration_seconds,
				last_error = EXCLUDED.last_error`,
			r.ID, r.Destination, r.Message, string(r.State), r.ProviderSID, r.DurationSeconds, r.LastError, r.CreatedAt,
		)
		return err
	})
}
