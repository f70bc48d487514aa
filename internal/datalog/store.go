// Package datalog persists dispatch history to SQLite. Each row is one
// control's contribution to a dispatched datagram, keyed by the session
// run that produced it. The store implements session.Recorder.
package datalog

import (
	"context"
	"fmt"
	"time"

	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/database"
	"github.com/MSandovalPhD/mdof-core/internal/session"
)

// schema creates the dispatches table. Applied on every open; CREATE IF
// NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	device      TEXT    NOT NULL,
	control     TEXT    NOT NULL,
	raw         REAL    NOT NULL,
	value       REAL    NOT NULL,
	command_key TEXT    NOT NULL,
	payload     TEXT    NOT NULL,
	at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dispatches_device_at ON dispatches(device, at);
CREATE INDEX IF NOT EXISTS idx_dispatches_run ON dispatches(run_id);
`

// Store writes and reads dispatch history.
type Store struct {
	db *database.DB
}

// New prepares the store, creating the schema if needed.
//
// Parameters:
//   - db: Open database connection
//
// Returns:
//   - *Store: Ready store
//   - error: If the schema cannot be applied
func New(db *database.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying datalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordDispatch inserts one dispatch row. Timestamps are stored as Unix
// microseconds.
func (s *Store) RecordDispatch(ctx context.Context, rec session.DispatchRecord) error {
	const q = `
		INSERT INTO dispatches (run_id, device, control, raw, value, command_key, payload, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		rec.RunID, rec.Device, rec.Control,
		rec.Raw, rec.Value, rec.CommandKey, rec.Payload,
		rec.At.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("recording dispatch: %w", err)
	}
	return nil
}

// RecentByDevice returns the newest dispatch rows for a device, most
// recent first.
//
// Parameters:
//   - ctx: Query context
//   - device: Device name
//   - limit: Maximum rows to return
//
// Returns:
//   - []session.DispatchRecord: Rows, newest first
//   - error: On query failure
func (s *Store) RecentByDevice(ctx context.Context, device string, limit int) ([]session.DispatchRecord, error) {
	const q = `
		SELECT run_id, device, control, raw, value, command_key, payload, at
		FROM dispatches
		WHERE device = ?
		ORDER BY at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, device, limit)
	if err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	defer rows.Close()

	var out []session.DispatchRecord
	for rows.Next() {
		var rec session.DispatchRecord
		var at int64
		if err := rows.Scan(&rec.RunID, &rec.Device, &rec.Control, &rec.Raw, &rec.Value, &rec.CommandKey, &rec.Payload, &at); err != nil {
			return nil, fmt.Errorf("scanning dispatch row: %w", err)
		}
		rec.At = time.UnixMicro(at)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch rows: %w", err)
	}
	return out, nil
}

// CountByRun returns how many rows a session run produced.
func (s *Store) CountByRun(ctx context.Context, runID string) (int, error) {
	const q = `SELECT COUNT(*) FROM dispatches WHERE run_id = ?`

	var n int
	if err := s.db.QueryRowContext(ctx, q, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting run dispatches: %w", err)
	}
	return n, nil
}
