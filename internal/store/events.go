package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/evidenca/internal/ledger"
)

// EventLog is the SQLite-backed event log. Rows are append-only; the seq
// column carries the authoritative sequence number. The event itself is
// stored as JSON so replay reproduces timestamps and payloads exactly as
// they were appended, independent of SQLite's datetime handling.
type EventLog struct {
	DB *sql.DB
}

// Append stores the event and returns its assigned sequence number.
func (l *EventLog) Append(ctx context.Context, e ledger.Event) (int64, error) {
	e.Seq = 0 // assigned by the database
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("encoding event: %w", err)
	}

	result, err := l.DB.ExecContext(ctx,
		`INSERT INTO events (kind, actor_id, at, payload) VALUES (?, ?, ?, ?)`,
		string(e.Kind), e.ActorID, e.At, string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("appending event: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting event seq: %w", err)
	}
	return seq, nil
}

// ReadAll returns every stored event in sequence order.
func (l *EventLog) ReadAll(ctx context.Context) ([]ledger.Event, error) {
	rows, err := l.DB.QueryContext(ctx,
		`SELECT seq, payload FROM events ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		var seq int64
		var payload string
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		var e ledger.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", seq, err)
		}
		e.Seq = seq
		events = append(events, e)
	}
	return events, rows.Err()
}
