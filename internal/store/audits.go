package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/evidenca/internal/model"
)

// AuditLog is the SQLite-backed audit trail. Entries are append-only and
// never edited.
type AuditLog struct {
	DB *sql.DB
}

// Append stores an audit entry.
func (a *AuditLog) Append(ctx context.Context, entry model.AuditEntry) error {
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO audits (actor_id, action, detail, at) VALUES (?, ?, ?, ?)`,
		entry.ActorID, entry.Action, entry.Detail, entry.At,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// List returns all audit entries in insertion order.
func (a *AuditLog) List(ctx context.Context) ([]model.AuditEntry, error) {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT id, actor_id, action, detail, at FROM audits ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.Detail, &entry.At); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
