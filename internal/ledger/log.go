package ledger

import (
	"context"
	"sync"

	"github.com/erazemk/evidenca/internal/model"
)

// Log is the append-only event store. Implementations must assign strictly
// increasing sequence numbers and return events in sequence order.
type Log interface {
	// Append stores the event and returns its assigned sequence number.
	Append(ctx context.Context, e Event) (int64, error)

	// ReadAll returns every stored event in sequence order.
	ReadAll(ctx context.Context) ([]Event, error)
}

// AuditSink is the append-only audit trail. Implementations assign entry ids.
type AuditSink interface {
	Append(ctx context.Context, entry model.AuditEntry) error
	List(ctx context.Context) ([]model.AuditEntry, error)
}

// MemLog is an in-memory Log. It is the default for tests and for running
// without a database file.
type MemLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemLog creates an empty in-memory event log.
func NewMemLog() *MemLog {
	return &MemLog{}
}

// Append stores the event and returns its sequence number.
func (l *MemLog) Append(_ context.Context, e Event) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Seq = int64(len(l.events)) + 1
	l.events = append(l.events, e)
	return e.Seq, nil
}

// ReadAll returns a copy of all stored events in order.
func (l *MemLog) ReadAll(_ context.Context) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out, nil
}

// MemAudit is an in-memory AuditSink.
type MemAudit struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
}

// NewMemAudit creates an empty in-memory audit trail.
func NewMemAudit() *MemAudit {
	return &MemAudit{}
}

// Append stores the entry, assigning the next id.
func (a *MemAudit) Append(_ context.Context, entry model.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry.ID = int64(len(a.entries)) + 1
	a.entries = append(a.entries, entry)
	return nil
}

// List returns a copy of all entries in insertion order.
func (a *MemAudit) List(_ context.Context) ([]model.AuditEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out, nil
}
