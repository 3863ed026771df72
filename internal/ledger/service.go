// Package ledger implements the inventory event log, its projection into
// current per-item state, count reconciliation, and derived analytics.
//
// The event log is the source of truth. Every mutating operation appends
// exactly one event, folds it into projected state, and emits one audit
// entry. Operations touching the same item are serialized with a per-item
// lock so that no two of them act on a stale count; operations on different
// items proceed in parallel.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/evidenca/internal/model"
)

// Service exposes the inventory operations to the transport layer.
type Service struct {
	log   Log
	audit AuditSink
	now   func() time.Time

	mu     sync.RWMutex // guards proj and events
	proj   *projector
	events []Event

	lockMu    sync.Mutex
	itemLocks map[int64]*sync.Mutex

	createMu sync.Mutex // serializes item creation (name check + id draw)
}

// New creates a Service over an empty event log.
func New(log Log, audit AuditSink) *Service {
	return &Service{
		log:       log,
		audit:     audit,
		now:       time.Now,
		proj:      newProjector(),
		itemLocks: make(map[int64]*sync.Mutex),
	}
}

// Load creates a Service by replaying every event already in the log.
func Load(ctx context.Context, log Log, audit AuditSink) (*Service, error) {
	s := New(log, audit)

	events, err := log.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	for _, e := range events {
		if err := s.proj.apply(e); err != nil {
			return nil, fmt.Errorf("replaying event %d: %w", e.Seq, err)
		}
	}
	s.events = events
	return s, nil
}

// ItemFields are the caller-supplied fields of an item. Count is only used
// on creation; afterwards counts change exclusively through issue, return,
// and adjustment events.
type ItemFields struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Count       int    `json:"count"`
}

// CreateItem records a new item and returns its projected state.
func (s *Service) CreateItem(ctx context.Context, actorID int64, fields ItemFields) (*model.Item, error) {
	if fields.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if fields.Category == "" {
		return nil, &ValidationError{Field: "category", Reason: "required"}
	}
	if fields.Count < 0 {
		return nil, &ValidationError{Field: "count", Reason: "must be non-negative"}
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	s.mu.RLock()
	for _, id := range s.proj.itemOrder {
		if item := s.proj.activeItem(id); item != nil && item.Name == fields.Name {
			s.mu.RUnlock()
			return nil, ErrDuplicateItem
		}
	}
	itemID := s.proj.nextItemID
	s.mu.RUnlock()

	e, err := s.commit(ctx, Event{
		Kind:    KindCreate,
		ActorID: actorID,
		At:      s.now(),
		Create: &CreatePayload{
			ItemID:      itemID,
			Name:        fields.Name,
			Category:    fields.Category,
			Subcategory: fields.Subcategory,
			Count:       fields.Count,
		},
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, model.ActionItemCreate, e.At,
		"created item %q (id %d) in category %q with count %d",
		fields.Name, itemID, fields.Category, fields.Count)
	return s.GetItem(itemID)
}

// EditItem replaces an item's mutable fields. The count is untouched.
func (s *Service) EditItem(ctx context.Context, actorID, itemID int64, fields ItemFields) (*model.Item, error) {
	if fields.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if fields.Category == "" {
		return nil, &ValidationError{Field: "category", Reason: "required"}
	}

	lock := s.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	prev, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	e, err := s.commit(ctx, Event{
		Kind:    KindEdit,
		ActorID: actorID,
		At:      s.now(),
		Edit: &EditPayload{
			ItemID:      itemID,
			Name:        fields.Name,
			Category:    fields.Category,
			Subcategory: fields.Subcategory,
		},
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, model.ActionItemEdit, e.At,
		"edited item %q (id %d)", prev.Name, itemID)
	return s.GetItem(itemID)
}

// DeleteItem tombstones an item. Its history stays available for audits and
// analytics.
func (s *Service) DeleteItem(ctx context.Context, actorID, itemID int64) error {
	lock := s.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := s.GetItem(itemID)
	if err != nil {
		return err
	}

	e, err := s.commit(ctx, Event{
		Kind:    KindDelete,
		ActorID: actorID,
		At:      s.now(),
		Delete:  &DeletePayload{ItemID: itemID},
	})
	if err != nil {
		return err
	}

	s.record(ctx, actorID, model.ActionItemDelete, e.At,
		"removed item %q (id %d)", item.Name, itemID)
	return nil
}

// IssueRequest carries the fields of a new issuance.
type IssueRequest struct {
	ItemID         int64      `json:"item_id"`
	IssuerID       int64      `json:"issuer_id"`
	AuthorizedByID int64      `json:"authorized_by_id"`
	Quantity       int        `json:"quantity"`
	Status         string     `json:"status"`
	IssueDate      time.Time  `json:"issue_date"`
	ReturnDate     *time.Time `json:"return_date,omitempty"`
	Department     string     `json:"recipient_department"`
}

// Issue hands out equipment, decrementing the item's count and opening a new
// issuance record. The operation is rejected whole; there are no partial
// issuances.
func (s *Service) Issue(ctx context.Context, actorID int64, req IssueRequest) (*model.Issuance, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	switch req.Status {
	case model.IssuanceStatusPermanent, model.IssuanceStatusTemporary:
	default:
		return nil, &ValidationError{Field: "status", Reason: "must be permanent or temporary"}
	}
	if req.Status == model.IssuanceStatusTemporary && req.ReturnDate == nil {
		return nil, &ValidationError{Field: "return_date", Reason: "required for temporary issuances"}
	}
	if req.IssueDate.IsZero() {
		req.IssueDate = s.now()
	}

	lock := s.lockFor(req.ItemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := s.GetItem(req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > item.Count {
		return nil, &InsufficientStockError{
			ItemID:    req.ItemID,
			Available: item.Count,
			Requested: req.Quantity,
		}
	}

	e, err := s.commit(ctx, Event{
		Kind:    KindIssue,
		ActorID: actorID,
		At:      s.now(),
		Issue: &IssuePayload{
			ItemID:         req.ItemID,
			IssuerID:       req.IssuerID,
			AuthorizedByID: req.AuthorizedByID,
			Quantity:       req.Quantity,
			Status:         req.Status,
			IssueDate:      req.IssueDate,
			ReturnDate:     req.ReturnDate,
			Department:     req.Department,
		},
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, model.ActionIssue, e.At,
		"issued %d x %q (item %d) to person %d, authorized by %d (%s)",
		req.Quantity, item.Name, req.ItemID, req.IssuerID, req.AuthorizedByID, req.Status)
	return s.GetIssuance(e.Issue.IssuanceID)
}

// Return closes an open issuance and restores the item's count. Returns are
// final: a closed issuance can never reopen, and returning it again fails.
func (s *Service) Return(ctx context.Context, actorID, issuanceID int64, returnedDate time.Time) (*model.Issuance, error) {
	rec, err := s.GetIssuance(issuanceID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(rec.ItemID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the item lock: a concurrent return may have closed it.
	rec, err = s.GetIssuance(issuanceID)
	if err != nil {
		return nil, err
	}
	if !rec.Open() {
		return nil, ErrAlreadyReturned
	}
	if returnedDate.IsZero() {
		returnedDate = s.now()
	}
	if returnedDate.Before(rec.IssueDate) {
		return nil, &ValidationError{Field: "returned_date", Reason: "before issue date"}
	}

	e, err := s.commit(ctx, Event{
		Kind:    KindReturn,
		ActorID: actorID,
		At:      s.now(),
		Return: &ReturnPayload{
			IssuanceID:   issuanceID,
			ReturnedDate: returnedDate,
		},
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, model.ActionReturn, e.At,
		"returned %d x %q (issuance %d)", rec.Quantity, rec.ItemName, issuanceID)
	return s.GetIssuance(issuanceID)
}

// commit appends the event to the log, folds it into projected state, and
// caches it. Callers validate everything beforehand; a fold failure here
// means the log and projection diverged and is surfaced as an error.
func (s *Service) commit(ctx context.Context, e Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The issuance id is drawn under the same lock that folds the event, so
	// concurrent issues on different items never share an id.
	if e.Kind == KindIssue {
		e.Issue.IssuanceID = s.proj.nextIssuanceID
	}

	seq, err := s.log.Append(ctx, e)
	if err != nil {
		return Event{}, fmt.Errorf("appending event: %w", err)
	}
	e.Seq = seq

	if err := s.proj.apply(e); err != nil {
		return Event{}, fmt.Errorf("projecting event %d: %w", seq, err)
	}
	s.events = append(s.events, e)
	return e, nil
}

// record emits an audit entry for a committed operation. Audit failures are
// logged rather than failing the already-committed operation.
func (s *Service) record(ctx context.Context, actorID int64, action string, at time.Time, format string, args ...any) {
	entry := model.AuditEntry{
		ActorID: actorID,
		Action:  action,
		Detail:  fmt.Sprintf(format, args...),
		At:      at,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		slog.Error("appending audit entry", "action", action, "error", err)
	}
}

// lockFor returns the mutex serializing mutations of one item.
func (s *Service) lockFor(itemID int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.itemLocks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		s.itemLocks[itemID] = lock
	}
	return lock
}
