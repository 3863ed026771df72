package ledger

import (
	"context"
	"time"

	"github.com/erazemk/evidenca/internal/model"
)

// Reconcile outcomes.
const (
	ReconcileAccepted    = "accepted"
	ReconcileDiscrepancy = "discrepancy"
	ReconcileAdjusted    = "adjusted"
)

// ReconcileResult is the outcome of comparing a physically observed count
// against the projected one. A discrepancy is not a failure: the caller is
// expected to resubmit with a corrected count or with a reason.
type ReconcileResult struct {
	Outcome  string `json:"outcome"`
	Expected int    `json:"expected"`
	Observed int    `json:"observed"`
}

// Reconcile compares an observed physical count against the projected count.
//
// Matching counts are accepted silently: no event is appended and the item's
// last-updated time does not move. A mismatch without a reason round-trips
// back to the caller as a discrepancy, leaving state untouched. A mismatch
// with a reason forces an adjustment event that sets the count to the
// observed value, so every unexplained count change keeps a recorded cause.
func (s *Service) Reconcile(ctx context.Context, actorID, itemID int64, observed int, reason string) (*ReconcileResult, error) {
	if observed < 0 {
		return nil, &ValidationError{Field: "observed_count", Reason: "must be non-negative"}
	}

	lock := s.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	expected := item.Count

	if observed == expected {
		return &ReconcileResult{Outcome: ReconcileAccepted, Expected: expected, Observed: observed}, nil
	}

	if reason == "" {
		return &ReconcileResult{Outcome: ReconcileDiscrepancy, Expected: expected, Observed: observed}, nil
	}

	e, err := s.commit(ctx, Event{
		Kind:    KindAdjust,
		ActorID: actorID,
		At:      s.now(),
		Adjust: &AdjustPayload{
			ItemID:   itemID,
			NewCount: observed,
			Expected: expected,
			Reason:   reason,
		},
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, model.ActionAdjust, e.At,
		"adjusted count for item %q (id %d) from %d to %d: %s",
		item.Name, itemID, expected, observed, reason)
	return &ReconcileResult{Outcome: ReconcileAdjusted, Expected: expected, Observed: observed}, nil
}

// Activity is one issue or return event touching an item, for review when a
// count does not match.
type Activity struct {
	Seq        int64     `json:"seq"`
	Kind       Kind      `json:"kind"`
	ActorID    int64     `json:"actor_id"`
	At         time.Time `json:"at"`
	IssuanceID int64     `json:"issuance_id"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status,omitempty"`
}

// RecentActivity returns the newest issue and return events for an item, at
// most limit entries. It has no side effects.
func (s *Service) RecentActivity(itemID int64, limit int) []Activity {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Activity
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.events[i]
		switch e.Kind {
		case KindIssue:
			if e.Issue.ItemID != itemID {
				continue
			}
			out = append(out, Activity{
				Seq:        e.Seq,
				Kind:       e.Kind,
				ActorID:    e.ActorID,
				At:         e.At,
				IssuanceID: e.Issue.IssuanceID,
				Quantity:   e.Issue.Quantity,
				Status:     e.Issue.Status,
			})
		case KindReturn:
			rec, ok := s.proj.issuances[e.Return.IssuanceID]
			if !ok || rec.ItemID != itemID {
				continue
			}
			out = append(out, Activity{
				Seq:        e.Seq,
				Kind:       e.Kind,
				ActorID:    e.ActorID,
				At:         e.At,
				IssuanceID: e.Return.IssuanceID,
				Quantity:   rec.Quantity,
			})
		}
	}
	return out
}
