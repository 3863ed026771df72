package ledger

import (
	"context"
	"time"

	"github.com/erazemk/evidenca/internal/model"
)

// GetItem returns the projected state of an item. Tombstoned items report
// not found, same as absent ones.
func (s *Service) GetItem(itemID int64) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item := s.proj.activeItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	out := *item
	return &out, nil
}

// ListItems returns all non-tombstoned items in creation order.
func (s *Service) ListItems() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.Item
	for _, id := range s.proj.itemOrder {
		if item := s.proj.activeItem(id); item != nil {
			items = append(items, *item)
		}
	}
	return items
}

// GetIssuance returns an issuance record by id.
func (s *Service) GetIssuance(issuanceID int64) (*model.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.proj.issuances[issuanceID]
	if !ok {
		return nil, ErrIssuanceNotFound
	}
	out := *rec
	return &out, nil
}

// IssuanceFilter narrows ListIssuances. Zero values mean no filtering.
type IssuanceFilter struct {
	ItemID         int64
	IssuerID       int64
	AuthorizedByID int64
	Department     string
	Status         string
	From           time.Time // inclusive, on issue date
	To             time.Time // inclusive, on issue date
}

// ListIssuances returns issuance records matching the filter, newest first.
func (s *Service) ListIssuances(f IssuanceFilter) []model.Issuance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Issuance
	for i := len(s.proj.issuanceOrder) - 1; i >= 0; i-- {
		rec := s.proj.issuances[s.proj.issuanceOrder[i]]
		if f.ItemID != 0 && rec.ItemID != f.ItemID {
			continue
		}
		if f.IssuerID != 0 && rec.IssuerID != f.IssuerID {
			continue
		}
		if f.AuthorizedByID != 0 && rec.AuthorizedByID != f.AuthorizedByID {
			continue
		}
		if f.Department != "" && rec.Department != f.Department {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && rec.IssueDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rec.IssueDate.After(f.To) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// Audits returns the full audit trail in insertion order.
func (s *Service) Audits(ctx context.Context) ([]model.AuditEntry, error) {
	return s.audit.List(ctx)
}

// LastSeq returns the sequence number of the newest applied event.
func (s *Service) LastSeq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proj.lastSeq
}
