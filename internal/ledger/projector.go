package ledger

import (
	"fmt"

	"github.com/erazemk/evidenca/internal/model"
)

// projector folds events into current item and issuance state. It is a pure
// function of event history: replaying the same events from empty state
// always yields identical results.
type projector struct {
	items         map[int64]*model.Item
	itemOrder     []int64
	issuances     map[int64]*model.Issuance
	issuanceOrder []int64

	nextItemID     int64
	nextIssuanceID int64
	lastSeq        int64
}

func newProjector() *projector {
	return &projector{
		items:          make(map[int64]*model.Item),
		issuances:      make(map[int64]*model.Issuance),
		nextItemID:     1,
		nextIssuanceID: 1,
	}
}

// apply folds a single event into projected state. Events that cannot apply
// leave state untouched and return a typed error.
func (p *projector) apply(e Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("event %d: %w", e.Seq, err)
	}

	var err error
	switch e.Kind {
	case KindCreate:
		err = p.applyCreate(e)
	case KindEdit:
		err = p.applyEdit(e)
	case KindDelete:
		err = p.applyDelete(e)
	case KindIssue:
		err = p.applyIssue(e)
	case KindReturn:
		err = p.applyReturn(e)
	case KindAdjust:
		err = p.applyAdjust(e)
	default:
		err = fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if err != nil {
		return err
	}

	p.lastSeq = e.Seq
	return nil
}

func (p *projector) applyCreate(e Event) error {
	c := e.Create
	if _, ok := p.items[c.ItemID]; ok {
		return ErrDuplicateItem
	}
	if c.Count < 0 {
		return &ValidationError{Field: "count", Reason: "must be non-negative"}
	}

	p.items[c.ItemID] = &model.Item{
		ID:          c.ItemID,
		Name:        c.Name,
		Category:    c.Category,
		Subcategory: c.Subcategory,
		Count:       c.Count,
		CreatedAt:   e.At,
		UpdatedAt:   e.At,
	}
	p.itemOrder = append(p.itemOrder, c.ItemID)
	if c.ItemID >= p.nextItemID {
		p.nextItemID = c.ItemID + 1
	}
	return nil
}

func (p *projector) applyEdit(e Event) error {
	item := p.activeItem(e.Edit.ItemID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Name = e.Edit.Name
	item.Category = e.Edit.Category
	item.Subcategory = e.Edit.Subcategory
	item.UpdatedAt = e.At
	return nil
}

func (p *projector) applyDelete(e Event) error {
	item := p.activeItem(e.Delete.ItemID)
	if item == nil {
		return ErrItemNotFound
	}
	at := e.At
	item.DeletedAt = &at
	return nil
}

func (p *projector) applyIssue(e Event) error {
	is := e.Issue
	if _, ok := p.issuances[is.IssuanceID]; ok {
		return ErrDuplicateIssuance
	}
	item := p.activeItem(is.ItemID)
	if item == nil {
		return ErrItemNotFound
	}
	if is.Quantity > item.Count {
		return &InsufficientStockError{
			ItemID:    is.ItemID,
			Available: item.Count,
			Requested: is.Quantity,
		}
	}

	item.Count -= is.Quantity
	item.UpdatedAt = e.At

	p.issuances[is.IssuanceID] = &model.Issuance{
		ID:             is.IssuanceID,
		ItemID:         is.ItemID,
		IssuerID:       is.IssuerID,
		AuthorizedByID: is.AuthorizedByID,
		Quantity:       is.Quantity,
		Status:         is.Status,
		IssueDate:      is.IssueDate,
		ReturnDate:     is.ReturnDate,
		Department:     is.Department,
		ItemName:       item.Name,
	}
	p.issuanceOrder = append(p.issuanceOrder, is.IssuanceID)
	if is.IssuanceID >= p.nextIssuanceID {
		p.nextIssuanceID = is.IssuanceID + 1
	}
	return nil
}

func (p *projector) applyReturn(e Event) error {
	rec, ok := p.issuances[e.Return.IssuanceID]
	if !ok {
		return ErrIssuanceNotFound
	}
	if !rec.Open() {
		return ErrAlreadyReturned
	}

	returned := e.Return.ReturnedDate
	rec.ReturnedDate = &returned

	// The item always exists for a recorded issuance; it may be tombstoned,
	// in which case the returned units still count towards its history.
	if item, ok := p.items[rec.ItemID]; ok {
		item.Count += rec.Quantity
		item.UpdatedAt = e.At
	}
	return nil
}

func (p *projector) applyAdjust(e Event) error {
	a := e.Adjust
	item := p.activeItem(a.ItemID)
	if item == nil {
		return ErrItemNotFound
	}
	if a.NewCount < 0 {
		return &ValidationError{Field: "new_count", Reason: "must be non-negative"}
	}
	item.Count = a.NewCount
	item.UpdatedAt = e.At
	return nil
}

// activeItem returns the item if it exists and is not tombstoned.
func (p *projector) activeItem(id int64) *model.Item {
	item, ok := p.items[id]
	if !ok || item.Deleted() {
		return nil
	}
	return item
}
