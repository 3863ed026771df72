package ledger

import (
	"fmt"
	"time"
)

// Kind discriminates event variants.
type Kind string

// Event kinds.
const (
	KindCreate Kind = "create"
	KindEdit   Kind = "edit"
	KindDelete Kind = "delete"
	KindIssue  Kind = "issue"
	KindReturn Kind = "return"
	KindAdjust Kind = "adjust"
)

// Event is an immutable fact in the inventory history. Exactly one payload
// field matching Kind is set. The sequence number is assigned by the log on
// append and is strictly increasing.
type Event struct {
	Seq     int64     `json:"seq"`
	Kind    Kind      `json:"kind"`
	ActorID int64     `json:"actor_id"`
	At      time.Time `json:"at"`

	Create *CreatePayload `json:"create,omitempty"`
	Edit   *EditPayload   `json:"edit,omitempty"`
	Delete *DeletePayload `json:"delete,omitempty"`
	Issue  *IssuePayload  `json:"issue,omitempty"`
	Return *ReturnPayload `json:"return,omitempty"`
	Adjust *AdjustPayload `json:"adjust,omitempty"`
}

// CreatePayload records a new item. The item id is assigned from the item
// sequence before the event is appended, so replay reproduces it exactly.
type CreatePayload struct {
	ItemID      int64  `json:"item_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Count       int    `json:"count"`
}

// EditPayload replaces an item's mutable fields. Count is never edited here;
// only issue, return, and adjust events change counts.
type EditPayload struct {
	ItemID      int64  `json:"item_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

// DeletePayload tombstones an item.
type DeletePayload struct {
	ItemID int64 `json:"item_id"`
}

// IssuePayload records equipment handed out. ReturnDate is the expected
// return date, required for temporary issuances.
type IssuePayload struct {
	IssuanceID     int64      `json:"issuance_id"`
	ItemID         int64      `json:"item_id"`
	IssuerID       int64      `json:"issuer_id"`
	AuthorizedByID int64      `json:"authorized_by_id"`
	Quantity       int        `json:"quantity"`
	Status         string     `json:"status"`
	IssueDate      time.Time  `json:"issue_date"`
	ReturnDate     *time.Time `json:"return_date,omitempty"`
	Department     string     `json:"recipient_department"`
}

// ReturnPayload closes an open issuance.
type ReturnPayload struct {
	IssuanceID   int64     `json:"issuance_id"`
	ReturnedDate time.Time `json:"returned_date"`
}

// AdjustPayload forces an item's count to an observed value. The reason is
// mandatory; matching counts are accepted without an event.
type AdjustPayload struct {
	ItemID   int64  `json:"item_id"`
	NewCount int    `json:"new_count"`
	Expected int    `json:"expected"`
	Reason   string `json:"reason"`
}

// Validate checks that the event carries exactly the payload its kind
// requires.
func (e *Event) Validate() error {
	set := 0
	for _, present := range []bool{
		e.Create != nil, e.Edit != nil, e.Delete != nil,
		e.Issue != nil, e.Return != nil, e.Adjust != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("event has %d payloads, want exactly 1", set)
	}

	var ok bool
	switch e.Kind {
	case KindCreate:
		ok = e.Create != nil
	case KindEdit:
		ok = e.Edit != nil
	case KindDelete:
		ok = e.Delete != nil
	case KindIssue:
		ok = e.Issue != nil
	case KindReturn:
		ok = e.Return != nil
	case KindAdjust:
		ok = e.Adjust != nil
	}
	if !ok {
		return fmt.Errorf("event kind %q has no matching payload", e.Kind)
	}
	return nil
}
