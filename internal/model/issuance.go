package model

import "time"

// Issuance represents equipment handed out to someone, either permanently or
// temporarily with an expected return date. Created by an issue event, closed
// by a return event, never deleted.
type Issuance struct {
	ID             int64      `json:"id"`
	ItemID         int64      `json:"item_id"`
	IssuerID       int64      `json:"issuer_id"`
	AuthorizedByID int64      `json:"authorized_by_id"`
	Quantity       int        `json:"quantity"`
	Status         string     `json:"status"`
	IssueDate      time.Time  `json:"issue_date"`
	ReturnDate     *time.Time `json:"return_date,omitempty"`
	ReturnedDate   *time.Time `json:"returned_date,omitempty"`
	Department     string     `json:"recipient_department"`

	// Joined field (not always populated).
	ItemName string `json:"item_name,omitempty"`
}

// Issuance statuses.
const (
	IssuanceStatusPermanent = "permanent"
	IssuanceStatusTemporary = "temporary"
)

// Open reports whether the issuance has not been returned yet.
func (is *Issuance) Open() bool {
	return is.ReturnedDate == nil
}

// OverdueDays returns how many whole days the issuance is past its expected
// return date at the given time. The second result is false unless the
// issuance is temporary, still open, and past due.
func (is *Issuance) OverdueDays(now time.Time) (int, bool) {
	if is.Status != IssuanceStatusTemporary || !is.Open() || is.ReturnDate == nil {
		return 0, false
	}
	if !now.After(*is.ReturnDate) {
		return 0, false
	}
	return int(now.Sub(*is.ReturnDate).Hours() / 24), true
}
