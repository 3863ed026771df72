package model

import "time"

// Item represents a tracked equipment type (quantity-based, not per-unit).
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory,omitempty"`
	Count       int        `json:"count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the item has been tombstoned. Tombstoned items are
// excluded from default listings but kept for historical joins.
func (i *Item) Deleted() bool {
	return i.DeletedAt != nil
}
