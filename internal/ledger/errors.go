package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for absent or conflicting entities.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrIssuanceNotFound  = errors.New("issuance not found")
	ErrDuplicateItem     = errors.New("item already exists")
	ErrDuplicateIssuance = errors.New("issuance already exists")
	ErrAlreadyReturned   = errors.New("issuance already returned")
)

// InsufficientStockError reports an issuance exceeding the available count.
type InsufficientStockError struct {
	ItemID    int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: have %d, need %d",
		e.ItemID, e.Available, e.Requested)
}

// ValidationError reports invalid input rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
