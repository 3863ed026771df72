package model

import "time"

// AuditEntry is a human-readable record of a state-changing operation.
// Entries are append-only and never edited.
type AuditEntry struct {
	ID      int64     `json:"id"`
	ActorID int64     `json:"actor_id"`
	Action  string    `json:"action"`
	Detail  string    `json:"detail"`
	At      time.Time `json:"at"`
}

// Audit actions.
const (
	ActionItemCreate = "item.create"
	ActionItemEdit   = "item.edit"
	ActionItemDelete = "item.delete"
	ActionIssue      = "issuance.create"
	ActionReturn     = "issuance.return"
	ActionAdjust     = "count.adjust"
)
