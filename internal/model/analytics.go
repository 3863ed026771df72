package model

// ItemFrequency is the number of issuances recorded for an item.
type ItemFrequency struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Issuances int    `json:"issuances"`
}

// HoldDuration is the average time temporary issuances of an item were held
// before being returned. Days are floored per returned issuance, then the
// mean over all samples is rounded to the nearest whole day.
type HoldDuration struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	AvgDays  int    `json:"avg_days"`
	Samples  int    `json:"samples"`
}

// DiscrepancyCount is the number of forced count adjustments for an item,
// optionally limited to a trailing time window.
type DiscrepancyCount struct {
	ItemID      int64  `json:"item_id"`
	ItemName    string `json:"item_name"`
	Adjustments int    `json:"adjustments"`
}

// OverdueIssuance is an open temporary issuance past its expected return date.
type OverdueIssuance struct {
	Issuance
	DaysOverdue int `json:"days_overdue"`
}

// Analytics bundles the derived read-only views over the event history.
type Analytics struct {
	Frequency     []ItemFrequency    `json:"frequency"`
	HoldDurations []HoldDuration     `json:"hold_durations"`
	Discrepancies []DiscrepancyCount `json:"discrepancies"`
	Overdue       []OverdueIssuance  `json:"overdue"`
}
