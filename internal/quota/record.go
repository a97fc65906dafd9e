package quota

import "time"

// Record is the persisted usage state for one device. There is exactly one
// record per device; switching user or rolling into a new billing month
// replaces it wholesale rather than merging.
type Record struct {
	// OwnerUserID is the user the counts belong to.
	OwnerUserID string `json:"owner_user_id"`

	// PeriodKey identifies the calendar-month billing window, e.g. "2025-06".
	PeriodKey string `json:"period_key"`

	// TotalTurns counts every conversational turn in the period.
	TotalTurns int `json:"total_turns"`

	// PerTrackerTurns counts tracker-attributed turns. Globally-scoped turns
	// exist, so these entries need not sum to TotalTurns.
	PerTrackerTurns map[string]int `json:"per_tracker_turns"`
}

// PeriodKeyFor returns the billing-period token for a point in time.
func PeriodKeyFor(now time.Time) string {
	return now.Format("2006-01")
}

// newRecord returns a zeroed record for the given owner and period.
func newRecord(ownerUserID, periodKey string) *Record {
	return &Record{
		OwnerUserID:     ownerUserID,
		PeriodKey:       periodKey,
		PerTrackerTurns: make(map[string]int),
	}
}

// stale reports whether the record belongs to a different user or billing
// period and must be replaced before use.
func (r *Record) stale(ownerUserID, periodKey string) bool {
	return r.OwnerUserID != ownerUserID || r.PeriodKey != periodKey
}
