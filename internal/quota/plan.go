package quota

import "strings"

// Known plan tiers.
const (
	TierFree = "free"
	TierPlus = "plus"
	TierPro  = "pro"
)

// PlanTable maps a plan tier to its monthly turn ceiling. The table is
// loaded once from configuration and never mutated afterwards.
type PlanTable struct {
	ceilings map[string]int
	fallback int
}

// NewPlanTable builds the single authoritative quota table.
func NewPlanTable(free, plus, pro int) PlanTable {
	return PlanTable{
		ceilings: map[string]int{
			TierFree: free,
			TierPlus: plus,
			TierPro:  pro,
		},
		fallback: free,
	}
}

// Ceiling returns the monthly turn ceiling for a tier. Unknown tiers get the
// free ceiling rather than an unlimited one.
func (p PlanTable) Ceiling(tier string) int {
	if c, ok := p.ceilings[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return c
	}
	return p.fallback
}
