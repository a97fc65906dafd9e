package gemini

import (
	"strings"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// Validator checks extracted category names against a tracker's taxonomy.
type Validator struct {
	categories map[string]bool // set of valid category names, normalized
}

// NewValidator builds a validator from the tracker's active categories.
func NewValidator(taxonomy []domain.Category) *Validator {
	v := &Validator{
		categories: make(map[string]bool),
	}
	for _, c := range taxonomy {
		v.categories[normalizeCategory(c.Name)] = true
	}
	return v
}

// UnknownCategories returns the category names in the batch that are not part
// of the taxonomy, deduplicated, in draft order.
func (v *Validator) UnknownCategories(drafts []domain.DraftTransaction) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, d := range drafts {
		norm := normalizeCategory(d.CategoryName)
		if v.categories[norm] || seen[norm] {
			continue
		}
		seen[norm] = true
		missing = append(missing, strings.TrimSpace(d.CategoryName))
	}
	return missing
}

// normalizeCategory normalizes a category name for comparison.
// Converts to uppercase and trims whitespace for case-insensitive comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
