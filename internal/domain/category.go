package domain

// Category is one entry of a tracker's taxonomy. A row with an empty
// SubcategoryName represents the parent category itself.
type Category struct {
	Name            string `json:"name"`
	SubcategoryName string `json:"subcategory_name,omitempty"`
	IsActive        bool   `json:"is_active"`
}
