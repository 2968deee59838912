package catalog

import "github.com/shopspring/decimal"

// Category as served by the upstream catalog API. Categories form a forest:
// root categories have a nil ParentID.
type Category struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Icon          string     `json:"icon"`
	Color         string     `json:"color"`
	ParentID      *string    `json:"parentId"`
	SortOrder     int        `json:"sortOrder"`
	SubCategories []Category `json:"subCategories,omitempty"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Images        []string        `json:"images"`
	CategoryID    string          `json:"categoryId"`
	SubcategoryID string          `json:"subcategoryId,omitempty"`
	Organic       bool            `json:"isOrganic"`
	Rating        float64         `json:"rating"`
	Stock         int             `json:"stock"`

	// Category is joined in at load time from the category list fetched in the
	// same Load call. Nil when the upstream references an unknown category id.
	Category *Category `json:"category,omitempty"`
}

// Image returns the display image, first of Images by convention.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
