// Package models defines the domain types shared across gemsync:
// warranty database rows, attribute classification, catalog entities,
// fingerprints, and run results.
package models

// SKURow is one SKU-level record from the warranty database.
// Rows are read-only after fetch; the sync pipeline never mutates them.
type SKURow struct {
	SKU          string
	GroupID      string
	Category     string // item category code (RING, EARRING, ...)
	SubgroupCode string // product subgroup / setting style
	MetalStamp   string // e.g. "14K", "PT950"
	MetalColor   string // e.g. "WHITE", "ROSE"
	MetalCode    string // metal family code (14K, SILVER, PLAT, ...)
	MaterialCode string // primary gem material (LGD, MOISSANITE, ...)
	ShapeCode    string // primary gem shape
	ClarityCode  string
	CaratWeight  float64 // total stone weight in carats, 0 when absent
	RingSize     float64 // 0 when absent
	LengthMM     float64 // primary gem length/diameter, 0 when absent
	WidthMM      float64 // primary gem width, 0 when absent
	PlatingCode  string
	StoneColor   string
	ImageSKU     string

	// Catalog-level descriptors carried through to metafields.
	MainSettingType string
	Collection      string
	JewelryBrand    string
	GemstoneBrand   string
	StyleID         string
	WebDescriptor   string
	IsBestSeller    *bool
	IsHighROAS      *bool
	IsPinterest     *bool

	// Primary stone component data (first BOM stone row by rank).
	StoneCount int

	// Variant passthrough fields.
	Price string
}

// Group is the unit of synchronization: all SKU rows sharing one
// logical catalog identifier. A Group is never empty and all rows
// share the same category.
type Group struct {
	ID   string
	Rows []*SKURow
}

// Category returns the item category shared by all rows in the group.
func (g *Group) Category() string {
	if len(g.Rows) == 0 {
		return ""
	}
	return g.Rows[0].Category
}
