// Package catalog turns a group of warranty SKU rows into a catalog
// entity: it classifies attributes as constant or variant, builds the
// ordered option schema and variant tuples, derives the title and
// handle, and validates the result before dispatch.
package catalog

import (
	"strings"

	"github.com/mjardine/gemsync/internal/models"
)

// CategoryRules holds the per-category attribute configuration. The
// priority order is a business rule (not alphabetical) and determines
// both which keys are eligible and how option dimensions are ordered.
type CategoryRules struct {
	Category string
	Priority []models.AttributeKey
}

var defaultPriority = []models.AttributeKey{
	models.AttrCaratWeight,
	models.AttrMetalType,
	models.AttrStoneShape,
}

// categoryRules is keyed by item category code. Plating is eligible for
// necklaces and bracelets and resolves to constant or variant purely by
// distinct-value count, like every other key.
var categoryRules = map[string][]models.AttributeKey{
	"RING": {
		models.AttrCaratWeight,
		models.AttrMetalType,
		models.AttrRingSize,
	},
	"EARRING": {
		models.AttrCaratWeight,
		models.AttrMetalType,
		models.AttrStoneLength,
	},
	"NECKLACE": {
		models.AttrCaratWeight,
		models.AttrMetalType,
		models.AttrPlatingType,
	},
	"BRACELET": {
		models.AttrCaratWeight,
		models.AttrMetalType,
		models.AttrPlatingType,
	},
	"GEMSTONE": {
		models.AttrCaratWeight,
		models.AttrStoneLength,
		models.AttrStoneWidth,
	},
}

// RulesFor returns the attribute rules for a category code, falling
// back to the default dimension set for unknown categories.
func RulesFor(category string) CategoryRules {
	key := strings.ToUpper(category)
	if p, ok := categoryRules[key]; ok {
		return CategoryRules{Category: key, Priority: p}
	}
	return CategoryRules{Category: key, Priority: defaultPriority}
}
