package catalog

import (
	"github.com/mjardine/gemsync/internal/models"
	"github.com/mjardine/gemsync/internal/normalize"
)

// rowValue returns the canonical value of an attribute key for one row,
// or "" when the row carries no value for it.
func rowValue(key models.AttributeKey, row *models.SKURow) string {
	switch key {
	case models.AttrCaratWeight:
		if row.CaratWeight <= 0 {
			return ""
		}
		return normalize.CaratWeight(row.CaratWeight, row.MaterialCode)
	case models.AttrMetalType:
		if row.MetalStamp == "" && row.MetalColor == "" && row.MetalCode == "" {
			return ""
		}
		return normalize.MetalType(row.MetalStamp, row.MetalColor, row.MetalCode)
	case models.AttrRingSize:
		if row.RingSize <= 0 {
			return ""
		}
		return normalize.RingSize(row.RingSize)
	case models.AttrStoneLength:
		if row.LengthMM <= 0 {
			return ""
		}
		return normalize.MMDimension(row.LengthMM)
	case models.AttrStoneWidth:
		if row.WidthMM <= 0 {
			return ""
		}
		return normalize.MMDimension(row.WidthMM)
	case models.AttrStoneShape:
		if row.ShapeCode == "" {
			return ""
		}
		return normalize.Shape(row.ShapeCode)
	case models.AttrPlatingType:
		if row.PlatingCode == "" {
			return ""
		}
		return normalize.TitleCase(row.PlatingCode)
	}
	return ""
}

// Classify computes, for every attribute key eligible in the group's
// category, whether its canonical value is constant (one distinct
// value) or variant (two or more) across the group. Keys with zero
// non-empty values are absent from the result entirely. The result is
// a pure function of the group's attribute values: it does not depend
// on row order, and reclassifying the same group yields an identical
// map.
func Classify(g *models.Group) map[models.AttributeKey]models.ClassifiedAttribute {
	rules := RulesFor(g.Category())
	out := make(map[models.AttributeKey]models.ClassifiedAttribute, len(rules.Priority))

	for _, key := range rules.Priority {
		seen := make(map[string]bool)
		var values []string
		for _, row := range g.Rows {
			v := rowValue(key, row)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}

		normalize.SortValues(key, values)

		kind := models.KindConstant
		if len(values) > 1 {
			kind = models.KindVariant
		}
		out[key] = models.ClassifiedAttribute{Key: key, Kind: kind, Values: values}
	}

	return out
}
