package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mjardine/gemsync/internal/models"
	"github.com/mjardine/gemsync/internal/normalize"
)

const (
	// MaxHandleLength is the platform's handle length ceiling.
	MaxHandleLength = 255

	metafieldNamespace        = "custom.product_attributes"
	variantMetafieldNamespace = "custom.variant_attributes"

	defaultVendor = "Charles Colvard"
	defaultStatus = "ACTIVE"
	defaultPrice  = "0.00"
)

// Build constructs the full catalog entity for a group from its
// classified attributes. The title and handle are derived only from
// constant attributes; variant attributes become the ordered option
// schema and per-SKU option tuples. Build never contacts anything
// remote and never fails; structural problems are caught by Validate.
func Build(g *models.Group, classified map[models.AttributeKey]models.ClassifiedAttribute) *models.CatalogEntity {
	rules := RulesFor(g.Category())
	rep := g.Rows[0]

	title := buildTitle(rep, classified)
	entity := &models.CatalogEntity{
		GroupID:     g.ID,
		Title:       title,
		Handle:      BuildHandle(title, g.ID),
		ProductType: normalize.ProductType(rep.Category),
		Vendor:      defaultVendor,
		Status:      defaultStatus,
		Description: buildDescription(rep, classified),
		Metafields:  buildMetafields(rep, classified),
	}

	// Option dimensions in category priority order.
	var variantKeys []models.AttributeKey
	for _, key := range rules.Priority {
		attr, ok := classified[key]
		if !ok || attr.Kind != models.KindVariant {
			continue
		}
		variantKeys = append(variantKeys, key)
		entity.Options = append(entity.Options, models.VariantOption{
			Key:          key,
			DisplayName:  key.DisplayName(),
			SortedValues: attr.Values,
		})
	}

	for _, row := range g.Rows {
		v := models.CatalogVariant{SKU: row.SKU, Price: row.Price}
		if v.Price == "" {
			v.Price = defaultPrice
		}
		for _, key := range variantKeys {
			v.OptionValues = append(v.OptionValues, rowValue(key, row))
		}
		entity.Variants = append(entity.Variants, v)
	}

	return entity
}

// buildTitle composes the catalog title from constant attributes and
// fixed structural tokens, in template order: carat weight, shape,
// material, subgroup descriptor, category, then the metal phrase
// introduced by "in". Fields with no value are skipped outright so the
// title never carries double spaces or dangling conjunctions.
func buildTitle(rep *models.SKURow, classified map[models.AttributeKey]models.ClassifiedAttribute) string {
	var parts []string

	if attr, ok := classified[models.AttrCaratWeight]; ok && attr.Kind == models.KindConstant {
		parts = append(parts, attr.Values[0])
	}
	if rep.ShapeCode != "" {
		parts = append(parts, normalize.Shape(rep.ShapeCode))
	}
	if rep.MaterialCode != "" {
		parts = append(parts, normalize.MaterialType(rep.MaterialCode))
	}
	if rep.SubgroupCode != "" {
		parts = append(parts, normalize.TitleCase(rep.SubgroupCode))
	}
	if rep.Category != "" {
		parts = append(parts, normalize.TitleCase(rep.Category))
	}
	if attr, ok := classified[models.AttrMetalType]; ok && attr.Kind == models.KindConstant {
		parts = append(parts, "in "+attr.Values[0])
	}

	return strings.Join(parts, " ")
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// BuildHandle slugifies a title and appends the lower-cased group ID.
// Periods are removed before slugification (so "2.80" becomes "280"),
// runs of non-alphanumeric characters collapse to single hyphens, and
// truncation is applied to the title portion before the suffix is
// appended, so the uniqueness-bearing group ID is never dropped. A
// group ID that alone fills the length ceiling drops the title portion
// entirely rather than the suffix.
func BuildHandle(title, groupID string) string {
	slug := strings.ToLower(title)
	slug = strings.ReplaceAll(slug, ".", "")
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	suffix := "-" + strings.ToLower(groupID)
	budget := MaxHandleLength - len(suffix)
	if budget < 0 {
		budget = 0
	}
	if len(slug) > budget {
		slug = strings.TrimRight(slug[:budget], "-")
	}
	if slug == "" {
		return strings.TrimPrefix(suffix, "-")
	}
	return slug + suffix
}

func buildDescription(rep *models.SKURow, classified map[models.AttributeKey]models.ClassifiedAttribute) string {
	var parts []string
	if rep.MaterialCode != "" {
		parts = append(parts, "Beautiful "+normalize.MaterialType(rep.MaterialCode)+" jewelry")
	}
	if attr, ok := classified[models.AttrMetalType]; ok && attr.Kind == models.KindConstant {
		parts = append(parts, "crafted in "+attr.Values[0])
	}
	if rep.CaratWeight > 0 {
		parts = append(parts, fmt.Sprintf("with %.2f total carat weight", rep.CaratWeight))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}

// buildMetafields emits catalog-level metadata: every constant
// classified attribute, the product descriptors, boolean flags, and
// the primary stone details. Empty fields are omitted.
func buildMetafields(rep *models.SKURow, classified map[models.AttributeKey]models.ClassifiedAttribute) []models.Metafield {
	var fields []models.Metafield

	text := func(ns, key, value string) {
		if value != "" {
			fields = append(fields, models.Metafield{Namespace: ns, Key: key, Type: "single_line_text_field", Value: value})
		}
	}
	boolean := func(key string, value *bool) {
		if value != nil {
			fields = append(fields, models.Metafield{Namespace: metafieldNamespace, Key: key, Type: "boolean", Value: fmt.Sprintf("%t", *value)})
		}
	}
	decimal := func(key string, value float64) {
		if value > 0 {
			fields = append(fields, models.Metafield{Namespace: variantMetafieldNamespace, Key: key, Type: "number_decimal", Value: fmt.Sprintf("%g", value)})
		}
	}

	// Constant classified attributes become catalog metadata; variant
	// ones are option dimensions and stay out of here. Iteration follows
	// the category priority list so the emitted order is stable.
	for _, key := range RulesFor(rep.Category).Priority {
		if attr, ok := classified[key]; ok && attr.Kind == models.KindConstant {
			text(metafieldNamespace, string(attr.Key), attr.Values[0])
		}
	}

	text(metafieldNamespace, "setting_style", rep.SubgroupCode)
	text(metafieldNamespace, "stone_material", normalizeIfSet(rep.MaterialCode))
	text(metafieldNamespace, "stone_shape", rep.ShapeCode)
	text(metafieldNamespace, "stone_color", rep.StoneColor)
	text(metafieldNamespace, "main_setting_type", rep.MainSettingType)
	text(metafieldNamespace, "collection", rep.Collection)
	text(metafieldNamespace, "jewelry_brand", rep.JewelryBrand)
	text(metafieldNamespace, "gemstone_brand", rep.GemstoneBrand)
	text(metafieldNamespace, "style_id", rep.StyleID)
	text(metafieldNamespace, "web_descriptor", rep.WebDescriptor)

	boolean("is_best_seller", rep.IsBestSeller)
	boolean("is_high_roas", rep.IsHighROAS)
	boolean("is_pinterest", rep.IsPinterest)

	decimal("stone_dimensions_length", rep.LengthMM)
	decimal("stone_dimensions_width", rep.WidthMM)
	text(variantMetafieldNamespace, "clarity_grade", normalize.Clarity(rep.ClarityCode))
	if rep.StoneCount > 0 {
		fields = append(fields, models.Metafield{
			Namespace: variantMetafieldNamespace,
			Key:       "stone_count",
			Type:      "number_integer",
			Value:     fmt.Sprintf("%d", rep.StoneCount),
		})
	}

	return fields
}

func normalizeIfSet(materialCode string) string {
	if materialCode == "" {
		return ""
	}
	return normalize.MaterialType(materialCode)
}
