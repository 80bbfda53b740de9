package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjardine/gemsync/internal/models"
)

func ringRow(sku string, size float64) *models.SKURow {
	return &models.SKURow{
		SKU:          sku,
		GroupID:      "WB100",
		Category:     "RING",
		MetalStamp:   "14K",
		MetalColor:   "WHITE",
		MetalCode:    "14K",
		MaterialCode: "LGD",
		ShapeCode:    "ROUND",
		CaratWeight:  1.5,
		RingSize:     size,
		Price:        "0.00",
	}
}

func TestClassify_RingSizesVariant(t *testing.T) {
	g := &models.Group{ID: "WB100", Rows: []*models.SKURow{
		ringRow("R1", 5.0),
		ringRow("R2", 6.0),
		ringRow("R3", 6.5),
	}}

	classified := Classify(g)

	size, ok := classified[models.AttrRingSize]
	require.True(t, ok)
	assert.Equal(t, models.KindVariant, size.Kind)
	assert.Equal(t, []string{"5.0", "6.0", "6.5"}, size.Values)

	metal, ok := classified[models.AttrMetalType]
	require.True(t, ok)
	assert.Equal(t, models.KindConstant, metal.Kind)
	assert.Equal(t, []string{"14K White Gold"}, metal.Values)

	carat, ok := classified[models.AttrCaratWeight]
	require.True(t, ok)
	assert.Equal(t, models.KindConstant, carat.Kind)
}

func TestClassify_EmptyAttributeAbsent(t *testing.T) {
	rows := []*models.SKURow{ringRow("R1", 5.0), ringRow("R2", 6.0)}
	for _, r := range rows {
		r.CaratWeight = 0
	}
	g := &models.Group{ID: "WB100", Rows: rows}

	classified := Classify(g)

	_, ok := classified[models.AttrCaratWeight]
	assert.False(t, ok, "attribute with zero non-empty values must be absent")
	_, ok = classified[models.AttrRingSize]
	assert.True(t, ok)
}

func TestClassify_Idempotent(t *testing.T) {
	g := &models.Group{ID: "WB100", Rows: []*models.SKURow{
		ringRow("R1", 5.0),
		ringRow("R2", 6.0),
	}}

	first := Classify(g)
	second := Classify(g)
	assert.Equal(t, first, second)
}

func TestClassify_OrderIndependent(t *testing.T) {
	a := &models.Group{ID: "WB100", Rows: []*models.SKURow{
		ringRow("R1", 6.5),
		ringRow("R2", 5.0),
		ringRow("R3", 6.0),
	}}
	b := &models.Group{ID: "WB100", Rows: []*models.SKURow{
		ringRow("R3", 6.0),
		ringRow("R1", 6.5),
		ringRow("R2", 5.0),
	}}

	assert.Equal(t, Classify(a), Classify(b))
}

func TestClassify_DuplicateValuesCollapse(t *testing.T) {
	g := &models.Group{ID: "WB100", Rows: []*models.SKURow{
		ringRow("R1", 5.0),
		ringRow("R2", 5.0),
	}}

	classified := Classify(g)
	size := classified[models.AttrRingSize]
	assert.Equal(t, models.KindConstant, size.Kind)
	assert.Equal(t, []string{"5.0"}, size.Values)
}

func TestClassify_PlatingPerCategoryConfig(t *testing.T) {
	mk := func(sku, plating string) *models.SKURow {
		return &models.SKURow{
			SKU: sku, GroupID: "NK1", Category: "NECKLACE",
			MetalStamp: "925", MetalColor: "WHITE", MetalCode: "SILVER",
			CaratWeight: 1.0, PlatingCode: plating,
		}
	}

	// Two platings: variant.
	g := &models.Group{ID: "NK1", Rows: []*models.SKURow{mk("N1", "RHODIUM"), mk("N2", "GOLD")}}
	attr, ok := Classify(g)[models.AttrPlatingType]
	require.True(t, ok)
	assert.Equal(t, models.KindVariant, attr.Kind)

	// One plating: constant.
	g = &models.Group{ID: "NK1", Rows: []*models.SKURow{mk("N1", "RHODIUM"), mk("N2", "RHODIUM")}}
	attr, ok = Classify(g)[models.AttrPlatingType]
	require.True(t, ok)
	assert.Equal(t, models.KindConstant, attr.Kind)

	// Plating is not eligible for rings at all.
	rg := &models.Group{ID: "WB100", Rows: []*models.SKURow{ringRow("R1", 5.0)}}
	rg.Rows[0].PlatingCode = "RHODIUM"
	_, ok = Classify(rg)[models.AttrPlatingType]
	assert.False(t, ok)
}

func TestClassify_MetalSortOrder(t *testing.T) {
	rows := []*models.SKURow{
		ringRow("R1", 5.0),
		ringRow("R2", 5.0),
		ringRow("R3", 5.0),
	}
	rows[0].MetalStamp, rows[0].MetalColor, rows[0].MetalCode = "PT950", "WHITE", "PLAT"
	rows[1].MetalStamp, rows[1].MetalColor, rows[1].MetalCode = "14K", "YELLOW", "14K"
	rows[2].MetalStamp, rows[2].MetalColor, rows[2].MetalCode = "14K", "WHITE", "14K"

	classified := Classify(&models.Group{ID: "WB100", Rows: rows})
	metal := classified[models.AttrMetalType]
	assert.Equal(t, []string{"14K White Gold", "14K Yellow Gold", "Platinum"}, metal.Values)
}
