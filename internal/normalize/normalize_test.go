package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mjardine/gemsync/internal/models"
)

func TestMetalType_GoldFamilies(t *testing.T) {
	assert.Equal(t, "14K White Gold", MetalType("14K", "WHITE", "14K"))
	assert.Equal(t, "18K Rose Gold", MetalType("18K", "ROSE", "18K"))
	assert.Equal(t, "10K Yellow Gold", MetalType("10K", "YELLOW", "10K"))
	assert.Equal(t, "14K Two-Tone Gold", MetalType("14K", "TWO-TONE", "14K"))
}

func TestMetalType_SilverDropsStamp(t *testing.T) {
	assert.Equal(t, "White Silver", MetalType("925", "WHITE", "SILVER"))
}

func TestMetalType_PlatinumCollapses(t *testing.T) {
	assert.Equal(t, "Platinum", MetalType("PT950", "WHITE", "PLAT"))
	assert.Equal(t, "Platinum", MetalType("PT950", "", "PLAT"))
	assert.Equal(t, "Platinum Rose", MetalType("PT950", "ROSE", "PLAT"))
}

func TestMetalType_TantalumTitanium(t *testing.T) {
	assert.Equal(t, "Tantalum", MetalType("TA", "", "TANTALUM"))
	assert.Equal(t, "Tantalum Grey", MetalType("TA", "GREY", "TANTALUM"))
	assert.Equal(t, "Titanium", MetalType("TI", "", "TITANIUM"))
	assert.Equal(t, "Titanium Two-Tone", MetalType("TI", "TWO-TONE", "TITANIUM"))
}

func TestMetalType_UnknownFamilyFallsBack(t *testing.T) {
	assert.Equal(t, "BR Yellow", MetalType("BR", "YELLOW", "BRASS"))
}

func TestMetalType_EmptyPartsLeaveNoDoubleSpace(t *testing.T) {
	assert.Equal(t, "14K Gold", MetalType("14K", "", "14K"))
	assert.Equal(t, "White Gold", MetalType("", "WHITE", "18K"))
	assert.Equal(t, "Silver", MetalType("925", "", "SILVER"))
	assert.Equal(t, "BR", MetalType("BR", "", "BRASS"))
}

func TestMaterialType(t *testing.T) {
	assert.Equal(t, "Lab-Grown Diamond", MaterialType("LGD"))
	assert.Equal(t, "Moissanite", MaterialType("MOISSANITE"))
	// Unknown codes pass through unchanged.
	assert.Equal(t, "OPAL", MaterialType("OPAL"))
}

func TestCut_UnknownDefaultsToExcellent(t *testing.T) {
	assert.Equal(t, "Very Good", Cut("VG"))
	assert.Equal(t, "Excellent", Cut("ZZ"))
	assert.Equal(t, "Excellent", Cut(""))
}

func TestClarity_Passthrough(t *testing.T) {
	assert.Equal(t, "VS1", Clarity("VS1"))
	assert.Equal(t, "??", Clarity("??"))
}

func TestCaratWeight_MoissaniteDEW(t *testing.T) {
	assert.Equal(t, "2.80 CTW", CaratWeight(2.8, "LGD"))
	assert.Equal(t, "1.00 CTW DEW", CaratWeight(1.0, "MOISSANITE"))
}

func TestStoneSize(t *testing.T) {
	assert.Equal(t, "6.5mm", StoneSize(6.5, 6.5))
	assert.Equal(t, "8.0x6.0mm", StoneSize(8.0, 6.0))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Cushion", TitleCase("CUSHION"))
	assert.Equal(t, "Two-Tone", TitleCase("TWO-TONE"))
	assert.Equal(t, "Rose De France", TitleCase("ROSE DE FRANCE"))
}

func TestSortValues_NumericAscending(t *testing.T) {
	values := []string{"10.0", "5.0", "9.5", "6.5"}
	SortValues(models.AttrRingSize, values)
	assert.Equal(t, []string{"5.0", "6.5", "9.5", "10.0"}, values)
}

func TestSortValues_CaratWeights(t *testing.T) {
	values := []string{"2.00 CTW", "0.50 CTW", "10.00 CTW", "1.50 CTW DEW"}
	SortValues(models.AttrCaratWeight, values)
	assert.Equal(t, []string{"0.50 CTW", "1.50 CTW DEW", "2.00 CTW", "10.00 CTW"}, values)
}

func TestSortValues_MetalPrecedence(t *testing.T) {
	values := []string{
		"Platinum",
		"14K Two-Tone Gold",
		"White Silver",
		"14K Yellow Gold",
		"14K White Gold",
		"10K White Gold",
		"Tantalum Grey",
	}
	SortValues(models.AttrMetalType, values)
	assert.Equal(t, []string{
		"10K White Gold",
		"14K White Gold",
		"14K Yellow Gold",
		"14K Two-Tone Gold",
		"White Silver",
		"Platinum",
		"Tantalum Grey",
	}, values)
}

func TestNumericValue(t *testing.T) {
	v, ok := NumericValue("2.80 CTW")
	assert.True(t, ok)
	assert.Equal(t, 2.8, v)

	v, ok = NumericValue("6.5mm")
	assert.True(t, ok)
	assert.Equal(t, 6.5, v)

	_, ok = NumericValue("Platinum")
	assert.False(t, ok)
}
