package models

// AttributeKey identifies a semantic product dimension. Each category
// defines its own eligible key set and a fixed priority order among them.
type AttributeKey string

const (
	AttrCaratWeight AttributeKey = "carat_weight"
	AttrMetalType   AttributeKey = "metal_type"
	AttrRingSize    AttributeKey = "ring_size"
	AttrStoneLength AttributeKey = "stone_length"
	AttrStoneWidth  AttributeKey = "stone_width"
	AttrStoneShape  AttributeKey = "stone_shape"
	AttrPlatingType AttributeKey = "plating_type"
)

// DisplayName returns the customer-facing option name for the key.
func (k AttributeKey) DisplayName() string {
	switch k {
	case AttrCaratWeight:
		return "Carat Weight"
	case AttrMetalType:
		return "Metal Type"
	case AttrRingSize:
		return "Size"
	case AttrStoneLength:
		return "Stone Length"
	case AttrStoneWidth:
		return "Stone Width"
	case AttrStoneShape:
		return "Stone Shape"
	case AttrPlatingType:
		return "Plating"
	}
	return string(k)
}

// AttributeKind says whether an attribute is invariant across a group
// or varies between its SKUs.
type AttributeKind int

const (
	KindConstant AttributeKind = iota
	KindVariant
)

func (k AttributeKind) String() string {
	if k == KindVariant {
		return "variant"
	}
	return "constant"
}

// ClassifiedAttribute is the classification result for one attribute key
// across a group. Constant attributes have exactly one value; variant
// attributes have two or more distinct canonical values, ordered by the
// attribute's canonical sort order.
type ClassifiedAttribute struct {
	Key    AttributeKey
	Kind   AttributeKind
	Values []string
}
