package models

// VariantOption is one option dimension of a catalog entity, ordered by
// the category's fixed dimension priority. Values carry the attribute's
// canonical sort order.
type VariantOption struct {
	Key          AttributeKey
	DisplayName  string
	SortedValues []string
}

// CatalogVariant is one sellable SKU within a catalog entity. The
// OptionValues tuple matches the entity's VariantOption order and must
// be unique within the entity.
type CatalogVariant struct {
	SKU          string
	OptionValues []string
	Price        string
}

// Metafield is one catalog-level metadata entry.
type Metafield struct {
	Namespace string
	Key       string
	Type      string
	Value     string
}

// MediaRef is an opaque, already-validated media reference produced by
// the image subsystem. The sync core only preserves its order.
type MediaRef string

// CatalogEntity is the fully built catalog product for one group. It is
// owned by the sync pass that built it and never mutated after being
// handed to the orchestrator.
type CatalogEntity struct {
	GroupID     string
	Title       string
	Handle      string
	ProductType string
	Vendor      string
	Status      string
	Description string
	Metafields  []Metafield
	Options     []VariantOption
	Variants    []CatalogVariant
	Media       []MediaRef
}

// RemoteState is the platform's last-known state for one group, read
// once at the start of a sync pass and never cached beyond it. Media
// changes need no field of their own: the media list is part of the
// fingerprint, so a changed list already forces an update.
type RemoteState struct {
	PlatformID      string
	LastFingerprint string
}
