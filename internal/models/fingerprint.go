package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint computes a deterministic content hash over the canonical
// serialization of a catalog entity. Order-sensitive fields (options,
// media) are serialized in their fixed order; unordered collections
// (metafields, variants) are hashed per element and sorted, so two
// entities with the same content always produce the same digest.
func Fingerprint(e *CatalogEntity) string {
	sections := []string{
		fmt.Sprintf("%s|%s|%s|%s|%s|%s",
			e.Title, e.Handle, e.ProductType, e.Vendor, e.Status, e.Description),
		hashMetafields(e.Metafields),
		hashOptions(e.Options),
		hashVariants(e.Variants),
		hashMedia(e.Media),
	}

	h := sha256.Sum256([]byte(strings.Join(sections, "\n")))
	return hex.EncodeToString(h[:])
}

func hashMetafields(fields []Metafield) string {
	hashes := make([]string, len(fields))
	for i, f := range fields {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", f.Namespace, f.Key, f.Type, f.Value)))
		hashes[i] = hex.EncodeToString(h[:])
	}
	sort.Strings(hashes)
	return combine(hashes)
}

func hashOptions(opts []VariantOption) string {
	hashes := make([]string, len(opts))
	for i, o := range opts {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", o.Key, o.DisplayName, strings.Join(o.SortedValues, "|"))))
		hashes[i] = hex.EncodeToString(h[:])
	}
	// Option order is a business rule, so it stays order-sensitive.
	return combine(hashes)
}

func hashVariants(variants []CatalogVariant) string {
	hashes := make([]string, len(variants))
	for i, v := range variants {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", v.SKU, strings.Join(v.OptionValues, "|"), v.Price)))
		hashes[i] = hex.EncodeToString(h[:])
	}
	sort.Strings(hashes)
	return combine(hashes)
}

func hashMedia(media []MediaRef) string {
	parts := make([]string, len(media))
	for i, m := range media {
		parts[i] = string(m)
	}
	return combine(parts)
}

func combine(parts []string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(h[:])
}
