// Package normalize maps raw warranty database codes to canonical
// display strings and canonical sort keys. All functions are pure and
// total over the defined code tables: unknown codes fall back to a
// documented default instead of failing, so malformed upstream data
// never aborts a whole group.
package normalize

import (
	"fmt"
	"strings"
	"unicode"
)

// materialTypes maps primary gem material codes to display names.
// Unknown codes pass through unchanged.
var materialTypes = map[string]string{
	"LGD":        "Lab-Grown Diamond",
	"MOISSANITE": "Moissanite",
	"NAT":        "Natural Diamond",
	"CZ":         "Cubic Zirconia",
	"SAPPHIRE":   "Sapphire",
	"RUBY":       "Ruby",
	"EMERALD":    "Emerald",
	"AMETHYST":   "Amethyst",
}

// productTypes maps item category codes to catalog product types.
var productTypes = map[string]string{
	"RING":     "Ring",
	"EARRING":  "Earring",
	"NECKLACE": "Necklace",
	"BRACELET": "Bracelet",
	"PENDANT":  "Pendant",
	"GEMSTONE": "Gemstone",
}

// cutGrades maps cut grade codes to display names. Unknown cut codes
// default to "Excellent".
var cutGrades = map[string]string{
	"EX": "Excellent",
	"VG": "Very Good",
	"G":  "Good",
	"F":  "Fair",
	"P":  "Poor",
}

// MaterialType returns the display name for a gem material code.
func MaterialType(code string) string {
	if v, ok := materialTypes[strings.ToUpper(code)]; ok {
		return v
	}
	return code
}

// ProductType returns the catalog product type for a category code.
func ProductType(code string) string {
	if v, ok := productTypes[strings.ToUpper(code)]; ok {
		return v
	}
	return code
}

// Shape returns the Title-Cased display form of a gem shape code.
func Shape(code string) string {
	return TitleCase(code)
}

// Clarity passes clarity grades through unchanged; grades like "VS1"
// are already display-ready and unmapped codes must survive intact.
func Clarity(code string) string {
	return code
}

// Cut returns the display name for a cut grade code, defaulting to
// "Excellent" for unknown codes.
func Cut(code string) string {
	if v, ok := cutGrades[strings.ToUpper(code)]; ok {
		return v
	}
	return "Excellent"
}

// MetalType composes the canonical metal display string from the raw
// stamp, color, and family code. Composition follows per-family rules:
// gold families render stamp+color+"Gold", silver drops the stamp,
// platinum collapses unless a non-white color is present, and tantalum
// or titanium render the bare name when no color is set. "Two-Tone" is
// a legal color for every family.
func MetalType(stamp, color, code string) string {
	c := TitleCase(color)
	switch strings.ToUpper(code) {
	case "10K", "14K", "18K":
		return joinWords(stamp, c, "Gold")
	case "SILVER":
		return joinWords(c, "Silver")
	case "PLAT":
		if c == "" || strings.EqualFold(c, "White") {
			return "Platinum"
		}
		return "Platinum " + c
	case "TANTALUM":
		if c == "" {
			return "Tantalum"
		}
		return "Tantalum " + c
	case "TITANIUM":
		if c == "" {
			return "Titanium"
		}
		return "Titanium " + c
	default:
		return joinWords(stamp, c)
	}
}

// joinWords joins the non-empty parts with single spaces, so a missing
// stamp or color never leaves an interior double space behind.
func joinWords(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// CaratWeight renders a total carat weight. Moissanite weights carry
// the DEW (diamond equivalent weight) suffix.
func CaratWeight(carats float64, materialCode string) string {
	if strings.EqualFold(materialCode, "MOISSANITE") {
		return fmt.Sprintf("%.2f CTW DEW", carats)
	}
	return fmt.Sprintf("%.2f CTW", carats)
}

// RingSize renders a ring size with one decimal place.
func RingSize(size float64) string {
	return fmt.Sprintf("%.1f", size)
}

// MMDimension renders a single millimeter dimension.
func MMDimension(mm float64) string {
	return fmt.Sprintf("%.1fmm", mm)
}

// StoneSize renders a length x width pair, collapsing to a single
// dimension when the stone is round.
func StoneSize(lengthMM, widthMM float64) string {
	if lengthMM == widthMM {
		return fmt.Sprintf("%.1fmm", lengthMM)
	}
	return fmt.Sprintf("%.1fx%.1fmm", lengthMM, widthMM)
}

// TitleCase uppercases the first letter of each word and lowercases the
// rest. Raw codes arrive fully uppercased, so strings.Title-style
// casing is the display convention throughout.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		// Hyphenated colors like "two-tone" capitalize both halves.
		for j := 1; j < len(r); j++ {
			if r[j-1] == '-' {
				r[j] = unicode.ToUpper(r[j])
			}
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
