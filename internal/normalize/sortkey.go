package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mjardine/gemsync/internal/models"
)

// Metal family precedence: gold karat families first (ordered by karat
// ascending), then silver, platinum, and everything else.
const (
	familyGold = iota
	familySilver
	familyPlatinum
	familyOther
)

// Color precedence within a family: White, Yellow, Rose, others,
// Two-Tone last.
var colorRanks = map[string]int{
	"white":  0,
	"yellow": 1,
	"rose":   2,
}

const (
	colorRankOther   = 3
	colorRankTwoTone = 4
)

// metalKey is the canonical sort key for a metal display string.
type metalKey struct {
	family int
	karat  int
	color  int
}

func metalSortKey(display string) metalKey {
	k := metalKey{family: familyOther}
	lower := strings.ToLower(display)

	switch {
	case strings.Contains(lower, "gold"):
		k.family = familyGold
		// Leading karat stamp like "14K".
		if i := strings.Index(lower, "k"); i > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(lower[:i])); err == nil {
				k.karat = n
			}
		}
	case strings.Contains(lower, "silver"):
		k.family = familySilver
	case strings.Contains(lower, "platinum"):
		k.family = familyPlatinum
	}

	k.color = colorRankOther
	if strings.Contains(lower, "two-tone") {
		k.color = colorRankTwoTone
	} else {
		for name, rank := range colorRanks {
			if strings.Contains(lower, name) {
				k.color = rank
				break
			}
		}
	}
	return k
}

// CompareMetal orders two canonical metal display strings by family,
// then karat, then color precedence. Equal keys fall back to a lexical
// comparison so the order is total.
func CompareMetal(a, b string) int {
	ka, kb := metalSortKey(a), metalSortKey(b)
	if ka.family != kb.family {
		return ka.family - kb.family
	}
	if ka.karat != kb.karat {
		return ka.karat - kb.karat
	}
	if ka.color != kb.color {
		return ka.color - kb.color
	}
	return strings.Compare(a, b)
}

// NumericValue parses the leading numeric portion of a canonical value
// like "1.50 CTW", "7.0", or "6.5x4.0mm". Reports false when the value
// has no leading number.
func NumericValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SortValues orders canonical values by the attribute's own canonical
// ordering: numeric ascending for weights, sizes, and dimensions (so
// "10.0" sorts after "9.5"), metal precedence for metal types, and
// lexical order for everything else.
func SortValues(key models.AttributeKey, values []string) {
	switch key {
	case models.AttrMetalType:
		sort.SliceStable(values, func(i, j int) bool {
			return CompareMetal(values[i], values[j]) < 0
		})
	case models.AttrCaratWeight, models.AttrRingSize, models.AttrStoneLength, models.AttrStoneWidth:
		sort.SliceStable(values, func(i, j int) bool {
			vi, oki := NumericValue(values[i])
			vj, okj := NumericValue(values[j])
			if oki && okj {
				if vi != vj {
					return vi < vj
				}
				return values[i] < values[j]
			}
			// Non-numeric values sort after numeric ones.
			if oki != okj {
				return oki
			}
			return values[i] < values[j]
		})
	default:
		sort.Strings(values)
	}
}
