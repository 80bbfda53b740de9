package catalog

import (
	"fmt"
	"strings"

	"github.com/mjardine/gemsync/internal/models"
)

// ValidationError aggregates the structural problems found in a built
// catalog entity. A group that fails validation is reported failed
// without ever contacting the remote platform.
type ValidationError struct {
	GroupID  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("group %s: validation failed: %s", e.GroupID, strings.Join(e.Problems, "; "))
}

// Validate runs the structural checks on a built entity: non-empty
// title, at least one variant, unique option tuples, non-empty SKUs,
// and complete metafields. Two SKUs with an identical canonical option
// tuple are a data error, never silently merged.
func Validate(e *models.CatalogEntity) error {
	var problems []string

	if strings.TrimSpace(e.Title) == "" {
		problems = append(problems, "title is required")
	}
	if len(e.Title) > 255 {
		problems = append(problems, "title exceeds 255 characters")
	}
	if e.Handle == "" {
		problems = append(problems, "handle is required")
	}

	if len(e.Variants) == 0 {
		problems = append(problems, "at least one variant is required")
	}
	if len(e.Variants) > 1 && len(e.Options) == 0 {
		problems = append(problems, fmt.Sprintf("%d variants but no variant option distinguishes them", len(e.Variants)))
	}

	seen := make(map[string]string, len(e.Variants))
	for i, v := range e.Variants {
		if v.SKU == "" {
			problems = append(problems, fmt.Sprintf("variant %d: SKU is required", i))
		}
		if len(v.OptionValues) != len(e.Options) {
			problems = append(problems, fmt.Sprintf("variant %s: expected %d option values, got %d", v.SKU, len(e.Options), len(v.OptionValues)))
			continue
		}
		if len(e.Options) == 0 {
			continue
		}
		tuple := strings.Join(v.OptionValues, "\x1f") // unit separator; option values never contain it
		if other, dup := seen[tuple]; dup {
			problems = append(problems, fmt.Sprintf("duplicate variant: %s and %s share option tuple [%s]", other, v.SKU, strings.Join(v.OptionValues, ", ")))
			continue
		}
		seen[tuple] = v.SKU
	}

	for i, f := range e.Metafields {
		if f.Namespace == "" || f.Key == "" || f.Type == "" || f.Value == "" {
			problems = append(problems, fmt.Sprintf("metafield %d (%s.%s): namespace, key, type, and value are required", i, f.Namespace, f.Key))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{GroupID: e.GroupID, Problems: problems}
	}
	return nil
}
