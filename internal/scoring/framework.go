// internal/scoring/framework.go
package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/models"
)

// LoadFramework reads the competency framework from a JSON file and
// validates it. The framework is read-only configuration: load it once
// during startup and pass it explicitly to the scorer.
func LoadFramework(path string) (*models.AssessmentFramework, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFrameworkInvalidError(fmt.Sprintf("failed to read framework file: %v", err))
	}

	var framework models.AssessmentFramework
	if err := json.Unmarshal(data, &framework); err != nil {
		return nil, errors.NewFrameworkInvalidError(fmt.Sprintf("failed to parse framework file: %v", err))
	}

	if err := ValidateFramework(&framework); err != nil {
		return nil, err
	}

	return &framework, nil
}

// ValidateFramework enforces the structural invariants of the framework:
// at least one category, every category weight strictly positive, and no
// duplicate category IDs.
func ValidateFramework(framework *models.AssessmentFramework) error {
	if len(framework.Categories) == 0 {
		return errors.NewFrameworkInvalidError("framework has no categories")
	}

	seen := make(map[string]bool, len(framework.Categories))
	for _, cat := range framework.Categories {
		if cat.ID == "" {
			return errors.NewFrameworkInvalidError("category with empty id")
		}
		if seen[cat.ID] {
			return errors.NewFrameworkInvalidError(fmt.Sprintf("duplicate category id: %s", cat.ID))
		}
		seen[cat.ID] = true

		if cat.Weight <= 0 {
			return errors.NewFrameworkInvalidError(fmt.Sprintf("category %s has non-positive weight %.2f", cat.ID, cat.Weight))
		}
		if len(cat.SubCategories) == 0 {
			return errors.NewFrameworkInvalidError(fmt.Sprintf("category %s has no subcategories", cat.ID))
		}
	}

	return nil
}
