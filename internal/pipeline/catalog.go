// internal/pipeline/catalog.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"diagnosis-pipeline/internal/models"
)

// StageSpec describes one catalog entry: the stage's identity, its
// dependencies, and the retry budget for its external collaborator.
type StageSpec struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
	TimeoutMs    int      `json:"timeoutMs"`
	Retry        struct {
		MaxAttempts        int  `json:"maxAttempts"`
		DelayMs            int  `json:"delayMs"`
		ExponentialBackoff bool `json:"exponentialBackoff"`
	} `json:"retry"`
}

// Timeout returns the per-attempt deadline for this stage.
func (s StageSpec) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// RetryConfig converts the catalog entry into the executor's config.
func (s StageSpec) RetryConfig() models.RetryConfig {
	return models.RetryConfig{
		MaxAttempts:        s.Retry.MaxAttempts,
		Delay:              time.Duration(s.Retry.DelayMs) * time.Millisecond,
		ExponentialBackoff: s.Retry.ExponentialBackoff,
	}
}

// Catalog is the ordered list of pipeline stages, loaded once at startup.
type Catalog struct {
	Stages []StageSpec `json:"stages"`
}

// LoadCatalog reads and validates the stage catalog from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse stage catalog: %w", err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate enforces the catalog invariants: at least one stage, unique
// IDs, and every dependency referring to an earlier stage. The last rule
// guarantees the listed order is already a valid execution order.
func (c *Catalog) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("stage catalog is empty")
	}

	seen := make(map[string]bool, len(c.Stages))
	for i, stage := range c.Stages {
		if stage.ID == "" {
			return fmt.Errorf("stage at index %d has empty id", i)
		}
		if seen[stage.ID] {
			return fmt.Errorf("duplicate stage id: %s", stage.ID)
		}
		for _, dep := range stage.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("stage %s depends on %s, which is not an earlier stage", stage.ID, dep)
			}
		}
		seen[stage.ID] = true
	}
	return nil
}
