package storage

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/pantrychef/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is a household snapshot: storage inventory, shopping list, and the
// meal catalog.
type Seed struct {
	Storage  []SeedItem `yaml:"storage"`
	Shopping []SeedItem `yaml:"shopping"`
	Meals    []SeedMeal `yaml:"meals"`
}

// SeedItem is a storage or shopping row.
type SeedItem struct {
	Name     string  `yaml:"name"`
	Quantity float64 `yaml:"quantity"`
}

// SeedMeal is a catalog recipe. An empty PlannedDate means explorable.
type SeedMeal struct {
	domain.Recipe `yaml:",inline"`
	PlannedDate   string `yaml:"planned_date"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &s, nil
}

// DefaultSeed returns the embedded demo household.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}
