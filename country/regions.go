// Package country normalises country identifiers between ISO2, ISO3, and
// display names, and expands region tokens (continents, power pools, "Earth")
// into concrete country lists.
package country

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RegionConfig is the regions definition file: the per-continent country
// inventory plus named sub-continental groups (power pools, test sets).
//
// It is loaded from an explicit path and handed to the Resolver at
// construction time; there is no implicit file-system search.
type RegionConfig struct {
	// WorldISO maps a continent name to its countries, keyed by ISO2 code.
	// The value is the lowercase dataset slug used by upstream extracts.
	WorldISO map[string]map[string]string `yaml:"world_iso"`

	// ContinentRegions maps a region-group name (e.g. a power pool) to the
	// country codes it contains.
	ContinentRegions map[string][]string `yaml:"continent_regions"`
}

// LoadRegionConfig reads and parses a regions definition YAML file.
func LoadRegionConfig(path string) (*RegionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions config: %w", err)
	}

	var cfg RegionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse regions config %s: %w", path, err)
	}
	return &cfg, nil
}

// Continents returns the configured continent names in sorted order.
func (c *RegionConfig) Continents() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.WorldISO))
	for name := range c.WorldISO {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContinentCodes returns the country codes of one continent, or nil when the
// continent is not configured.
func (c *RegionConfig) ContinentCodes(continent string) []string {
	if c == nil {
		return nil
	}
	countries, ok := c.WorldISO[continent]
	if !ok {
		return nil
	}
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
