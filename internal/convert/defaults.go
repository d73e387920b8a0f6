package convert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults is the tunable conversion configuration shipped alongside a
// taxonomy release: workbook-name workarounds, per-concept unit choices,
// and the reserved metadata range names.
type Defaults struct {
	// Aliases maps range-name spellings seen in the wild to the concept
	// local names they mean.
	Aliases map[string]string `yaml:"aliases"`

	// ConceptUnits fixes the unit for specific concepts when the workbook
	// does not carry a companion unit range. Keyed by concept local name,
	// value is a unit registry identifier.
	ConceptUnits map[string]string `yaml:"conceptUnits"`

	// UnitReplacements rewrites unit identifiers users commonly type to
	// the registry identifiers (e.g. "tonnes CO2" -> "tCO2e").
	UnitReplacements map[string]string `yaml:"unitReplacements"`

	// ReservedNames lists named ranges that carry report metadata rather
	// than facts.
	ReservedNames []string `yaml:"reservedNames"`

	// Placeholders lists cell values meaning "not reported" beyond the
	// built-in "-" and "#VALUE!".
	Placeholders []string `yaml:"placeholders"`
}

// LoadDefaults reads a defaults file. A missing path yields empty defaults
// rather than an error, so conversions work without one.
func LoadDefaults(path string) (*Defaults, error) {
	if path == "" {
		return &Defaults{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Defaults{}, nil
		}
		return nil, fmt.Errorf("read defaults file: %w", err)
	}
	var d Defaults
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	return &d, nil
}

// ReplacementUnit applies the unit replacement table to a raw unit string.
func (d *Defaults) ReplacementUnit(raw string) string {
	if d.UnitReplacements == nil {
		return raw
	}
	if repl, ok := d.UnitReplacements[raw]; ok {
		return repl
	}
	return raw
}
