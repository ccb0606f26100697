package extract

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tuning holds the per-strategy confidence tiers. They are heuristic
// constants, kept in configuration so they can be adjusted without touching
// control flow.
type Tuning struct {
	Structured TierTuning       `yaml:"structured"`
	Contextual TierTuning       `yaml:"contextual"`
	Table      TableTuning      `yaml:"table"`
	Complement ComplementTuning `yaml:"complement"`
	Search     SearchTuning     `yaml:"search"`
}

// TierTuning maps matched label/term counts to confidence scores for the
// structured and contextual strategies.
type TierTuning struct {
	Three int `yaml:"three"` // >=3 matches
	Two   int `yaml:"two"`
	One   int `yaml:"one"`
}

// Score returns the confidence for the given match count.
func (t TierTuning) Score(matches int) int {
	switch {
	case matches >= 3:
		return t.Three
	case matches == 2:
		return t.Two
	case matches == 1:
		return t.One
	default:
		return 0
	}
}

// TableTuning maps well-formed recognized table rows to confidence scores.
type TableTuning struct {
	MultiRow  int `yaml:"multi_row"`  // >=2 recognized rows
	SingleRow int `yaml:"single_row"` // exactly 1
}

// ComplementTuning maps fillable-gap counts to confidence scores.
type ComplementTuning struct {
	Three int `yaml:"three"` // >=3 gaps fillable
	Two   int `yaml:"two"`
	One   int `yaml:"one"`
}

// SearchTuning scores the broad keyword strategy. The ceiling stays below
// the structured tiers even on a strong match.
type SearchTuning struct {
	Strong   int `yaml:"strong"`   // >=5 keywords and >=2 sub-extractions
	Moderate int `yaml:"moderate"` // >=3 keywords and >=1 sub-extraction
	Weak     int `yaml:"weak"`     // >=2 keywords and >=1 sub-extraction
}

// DefaultTuning returns the tier constants the strategies ship with.
func DefaultTuning() Tuning {
	return Tuning{
		Structured: TierTuning{Three: 90, Two: 75, One: 50},
		Contextual: TierTuning{Three: 80, Two: 65, One: 40},
		Table:      TableTuning{MultiRow: 90, SingleRow: 85},
		Complement: ComplementTuning{Three: 85, Two: 70, One: 50},
		Search:     SearchTuning{Strong: 75, Moderate: 65, Weak: 50},
	}
}

// LoadTuning reads a Tuning from a YAML file. Zero-valued tiers fall back to
// the defaults so a partial file only overrides what it names.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrapf(err, "extract: read tuning %s", path)
	}
	var loaded Tuning
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return t, eris.Wrapf(err, "extract: parse tuning %s", path)
	}

	overlayTier(&t.Structured, loaded.Structured)
	overlayTier(&t.Contextual, loaded.Contextual)
	if loaded.Table.MultiRow > 0 {
		t.Table.MultiRow = loaded.Table.MultiRow
	}
	if loaded.Table.SingleRow > 0 {
		t.Table.SingleRow = loaded.Table.SingleRow
	}
	if loaded.Complement.Three > 0 {
		t.Complement.Three = loaded.Complement.Three
	}
	if loaded.Complement.Two > 0 {
		t.Complement.Two = loaded.Complement.Two
	}
	if loaded.Complement.One > 0 {
		t.Complement.One = loaded.Complement.One
	}
	if loaded.Search.Strong > 0 {
		t.Search.Strong = loaded.Search.Strong
	}
	if loaded.Search.Moderate > 0 {
		t.Search.Moderate = loaded.Search.Moderate
	}
	if loaded.Search.Weak > 0 {
		t.Search.Weak = loaded.Search.Weak
	}

	return t, nil
}

func overlayTier(dst *TierTuning, src TierTuning) {
	if src.Three > 0 {
		dst.Three = src.Three
	}
	if src.Two > 0 {
		dst.Two = src.Two
	}
	if src.One > 0 {
		dst.One = src.One
	}
}
