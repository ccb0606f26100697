package model

import "github.com/rotisserie/eris"

// ExtractionMode selects how the orchestrator combines strategy outputs.
type ExtractionMode string

const (
	// ModeBestStrategy runs only the highest-confidence strategy.
	ModeBestStrategy ExtractionMode = "best"
	// ModeMergeAll runs every strategy and merges the results.
	ModeMergeAll ExtractionMode = "merge"
	// ModeComplement fills gaps in an existing ExtractedFields.
	ModeComplement ExtractionMode = "complement"
)

// ParseMode converts a CLI/API string into an ExtractionMode.
func ParseMode(s string) (ExtractionMode, error) {
	switch ExtractionMode(s) {
	case ModeBestStrategy, ModeMergeAll, ModeComplement:
		return ExtractionMode(s), nil
	}
	return "", eris.Errorf("model: unknown extraction mode %q (want best, merge, or complement)", s)
}
