// Package extract implements the adaptive multi-strategy field extraction
// engine: five independent heuristic strategies behind one contract, a
// first-wins merge policy, and an orchestrator that selects or combines
// strategy outputs per mode.
package extract

import (
	"context"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// Strategy names, stable identifiers reported in StrategyConfidence.
const (
	NameStructured = "structured"
	NameContextual = "contextual"
	NameTable      = "table"
	NameComplement = "complement"
	NameSearch     = "search"
)

// Strategy is one heuristic extraction method over raw document text.
//
// Contract, verified by the engine tests for every implementation:
//
//	CanExtract(text) == (Confidence(text) > 0) == (Extract(text) != nil)
//
// Empty or whitespace-only input short-circuits to false/0/nil before any
// pattern matching runs. The only error any method returns is context
// cancellation; internal faults are recovered, logged, and reported as
// no-data.
type Strategy interface {
	// Name returns the stable, non-empty strategy identifier.
	Name() string

	// CanExtract is a cheap compatibility probe.
	CanExtract(ctx context.Context, text string) (bool, error)

	// Confidence scores applicability in 0..100.
	Confidence(ctx context.Context, text string) (int, error)

	// Extract attempts full extraction. A nil result with nil error means
	// the strategy found nothing relevant.
	Extract(ctx context.Context, text string) (*model.ExtractedFields, error)
}

// gapAware is implemented by strategies whose behavior depends on an
// already-partially-populated record. The orchestrator re-binds them per
// Complement call; WithExisting must return a new value, never mutate.
type gapAware interface {
	WithExisting(existing *model.ExtractedFields) Strategy
}
