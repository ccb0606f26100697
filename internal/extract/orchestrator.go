package extract

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// Orchestrator runs the registered strategies and selects or combines their
// outputs per extraction mode. It is stateless between calls; the only fixed
// state is the immutable registration list supplied at construction, so one
// instance serves concurrent callers.
type Orchestrator struct {
	strategies []Strategy
}

// NewOrchestrator creates an orchestrator over the given strategies. The
// registration order is significant: it breaks confidence ties and decides
// scalar conflicts in merge mode.
func NewOrchestrator(strategies ...Strategy) *Orchestrator {
	return &Orchestrator{strategies: strategies}
}

// DefaultOrchestrator registers the five strategies in canonical order,
// most-structure-first, so the most reliable heuristic supplies contested
// values.
func DefaultOrchestrator(t Tuning) *Orchestrator {
	return NewOrchestrator(
		NewStructured(t),
		NewContextual(t),
		NewTable(t),
		NewComplement(t),
		NewSearch(t),
	)
}

// Strategies returns the registered strategy names in registration order.
func (o *Orchestrator) Strategies() []string {
	names := make([]string, len(o.strategies))
	for i, s := range o.strategies {
		names[i] = s.Name()
	}
	return names
}

// Confidences scores every registered strategy against the text and returns
// the list sorted descending by confidence, ties broken by registration
// order. On empty input the list is all zeros, never empty.
func (o *Orchestrator) Confidences(ctx context.Context, text string) ([]model.StrategyConfidence, error) {
	out := make([]model.StrategyConfidence, 0, len(o.strategies))
	for _, s := range o.strategies {
		conf, err := s.Confidence(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, model.StrategyConfidence{
			StrategyName: s.Name(),
			Confidence:   conf,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// Extract runs the requested mode over the text. existing is only consulted
// in Complement mode (nil means an empty record). A nil result with nil
// error means no strategy produced data; the only returned error is context
// cancellation.
func (o *Orchestrator) Extract(ctx context.Context, text string, mode model.ExtractionMode, existing *model.ExtractedFields) (*model.ExtractedFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if blank(text) {
		return nil, nil
	}

	switch mode {
	case model.ModeBestStrategy:
		return o.extractBest(ctx, text)
	case model.ModeMergeAll:
		results, err := o.fanOut(ctx, o.strategies, text)
		if err != nil {
			return nil, err
		}
		return collapse(results), nil
	case model.ModeComplement:
		return o.extractComplement(ctx, text, existing)
	default:
		// Closed enum; anything else is a programming error upstream.
		zap.L().Error("extract: unknown mode", zap.String("mode", string(mode)))
		return nil, nil
	}
}

// extractBest picks the single highest-confidence strategy (first registered
// wins ties) and returns its result. A top score of zero means nothing is
// applicable. A disagreement between the winner's confidence and its extract
// result is a contract violation in the strategy; no lower-ranked strategy
// is retried.
func (o *Orchestrator) extractBest(ctx context.Context, text string) (*model.ExtractedFields, error) {
	var best Strategy
	bestConf := 0
	for _, s := range o.strategies {
		conf, err := s.Confidence(ctx, text)
		if err != nil {
			return nil, err
		}
		if conf > bestConf {
			best = s
			bestConf = conf
		}
	}
	if best == nil {
		return nil, nil
	}

	result, err := best.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	if result == nil {
		zap.L().Warn("extract: winning strategy returned no data despite positive confidence",
			zap.String("strategy", best.Name()),
			zap.Int("confidence", bestConf),
		)
	}
	return result, nil
}

// extractComplement preserves the caller's existing values verbatim and lets
// strategy discoveries fill only the gaps, by merging with existing first.
func (o *Orchestrator) extractComplement(ctx context.Context, text string, existing *model.ExtractedFields) (*model.ExtractedFields, error) {
	bound := make([]Strategy, len(o.strategies))
	for i, s := range o.strategies {
		if ga, ok := s.(gapAware); ok {
			bound[i] = ga.WithExisting(existing)
		} else {
			bound[i] = s
		}
	}

	results, err := o.fanOut(ctx, bound, text)
	if err != nil {
		return nil, err
	}

	parts := make([]*model.ExtractedFields, 0, len(results)+1)
	parts = append(parts, existing.Clone())
	parts = append(parts, results...)
	merged := Merge(parts)
	if merged.IsEmpty() {
		return nil, nil
	}
	return merged, nil
}

// fanOut runs Extract on every strategy concurrently and returns the results
// indexed by registration order. Strategy calls have no data dependency on
// one another; the only synchronization point is the join, where
// cancellation propagates without waiting on stragglers' results.
func (o *Orchestrator) fanOut(ctx context.Context, strategies []Strategy, text string) ([]*model.ExtractedFields, error) {
	results := make([]*model.ExtractedFields, len(strategies))

	g, gCtx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			f, err := s.Extract(gCtx, text)
			if err != nil {
				return err
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// collapse merges fan-out results, returning nil when every strategy came
// back empty.
func collapse(results []*model.ExtractedFields) *model.ExtractedFields {
	for _, r := range results {
		if r != nil {
			return Merge(results)
		}
	}
	return nil
}
