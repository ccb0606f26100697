package extract

import (
	"context"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// ComplementStrategy fills gaps in an already-partially-populated record.
// Its confidence reflects how much of the gap it can supply, not how well it
// reads the document overall. The orchestrator binds it to the caller's
// existing record per Complement call via WithExisting; unbound (nil) it
// treats every field as a gap.
type ComplementStrategy struct {
	tiers    ComplementTuning
	existing *model.ExtractedFields
}

// NewComplement creates an unbound gap-filling strategy.
func NewComplement(t Tuning) *ComplementStrategy {
	return &ComplementStrategy{tiers: t.Complement}
}

// WithExisting returns a copy bound to the given record. The receiver is not
// mutated, so a single registered instance stays safe under concurrent
// orchestrator calls.
func (s *ComplementStrategy) WithExisting(existing *model.ExtractedFields) Strategy {
	bound := *s
	bound.existing = existing.Clone()
	return &bound
}

func (s *ComplementStrategy) Name() string { return NameComplement }

func (s *ComplementStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	conf, err := s.Confidence(ctx, text)
	return conf > 0, err
}

func (s *ComplementStrategy) Confidence(ctx context.Context, text string) (int, error) {
	_, conf, err := s.run(ctx, text)
	return conf, err
}

func (s *ComplementStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	f, _, err := s.run(ctx, text)
	return f, err
}

func (s *ComplementStrategy) run(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if blank(text) {
		return nil, 0, nil
	}

	existing := s.existing
	if existing == nil {
		existing = model.NewExtractedFields()
	}

	// Attempt every extraction mechanism; the document shape is unknown here.
	found := model.NewExtractedFields()
	guarded(NameComplement, func() {
		captureLabeled(found, text)
		captureContextual(found, text)
		harvestCommon(found, text)
	})

	// Keep only what fills a gap. fills counts the distinct missing fields
	// this strategy can supply, which is what the confidence scores.
	out := model.NewExtractedFields()
	fills := 0

	if existing.Expediente == "" && found.Expediente != "" {
		out.Expediente = found.Expediente
		fills++
	}
	if existing.Causa == "" && found.Causa != "" {
		out.Causa = found.Causa
		fills++
	}
	if existing.AccionSolicitada == "" && found.AccionSolicitada != "" {
		out.AccionSolicitada = found.AccionSolicitada
		fills++
	}

	newFecha := false
	for _, fecha := range found.Fechas {
		known := false
		for _, have := range existing.Fechas {
			if have == fecha {
				known = true
				break
			}
		}
		if !known {
			out.AddFecha(fecha)
			newFecha = true
		}
	}
	if newFecha {
		fills++
	}

	// Amounts are only supplied when the existing record has none; montos
	// carry no dedup rule, so re-adding the same evidence would duplicate it.
	if len(existing.Montos) == 0 && len(found.Montos) > 0 {
		out.Montos = append(out.Montos, found.Montos...)
		fills++
	}

	for key, value := range found.AdditionalFields {
		if _, ok := existing.AdditionalFields[key]; ok {
			continue
		}
		out.SetAdditional(key, value)
		fills++
	}

	if fills == 0 {
		return nil, 0, nil
	}

	var score int
	switch {
	case fills >= 3:
		score = s.tiers.Three
	case fills == 2:
		score = s.tiers.Two
	default:
		score = s.tiers.One
	}
	return out, score, nil
}
