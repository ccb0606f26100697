package extract

import (
	"context"
	"strings"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// searchKeywords is the broad domain keyword list, in folded form. Presence
// of several of these is the only structural assumption this strategy makes.
var searchKeywords = []string{
	"aseguramiento",
	"embargo",
	"lavado",
	"expediente",
	"oficio",
	"cuenta",
	"monto",
	"juzgado",
	"fiscalia",
	"tribunal",
	"transferencia",
	"bloqueo",
	"inmovilizacion",
	"causa",
	"delito",
	"clabe",
	"banco",
	"precautorio",
}

// SearchStrategy is the last-resort heuristic: broad keywords plus the
// generic sub-extractors, no structural assumption. Its confidence is capped
// below the structured tiers even on a strong match.
type SearchStrategy struct {
	tiers SearchTuning
}

// NewSearch creates the keyword-search strategy.
func NewSearch(t Tuning) *SearchStrategy {
	return &SearchStrategy{tiers: t.Search}
}

func (s *SearchStrategy) Name() string { return NameSearch }

func (s *SearchStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	conf, err := s.Confidence(ctx, text)
	return conf > 0, err
}

func (s *SearchStrategy) Confidence(ctx context.Context, text string) (int, error) {
	_, conf, err := s.run(ctx, text)
	return conf, err
}

func (s *SearchStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	f, _, err := s.run(ctx, text)
	return f, err
}

// countKeywords returns how many distinct domain keywords appear.
func countKeywords(folded string) int {
	n := 0
	for _, kw := range searchKeywords {
		if strings.Contains(folded, kw) {
			n++
		}
	}
	return n
}

// countSubExtractions counts the distinct sub-extraction categories that
// produced data.
func countSubExtractions(f *model.ExtractedFields) int {
	n := 0
	if f.Expediente != "" {
		n++
	}
	if f.Causa != "" {
		n++
	}
	if f.AccionSolicitada != "" {
		n++
	}
	if len(f.Fechas) > 0 {
		n++
	}
	if len(f.Montos) > 0 {
		n++
	}
	n += len(f.AdditionalFields)
	return n
}

func (s *SearchStrategy) run(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if blank(text) {
		return nil, 0, nil
	}

	keywords := countKeywords(foldKey(text))
	if keywords < 2 {
		return nil, 0, nil
	}

	f := model.NewExtractedFields()
	guarded(NameSearch, func() {
		captureContextual(f, text)
		harvestCommon(f, text)
	})

	subs := countSubExtractions(f)
	var score int
	switch {
	case keywords >= 5 && subs >= 2:
		score = s.tiers.Strong
	case keywords >= 3 && subs >= 1:
		score = s.tiers.Moderate
	case keywords >= 2 && subs >= 1:
		score = s.tiers.Weak
	}
	if score == 0 || f.IsEmpty() {
		return nil, 0, nil
	}
	return f, score, nil
}
