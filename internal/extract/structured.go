package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// labeledField pairs a canonical field label pattern with the handler that
// writes its captured value. The value handlers are scalar-only; dates and
// amounts are picked up by harvestCommon over the whole text so label lines
// are not double-counted.
type labeledField struct {
	re    *regexp.Regexp
	apply func(f *model.ExtractedFields, value string)
}

var labeledFields = []labeledField{
	{
		re: regexp.MustCompile(`(?i)\bexpediente\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if f.Expediente == "" {
				f.Expediente = findExpediente(v)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bcausa\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if f.Causa == "" {
				f.Causa = cleanClause(v)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bacci[oó]n\s+solicitada\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if f.AccionSolicitada == "" {
				f.AccionSolicitada = cleanClause(v)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\boficio\s*(?:no\.?|n[uú]m\.?)?\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if num := strings.TrimSpace(v); num != "" {
				f.SetAdditional(model.KeyOficio, num)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bautoridad\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if a := strings.TrimSpace(v); a != "" {
				f.SetAdditional(model.KeyAutoridad, a)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bclabe\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if clabe := findCLABE(v); clabe != "" {
				f.SetAdditional(model.KeyCLABE, clabe)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bbanco\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if banco := findBank(v); banco != "" {
				f.SetAdditional(model.KeyBanco, banco)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\br\.?f\.?c\.?\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if rfc := findRFC(strings.ToUpper(v)); rfc != "" {
				f.SetAdditional(model.KeyRFC, rfc)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bnombre\s*:\s*([^\n]+)`),
		apply: func(f *model.ExtractedFields, v string) {
			if name := findPersonName(v); name != nil {
				f.SetAdditional(model.KeyApellidoPaterno, name.Paterno)
				f.SetAdditional(model.KeyApellidoMaterno, name.Materno)
				f.SetAdditional(model.KeyNombre, name.Nombre)
			}
		},
	},
	// Fecha and Monto labels count toward the structured signal but their
	// values are harvested from the full text.
	{
		re:    regexp.MustCompile(`(?i)\bfechas?\s*:`),
		apply: func(f *model.ExtractedFields, v string) {},
	},
	{
		re:    regexp.MustCompile(`(?i)\bmontos?\s*:`),
		apply: func(f *model.ExtractedFields, v string) {},
	},
}

// countLabels returns how many distinct canonical labels appear in the text.
func countLabels(text string) int {
	n := 0
	for _, lf := range labeledFields {
		if lf.re.MatchString(text) {
			n++
		}
	}
	return n
}

// captureLabeled applies every matching label's value handler. Shared with
// the complement strategy, which reuses labeled capture to fill gaps.
func captureLabeled(f *model.ExtractedFields, text string) {
	for _, lf := range labeledFields {
		m := lf.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := ""
		if len(m) > 1 {
			value = m[1]
		}
		lf.apply(f, value)
	}
}

// StructuredStrategy extracts from documents that use canonical field labels
// ("Expediente:", "Causa:", ...). It is the highest-confidence heuristic
// when several labels are present.
type StructuredStrategy struct {
	tiers TierTuning
}

// NewStructured creates the structured-label strategy.
func NewStructured(t Tuning) *StructuredStrategy {
	return &StructuredStrategy{tiers: t.Structured}
}

func (s *StructuredStrategy) Name() string { return NameStructured }

func (s *StructuredStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	conf, err := s.Confidence(ctx, text)
	return conf > 0, err
}

func (s *StructuredStrategy) Confidence(ctx context.Context, text string) (int, error) {
	_, conf, err := s.run(ctx, text)
	return conf, err
}

func (s *StructuredStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	f, _, err := s.run(ctx, text)
	return f, err
}

func (s *StructuredStrategy) run(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if blank(text) {
		return nil, 0, nil
	}

	score := s.tiers.Score(countLabels(text))
	if score == 0 {
		return nil, 0, nil
	}

	f := model.NewExtractedFields()
	guarded(NameStructured, func() {
		captureLabeled(f, text)
		harvestCommon(f, text)
	})
	if f.IsEmpty() {
		return nil, 0, nil
	}
	return f, score, nil
}
