package extract

import (
	"context"
	"regexp"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// Contextual signals: labeled terms in running prose, without the canonical
// "Label:" form. Capture groups feed the scalar fields; signal-only patterns
// just raise confidence.
var (
	ctxExpedienteRe = regexp.MustCompile(`(?i)\bexpediente\s+(?:n[uú]mero\s+|no\.?\s+)?([A-Za-z]/[A-Za-z]+[0-9]*-[0-9]+-[0-9]+-[A-Za-z]+)`)
	ctxCausaRe      = regexp.MustCompile(`(?i)(?:derivado de|con motivo de|por concepto de|relacionad[oa] con)\s+([^\n.;|]+)`)
	ctxAccionRe     = regexp.MustCompile(`(?i)(?:se solicita|se ordena|se requiere|solicitando)\s+(?:el\s+|la\s+)?([^\n.;|]+)`)
	ctxMontoRe      = regexp.MustCompile(`(?i)(?:por la cantidad de|por un monto de|hasta por)\b`)
	ctxFechaRe      = regexp.MustCompile(`(?i)(?:con fecha|de fecha|el d[ií]a)\b`)
	ctxCuentaRe     = regexp.MustCompile(`(?i)\bcuenta\s+(?:clabe\s+)?(?:n[uú]mero\s+)?(\d{18})`)
)

// ContextualStrategy extracts from prose where field terms appear near their
// values without canonical labels. Same tiering idea as Structured with a
// lower ceiling.
type ContextualStrategy struct {
	tiers TierTuning
}

// NewContextual creates the term-proximity strategy.
func NewContextual(t Tuning) *ContextualStrategy {
	return &ContextualStrategy{tiers: t.Contextual}
}

func (s *ContextualStrategy) Name() string { return NameContextual }

func (s *ContextualStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	conf, err := s.Confidence(ctx, text)
	return conf > 0, err
}

func (s *ContextualStrategy) Confidence(ctx context.Context, text string) (int, error) {
	_, conf, err := s.run(ctx, text)
	return conf, err
}

func (s *ContextualStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	f, _, err := s.run(ctx, text)
	return f, err
}

// countSignals returns how many distinct contextual signals fire.
func countSignals(text string) int {
	n := 0
	for _, re := range []*regexp.Regexp{
		ctxExpedienteRe, ctxCausaRe, ctxAccionRe, ctxMontoRe, ctxFechaRe, ctxCuentaRe,
	} {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// captureContextual applies the contextual capture groups. Shared with the
// complement and search strategies, which attempt the same clause
// extraction over prose.
func captureContextual(f *model.ExtractedFields, text string) {
	if f.Expediente == "" {
		if m := ctxExpedienteRe.FindStringSubmatch(text); m != nil {
			f.Expediente = findExpediente(m[1])
		}
	}
	if f.Causa == "" {
		if m := ctxCausaRe.FindStringSubmatch(text); m != nil {
			f.Causa = cleanClause(m[1])
		}
	}
	if f.AccionSolicitada == "" {
		if m := ctxAccionRe.FindStringSubmatch(text); m != nil {
			f.AccionSolicitada = cleanClause(m[1])
		}
	}
	if m := ctxCuentaRe.FindStringSubmatch(text); m != nil {
		f.SetAdditional(model.KeyCLABE, m[1])
	}
}

func (s *ContextualStrategy) run(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if blank(text) {
		return nil, 0, nil
	}

	score := s.tiers.Score(countSignals(text))
	if score == 0 {
		return nil, 0, nil
	}

	f := model.NewExtractedFields()
	guarded(NameContextual, func() {
		captureContextual(f, text)
		harvestCommon(f, text)
	})
	if f.IsEmpty() {
		return nil, 0, nil
	}
	return f, score, nil
}
