package extract

import (
	"context"
	"strings"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// tableRow is one parsed `| Campo | Valor |` row.
type tableRow struct {
	field string // folded, accent-stripped field name
	value string // verbatim value cell
}

// recognizedTableFields is the set of field-name cells the table strategy
// understands, in their folded form.
var recognizedTableFields = map[string]bool{
	"expediente":        true,
	"causa":             true,
	"accion solicitada": true,
	"oficio":            true,
	"autoridad":         true,
	"fecha":             true,
	"fechas":            true,
	"monto":             true,
	"montos":            true,
	"clabe":             true,
	"banco":             true,
	"rfc":               true,
	"nombre":            true,
}

// parseTableRows extracts well-formed two-cell pipe rows with a recognized
// field name. Separator rows (|---|---|) and rows with a different cell
// count are skipped.
func parseTableRows(text string) []tableRow {
	var rows []tableRow
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		cells := strings.Split(strings.Trim(line, "|"), "|")
		if len(cells) != 2 {
			continue
		}
		field := foldKey(strings.TrimSpace(cells[0]))
		value := strings.TrimSpace(cells[1])
		if field == "" || value == "" || strings.Trim(field, "-: ") == "" {
			continue
		}
		if !recognizedTableFields[field] {
			continue
		}
		rows = append(rows, tableRow{field: field, value: value})
	}
	return rows
}

// TableStrategy extracts from pipe-delimited `| Campo | Valor |` tables.
// A single well-formed recognized row is already a strong structural signal.
type TableStrategy struct {
	tiers TableTuning
}

// NewTable creates the pipe-table strategy.
func NewTable(t Tuning) *TableStrategy {
	return &TableStrategy{tiers: t.Table}
}

func (s *TableStrategy) Name() string { return NameTable }

func (s *TableStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	conf, err := s.Confidence(ctx, text)
	return conf > 0, err
}

func (s *TableStrategy) Confidence(ctx context.Context, text string) (int, error) {
	_, conf, err := s.run(ctx, text)
	return conf, err
}

func (s *TableStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	f, _, err := s.run(ctx, text)
	return f, err
}

// applyRow writes one recognized row into f. Date and amount rows are left
// to harvestCommon so the same literal is not recorded twice.
func applyRow(f *model.ExtractedFields, row tableRow) {
	switch row.field {
	case "expediente":
		if f.Expediente == "" {
			f.Expediente = findExpediente(row.value)
		}
	case "causa":
		if f.Causa == "" {
			f.Causa = cleanClause(row.value)
		}
	case "accion solicitada":
		if f.AccionSolicitada == "" {
			f.AccionSolicitada = cleanClause(row.value)
		}
	case "oficio":
		f.SetAdditional(model.KeyOficio, row.value)
	case "autoridad":
		f.SetAdditional(model.KeyAutoridad, row.value)
	case "clabe":
		if clabe := findCLABE(row.value); clabe != "" {
			f.SetAdditional(model.KeyCLABE, clabe)
		}
	case "banco":
		if banco := findBank(row.value); banco != "" {
			f.SetAdditional(model.KeyBanco, banco)
		}
	case "rfc":
		if rfc := findRFC(strings.ToUpper(row.value)); rfc != "" {
			f.SetAdditional(model.KeyRFC, rfc)
		}
	case "nombre":
		if name := findPersonName(row.value); name != nil {
			f.SetAdditional(model.KeyApellidoPaterno, name.Paterno)
			f.SetAdditional(model.KeyApellidoMaterno, name.Materno)
			f.SetAdditional(model.KeyNombre, name.Nombre)
		}
	}
}

func (s *TableStrategy) run(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if blank(text) {
		return nil, 0, nil
	}

	rows := parseTableRows(text)
	var score int
	switch {
	case len(rows) >= 2:
		score = s.tiers.MultiRow
	case len(rows) == 1:
		score = s.tiers.SingleRow
	default:
		return nil, 0, nil
	}

	f := model.NewExtractedFields()
	guarded(NameTable, func() {
		for _, row := range rows {
			applyRow(f, row)
		}
		harvestCommon(f, text)
	})
	if f.IsEmpty() {
		return nil, 0, nil
	}
	return f, score, nil
}
