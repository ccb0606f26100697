package extract

import (
	"sort"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// Merge combines partial extraction results into one record. It is a pure
// function over its inputs:
//
//   - scalar fields: first non-empty value in input order wins, later values
//     are discarded (no overwrite);
//   - fechas: union, deduplicated by exact string match, first-seen order;
//   - montos: union without dedup — identical numeric values with different
//     original text are separate evidence;
//   - additional fields: union by key, first writer wins.
//
// The first-wins rule is what makes Complement mode safe: the caller's
// existing record goes in as parts[0], so discovered values can only fill
// gaps. Nil parts are skipped; Merge of a single record is value-equal to
// that record.
func Merge(parts []*model.ExtractedFields) *model.ExtractedFields {
	out := model.NewExtractedFields()

	for _, part := range parts {
		if part == nil {
			continue
		}
		if out.Expediente == "" {
			out.Expediente = part.Expediente
		}
		if out.Causa == "" {
			out.Causa = part.Causa
		}
		if out.AccionSolicitada == "" {
			out.AccionSolicitada = part.AccionSolicitada
		}
		for _, fecha := range part.Fechas {
			out.AddFecha(fecha)
		}
		for _, monto := range part.Montos {
			out.AddMonto(monto)
		}
		// Iterate keys in sorted order so ties inside one part are stable;
		// across parts the first writer wins regardless.
		keys := make([]string, 0, len(part.AdditionalFields))
		for k := range part.AdditionalFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.SetAdditional(k, part.AdditionalFields[k])
		}
	}

	return out
}
