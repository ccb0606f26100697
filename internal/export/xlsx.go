// Package export writes stored extraction records to spreadsheet files.
package export

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridian-legal/extract-cli/internal/model"
)

const sheetName = "Registros"

var headers = []string{
	"ID",
	"Fuente",
	"Modo",
	"Expediente",
	"Causa",
	"Acción Solicitada",
	"Fechas",
	"Montos",
	"Autoridad",
	"RFC",
	"CLABE",
	"Banco",
	"Oficio",
	"Apellido Paterno",
	"Apellido Materno",
	"Nombre",
	"Creado",
}

// WriteRecords writes one row per record to an XLSX file at path.
func WriteRecords(path string, recs []model.Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetString(h)
	}

	for i := range recs {
		row := sheet.AddRow()
		for _, cell := range recordCells(&recs[i]) {
			row.AddCell().SetString(cell)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// recordCells flattens a record into one cell per header column.
func recordCells(rec *model.Record) []string {
	montos := make([]string, 0, len(rec.Fields.Montos))
	for _, m := range rec.Fields.Montos {
		montos = append(montos, m.OriginalText)
	}

	add := rec.Fields.AdditionalFields
	return []string{
		rec.ID,
		rec.Source,
		string(rec.Mode),
		rec.Fields.Expediente,
		rec.Fields.Causa,
		rec.Fields.AccionSolicitada,
		strings.Join(rec.Fields.Fechas, "; "),
		strings.Join(montos, "; "),
		add[model.KeyAutoridad],
		add[model.KeyRFC],
		add[model.KeyCLABE],
		add[model.KeyBanco],
		add[model.KeyOficio],
		add[model.KeyApellidoPaterno],
		add[model.KeyApellidoMaterno],
		add[model.KeyNombre],
		rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
