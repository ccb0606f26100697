// Package model defines the value objects shared by the extraction engine,
// the store, and the host commands.
package model

import (
	"github.com/shopspring/decimal"
)

// Additional-field keys form a closed vocabulary. Strategies may only write
// these keys into ExtractedFields.AdditionalFields.
const (
	KeyAutoridad       = "autoridad"
	KeyRFC             = "rfc"
	KeyCLABE           = "clabe"
	KeyBanco           = "banco"
	KeyOficio          = "oficio"
	KeyApellidoPaterno = "apellido_paterno"
	KeyApellidoMaterno = "apellido_materno"
	KeyNombre          = "nombre"
)

// AmountData is a monetary amount found in a document. Currency is a
// normalized code ("MXN", "USD", ...), Value is strictly positive, and
// OriginalText is the verbatim matched substring.
type AmountData struct {
	Currency     string          `json:"currency"`
	Value        decimal.Decimal `json:"value"`
	OriginalText string          `json:"original_text"`
}

// Valid reports whether the amount satisfies its invariants: non-empty
// currency, positive value, non-empty original text.
func (a AmountData) Valid() bool {
	return a.Currency != "" && a.Value.IsPositive() && a.OriginalText != ""
}

// ExtractedFields is everything discovered so far for one document. Scalar
// fields use "" for absent. Each strategy invocation allocates a fresh
// instance; instances are never shared across calls.
type ExtractedFields struct {
	Expediente       string            `json:"expediente,omitempty"`
	Causa            string            `json:"causa,omitempty"`
	AccionSolicitada string            `json:"accion_solicitada,omitempty"`
	Fechas           []string          `json:"fechas,omitempty"`
	Montos           []AmountData      `json:"montos,omitempty"`
	AdditionalFields map[string]string `json:"additional_fields,omitempty"`
}

// NewExtractedFields returns an empty ExtractedFields with an allocated
// additional-fields map.
func NewExtractedFields() *ExtractedFields {
	return &ExtractedFields{
		AdditionalFields: make(map[string]string),
	}
}

// IsEmpty reports whether no field of any kind has been set.
func (f *ExtractedFields) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.Expediente == "" &&
		f.Causa == "" &&
		f.AccionSolicitada == "" &&
		len(f.Fechas) == 0 &&
		len(f.Montos) == 0 &&
		len(f.AdditionalFields) == 0
}

// Clone returns a deep copy. Clone of nil is an empty instance.
func (f *ExtractedFields) Clone() *ExtractedFields {
	out := NewExtractedFields()
	if f == nil {
		return out
	}
	out.Expediente = f.Expediente
	out.Causa = f.Causa
	out.AccionSolicitada = f.AccionSolicitada
	out.Fechas = append(out.Fechas, f.Fechas...)
	out.Montos = append(out.Montos, f.Montos...)
	for k, v := range f.AdditionalFields {
		out.AdditionalFields[k] = v
	}
	return out
}

// AddFecha appends a date literal, deduplicating by exact string match.
func (f *ExtractedFields) AddFecha(fecha string) {
	if fecha == "" {
		return
	}
	for _, existing := range f.Fechas {
		if existing == fecha {
			return
		}
	}
	f.Fechas = append(f.Fechas, fecha)
}

// AddMonto appends an amount if it satisfies the AmountData invariants.
// Malformed amounts are dropped, never stored.
func (f *ExtractedFields) AddMonto(m AmountData) {
	if !m.Valid() {
		return
	}
	f.Montos = append(f.Montos, m)
}

// SetAdditional writes a keyed fact. The first writer wins; later writes to
// an already-populated key are ignored.
func (f *ExtractedFields) SetAdditional(key, value string) {
	if key == "" || value == "" {
		return
	}
	if f.AdditionalFields == nil {
		f.AdditionalFields = make(map[string]string)
	}
	if _, ok := f.AdditionalFields[key]; ok {
		return
	}
	f.AdditionalFields[key] = value
}

// StrategyConfidence is a strategy's self-reported applicability score for a
// given text, in the range 0..100.
type StrategyConfidence struct {
	StrategyName string `json:"strategy_name"`
	Confidence   int    `json:"confidence"`
}
