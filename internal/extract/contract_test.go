package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allStrategies instantiates every shipped strategy with default tuning.
func allStrategies() []Strategy {
	tun := DefaultTuning()
	return []Strategy{
		NewStructured(tun),
		NewContextual(tun),
		NewTable(tun),
		NewComplement(tun),
		NewSearch(tun),
	}
}

const (
	docStructured = "Expediente: A/AS1-2505-088637-PHM\nCausa: Lavado de dinero\nAcción Solicitada: Aseguramiento precautorio\nMonto: $100,000.00 MXN"
	docContextual = "derivado de fraude fiscal; se solicita el bloqueo de cuentas. Con fecha 15/03/2024 por la cantidad de $250,000.00 MXN en el expediente número B/CD2-1101-000123-XYZ."
	docTable      = "| Expediente | A/AS1-2505-088637-PHM |\n| Causa | Lavado de dinero |"
	docKeywords   = "Se dictó el aseguramiento precautorio de la cuenta CLABE 012180001234567895 del banco Banorte dentro del expediente A/AS1-2505-088637-PHM por el delito de lavado"
)

// Every strategy must keep its three probes consistent:
//
//	CanExtract == (Confidence > 0) == (Extract != nil)
//
// across any input, including inputs it cannot handle.
func TestStrategies_ContractConsistency(t *testing.T) {
	texts := map[string]string{
		"structured doc":      docStructured,
		"contextual doc":      docContextual,
		"table doc":           docTable,
		"keyword doc":         docKeywords,
		"unrelated text":      "Random unrelated text",
		"empty":               "",
		"whitespace":          "   \n\t  ",
		"keywords no values":  "se comenta un embargo y un delito",
		"label without value": "Expediente: pendiente",
	}

	ctx := context.Background()
	for _, s := range allStrategies() {
		for name, text := range texts {
			t.Run(s.Name()+"/"+name, func(t *testing.T) {
				can, err := s.CanExtract(ctx, text)
				require.NoError(t, err)
				conf, err := s.Confidence(ctx, text)
				require.NoError(t, err)
				fields, err := s.Extract(ctx, text)
				require.NoError(t, err)

				assert.Equal(t, can, conf > 0, "CanExtract disagrees with Confidence")
				assert.Equal(t, can, fields != nil, "CanExtract disagrees with Extract")
				assert.GreaterOrEqual(t, conf, 0)
				assert.LessOrEqual(t, conf, 100)
				if fields != nil {
					assert.False(t, fields.IsEmpty(), "non-nil result must carry data")
				}
			})
		}
	}
}

func TestStrategies_EmptyInputShortCircuits(t *testing.T) {
	ctx := context.Background()
	for _, s := range allStrategies() {
		for _, text := range []string{"", "   ", "\n\t"} {
			can, err := s.CanExtract(ctx, text)
			require.NoError(t, err)
			assert.False(t, can, "%s on %q", s.Name(), text)

			conf, err := s.Confidence(ctx, text)
			require.NoError(t, err)
			assert.Zero(t, conf, "%s on %q", s.Name(), text)

			fields, err := s.Extract(ctx, text)
			require.NoError(t, err)
			assert.Nil(t, fields, "%s on %q", s.Name(), text)
		}
	}
}

func TestStrategies_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range allStrategies() {
		_, err := s.CanExtract(ctx, docStructured)
		assert.ErrorIs(t, err, context.Canceled, "%s CanExtract", s.Name())

		_, err = s.Confidence(ctx, docStructured)
		assert.ErrorIs(t, err, context.Canceled, "%s Confidence", s.Name())

		fields, err := s.Extract(ctx, docStructured)
		assert.ErrorIs(t, err, context.Canceled, "%s Extract", s.Name())
		assert.Nil(t, fields)
	}
}

func TestStrategies_NamesAreStable(t *testing.T) {
	want := []string{NameStructured, NameContextual, NameTable, NameComplement, NameSearch}
	strategies := allStrategies()
	require.Len(t, strategies, len(want))
	for i, s := range strategies {
		assert.Equal(t, want[i], s.Name())
	}
}
