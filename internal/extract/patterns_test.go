package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExpediente(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"canonical", "Expediente: A/AS1-2505-088637-PHM", "A/AS1-2505-088637-PHM"},
		{"lowercase input uppercased", "expediente b/cd2-1234-000001-xyz asignado", "B/CD2-1234-000001-XYZ"},
		{"embedded in prose", "en relación con el expediente C/QR-99-123456-AB se informa", "C/QR-99-123456-AB"},
		{"no match", "sin identificador alguno", ""},
		{"wrong shape", "123/456-789", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findExpediente(tt.text))
		})
	}
}

func TestFindFechas(t *testing.T) {
	text := "Recibido el 15/03/2024, ratificado el 16-03-2024 y notificado el 2 de abril de 2024. Duplicado: 15/03/2024."
	got := findFechas(text)
	require.Equal(t, []string{"15/03/2024", "16-03-2024", "2 de abril de 2024"}, got)
}

func TestFindFechas_DoesNotMatchExpedienteDigits(t *testing.T) {
	assert.Empty(t, findFechas("A/AS1-2505-088637-PHM"))
}

func TestFindMontos(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantCurrency string
		wantValue    string
		wantOriginal string
	}{
		{"dollar sign with code", "Monto: $100,000.00 MXN", "MXN", "100000", "$100,000.00 MXN"},
		{"dollar sign alone defaults to MXN", "por $5,250.50 se ordena", "MXN", "5250.5", "$5,250.50"},
		{"moneda nacional", "la cantidad de 1,500.00 M.N.", "MXN", "1500", "1,500.00 M.N."},
		{"pesos word", "2,000.00 pesos", "MXN", "2000", "2,000.00 pesos"},
		{"usd", "USD 300.25", "USD", "300.25", "USD 300.25"},
		{"eur suffix", "450.00 EUR", "EUR", "450", "450.00 EUR"},
		{"unknown code passes through uppercased", "$125.00 GBP", "GBP", "125", "$125.00 GBP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findMontos(tt.text)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantCurrency, got[0].Currency)
			assert.True(t, got[0].Value.Equal(decimal.RequireFromString(tt.wantValue)),
				"value %s != %s", got[0].Value, tt.wantValue)
			assert.Equal(t, tt.wantOriginal, got[0].OriginalText)
		})
	}
}

func TestFindMontos_IgnoresBareNumbers(t *testing.T) {
	assert.Empty(t, findMontos("folio 2505 de 088637 páginas"))
	assert.Empty(t, findMontos("A/AS1-2505-088637-PHM"))
}

func TestFindMontos_AllSatisfyInvariants(t *testing.T) {
	text := "Se aseguran $100,000.00 MXN, USD 300.25 y 2,000.00 pesos."
	for _, m := range findMontos(text) {
		assert.True(t, m.Valid(), "malformed amount %+v", m)
	}
}

func TestFindCLABE(t *testing.T) {
	assert.Equal(t, "012180001234567895", findCLABE("CLABE: 012180001234567895 a nombre de"))
	assert.Empty(t, findCLABE("cuenta 1234567890"), "17 or fewer digits is not a CLABE")
	assert.Empty(t, findCLABE("0121800012345678951"), "19 digits is not a CLABE")
}

func TestFindBank(t *testing.T) {
	assert.Equal(t, "BBVA", findBank("cuenta de BBVA Bancomer"))
	assert.Equal(t, "BanBajío", findBank("Institución: BANBAJÍO"))
	assert.Equal(t, "Citibanamex", findBank("sucursal banamex centro"))
	assert.Empty(t, findBank("Banco de los Sueños"))
}

func TestFindAutoridad(t *testing.T) {
	got := findAutoridad("La Fiscalía General de la República ordena el aseguramiento.")
	assert.Equal(t, "Fiscalía General de la República ordena el aseguramiento", got)

	assert.Empty(t, findAutoridad("sin autoridad emisora"))
}

func TestFindRFC(t *testing.T) {
	assert.Equal(t, "GOMC800101AB1", findRFC("RFC: GOMC800101AB1"))
	assert.Empty(t, findRFC("RFC: GOM800101"))
}

func TestFindOficio(t *testing.T) {
	assert.Equal(t, "UIF/DGAV/1234/2026", findOficio("Oficio No. UIF/DGAV/1234/2026"))
	assert.Equal(t, "110-05-2024", findOficio("oficio número 110-05-2024 emitido"))
	assert.Empty(t, findOficio("el oficio correspondiente fue recibido"), "prose after the word is not a number")
}

func TestFindPersonName(t *testing.T) {
	name := findPersonName("titular GÓMEZ LÓPEZ Carlos Alberto")
	require.NotNil(t, name)
	assert.Equal(t, "GÓMEZ", name.Paterno)
	assert.Equal(t, "LÓPEZ", name.Materno)
	assert.Equal(t, "Carlos Alberto", name.Nombre)

	assert.Nil(t, findPersonName("Carlos Alberto Gómez"), "mixed-case only is ambiguous")
}

func TestCleanClause(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Lavado de dinero", "Lavado de dinero"},
		{"cut at period", "Aseguramiento precautorio. Se anexa copia", "Aseguramiento precautorio"},
		{"cut at semicolon", "Fraude fiscal; ver anexo", "Fraude fiscal"},
		{"too short", "ab", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanClause(tt.in))
		})
	}
}

func TestCleanClause_TruncatesAtMaxLen(t *testing.T) {
	long := "Operaciones con recursos de procedencia ilícita en agravio del sistema financiero nacional y de terceros de identidad reservada"
	got := cleanClause(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxClauseLen)
	assert.GreaterOrEqual(t, utf8.RuneCountInString(got), minClauseLen)
}

func TestCleanClause_TruncatesOnRuneBoundary(t *testing.T) {
	// An accented rune straddling the window must be dropped whole, never
	// split into a dangling UTF-8 lead byte.
	long := strings.Repeat("a", maxClauseLen-1) + "ómetro de largo"
	got := cleanClause(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxClauseLen, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("a", maxClauseLen-1)+"ó", got)
}

func TestCleanClause_CountsRunesNotBytes(t *testing.T) {
	// Five accented runes are ten bytes; the minimum is still met, and a
	// clause of exactly 100 runes passes through untouched.
	assert.Equal(t, "ácñéí", cleanClause("ácñéí"))
	exact := strings.Repeat("ñ", maxClauseLen)
	assert.Equal(t, exact, cleanClause(exact))
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "accion solicitada", foldKey("Acción Solicitada"))
	assert.Equal(t, "fiscalia", foldKey("FISCALÍA"))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "MXN", normalizeCurrency("$", ""))
	assert.Equal(t, "MXN", normalizeCurrency("", "M.N."))
	assert.Equal(t, "MXN", normalizeCurrency("", "pesos"))
	assert.Equal(t, "USD", normalizeCurrency("", "USD"))
	assert.Equal(t, "USD", normalizeCurrency("", "dólares"))
	assert.Equal(t, "EUR", normalizeCurrency("EUR", ""))
	assert.Equal(t, "GBP", normalizeCurrency("", "gbp"))
}
