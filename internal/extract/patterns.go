package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// Free-text fields (causa, acción solicitada) must land in this range after
// trimming; anything shorter is noise, anything longer is truncated.
const (
	minClauseLen = 5
	maxClauseLen = 100
)

var (
	// Case identifier grammar: LETTER/LETTERS+DIGITS-DIGITS-DIGITS-LETTERS,
	// e.g. A/AS1-2505-088637-PHM.
	expedienteRe = regexp.MustCompile(`\b([A-Za-z]/[A-Za-z]+[0-9]*-[0-9]+-[0-9]+-[A-Za-z]+)\b`)

	// Date literals in the three accepted shapes, alternated so matches come
	// back in document order.
	fechaRe = regexp.MustCompile(`(?i)\b(\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}|\d{1,2} de (?:enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre) de \d{4})\b`)

	// Monetary amounts: optional currency prefix, grouped or plain number,
	// optional currency suffix. A match counts only if at least one currency
	// signal is present (prefix, suffix, or grouped-with-cents shape), which
	// keeps bare identifiers like "088637" out of montos.
	montoRe = regexp.MustCompile(`(\$|USD|EUR|MXN)?\s?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(MXN|USD|EUR|M\.N\.|[Pp]esos|[Dd][oó]lares|[Ee]uros|[A-Z]{3}\b)?`)

	// CLABE: exactly 18 consecutive digits.
	clabeRe = regexp.MustCompile(`\b\d{18}\b`)

	// RFC (Mexican tax id): 3-4 letters, 6-digit date, 3-char homoclave.
	rfcRe = regexp.MustCompile(`\b([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})\b`)

	// Oficio/document number following the word "oficio".
	oficioRe = regexp.MustCompile(`(?i)\boficio\s*(?:n[uú]m(?:ero)?\.?|no\.?)?\s*:?\s*([A-Z0-9][A-Z0-9/.-]{2,})`)

	// Issuing authority: institutional head noun plus its qualifier phrase.
	autoridadRe = regexp.MustCompile(`(?i)\b((?:Fiscal[ií]a|Juzgado|Tribunal|Secretar[ií]a|Procuradur[ií]a|Unidad de Inteligencia Financiera)[^\n.,;|]{0,70})`)

	// Mexican personal name: two all-caps surnames followed by a mixed-case
	// given name. The casing split is the disambiguating signal between
	// surnames and given names.
	personRe = regexp.MustCompile(`\b([A-ZÁÉÍÓÚÑ]{2,})\s+([A-ZÁÉÍÓÚÑ]{2,})\s+([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+)?)\b`)
)

// bankNames is the fixed vocabulary of recognized bank names: lowercase
// accent-folded needle plus canonical spelling, scanned in order so matches
// are deterministic.
var bankNames = []struct {
	needle    string
	canonical string
}{
	{"citibanamex", "Citibanamex"},
	{"banamex", "Citibanamex"},
	{"banco azteca", "Banco Azteca"},
	{"banco del bienestar", "Banco del Bienestar"},
	{"bancoppel", "BanCoppel"},
	{"banbajio", "BanBajío"},
	{"banregio", "Banregio"},
	{"bancomer", "BBVA"},
	{"bbva", "BBVA"},
	{"banorte", "Banorte"},
	{"santander", "Santander"},
	{"scotiabank", "Scotiabank"},
	{"inbursa", "Inbursa"},
	{"afirme", "Afirme"},
	{"hsbc", "HSBC"},
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lowercases and strips accents so label matching tolerates both
// "Acción" and "Accion".
func foldKey(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		// Transform failures on odd input degrade to plain lowercasing.
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// blank reports whether text is empty or whitespace-only. Strategies use it
// as the fast path before any pattern matching.
func blank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// cleanClause trims free text, truncates it at the first stray clause
// terminator, and enforces the 5-100 character window. Returns "" when the
// remainder is too short to be a meaningful clause.
func cleanClause(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".;|\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	// The window counts runes, not bytes: accented Spanish text must neither
	// fail the minimum early nor get cut mid-rune at the maximum.
	if utf8.RuneCountInString(s) < minClauseLen {
		return ""
	}
	if utf8.RuneCountInString(s) > maxClauseLen {
		s = strings.TrimSpace(string([]rune(s)[:maxClauseLen]))
	}
	return s
}

// findExpediente returns the first case identifier in the text, upper-cased,
// or "".
func findExpediente(text string) string {
	m := expedienteRe.FindString(text)
	return strings.ToUpper(m)
}

// findFechas returns all date literals in document order, deduplicated.
func findFechas(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range fechaRe.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// normalizeCurrency maps a matched prefix/suffix pair onto a currency code.
// "$" defaults to MXN; unknown explicit codes pass through uppercased.
func normalizeCurrency(prefix, suffix string) string {
	token := strings.TrimSpace(suffix)
	if token == "" {
		token = strings.TrimSpace(prefix)
	}
	folded := foldKey(token)
	switch {
	case token == "" || token == "$":
		return "MXN"
	case folded == "m.n." || folded == "pesos":
		return "MXN"
	case strings.HasPrefix(folded, "usd") || folded == "dolares":
		return "USD"
	case strings.HasPrefix(folded, "eur") || folded == "euros":
		return "EUR"
	default:
		return strings.ToUpper(token)
	}
}

// findMontos extracts every monetary amount in the text. Each result
// satisfies the AmountData invariants; candidates without a currency signal
// or with a non-positive value are discarded.
func findMontos(text string) []model.AmountData {
	var out []model.AmountData
	for _, m := range montoRe.FindAllStringSubmatch(text, -1) {
		prefix, number, suffix := m[1], m[2], m[3]

		// Require an explicit currency signal or an unambiguous money shape
		// (thousands separators with a decimal fraction).
		grouped := strings.Contains(number, ",") && strings.Contains(number, ".")
		if prefix == "" && suffix == "" && !grouped {
			continue
		}

		value, err := decimal.NewFromString(strings.ReplaceAll(number, ",", ""))
		if err != nil || !value.IsPositive() {
			continue
		}

		out = append(out, model.AmountData{
			Currency:     normalizeCurrency(prefix, suffix),
			Value:        value,
			OriginalText: strings.TrimSpace(m[0]),
		})
	}
	return out
}

// findCLABE returns the first 18-digit bank account number, or "".
func findCLABE(text string) string {
	return clabeRe.FindString(text)
}

// findBank scans for a bank name from the fixed vocabulary and returns the
// canonical spelling, or "".
func findBank(text string) string {
	folded := foldKey(text)
	for _, b := range bankNames {
		if strings.Contains(folded, b.needle) {
			return b.canonical
		}
	}
	return ""
}

// findAutoridad returns the first authority phrase, or "".
func findAutoridad(text string) string {
	m := autoridadRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// findRFC returns the first RFC in the text, or "".
func findRFC(text string) string {
	return rfcRe.FindString(text)
}

// findOficio returns the document/oficio number, or "". Bare "oficio" with
// no trailing identifier yields "".
func findOficio(text string) string {
	m := oficioRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	num := strings.TrimRight(strings.TrimSpace(m[1]), ".,")
	// A real oficio number carries digits or slashes; prose after the word
	// "oficio" does not.
	if !strings.ContainsAny(num, "0123456789/") {
		return ""
	}
	return num
}

// personName is a decomposed Mexican personal name.
type personName struct {
	Paterno string
	Materno string
	Nombre  string
}

// findPersonName decomposes the first personal name found, or returns nil.
func findPersonName(text string) *personName {
	m := personRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &personName{Paterno: m[1], Materno: m[2], Nombre: m[3]}
}

// harvestCommon runs every generic sub-extractor over the raw text and
// writes findings into f. Scalar writes respect values already present
// (first writer wins within a single strategy pass too).
func harvestCommon(f *model.ExtractedFields, text string) {
	if f.Expediente == "" {
		f.Expediente = findExpediente(text)
	}
	for _, fecha := range findFechas(text) {
		f.AddFecha(fecha)
	}
	for _, monto := range findMontos(text) {
		f.AddMonto(monto)
	}
	if clabe := findCLABE(text); clabe != "" {
		f.SetAdditional(model.KeyCLABE, clabe)
	}
	if banco := findBank(text); banco != "" {
		f.SetAdditional(model.KeyBanco, banco)
	}
	if autoridad := findAutoridad(text); autoridad != "" {
		f.SetAdditional(model.KeyAutoridad, autoridad)
	}
	if rfc := findRFC(text); rfc != "" {
		f.SetAdditional(model.KeyRFC, rfc)
	}
	if oficio := findOficio(text); oficio != "" {
		f.SetAdditional(model.KeyOficio, oficio)
	}
	if name := findPersonName(text); name != nil {
		f.SetAdditional(model.KeyApellidoPaterno, name.Paterno)
		f.SetAdditional(model.KeyApellidoMaterno, name.Materno)
		f.SetAdditional(model.KeyNombre, name.Nombre)
	}
}

// guarded runs fn and absorbs any panic from malformed pattern state or
// parse edge cases, logging it and leaving the strategy with no data. Only
// cancellation may leave the engine as an error; internal faults never do.
func guarded(strategy string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("extract: strategy fault recovered",
				zap.String("strategy", strategy),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
