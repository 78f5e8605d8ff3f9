// Package extract turns the tabular content of a visura PDF into raw
// property records.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abruzzotech/attesta/internal/address"
	"go.uber.org/zap"
)

var (
	ownerRe  = regexp.MustCompile(`^([A-ZÀÈÌÒÙ]{2,})\s+([A-Za-zÀÈÌÒÙàèìòù]+)\s+\(CF:\s*([A-Z0-9]{16})\)`)
	comuneRe = regexp.MustCompile(`(?i)Immobili\s+siti\s+nel\s+Comune\s+di\s+(.+?)\s+\(Codice\s+([A-Z0-9]+)\)`)

	superficieTotaleRe  = regexp.MustCompile(`Totale:\s*([0-9.,]+)`)
	superficieEscluseRe = regexp.MustCompile(`Totale escluse aree\s*scoperte\*\*:\s*([0-9.,]+)`)

	nonAlnumRe = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// Table headers that mark a grouped two-row header (the real column names
// sit on the second row).
var groupedHeaderKeywords = []string{"DATI IDENTIFICATIVI", "DATI DI CLASSAMENTO", "ALTRE INFORMAZIONI"}

// Tables carrying ownership/title-deed data, not property rows.
var intabulazioneKeywords = []string{"DATI ANAGRAFICI", "DIRITTI E ONERI REALI"}

var realEstateColumns = map[string]struct{}{
	"Foglio":    {},
	"Numero":    {},
	"Sub":       {},
	"Categoria": {},
	"Classe":    {},
}

// Extractor walks a visura document page by page and collects property
// records. It never fails the whole document: unusable tables are skipped.
type Extractor struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Extractor {
	return &Extractor{log: log.Named("visura.extract")}
}

// Extract returns one Record per property row across all pages.
func (e *Extractor) Extract(doc *Document) []Record {
	if doc == nil || len(doc.Pages) == 0 {
		return nil
	}

	surname, name, cf := extractOwner(doc.Pages[0].Text)
	if cf == "" {
		e.log.Warn("owner fiscal code not found on first page")
	}

	var out []Record
	for _, page := range doc.Pages {
		comuneName, comuneCode := extractComune(page.Text)

		for _, table := range page.Tables {
			for _, rec := range e.processTable(table) {
				rec.OwnerCF = cf
				rec.OwnerSurname = surname
				rec.OwnerName = name
				rec.ComuneName = comuneName
				rec.ComuneCode = comuneCode
				out = append(out, rec)
			}
		}
	}

	e.log.Info("visura extracted", zap.String("cf", cf), zap.Int("immobili", len(out)))
	return out
}

func extractOwner(pageText string) (surname, name, cf string) {
	for _, line := range strings.Split(pageText, "\n") {
		if m := ownerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], m[2], m[3]
		}
	}
	return "", "", ""
}

func extractComune(pageText string) (name, code string) {
	for _, line := range strings.Split(pageText, "\n") {
		if m := comuneRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], m[2]
		}
	}
	return "", ""
}

func (e *Extractor) processTable(table Table) []Record {
	if len(table) == 0 {
		return nil
	}

	headerRow, dataStart := 0, 1
	firstRow := strings.ToUpper(strings.Join(table[0], " "))
	if containsAny(firstRow, groupedHeaderKeywords) {
		headerRow, dataStart = 1, 2
	}
	if headerRow >= len(table) {
		return nil
	}

	header := make([]string, len(table[headerRow]))
	for i, h := range table[headerRow] {
		header[i] = strings.TrimSpace(strings.ReplaceAll(h, "\n", " "))
	}

	joined := strings.ToUpper(strings.Join(header, " "))
	if containsAny(joined, intabulazioneKeywords) {
		return nil
	}
	if !hasRealEstateColumn(header) {
		return nil
	}

	normalized := normalizeHeader(header)

	var records []Record
	for i := dataStart; i < len(table); i++ {
		row := table[i]
		rec := Record{Fields: map[string]string{}}

		for col, colName := range normalized {
			if col >= len(row) {
				break
			}
			raw := strings.TrimSpace(row[col])

			switch {
			case strings.Contains(colName, "indirizzo"):
				rec.Address = address.Parse(raw)
			case colName == "superficie_catastale":
				rec.SuperficieTotale, rec.SuperficieEscluse, rec.SuperficieRaw = parseSuperficie(raw)
			case colName == "rendita":
				rec.Rendita = parseRendita(raw)
			default:
				rec.Fields[colName] = raw
			}
		}

		records = append(records, rec)
	}
	return records
}

// normalizeHeader resolves the fixed header quirks first (blank first column
// is the per-table row number, blank column 8 is the class column, merged
// "Classe Consistenza" is the consistency column) and then snake-cases each
// name with the known aliases.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for idx, col := range header {
		switch {
		case col == "" && idx == 0:
			out[idx] = "table_num_immobile"
		case col == "" && idx == 8:
			out[idx] = "classe"
		case col == "Classe Consistenza":
			out[idx] = "consistenza"
		default:
			out[idx] = normalizeColumnName(col)
		}
	}
	return out
}

func normalizeColumnName(col string) string {
	snake := strings.ToLower(strings.Trim(nonAlnumRe.ReplaceAllString(col, "_"), "_"))

	switch snake {
	case "microzona":
		return "micro_zona"
	case "zona_cens", "zona_censuaria":
		return "zona_cens"
	case "sez_urb":
		return "sez_urbana"
	}
	return snake
}

func parseSuperficie(text string) (totale, escluse *float64, raw string) {
	raw = strings.ReplaceAll(text, "\n", " ")

	if m := superficieTotaleRe.FindStringSubmatch(raw); m != nil {
		totale = parseNumber(m[1])
	}
	if m := superficieEscluseRe.FindStringSubmatch(raw); m != nil {
		escluse = parseNumber(m[1])
	}
	return totale, escluse, raw
}

func parseRendita(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "Euro", ""))
	if text == "" {
		return ""
	}
	if v := parseNumber(text); v != nil {
		return strconv.FormatFloat(*v, 'f', 2, 64)
	}
	return text
}

// parseNumber handles the Italian comma-as-decimal convention, dropping
// thousands separators ("1.234,56" -> 1234.56).
func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func hasRealEstateColumn(header []string) bool {
	for _, col := range header {
		if _, ok := realEstateColumns[col]; ok {
			return true
		}
	}
	return false
}
