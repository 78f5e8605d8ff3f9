package extract

import "github.com/abruzzotech/attesta/internal/address"

// Document is the tabular content of one visura PDF, as produced by the
// portal boundary. The extractor only sees text and tables; how they were
// pulled out of the PDF is not its concern.
type Document struct {
	Pages []Page
}

type Page struct {
	// Text is the free-text layer of the page, one line per row.
	Text string
	// Tables are the lattice tables detected on the page, row-major.
	Tables []Table
}

type Table [][]string

// Record is one raw property row, tagged with the page's municipality and
// the document owner. Fields holds every cell keyed by normalized header
// name; address, surface and income cells get dedicated parsed forms.
type Record struct {
	OwnerCF      string
	OwnerSurname string
	OwnerName    string

	ComuneName string
	ComuneCode string

	Fields map[string]string

	Address           address.Parts
	SuperficieTotale  *float64
	SuperficieEscluse *float64
	SuperficieRaw     string
	Rendita           string
}
