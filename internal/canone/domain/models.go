// Package domain defines the input/output records and error taxonomy of the
// regulated rent computation.
package domain

import "errors"

var (
	// ErrClassification marks zone/typology/sub-band/range lookup failures.
	// Never retried; the property is skipped with context logged.
	ErrClassification = errors.New("classification_error")

	// ErrValidation marks invalid calculation input (non-positive surface,
	// element counts out of range). Never retried.
	ErrValidation = errors.New("validation_error")
)

// Tipologia buckets a property for the rate table: single-family villas by
// category, everything else by surface band.
type Tipologia string

const (
	TipologiaUnifamiliare Tipologia = "unifamiliare"
	TipologiaFinoA50      Tipologia = "<=50"
	TipologiaDa51A70      Tipologia = "51-70"
	TipologiaDa71A95      Tipologia = "71-95"
	TipologiaDa96A110     Tipologia = "96-110"
	TipologiaOltre110     Tipologia = ">110"
)

// Contract kinds for the surcharge rules.
const (
	KindConcordato  = "CONCORDATO"
	KindTransitorio = "TRANSITORIO"
	KindStudenti    = "STUDENTI"
)

// Input collects everything the computation needs. All rates are fractions
// (0.15 means +15%).
type Input struct {
	Superficie float64 `json:"superficie_catastale"`
	MicroZona  string  `json:"micro_zona,omitempty"`
	Foglio     string  `json:"foglio,omitempty"`
	Categoria  string  `json:"categoria_catasto,omitempty"`
	Classe     string  `json:"classe_catasto,omitempty"`

	CountA int `json:"count_a"`
	CountB int `json:"count_b"`
	CountC int `json:"count_c"`
	CountD int `json:"count_d"`

	ArredatoPct      float64 `json:"arredato_pct"`
	EnergyClass      string  `json:"energy_class,omitempty"`
	ContractKind     string  `json:"contract_kind"`
	DurataAnni       int     `json:"durata_anni"`
	IstatRate        float64 `json:"istat_rate"`
	IgnoreSurcharges bool    `json:"ignore_surcharges"`

	// AgreedMensile is carried through for comparison only; it never feeds
	// back into the computation.
	AgreedMensile *float64 `json:"canone_contrattuale_mensile,omitempty"`
}

// Surcharge is one applied adjustment. Value is computed against the base
// annual figure; InTotal reports whether it counts towards the stacked
// percentage (transitorio/studenti drop out when surcharges are ignored).
type Surcharge struct {
	Code    string  `json:"code"`
	Pct     float64 `json:"pct"`
	Value   float64 `json:"value"`
	InTotal bool    `json:"in_total"`
}

const (
	SurchargeArredato    = "arredato"
	SurchargeEnergy      = "energy_class"
	SurchargeDurata      = "durata"
	SurchargeTransitorio = "transitorio"
	SurchargeStudenti    = "studenti"
	SurchargeIstat       = "istat"
)

// Result is the full calculation snapshot: classification, interpolated
// base, every surcharge, and the final range.
type Result struct {
	Zona      int       `json:"zona"`
	Tipologia Tipologia `json:"tipologia"`
	Subfascia int       `json:"subfascia"`

	BaseMinEuroMq float64 `json:"base_min_euro_mq"`
	BaseMaxEuroMq float64 `json:"base_max_euro_mq"`
	BaseEuroMq    float64 `json:"base_euro_mq"`

	CanoneBaseAnnuo   float64 `json:"canone_base_annuo"`
	CanoneBaseMensile float64 `json:"canone_base_mensile"`

	Surcharges []Surcharge `json:"surcharges,omitempty"`
	TotalPct   float64     `json:"total_pct"`

	FinaleAnnuoMin   float64 `json:"canone_finale_annuo_min"`
	FinaleAnnuoMax   float64 `json:"canone_finale_annuo_max"`
	FinaleMensileMin float64 `json:"canone_finale_mensile_min"`
	FinaleMensileMax float64 `json:"canone_finale_mensile_max"`

	FinaleAnnuo   float64 `json:"canone_finale_annuo"`
	FinaleMensile float64 `json:"canone_finale_mensile"`

	AgreedMensile *float64 `json:"canone_contrattuale_mensile,omitempty"`
}
