// Package domain holds the canonical cadastral entities: addresses, persons,
// immobili with their comfort elements, and rental contracts.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrMissingNaturalKey = errors.New("missing_natural_key")
	ErrMissingFiscalCode = errors.New("missing_fiscal_code")
)

// Address is deduplicated by content hash and immutable once created; rows
// are only ever referenced by id, never updated.
type Address struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Comune      string       `gorm:"not null" json:"comune"`
	ViaFull     string       `gorm:"not null" json:"via_full"`
	Civico      string       `gorm:"not null;default:SNC" json:"civico"`
	Piano       string       `json:"piano,omitempty"`
	Interno     string       `json:"interno,omitempty"`
	Scala       string       `json:"scala,omitempty"`
	ContentHash string       `gorm:"not null;uniqueIndex" json:"content_hash"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Address) TableName() string { return "addresses" }

var addrSpaces = regexp.MustCompile(`\s+`)

// Hash computes the dedup key from comune, street and civic. The civic
// defaults to SNC so that "no number" and "number unknown" collide into the
// same stored address.
func (a Address) Hash() string {
	civico := strings.TrimSpace(a.Civico)
	if civico == "" {
		civico = "SNC"
	}
	key := strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(a.Comune)),
		strings.ToUpper(addrSpaces.ReplaceAllString(strings.TrimSpace(a.ViaFull), " ")),
		strings.ToUpper(civico),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Person is keyed by fiscal code. Fields are only ever overwritten by
// non-empty incoming values.
type Person struct {
	CF                 string        `gorm:"primaryKey" json:"cf"`
	Surname            string        `json:"surname,omitempty"`
	Name               string        `json:"name,omitempty"`
	ResidenceAddressID *snowflake.ID `json:"residence_address_id,omitempty"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Person) TableName() string { return "persons" }

// Immobile is one real-estate unit. The natural key is
// (owner_cf, foglio, numero, sub); sub may be empty but never null.
// Cadastral master-data fields are re-derived from each fresh extraction;
// the override fields (real address, energy class) survive re-extraction
// until explicitly cleared.
type Immobile struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerCF string       `gorm:"not null;uniqueIndex:ux_immobili_natural,priority:1" json:"owner_cf"`
	Foglio  string       `gorm:"not null;uniqueIndex:ux_immobili_natural,priority:2" json:"foglio"`
	Numero  string       `gorm:"not null;uniqueIndex:ux_immobili_natural,priority:3" json:"numero"`
	Sub     string       `gorm:"not null;default:'';uniqueIndex:ux_immobili_natural,priority:4" json:"sub"`

	SezUrbana         string   `json:"sez_urbana,omitempty"`
	ZonaCens          string   `json:"zona_cens,omitempty"`
	MicroZona         string   `json:"micro_zona,omitempty"`
	Categoria         string   `json:"categoria,omitempty"`
	Classe            string   `json:"classe,omitempty"`
	Consistenza       string   `json:"consistenza,omitempty"`
	Rendita           string   `json:"rendita,omitempty"`
	SuperficieTotale  *float64 `json:"superficie_totale,omitempty"`
	SuperficieEscluse *float64 `json:"superficie_escluse,omitempty"`
	SuperficieRaw     string   `json:"superficie_raw,omitempty"`

	ComuneName string `json:"comune_name,omitempty"`
	ComuneCode string `json:"comune_code,omitempty"`

	VisuraAddressID *snowflake.ID `json:"visura_address_id,omitempty"`
	SourceVisuraID  *snowflake.ID `json:"source_visura_id,omitempty"`

	RealAddressID *snowflake.ID `json:"real_address_id,omitempty"`
	EnergyClass   string        `json:"energy_class,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Immobile) TableName() string { return "immobili" }

// ValidateNaturalKey checks owner/foglio/numero. Sub is normalized elsewhere
// and may legitimately be empty.
func (i Immobile) ValidateNaturalKey() error {
	if strings.TrimSpace(i.OwnerCF) == "" {
		return ErrMissingFiscalCode
	}
	if strings.TrimSpace(i.Foglio) == "" || strings.TrimSpace(i.Numero) == "" {
		return ErrMissingNaturalKey
	}
	return nil
}

// ImmobileElement is one sparse comfort-element slot (A1..A2, B1..B5,
// C1..C7, D1..D13). A row exists only when the element is set; Value is
// never the empty string.
type ImmobileElement struct {
	ImmobileID snowflake.ID `gorm:"primaryKey" json:"immobile_id"`
	Grp        string       `gorm:"primaryKey;size:1" json:"grp"`
	Code       string       `gorm:"primaryKey;size:3" json:"code"`
	Value      string       `gorm:"not null" json:"value"`
}

func (ImmobileElement) TableName() string { return "immobile_elements" }

// ElementKeys lists every valid element slot in grid order.
func ElementKeys() []string {
	keys := []string{"a1", "a2"}
	for i := 1; i <= 5; i++ {
		keys = append(keys, "b"+strconv.Itoa(i))
	}
	for i := 1; i <= 7; i++ {
		keys = append(keys, "c"+strconv.Itoa(i))
	}
	for i := 1; i <= 13; i++ {
		keys = append(keys, "d"+strconv.Itoa(i))
	}
	return keys
}

// Contract belongs to exactly one immobile. The latest contract is updated
// in place unless the operator forces a new one.
type Contract struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ImmobileID snowflake.ID `gorm:"not null;index" json:"immobile_id"`

	ConduttoreCF string     `json:"conduttore_cf,omitempty"`
	ContractKind string     `gorm:"not null;default:CONCORDATO" json:"contract_kind"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	DurataAnni   int        `gorm:"not null;default:3" json:"durata_anni"`

	ArredatoPct               float64  `gorm:"not null;default:0" json:"arredato_pct"`
	IstatRate                 float64  `gorm:"not null;default:0" json:"istat_rate"`
	CanoneContrattualeMensile *float64 `json:"canone_contrattuale_mensile,omitempty"`
	IgnoreSurcharges          bool     `gorm:"not null;default:false" json:"ignore_surcharges"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

const (
	KindConcordato  = "CONCORDATO"
	KindTransitorio = "TRANSITORIO"
	KindStudenti    = "STUDENTI"
)
