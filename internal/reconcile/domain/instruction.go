// Package domain models operator instructions as tagged fields so that the
// three-way merge (fresh extraction, operator, stored state) is exhaustive
// instead of sentinel-string sniffing.
package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrAmbiguousInstruction = errors.New("ambiguous_instruction")

// clearSentinel is the reserved operator value meaning "delete the stored
// value". It is recognized only at parse time; everything downstream works
// on the Field variant.
const clearSentinel = "-"

type fieldKind int

const (
	kindUnset fieldKind = iota
	kindSet
	kindClear
)

// Field is the three-state operator opinion on one attribute: no opinion,
// an explicit value, or an explicit clear.
type Field struct {
	kind  fieldKind
	value string
}

func Unset() Field       { return Field{} }
func Set(v string) Field { return Field{kind: kindSet, value: v} }
func Clear() Field       { return Field{kind: kindClear} }

func (f Field) IsUnset() bool { return f.kind == kindUnset }
func (f Field) IsSet() bool   { return f.kind == kindSet }
func (f Field) IsClear() bool { return f.kind == kindClear }

// Value returns the explicit value; empty unless IsSet.
func (f Field) Value() string {
	if f.kind != kindSet {
		return ""
	}
	return f.value
}

// MergeString applies the field over a stored value.
func (f Field) MergeString(stored string) string {
	switch f.kind {
	case kindSet:
		return f.value
	case kindClear:
		return ""
	default:
		return stored
	}
}

// MergeFloat applies the field over a stored numeric value; unparseable
// explicit values keep the stored one.
func (f Field) MergeFloat(stored float64) float64 {
	switch f.kind {
	case kindSet:
		v, err := parseFloat(f.value)
		if err != nil {
			return stored
		}
		return v
	case kindClear:
		return 0
	default:
		return stored
	}
}

// MergeInt is MergeFloat for integers, clearing to def.
func (f Field) MergeInt(stored, def int) int {
	switch f.kind {
	case kindSet:
		v, err := strconv.Atoi(strings.TrimSpace(f.value))
		if err != nil {
			return stored
		}
		return v
	case kindClear:
		return def
	default:
		return stored
	}
}

// MergeBool applies the field over a stored flag.
func (f Field) MergeBool(stored bool) bool {
	switch f.kind {
	case kindSet:
		switch strings.ToLower(strings.TrimSpace(f.value)) {
		case "1", "true", "yes", "y", "on", "si", "sì":
			return true
		case "0", "false", "no", "n", "off":
			return false
		default:
			return stored
		}
	case kindClear:
		return false
	default:
		return stored
	}
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

// Instruction is the parsed per-owner operator record for one run.
type Instruction struct {
	LocatoreCF  string
	ForceUpdate bool

	// Immobile selectors. When the owner has more than one immobile and no
	// selector is present, override/element/contract instructions are
	// skipped entirely (ambiguity guard).
	Foglio    string
	Numero    string
	Sub       string
	Categoria string

	// Real-address override for the selected immobile.
	ImmobileComune  Field
	ImmobileVia     Field
	ImmobileCivico  Field
	ImmobilePiano   Field
	ImmobileInterno Field

	EnergyClass Field

	// Locatore residence address.
	LocatoreComuneRes Field
	LocatoreVia       Field
	LocatoreCivico    Field

	// Contract attributes.
	ForceNewContract bool
	ContractKind     Field
	ContractDate     Field
	DurataAnni       Field
	ArredatoPct      Field
	IstatRate        Field
	IgnoreSurcharges Field
	CanoneMensile    Field

	ConduttoreNome   Field
	ConduttoreCF     Field
	ConduttoreComune Field
	ConduttoreVia    Field

	// Elements keyed a1..a2, b1..b5, c1..c7, d1..d13.
	Elements map[string]Field
}

// HasSelector reports whether the instruction pins a specific immobile.
func (ins Instruction) HasSelector() bool {
	return ins.Foglio != "" && ins.Numero != ""
}

// HasOverrides reports whether any override-style field carries an opinion.
func (ins Instruction) HasOverrides() bool {
	for _, f := range []Field{
		ins.ImmobileComune, ins.ImmobileVia, ins.ImmobileCivico,
		ins.ImmobilePiano, ins.ImmobileInterno, ins.EnergyClass,
		ins.ContractKind, ins.ContractDate, ins.DurataAnni,
		ins.ArredatoPct, ins.IstatRate, ins.IgnoreSurcharges,
		ins.CanoneMensile, ins.ConduttoreNome, ins.ConduttoreCF,
		ins.ConduttoreComune, ins.ConduttoreVia,
	} {
		if !f.IsUnset() {
			return true
		}
	}
	for _, f := range ins.Elements {
		if !f.IsUnset() {
			return true
		}
	}
	return ins.ForceNewContract
}

// Matches reports whether an immobile passes the instruction selectors.
// Empty selectors match everything.
func (ins Instruction) Matches(foglio, numero, sub, categoria string) bool {
	if ins.Foglio != "" && ins.Foglio != strings.TrimSpace(foglio) {
		return false
	}
	if ins.Numero != "" && ins.Numero != strings.TrimSpace(numero) {
		return false
	}
	if ins.Sub != "" && ins.Sub != strings.TrimSpace(sub) {
		return false
	}
	if ins.Categoria != "" && ins.Categoria != strings.TrimSpace(categoria) {
		return false
	}
	return true
}

// Parse builds an Instruction from the flat operator record. Absent keys
// become Unset, the "-" sentinel becomes Clear, anything else is Set.
func Parse(raw map[string]string) Instruction {
	rec := map[string]string{}
	for k, v := range raw {
		rec[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	ins := Instruction{
		LocatoreCF:  strings.TrimSpace(rec["LOCATORE_CF"]),
		ForceUpdate: parseBool(rec["FORCE_UPDATE_VISURA"]),

		Foglio:    strings.TrimSpace(rec["FOGLIO"]),
		Numero:    strings.TrimSpace(rec["NUMERO"]),
		Sub:       strings.TrimSpace(rec["SUB"]),
		Categoria: strings.TrimSpace(rec["CATEGORIA"]),

		ImmobileComune:  field(rec, "IMMOBILE_COMUNE"),
		ImmobileVia:     field(rec, "IMMOBILE_VIA"),
		ImmobileCivico:  field(rec, "IMMOBILE_CIVICO"),
		ImmobilePiano:   field(rec, "IMMOBILE_PIANO"),
		ImmobileInterno: field(rec, "IMMOBILE_INTERNO"),

		EnergyClass: field(rec, "ENERGY_CLASS"),

		LocatoreComuneRes: field(rec, "LOCATORE_COMUNE_RES"),
		LocatoreVia:       field(rec, "LOCATORE_VIA"),
		LocatoreCivico:    field(rec, "LOCATORE_CIVICO"),

		ForceNewContract: parseBool(rec["FORCE_NEW_CONTRACT"]),
		ContractKind:     field(rec, "CONTRACT_KIND"),
		ContractDate:     field(rec, "CONTRATTO_DATA"),
		DurataAnni:       field(rec, "DURATA_ANNI"),
		ArredatoPct:      field(rec, "ARREDATO"),
		IstatRate:        field(rec, "ISTAT"),
		IgnoreSurcharges: field(rec, "IGNORE_SURCHARGES"),
		CanoneMensile:    field(rec, "CANONE_CONTRATTUALE_MENSILE"),

		ConduttoreNome:   field(rec, "CONDUTTORE_NOME"),
		ConduttoreCF:     field(rec, "CONDUTTORE_CF"),
		ConduttoreComune: field(rec, "CONDUTTORE_COMUNE"),
		ConduttoreVia:    field(rec, "CONDUTTORE_VIA"),

		Elements: map[string]Field{},
	}

	for _, key := range elementKeys() {
		if f := field(rec, strings.ToUpper(key)); !f.IsUnset() {
			ins.Elements[key] = f
		}
	}

	return ins
}

func field(rec map[string]string, key string) Field {
	raw, ok := rec[key]
	if !ok {
		return Unset()
	}
	v := strings.TrimSpace(raw)
	switch v {
	case "":
		return Unset()
	case clearSentinel:
		return Clear()
	default:
		return Set(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on", "si", "sì":
		return true
	default:
		return false
	}
}

func elementKeys() []string {
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

// ParseDate accepts YYYY-MM-DD and DD/MM/YYYY.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
