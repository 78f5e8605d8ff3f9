// Package attestazione renders the attestation document that certifies the
// computed rent range for one property.
package attestazione

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	canonedomain "github.com/abruzzotech/attesta/internal/canone/domain"
	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
)

// Data is everything one attestation draws from: the parties, the property
// with its comfort elements, the contract and the calculation snapshot.
type Data struct {
	Locatore            *catastodomain.Person
	LocatoreResidence   *catastodomain.Address
	Conduttore          *catastodomain.Person
	ConduttoreResidence *catastodomain.Address

	Immobile *catastodomain.Immobile
	// Address is the real address when the operator overrode it, otherwise
	// the one parsed from the visura. May be nil.
	Address  *catastodomain.Address
	Elements []*catastodomain.ImmobileElement

	Contract *catastodomain.Contract

	Input  canonedomain.Input
	Result *canonedomain.Result
}

// BuildParams flattens the data into the template parameter map. Every key
// is always present; unknown values are the empty string so the rendered
// document shows blanks instead of failing.
func BuildParams(d Data) map[string]string {
	p := map[string]string{}

	p["LOCATORE_NOME"] = personName(d.Locatore)
	p["LOCATORE_CF"] = personCF(d.Locatore)
	p["LOCATORE_RESIDENZA"] = formatAddress(d.LocatoreResidence)
	p["CONDUTTORE_NOME"] = personName(d.Conduttore)
	p["CONDUTTORE_CF"] = personCF(d.Conduttore)
	p["CONDUTTORE_RESIDENZA"] = formatAddress(d.ConduttoreResidence)

	p["IMMOBILE_COMUNE"] = ""
	p["IMMOBILE_INDIRIZZO"] = formatAddress(d.Address)
	p["FOGLIO"] = ""
	p["NUMERO"] = ""
	p["SUB"] = ""
	p["CATEGORIA"] = ""
	p["CLASSE"] = ""
	p["CONSISTENZA"] = ""
	p["RENDITA"] = ""
	p["SUPERFICIE"] = ""
	p["MICRO_ZONA"] = ""
	p["ZONA_CENS"] = ""
	p["ENERGY_CLASS"] = ""
	if imm := d.Immobile; imm != nil {
		p["IMMOBILE_COMUNE"] = imm.ComuneName
		p["FOGLIO"] = imm.Foglio
		p["NUMERO"] = imm.Numero
		p["SUB"] = imm.Sub
		p["CATEGORIA"] = imm.Categoria
		p["CLASSE"] = imm.Classe
		p["CONSISTENZA"] = imm.Consistenza
		p["RENDITA"] = imm.Rendita
		p["MICRO_ZONA"] = imm.MicroZona
		p["ZONA_CENS"] = imm.ZonaCens
		p["ENERGY_CLASS"] = imm.EnergyClass
		if imm.SuperficieTotale != nil {
			p["SUPERFICIE"] = fmtFloat(*imm.SuperficieTotale)
		}
	}

	p["CONTRACT_KIND"] = ""
	p["CONTRATTO_DATA"] = ""
	p["DURATA_ANNI"] = ""
	if c := d.Contract; c != nil {
		p["CONTRACT_KIND"] = c.ContractKind
		p["DURATA_ANNI"] = strconv.Itoa(c.DurataAnni)
		if c.StartDate != nil {
			p["CONTRATTO_DATA"] = c.StartDate.Format("02/01/2006")
		}
	}

	fillElements(p, d.Elements)
	fillCalculation(p, d.Input, d.Result)

	return p
}

func fillElements(p map[string]string, elements []*catastodomain.ImmobileElement) {
	byCode := map[string]string{}
	counts := map[string]int{}
	for _, el := range elements {
		byCode[strings.ToUpper(el.Code)] = el.Value
		counts[strings.ToUpper(el.Grp)]++
	}
	for _, key := range catastodomain.ElementKeys() {
		upper := strings.ToUpper(key)
		p[upper] = byCode[upper]
	}
	for _, grp := range []string{"A", "B", "C", "D"} {
		p[grp+"_CNT"] = strconv.Itoa(counts[grp])
	}
}

func fillCalculation(p map[string]string, in canonedomain.Input, res *canonedomain.Result) {
	for _, key := range []string{
		"CAN_ZONA", "CAN_TIPOLOGIA", "CAN_SUBFASCIA",
		"CAN_BASE_MIN_MQ", "CAN_BASE_MAX_MQ", "CAN_BASE_MQ",
		"CAN_BASE_ANNUO", "CAN_BASE_MENSILE", "CAN_TOTALE_PCT",
		"CAN_FINALE_ANNUO_MIN", "CAN_FINALE_ANNUO_MAX",
		"CAN_FINALE_MENSILE_MIN", "CAN_FINALE_MENSILE_MAX",
		"CAN_FINALE_ANNUO", "CAN_FINALE_MENSILE",
		"CAN_ARREDATO", "CAN_ENERGY", "CAN_DURATA",
		"CAN_KIND", "CAN_ISTAT", "CAN_CONTRATTUALE_MENSILE",
	} {
		p[key] = ""
	}

	if in.AgreedMensile != nil {
		p["CAN_CONTRATTUALE_MENSILE"] = fmtFloat(*in.AgreedMensile)
	}
	if res == nil {
		return
	}

	p["CAN_ZONA"] = strconv.Itoa(res.Zona)
	p["CAN_TIPOLOGIA"] = string(res.Tipologia)
	p["CAN_SUBFASCIA"] = strconv.Itoa(res.Subfascia)
	p["CAN_BASE_MIN_MQ"] = fmtFloat(res.BaseMinEuroMq)
	p["CAN_BASE_MAX_MQ"] = fmtFloat(res.BaseMaxEuroMq)
	p["CAN_BASE_MQ"] = fmtFloat(res.BaseEuroMq)
	p["CAN_BASE_ANNUO"] = fmtFloat(res.CanoneBaseAnnuo)
	p["CAN_BASE_MENSILE"] = fmtFloat(res.CanoneBaseMensile)
	p["CAN_TOTALE_PCT"] = fmtPct(res.TotalPct)
	p["CAN_FINALE_ANNUO_MIN"] = fmtFloat(res.FinaleAnnuoMin)
	p["CAN_FINALE_ANNUO_MAX"] = fmtFloat(res.FinaleAnnuoMax)
	p["CAN_FINALE_MENSILE_MIN"] = fmtFloat(res.FinaleMensileMin)
	p["CAN_FINALE_MENSILE_MAX"] = fmtFloat(res.FinaleMensileMax)
	p["CAN_FINALE_ANNUO"] = fmtFloat(res.FinaleAnnuo)
	p["CAN_FINALE_MENSILE"] = fmtFloat(res.FinaleMensile)

	for _, s := range res.Surcharges {
		switch s.Code {
		case canonedomain.SurchargeArredato:
			p["CAN_ARREDATO"] = fmtPct(s.Pct)
		case canonedomain.SurchargeEnergy:
			p["CAN_ENERGY"] = fmtPct(s.Pct)
		case canonedomain.SurchargeDurata:
			p["CAN_DURATA"] = fmtPct(s.Pct)
		case canonedomain.SurchargeTransitorio, canonedomain.SurchargeStudenti:
			p["CAN_KIND"] = fmtPct(s.Pct)
		case canonedomain.SurchargeIstat:
			p["CAN_ISTAT"] = fmtPct(s.Pct)
		}
	}
}

func personName(p *catastodomain.Person) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Surname + " " + p.Name)
}

func personCF(p *catastodomain.Person) string {
	if p == nil {
		return ""
	}
	return p.CF
}

func formatAddress(a *catastodomain.Address) string {
	if a == nil {
		return ""
	}
	out := a.ViaFull
	if a.Civico != "" {
		out += " " + a.Civico
	}
	if a.Comune != "" {
		out += ", " + a.Comune
	}
	var extras []string
	if a.Piano != "" {
		extras = append(extras, "piano "+a.Piano)
	}
	if a.Interno != "" {
		extras = append(extras, "int. "+a.Interno)
	}
	if len(extras) > 0 {
		out += " (" + strings.Join(extras, ", ") + ")"
	}
	return strings.TrimSpace(out)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fmtPct(v float64) string {
	pct := v * 100
	rounded := math.Round(pct*100) / 100
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if rounded >= 0 {
		return fmt.Sprintf("+%s%%", s)
	}
	return s + "%"
}
