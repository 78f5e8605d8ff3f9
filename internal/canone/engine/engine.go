// Package engine computes the regulated rent range for a residential
// property under the 2018 territorial agreement.
package engine

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abruzzotech/attesta/internal/canone/domain"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

// Engine is stateless; classification and rate tables are compiled in.
type Engine struct {
	log *zap.Logger
}

func New(p Params) *Engine {
	return &Engine{log: p.Log.Named("canone.engine")}
}

// Compute classifies the property, interpolates the base rate and applies
// the surcharge stack. The input is never mutated.
func (e *Engine) Compute(in domain.Input) (*domain.Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	zona, err := e.classifyZona(in.MicroZona, in.Foglio)
	if err != nil {
		return nil, err
	}
	tipologia := classifyTipologia(in.Categoria, in.Superficie)
	subfascia := classifySubfascia(in.Categoria, in.Classe, in.CountA, in.CountB, in.CountC)

	zt, ok := baseRanges[zona]
	if !ok {
		return nil, fmt.Errorf("%w: no rate table for zone %d", domain.ErrClassification, zona)
	}
	ranges, ok := zt[tipologia]
	if !ok {
		return nil, fmt.Errorf("%w: no rate table for zone %d tipologia %s", domain.ErrClassification, zona, tipologia)
	}
	rng := ranges[subfascia-1]

	// Service elements of group D move the rate inside the band. The scale
	// saturates at five elements.
	d := in.CountD
	if d > 5 {
		d = 5
	}
	baseEuroMq := rng.Min + (rng.Max-rng.Min)*float64(d)/5

	baseAnnuo := baseEuroMq * in.Superficie

	surcharges, totalPct := e.surcharges(in, baseAnnuo)

	res := &domain.Result{
		Zona:      zona,
		Tipologia: tipologia,
		Subfascia: subfascia,

		BaseMinEuroMq: rng.Min,
		BaseMaxEuroMq: rng.Max,
		BaseEuroMq:    round2(baseEuroMq),

		CanoneBaseAnnuo:   round2(baseAnnuo),
		CanoneBaseMensile: round2(baseAnnuo / 12),

		Surcharges: surcharges,
		TotalPct:   totalPct,

		FinaleAnnuoMin:   round2(rng.Min * in.Superficie * (1 + totalPct)),
		FinaleAnnuoMax:   round2(rng.Max * in.Superficie * (1 + totalPct)),
		FinaleMensileMin: round2(rng.Min * in.Superficie * (1 + totalPct) / 12),
		FinaleMensileMax: round2(rng.Max * in.Superficie * (1 + totalPct) / 12),

		FinaleAnnuo:   round2(baseAnnuo * (1 + totalPct)),
		FinaleMensile: round2(baseAnnuo * (1 + totalPct) / 12),

		AgreedMensile: in.AgreedMensile,
	}
	return res, nil
}

// surcharges builds the adjustment list. Every applicable surcharge is
// reported; contract-kind surcharges are kept out of the stacked total when
// the caller asked to ignore them.
func (e *Engine) surcharges(in domain.Input, baseAnnuo float64) ([]domain.Surcharge, float64) {
	var out []domain.Surcharge
	var total float64

	add := func(code string, pct float64, inTotal bool) {
		out = append(out, domain.Surcharge{
			Code:    code,
			Pct:     pct,
			Value:   round2(baseAnnuo * pct),
			InTotal: inTotal,
		})
		if inTotal {
			total += pct
		}
	}

	if in.ArredatoPct != 0 {
		add(domain.SurchargeArredato, in.ArredatoPct, true)
	}
	if pct, ok := energySurcharges[strings.ToUpper(in.EnergyClass)]; ok {
		add(domain.SurchargeEnergy, pct, true)
	}
	if pct := durataSurcharge(in.DurataAnni); pct != 0 {
		add(domain.SurchargeDurata, pct, true)
	}
	switch strings.ToUpper(in.ContractKind) {
	case domain.KindTransitorio:
		add(domain.SurchargeTransitorio, kindSurcharges[domain.KindTransitorio], !in.IgnoreSurcharges)
	case domain.KindStudenti:
		add(domain.SurchargeStudenti, kindSurcharges[domain.KindStudenti], !in.IgnoreSurcharges)
	}
	if in.IstatRate != 0 {
		add(domain.SurchargeIstat, in.IstatRate, true)
	}

	return out, total
}

func validate(in domain.Input) error {
	if in.Superficie <= 0 {
		return fmt.Errorf("%w: superficie must be positive, got %v", domain.ErrValidation, in.Superficie)
	}
	if in.CountA < 0 || in.CountA > 2 {
		return fmt.Errorf("%w: count_a out of range: %d", domain.ErrValidation, in.CountA)
	}
	if in.CountB < 0 || in.CountB > 5 {
		return fmt.Errorf("%w: count_b out of range: %d", domain.ErrValidation, in.CountB)
	}
	if in.CountC < 0 || in.CountC > 7 {
		return fmt.Errorf("%w: count_c out of range: %d", domain.ErrValidation, in.CountC)
	}
	if in.CountD < 0 || in.CountD > 13 {
		return fmt.Errorf("%w: count_d out of range: %d", domain.ErrValidation, in.CountD)
	}
	return nil
}

// classifyZona resolves the agreement zone, preferring the cadastral
// micro-zone over the sheet number. An unknown micro-zone falls back to the
// sheet lookup; only when both miss is the property unclassifiable. Leading
// zeros are stripped before the lookup because the registry pads both codes.
func (e *Engine) classifyZona(microZona, foglio string) (int, error) {
	if mz := stripZeros(microZona); mz != "" {
		if z, ok := microZonaToZona[mz]; ok {
			return z, nil
		}
		e.log.Warn("unknown micro zone, resolving by sheet",
			zap.String("micro_zona", microZona),
			zap.String("foglio", foglio),
		)
	}
	if f := stripZeros(foglio); f != "" {
		if z, ok := foglioToZona[f]; ok {
			return z, nil
		}
		return 0, fmt.Errorf("%w: unknown sheet %q", domain.ErrClassification, foglio)
	}
	return 0, fmt.Errorf("%w: neither micro zone nor sheet available", domain.ErrClassification)
}

func stripZeros(s string) string {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	return trimmed
}

func classifyTipologia(categoria string, superficie float64) domain.Tipologia {
	switch strings.ToUpper(strings.TrimSpace(categoria)) {
	case "A/7", "A/8", "A/9":
		return domain.TipologiaUnifamiliare
	}
	switch {
	case superficie <= 50:
		return domain.TipologiaFinoA50
	case superficie <= 70:
		return domain.TipologiaDa51A70
	case superficie <= 95:
		return domain.TipologiaDa71A95
	case superficie <= 110:
		return domain.TipologiaDa96A110
	default:
		return domain.TipologiaOltre110
	}
}

// classifySubfascia places the property in one of three bands from its
// service element counts, then applies the category caps of the agreement.
func classifySubfascia(categoria, classe string, countA, countB, countC int) int {
	categoria = strings.ToUpper(strings.TrimSpace(categoria))
	classe = stripZeros(classe)

	if categoria == "A/5" {
		return 1
	}

	var sub int
	switch {
	case countA < 2 || countB < 3:
		sub = 1
	case countC < 3:
		sub = 2
	default:
		sub = 3
	}

	capped := categoria == "A/4" || categoria == "A/6" ||
		(categoria == "A/3" && classe == "1")
	if capped && sub > 2 {
		sub = 2
	}
	return sub
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
