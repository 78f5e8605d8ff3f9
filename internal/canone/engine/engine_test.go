package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abruzzotech/attesta/internal/canone/domain"
)

func newEngine() *Engine {
	return New(Params{Log: zap.NewNop()})
}

func baseInput() domain.Input {
	return domain.Input{
		Superficie:   80,
		MicroZona:    "1",
		Categoria:    "A/2",
		Classe:       "2",
		CountA:       2,
		CountB:       3,
		CountC:       3,
		CountD:       2,
		ContractKind: domain.KindConcordato,
		DurataAnni:   3,
	}
}

func TestComputeBaseFigures(t *testing.T) {
	res, err := newEngine().Compute(baseInput())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Zona)
	assert.Equal(t, domain.TipologiaDa71A95, res.Tipologia)
	assert.Equal(t, 3, res.Subfascia)
	assert.Equal(t, 80.0, res.BaseMinEuroMq)
	assert.Equal(t, 100.0, res.BaseMaxEuroMq)
	assert.Equal(t, 88.0, res.BaseEuroMq)
	assert.Equal(t, 7040.0, res.CanoneBaseAnnuo)
	assert.Equal(t, 586.67, res.CanoneBaseMensile)

	assert.Empty(t, res.Surcharges)
	assert.Zero(t, res.TotalPct)
	assert.Equal(t, res.CanoneBaseAnnuo, res.FinaleAnnuo)
	assert.Equal(t, 6400.0, res.FinaleAnnuoMin)
	assert.Equal(t, 8000.0, res.FinaleAnnuoMax)
}

func TestComputeUnknownMicroZoneResolvesBySheet(t *testing.T) {
	in := baseInput()
	in.MicroZona = "99"
	in.Foglio = "13"

	res, err := newEngine().Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Zona)
}

func TestComputeInterpolationMonotonicInD(t *testing.T) {
	e := newEngine()
	prev := -1.0
	for d := 0; d <= 13; d++ {
		in := baseInput()
		in.CountD = d
		res, err := e.Compute(in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.BaseEuroMq, prev, "d=%d", d)
		assert.GreaterOrEqual(t, res.BaseEuroMq, res.BaseMinEuroMq)
		assert.LessOrEqual(t, res.BaseEuroMq, res.BaseMaxEuroMq)
		prev = res.BaseEuroMq
	}

	// The scale saturates at five elements.
	in := baseInput()
	in.CountD = 5
	at5, err := e.Compute(in)
	require.NoError(t, err)
	in.CountD = 13
	at13, err := e.Compute(in)
	require.NoError(t, err)
	assert.Equal(t, at5.BaseEuroMq, at13.BaseEuroMq)
	assert.Equal(t, at5.BaseMaxEuroMq, at5.BaseEuroMq)
}

func TestComputeSurchargesSummedNotCompounded(t *testing.T) {
	in := baseInput()
	in.ArredatoPct = 0.15
	in.EnergyClass = "A"
	in.DurataAnni = 6
	in.IstatRate = 0.015

	res, err := newEngine().Compute(in)
	require.NoError(t, err)

	require.Len(t, res.Surcharges, 4)
	assert.InDelta(t, 0.15+0.08+0.07+0.015, res.TotalPct, 1e-9)

	for _, s := range res.Surcharges {
		assert.True(t, s.InTotal, s.Code)
		assert.InDelta(t, res.CanoneBaseAnnuo*s.Pct, s.Value, 0.01, s.Code)
	}

	want := round2(7040 * (1 + res.TotalPct))
	assert.Equal(t, want, res.FinaleAnnuo)
}

func TestComputeEnergyClassPerClass(t *testing.T) {
	cases := map[string]float64{
		"A": 0.08, "B": 0.04, "E": -0.02, "F": -0.04, "G": -0.06,
	}
	for class, pct := range cases {
		in := baseInput()
		in.EnergyClass = class
		res, err := newEngine().Compute(in)
		require.NoError(t, err)
		require.Len(t, res.Surcharges, 1, class)
		assert.InDelta(t, pct, res.Surcharges[0].Pct, 1e-9, class)
	}

	for _, neutral := range []string{"C", "D", "", "X"} {
		in := baseInput()
		in.EnergyClass = neutral
		res, err := newEngine().Compute(in)
		require.NoError(t, err)
		assert.Empty(t, res.Surcharges, neutral)
	}
}

func TestComputeDurataTiers(t *testing.T) {
	cases := map[int]float64{3: 0, 4: 0.05, 5: 0.06, 6: 0.07, 9: 0.07}
	for anni, pct := range cases {
		in := baseInput()
		in.DurataAnni = anni
		res, err := newEngine().Compute(in)
		require.NoError(t, err)
		assert.InDelta(t, pct, res.TotalPct, 1e-9, "anni=%d", anni)
	}
}

func TestComputeKindSurchargeIgnored(t *testing.T) {
	in := baseInput()
	in.ContractKind = domain.KindStudenti
	in.IgnoreSurcharges = true

	res, err := newEngine().Compute(in)
	require.NoError(t, err)

	// Still reported, but excluded from the stacked total.
	require.Len(t, res.Surcharges, 1)
	assert.Equal(t, domain.SurchargeStudenti, res.Surcharges[0].Code)
	assert.InDelta(t, 0.20, res.Surcharges[0].Pct, 1e-9)
	assert.False(t, res.Surcharges[0].InTotal)
	assert.Zero(t, res.TotalPct)
	assert.Equal(t, res.CanoneBaseAnnuo, res.FinaleAnnuo)

	in.IgnoreSurcharges = false
	res, err = newEngine().Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, res.TotalPct, 1e-9)
}

func TestComputeTransitorioSurcharge(t *testing.T) {
	in := baseInput()
	in.ContractKind = domain.KindTransitorio

	res, err := newEngine().Compute(in)
	require.NoError(t, err)
	require.Len(t, res.Surcharges, 1)
	assert.Equal(t, domain.SurchargeTransitorio, res.Surcharges[0].Code)
	assert.InDelta(t, 0.15, res.TotalPct, 1e-9)
}

func TestClassifyZona(t *testing.T) {
	e := newEngine()

	// Micro zone wins over the sheet, leading zeros are stripped.
	z, err := e.classifyZona("03", "13")
	require.NoError(t, err)
	assert.Equal(t, 2, z)

	z, err = e.classifyZona("", "0013")
	require.NoError(t, err)
	assert.Equal(t, 1, z)

	// Sheet 27 needs its subdivision suffix.
	_, err = e.classifyZona("", "27")
	assert.ErrorIs(t, err, domain.ErrClassification)

	z, err = e.classifyZona("", "27/1")
	require.NoError(t, err)
	assert.Equal(t, 2, z)

	// An unknown micro zone falls back to the sheet lookup.
	z, err = e.classifyZona("99", "13")
	require.NoError(t, err)
	assert.Equal(t, 1, z)

	_, err = e.classifyZona("99", "999")
	assert.ErrorIs(t, err, domain.ErrClassification)

	_, err = e.classifyZona("", "")
	assert.ErrorIs(t, err, domain.ErrClassification)
}

func TestClassifyTipologia(t *testing.T) {
	assert.Equal(t, domain.TipologiaUnifamiliare, classifyTipologia("A/7", 200))
	assert.Equal(t, domain.TipologiaUnifamiliare, classifyTipologia("A/8", 200))
	assert.Equal(t, domain.TipologiaUnifamiliare, classifyTipologia("a/9", 45))
	assert.Equal(t, domain.TipologiaFinoA50, classifyTipologia("A/2", 50))
	assert.Equal(t, domain.TipologiaDa51A70, classifyTipologia("A/2", 50.5))
	assert.Equal(t, domain.TipologiaDa71A95, classifyTipologia("A/2", 95))
	assert.Equal(t, domain.TipologiaDa96A110, classifyTipologia("A/2", 96))
	assert.Equal(t, domain.TipologiaOltre110, classifyTipologia("A/2", 111))
}

func TestClassifySubfascia(t *testing.T) {
	assert.Equal(t, 1, classifySubfascia("A/5", "1", 2, 5, 7))
	assert.Equal(t, 1, classifySubfascia("A/2", "2", 1, 5, 7))
	assert.Equal(t, 1, classifySubfascia("A/2", "2", 2, 2, 7))
	assert.Equal(t, 2, classifySubfascia("A/2", "2", 2, 3, 2))
	assert.Equal(t, 3, classifySubfascia("A/2", "2", 2, 3, 3))

	// A/4, A/6 and A/3 in class 1 never reach the top band.
	assert.Equal(t, 2, classifySubfascia("A/4", "2", 2, 5, 7))
	assert.Equal(t, 2, classifySubfascia("A/6", "1", 2, 5, 7))
	assert.Equal(t, 2, classifySubfascia("A/3", "01", 2, 5, 7))
	assert.Equal(t, 3, classifySubfascia("A/3", "2", 2, 5, 7))
}

func TestComputeValidation(t *testing.T) {
	in := baseInput()
	in.Superficie = 0
	_, err := newEngine().Compute(in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = baseInput()
	in.CountA = 3
	_, err = newEngine().Compute(in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = baseInput()
	in.CountD = 14
	_, err = newEngine().Compute(in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRangesWellFormed(t *testing.T) {
	for zona, byTip := range baseRanges {
		for tip, ranges := range byTip {
			for i, r := range ranges {
				assert.Less(t, r.Min, r.Max, "zona=%d tip=%s sub=%d", zona, tip, i+1)
				assert.Positive(t, r.Min, "zona=%d tip=%s sub=%d", zona, tip, i+1)
			}
		}
	}
	for mz, z := range microZonaToZona {
		_, ok := baseRanges[z]
		assert.True(t, ok, "micro zone %s maps to missing zone %d", mz, z)
	}
	for f, z := range foglioToZona {
		_, ok := baseRanges[z]
		assert.True(t, ok, "sheet %s maps to missing zone %d", f, z)
	}
}
