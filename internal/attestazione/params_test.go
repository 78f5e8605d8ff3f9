package attestazione

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canonedomain "github.com/abruzzotech/attesta/internal/canone/domain"
	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
)

func TestBuildParamsAllKeysPresent(t *testing.T) {
	// Even a completely empty dataset yields the full key set with blanks.
	p := BuildParams(Data{})

	for _, key := range []string{
		"LOCATORE_NOME", "LOCATORE_CF", "CONDUTTORE_NOME", "CONDUTTORE_CF",
		"IMMOBILE_COMUNE", "FOGLIO", "NUMERO", "SUB", "CATEGORIA",
		"SUPERFICIE", "ENERGY_CLASS", "CONTRACT_KIND", "DURATA_ANNI",
		"CAN_ZONA", "CAN_BASE_MQ", "CAN_BASE_ANNUO", "CAN_FINALE_ANNUO_MIN",
		"CAN_FINALE_MENSILE_MAX", "CAN_ARREDATO", "CAN_ISTAT",
		"A1", "B5", "C7", "D13", "A_CNT", "D_CNT",
	} {
		v, ok := p[key]
		assert.True(t, ok, key)
		if key == "A_CNT" || key == "D_CNT" {
			assert.Equal(t, "0", v, key)
		} else {
			assert.Empty(t, v, key)
		}
	}
}

func TestBuildParamsFilled(t *testing.T) {
	sup := 80.0
	agreed := 550.0

	p := BuildParams(Data{
		Locatore: &catastodomain.Person{CF: "RSSMRA80A01G482X", Surname: "ROSSI", Name: "Mario"},
		Immobile: &catastodomain.Immobile{
			OwnerCF: "RSSMRA80A01G482X", Foglio: "13", Numero: "100", Sub: "5",
			Categoria: "A/2", Classe: "2", ComuneName: "PESCARA",
			SuperficieTotale: &sup, EnergyClass: "B",
		},
		Elements: []*catastodomain.ImmobileElement{
			{Grp: "A", Code: "A1", Value: "si"},
			{Grp: "D", Code: "D3", Value: "ascensore"},
			{Grp: "D", Code: "D5", Value: "si"},
		},
		Contract: &catastodomain.Contract{ContractKind: "CONCORDATO", DurataAnni: 4},
		Input:    canonedomain.Input{AgreedMensile: &agreed},
		Result: &canonedomain.Result{
			Zona: 1, Tipologia: canonedomain.TipologiaDa71A95, Subfascia: 3,
			BaseMinEuroMq: 80, BaseMaxEuroMq: 100, BaseEuroMq: 88,
			CanoneBaseAnnuo: 7040, CanoneBaseMensile: 586.67,
			TotalPct: 0.13,
			Surcharges: []canonedomain.Surcharge{
				{Code: canonedomain.SurchargeArredato, Pct: 0.15},
				{Code: canonedomain.SurchargeEnergy, Pct: -0.06},
			},
			FinaleAnnuoMin: 7232, FinaleAnnuoMax: 9040,
		},
	})

	assert.Equal(t, "ROSSI Mario", p["LOCATORE_NOME"])
	assert.Equal(t, "13", p["FOGLIO"])
	assert.Equal(t, "80.00", p["SUPERFICIE"])
	assert.Equal(t, "B", p["ENERGY_CLASS"])
	assert.Equal(t, "4", p["DURATA_ANNI"])

	assert.Equal(t, "si", p["A1"])
	assert.Equal(t, "ascensore", p["D3"])
	assert.Equal(t, "", p["D4"])
	assert.Equal(t, "1", p["A_CNT"])
	assert.Equal(t, "0", p["B_CNT"])
	assert.Equal(t, "2", p["D_CNT"])

	assert.Equal(t, "1", p["CAN_ZONA"])
	assert.Equal(t, "71-95", p["CAN_TIPOLOGIA"])
	assert.Equal(t, "88.00", p["CAN_BASE_MQ"])
	assert.Equal(t, "586.67", p["CAN_BASE_MENSILE"])
	assert.Equal(t, "+13%", p["CAN_TOTALE_PCT"])
	assert.Equal(t, "+15%", p["CAN_ARREDATO"])
	assert.Equal(t, "-6%", p["CAN_ENERGY"])
	assert.Equal(t, "550.00", p["CAN_CONTRATTUALE_MENSILE"])
}

func TestFormatAddress(t *testing.T) {
	assert.Empty(t, formatAddress(nil))
	assert.Equal(t, "VIA ROMA 10, PESCARA",
		formatAddress(&catastodomain.Address{ViaFull: "VIA ROMA", Civico: "10", Comune: "PESCARA"}))
	assert.Equal(t, "VIA ROMA SNC, PESCARA (piano 2, int. 4)",
		formatAddress(&catastodomain.Address{ViaFull: "VIA ROMA", Civico: "SNC", Comune: "PESCARA", Piano: "2", Interno: "4"}))
}

func TestObjectName(t *testing.T) {
	p := BuildParams(Data{Immobile: &catastodomain.Immobile{
		OwnerCF: "RSSMRA80A01G482X", Foglio: "13", Numero: "100", Sub: "5",
	}})
	p["LOCATORE_CF"] = "RSSMRA80A01G482X"
	assert.Equal(t, "attestazione_RSSMRA80A01G482X_13_100_5.pdf", objectName(p))

	p["SUB"] = ""
	assert.Equal(t, "attestazione_RSSMRA80A01G482X_13_100.pdf", objectName(p))
}

func TestFmtPct(t *testing.T) {
	require.Equal(t, "+8%", fmtPct(0.08))
	require.Equal(t, "+6.5%", fmtPct(0.065))
	require.Equal(t, "-4%", fmtPct(-0.04))
	require.Equal(t, "+0%", fmtPct(0))
}
