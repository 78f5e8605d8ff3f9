package engine

import "github.com/abruzzotech/attesta/internal/canone/domain"

// Rate tables from the 2018 territorial agreement for the municipality.

type euroRange struct {
	Min float64
	Max float64
}

// microZonaToZona maps the cadastral micro-zone code to the agreement zone.
var microZonaToZona = map[string]int{
	"1":  1,
	"2":  1,
	"3":  2,
	"4":  2,
	"5":  2,
	"6":  3,
	"7":  3,
	"8":  3,
	"9":  4,
	"10": 4,
}

// foglioToZona is the fallback when the micro-zone is absent from the visura.
// Sheet 27 straddles two zones and is only resolvable with its subdivision
// suffix, so the bare "27" key is deliberately missing.
var foglioToZona = map[string]int{
	"13": 1, "14": 1, "15": 1, "16": 1, "19": 1, "20": 1, "21": 1,

	"10": 2, "11": 2, "12": 2, "17": 2, "18": 2,
	"22": 2, "23": 2, "24": 2, "25": 2, "26": 2, "27/1": 2,

	"2": 3, "3": 3, "4": 3, "5": 3, "6": 3, "7": 3, "8": 3, "9": 3,
	"27/2": 3, "28": 3, "29": 3, "30": 3,

	"1": 4, "31": 4, "32": 4, "33": 4, "34": 4, "35": 4, "36": 4,
}

// baseRanges gives the agreed €/m²/year range per zone, typology and
// sub-band (1..3).
var baseRanges = map[int]map[domain.Tipologia][3]euroRange{
	1: {
		domain.TipologiaUnifamiliare: {{78, 92}, {88, 106}, {98, 122}},
		domain.TipologiaFinoA50:      {{68, 84}, {76, 94}, {86, 108}},
		domain.TipologiaDa51A70:      {{64, 80}, {72, 90}, {82, 104}},
		domain.TipologiaDa71A95:      {{60, 76}, {70, 88}, {80, 100}},
		domain.TipologiaDa96A110:     {{56, 72}, {64, 82}, {74, 94}},
		domain.TipologiaOltre110:     {{52, 68}, {60, 78}, {70, 90}},
	},
	2: {
		domain.TipologiaUnifamiliare: {{66, 78}, {75, 90}, {83, 104}},
		domain.TipologiaFinoA50:      {{58, 71}, {65, 80}, {73, 92}},
		domain.TipologiaDa51A70:      {{54, 68}, {61, 77}, {70, 88}},
		domain.TipologiaDa71A95:      {{51, 65}, {60, 75}, {68, 85}},
		domain.TipologiaDa96A110:     {{48, 61}, {54, 70}, {63, 80}},
		domain.TipologiaOltre110:     {{44, 58}, {51, 66}, {60, 77}},
	},
	3: {
		domain.TipologiaUnifamiliare: {{56, 66}, {63, 76}, {71, 88}},
		domain.TipologiaFinoA50:      {{49, 60}, {55, 68}, {62, 78}},
		domain.TipologiaDa51A70:      {{46, 58}, {52, 65}, {59, 75}},
		domain.TipologiaDa71A95:      {{43, 55}, {50, 63}, {58, 72}},
		domain.TipologiaDa96A110:     {{40, 52}, {46, 59}, {53, 68}},
		domain.TipologiaOltre110:     {{37, 49}, {43, 56}, {50, 65}},
	},
	4: {
		domain.TipologiaUnifamiliare: {{47, 55}, {53, 63}, {59, 73}},
		domain.TipologiaFinoA50:      {{41, 50}, {46, 57}, {52, 65}},
		domain.TipologiaDa51A70:      {{38, 48}, {44, 54}, {49, 62}},
		domain.TipologiaDa71A95:      {{36, 46}, {42, 52}, {48, 60}},
		domain.TipologiaDa96A110:     {{34, 43}, {38, 49}, {44, 57}},
		domain.TipologiaOltre110:     {{31, 41}, {36, 47}, {42, 54}},
	},
}

// energySurcharges per energy class. C and D are neutral and absent.
var energySurcharges = map[string]float64{
	"A": 0.08,
	"B": 0.04,
	"E": -0.02,
	"F": -0.04,
	"G": -0.06,
}

// durataSurcharge rewards longer contracts.
func durataSurcharge(anni int) float64 {
	switch {
	case anni >= 6:
		return 0.07
	case anni == 5:
		return 0.06
	case anni == 4:
		return 0.05
	default:
		return 0
	}
}

// kindSurcharges for non-standard contract kinds.
var kindSurcharges = map[string]float64{
	domain.KindTransitorio: 0.15,
	domain.KindStudenti:    0.20,
}
