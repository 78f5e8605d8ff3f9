package attestazione

import (
	"context"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type pdfRenderer struct{}

func NewPDFRenderer() Renderer {
	return &pdfRenderer{}
}

func (r *pdfRenderer) Render(_ context.Context, p map[string]string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pag. {current} di {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "ATTESTAZIONE DI RISPONDENZA", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Canone concordato ai sensi dell'accordo territoriale 2018", props.Text{
			Size:  10,
			Align: align.Center,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Locatore", props.Text{Style: fontstyle.Bold}),
			text.New(p["LOCATORE_NOME"], props.Text{Top: 5}),
			text.New(p["LOCATORE_CF"], props.Text{Top: 9}),
			text.New(p["LOCATORE_RESIDENZA"], props.Text{Top: 13, Size: 9}),
		),
		col.New(6).Add(
			text.New("Conduttore", props.Text{Style: fontstyle.Bold}),
			text.New(p["CONDUTTORE_NOME"], props.Text{Top: 5}),
			text.New(p["CONDUTTORE_CF"], props.Text{Top: 9}),
			text.New(p["CONDUTTORE_RESIDENZA"], props.Text{Top: 13, Size: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(12, "Immobile", props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	m.AddRow(25,
		col.New(6).Add(
			text.New("Comune: "+p["IMMOBILE_COMUNE"], props.Text{Size: 9}),
			text.New("Indirizzo: "+p["IMMOBILE_INDIRIZZO"], props.Text{Top: 4, Size: 9}),
			text.New("Foglio "+p["FOGLIO"]+"  Part. "+p["NUMERO"]+"  Sub "+p["SUB"], props.Text{Top: 8, Size: 9}),
		),
		col.New(6).Add(
			text.New("Categoria: "+p["CATEGORIA"]+"  Classe: "+p["CLASSE"], props.Text{Size: 9}),
			text.New("Superficie catastale: "+p["SUPERFICIE"]+" mq", props.Text{Top: 4, Size: 9}),
			text.New("Classe energetica: "+p["ENERGY_CLASS"], props.Text{Top: 8, Size: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(12, "Elementi", props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	r.elementRows(m, p)

	m.AddRow(10,
		text.NewCol(12, "Determinazione del canone", props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	m.AddRow(8,
		text.NewCol(4, "Zona: "+p["CAN_ZONA"], props.Text{Size: 9}),
		text.NewCol(4, "Tipologia: "+p["CAN_TIPOLOGIA"], props.Text{Size: 9}),
		text.NewCol(4, "Sottofascia: "+p["CAN_SUBFASCIA"], props.Text{Size: 9}),
	)
	m.AddRow(8,
		text.NewCol(6, "Fascia base: "+p["CAN_BASE_MIN_MQ"]+" - "+p["CAN_BASE_MAX_MQ"]+" euro/mq/anno", props.Text{Size: 9}),
		text.NewCol(6, "Valore applicato: "+p["CAN_BASE_MQ"]+" euro/mq/anno", props.Text{Size: 9}),
	)
	m.AddRow(8,
		text.NewCol(6, "Canone base annuo: "+p["CAN_BASE_ANNUO"]+" euro", props.Text{Size: 9}),
		text.NewCol(6, "Canone base mensile: "+p["CAN_BASE_MENSILE"]+" euro", props.Text{Size: 9}),
	)

	r.surchargeRows(m, p)

	m.AddRow(10,
		text.NewCol(12,
			"Canone annuo risultante: da "+p["CAN_FINALE_ANNUO_MIN"]+" a "+p["CAN_FINALE_ANNUO_MAX"]+" euro",
			props.Text{Size: 10, Style: fontstyle.Bold}),
	)
	m.AddRow(10,
		text.NewCol(12,
			"Canone mensile risultante: da "+p["CAN_FINALE_MENSILE_MIN"]+" a "+p["CAN_FINALE_MENSILE_MAX"]+" euro",
			props.Text{Size: 10, Style: fontstyle.Bold}),
	)
	if p["CAN_CONTRATTUALE_MENSILE"] != "" {
		m.AddRow(8,
			text.NewCol(12, "Canone contrattuale dichiarato: "+p["CAN_CONTRATTUALE_MENSILE"]+" euro/mese", props.Text{Size: 9}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// elementRows prints one line per element group: the count and the set
// elements with their values.
func (r *pdfRenderer) elementRows(m core.Maroto, p map[string]string) {
	limits := map[string]int{"A": 2, "B": 5, "C": 7, "D": 13}
	for _, grp := range []string{"A", "B", "C", "D"} {
		var set []string
		for i := 1; i <= limits[grp]; i++ {
			code := grp + strconv.Itoa(i)
			if v := p[code]; v != "" {
				set = append(set, code+": "+v)
			}
		}
		line := "Gruppo " + grp + " (" + p[grp+"_CNT"] + ")"
		if len(set) > 0 {
			line += "  " + strings.Join(set, "; ")
		}
		m.AddRow(6, text.NewCol(12, line, props.Text{Size: 8}))
	}
}

func (r *pdfRenderer) surchargeRows(m core.Maroto, p map[string]string) {
	labels := [][2]string{
		{"CAN_ARREDATO", "Arredamento"},
		{"CAN_ENERGY", "Classe energetica"},
		{"CAN_DURATA", "Durata contrattuale"},
		{"CAN_KIND", "Tipologia contrattuale"},
		{"CAN_ISTAT", "Aggiornamento ISTAT"},
	}
	any := false
	for _, l := range labels {
		if p[l[0]] != "" {
			any = true
			break
		}
	}
	if !any {
		return
	}

	m.AddRow(8,
		text.NewCol(12, "Maggiorazioni applicate (totale "+p["CAN_TOTALE_PCT"]+")", props.Text{Size: 9, Style: fontstyle.Bold}),
	)
	for _, l := range labels {
		if p[l[0]] == "" {
			continue
		}
		m.AddRow(6,
			text.NewCol(6, l[1], props.Text{Size: 8}),
			text.NewCol(6, p[l[0]], props.Text{Size: 8, Align: align.Right}),
		)
	}
}
