// Package address parses free-text Italian address lines from cadastral
// documents into structured components.
package address

import (
	"regexp"
	"strings"
)

// Parts is the normalized representation of one address line. Empty string
// means the component was not present; SNC marks an address explicitly
// declared without a civic number, which is distinct from "not parsed".
type Parts struct {
	ViaType string `json:"via_type"`
	ViaName string `json:"via_name"`
	Civico  string `json:"civico"`
	SNC     bool   `json:"snc"`
	Scala   string `json:"scala"`
	Interno string `json:"interno"`
	Piano   string `json:"piano"`
	Raw     string `json:"indirizzo_raw"`
}

// Street rejoins the type and name for storage.
func (p Parts) Street() string {
	return strings.TrimSpace(strings.TrimSpace(p.ViaType) + " " + strings.TrimSpace(p.ViaName))
}

// CivicLabel is the storable civic: the number, or SNC when the address was
// declared without one. Empty when nothing was parsed.
func (p Parts) CivicLabel() string {
	if p.SNC {
		return "SNC"
	}
	return p.Civico
}

var (
	scalaRe   = regexp.MustCompile(`(?i)\b(?:SCALA|SC\.?)\s*([A-Z0-9]+)\b`)
	internoRe = regexp.MustCompile(`(?i)\b(?:INTERNO|INT\.?)\s*([A-Z0-9]+)\b`)
	pianoRe   = regexp.MustCompile(`(?i)\b(?:PIANO|P\.)\s*(T\b|TERRA|RIALZATO|AMMEZZATO|S\d|[-A-Z0-9°]+)`)

	civicoPrefixedRe = regexp.MustCompile(`(?i)\b(?:N\.?|NUM\.?|CIVICO)\s*(\d+[A-Z]?(?:[-/\dA-Z]+)?)\b`)
	civicoTrailingRe = regexp.MustCompile(`(?i)\b(\d+[A-Z]?(?:[-/\dA-Z]+)?)\s*$`)
	sncRe            = regexp.MustCompile(`(?i)\b(?:N\.?\s*)?SNC\b`)

	streetTypeRe = regexp.MustCompile(`(?i)^(VIA|VIALE|P\.?ZZA|PIAZZA|CORSO|STRADA|VICOLO|LARGO|BORGO|LOCALITÀ|LOCALITA|LOC\.?|FRAZIONE|FRAZ\.?|CONTRADA)\s+(.+)$`)

	spacesRe = regexp.MustCompile(`\s{2,}`)
)

// Parse splits one address line into components. Extraction order matters:
// scala/interno/piano tags are removed first wherever they appear, then the
// civic number, and only then is the remainder split into street type and
// name. Doing it the other way round lets a "Piano 1" tail leak into the
// street name.
func Parse(text string) Parts {
	raw := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	working := raw

	var scala, interno, piano string
	for _, c := range []struct {
		re  *regexp.Regexp
		dst *string
	}{
		{scalaRe, &scala},
		{internoRe, &interno},
		{pianoRe, &piano},
	} {
		if m := c.re.FindStringSubmatchIndex(working); m != nil {
			*c.dst = strings.ToUpper(strings.TrimSpace(working[m[2]:m[3]]))
			working = strings.TrimSpace(working[:m[0]] + " " + working[m[1]:])
		}
	}

	var civico string
	snc := false
	if sncRe.MatchString(working) {
		snc = true
		working = strings.TrimSpace(sncRe.ReplaceAllString(working, " "))
	} else if m := civicoPrefixedRe.FindStringSubmatchIndex(working); m != nil {
		civico = working[m[2]:m[3]]
		working = strings.TrimSpace(working[:m[0]] + " " + working[m[1]:])
	} else if m := civicoTrailingRe.FindStringSubmatchIndex(working); m != nil {
		civico = working[m[2]:m[3]]
		working = strings.TrimSpace(working[:m[0]] + " " + working[m[1]:])
	}

	var viaType, viaName string
	if m := streetTypeRe.FindStringSubmatch(working); m != nil {
		viaType = normalizeStreetType(m[1])
		viaName = strings.TrimSpace(m[2])
	} else {
		viaName = working
	}

	viaName = strings.TrimSpace(spacesRe.ReplaceAllString(viaName, " "))

	return Parts{
		ViaType: viaType,
		ViaName: viaName,
		Civico:  civico,
		SNC:     snc,
		Scala:   scala,
		Interno: interno,
		Piano:   piano,
		Raw:     raw,
	}
}

func normalizeStreetType(t string) string {
	t = strings.ToUpper(strings.ReplaceAll(t, ".", ""))
	if t == "PZZA" {
		return "PIAZZA"
	}
	return t
}
