package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullLine(t *testing.T) {
	got := Parse("VIALE DELLA RIVIERA n. 285 Scala U Interno 1 Piano 1")

	assert.Equal(t, "VIALE", got.ViaType)
	assert.Equal(t, "DELLA RIVIERA", got.ViaName)
	assert.Equal(t, "285", got.Civico)
	assert.Equal(t, "U", got.Scala)
	assert.Equal(t, "1", got.Interno)
	assert.Equal(t, "1", got.Piano)
	assert.False(t, got.SNC)
	assert.Equal(t, "VIALE DELLA RIVIERA n. 285 Scala U Interno 1 Piano 1", got.Raw)
}

func TestParseSNC(t *testing.T) {
	got := Parse("Piazza Garibaldi SNC")

	assert.Equal(t, "PIAZZA", got.ViaType)
	assert.Equal(t, "Garibaldi", got.ViaName)
	assert.Empty(t, got.Civico)
	assert.True(t, got.SNC, "SNC is an explicit no-number, not an unparsed one")
}

func TestParseSNCWithPrefix(t *testing.T) {
	got := Parse("VIA ROMA n. SNC")

	assert.True(t, got.SNC)
	assert.Empty(t, got.Civico)
	assert.Equal(t, "ROMA", got.ViaName)
}

func TestParseExplicitCivicoWinsOverTrailing(t *testing.T) {
	// The prefixed number is the civic; the trailing 3 belongs to the name.
	got := Parse("STRADA COMUNALE 3 CIVICO 17")

	assert.Equal(t, "17", got.Civico)
	assert.Equal(t, "COMUNALE 3", got.ViaName)
	assert.Equal(t, "STRADA", got.ViaType)
}

func TestParseBareTrailingNumber(t *testing.T) {
	got := Parse("CORSO VITTORIO EMANUELE 120")

	assert.Equal(t, "CORSO", got.ViaType)
	assert.Equal(t, "VITTORIO EMANUELE", got.ViaName)
	assert.Equal(t, "120", got.Civico)
}

func TestParseAbbreviatedPiazza(t *testing.T) {
	got := Parse("P.ZZA DEI VESTINI 10")

	assert.Equal(t, "PIAZZA", got.ViaType)
	assert.Equal(t, "DEI VESTINI", got.ViaName)
	assert.Equal(t, "10", got.Civico)
}

func TestParsePianoTerra(t *testing.T) {
	got := Parse("VIA MILANO n. 4 Piano T")

	assert.Equal(t, "T", got.Piano)
	assert.Equal(t, "MILANO", got.ViaName)
	assert.Equal(t, "4", got.Civico)
}

func TestParseSeminterrato(t *testing.T) {
	got := Parse("VIA FIRENZE 9 P. S1")

	assert.Equal(t, "S1", got.Piano)
	assert.Equal(t, "9", got.Civico)
}

func TestParseNoStreetType(t *testing.T) {
	got := Parse("CONTRADA VALLEMARE SNC")
	assert.Equal(t, "CONTRADA", got.ViaType)

	got = Parse("SALITA DEGLI ORTI 2")
	assert.Empty(t, got.ViaType, "unknown street token stays in the name")
	assert.Equal(t, "SALITA DEGLI ORTI", got.ViaName)
	assert.Equal(t, "2", got.Civico)
}

func TestParseCollapsesWhitespace(t *testing.T) {
	got := Parse("VIA  DEGLI   ALPINI   n. 7")

	require.Equal(t, "DEGLI ALPINI", got.ViaName)
	assert.Equal(t, "7", got.Civico)
}

func TestParseKeepsRawVerbatim(t *testing.T) {
	in := "Via Nazionale Adriatica Nord n. 12 int. 5"
	got := Parse(in)

	assert.Equal(t, in, got.Raw)
	assert.Equal(t, "5", got.Interno)
	assert.Equal(t, "12", got.Civico)
}
