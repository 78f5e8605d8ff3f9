package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldStates(t *testing.T) {
	assert.True(t, Unset().IsUnset())
	assert.True(t, Set("x").IsSet())
	assert.True(t, Clear().IsClear())

	assert.Equal(t, "x", Set("x").Value())
	assert.Empty(t, Clear().Value())
	assert.Empty(t, Unset().Value())
}

func TestMergeString(t *testing.T) {
	assert.Equal(t, "stored", Unset().MergeString("stored"))
	assert.Equal(t, "new", Set("new").MergeString("stored"))
	assert.Empty(t, Clear().MergeString("stored"))
}

func TestMergeFloat(t *testing.T) {
	assert.Equal(t, 0.15, Set("0.15").MergeFloat(0))
	assert.Equal(t, 0.15, Set("0,15").MergeFloat(0), "comma decimal accepted")
	assert.Equal(t, 0.10, Set("garbage").MergeFloat(0.10), "unparseable keeps stored")
	assert.Equal(t, 0.0, Clear().MergeFloat(0.10))
	assert.Equal(t, 0.10, Unset().MergeFloat(0.10))
}

func TestMergeInt(t *testing.T) {
	assert.Equal(t, 5, Set("5").MergeInt(3, 3))
	assert.Equal(t, 3, Clear().MergeInt(6, 3), "clear falls back to the default")
	assert.Equal(t, 6, Unset().MergeInt(6, 3))
}

func TestMergeBool(t *testing.T) {
	assert.True(t, Set("true").MergeBool(false))
	assert.True(t, Set("sì").MergeBool(false))
	assert.False(t, Set("no").MergeBool(true))
	assert.False(t, Clear().MergeBool(true))
	assert.True(t, Unset().MergeBool(true))
}

func TestParseSentinelOnlyOnExactDash(t *testing.T) {
	ins := Parse(map[string]string{
		"LOCATORE_CF":  "RSSMRA80A01G482X",
		"ENERGY_CLASS": "-",
		"ARREDATO":     "0.15",
		"A1":           "-",
		"B2":           "X",
	})

	assert.True(t, ins.EnergyClass.IsClear())
	assert.True(t, ins.ArredatoPct.IsSet())
	assert.True(t, ins.Elements["a1"].IsClear())
	assert.True(t, ins.Elements["b2"].IsSet())
	_, present := ins.Elements["c1"]
	assert.False(t, present, "absent element keys carry no opinion")
}

func TestParseSelectorsAndFlags(t *testing.T) {
	ins := Parse(map[string]string{
		"locatore_cf":         "RSSMRA80A01G482X",
		"FORCE_UPDATE_VISURA": "yes",
		"FOGLIO":              "14",
		"NUMERO":              "120",
		"SUB":                 "5",
	})

	assert.Equal(t, "RSSMRA80A01G482X", ins.LocatoreCF)
	assert.True(t, ins.ForceUpdate)
	assert.True(t, ins.HasSelector())
	assert.True(t, ins.Matches("14", "120", "5", "A/2"))
	assert.False(t, ins.Matches("14", "121", "5", "A/2"))
}

func TestHasOverrides(t *testing.T) {
	ins := Parse(map[string]string{"LOCATORE_CF": "RSSMRA80A01G482X"})
	assert.False(t, ins.HasOverrides())

	ins = Parse(map[string]string{"LOCATORE_CF": "RSSMRA80A01G482X", "ENERGY_CLASS": "A"})
	assert.True(t, ins.HasOverrides())

	ins = Parse(map[string]string{"LOCATORE_CF": "RSSMRA80A01G482X", "D3": "X"})
	assert.True(t, ins.HasOverrides())
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2025-03-01")
	require.True(t, ok)
	assert.Equal(t, "2025-03-01", d.Format("2006-01-02"))

	d, ok = ParseDate("01/03/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-03-01", d.Format("2006-01-02"))

	_, ok = ParseDate("not a date")
	assert.False(t, ok)
}
