package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInstructions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"LOCATORE_CF,FOGLIO,NUMERO,ENERGY_CLASS,A1\n"+
			"RSSMRA80A01G482X,13,100,B,si\n"+
			",,,,\n"+
			"VRDLGI85B02G482Y,,,-,\n",
	), 0o644))

	out, err := LoadInstructions(path)
	require.NoError(t, err)
	require.Len(t, out, 2, "blank lines are dropped")

	assert.Equal(t, "RSSMRA80A01G482X", out[0].LocatoreCF)
	assert.Equal(t, "13", out[0].Foglio)
	assert.True(t, out[0].EnergyClass.IsSet())
	assert.Equal(t, "B", out[0].EnergyClass.Value())
	assert.True(t, out[0].Elements["a1"].IsSet())

	assert.Equal(t, "VRDLGI85B02G482Y", out[1].LocatoreCF)
	assert.True(t, out[1].EnergyClass.IsClear())
	_, present := out[1].Elements["a1"]
	assert.False(t, present, "empty cell carries no opinion")
}

func TestLoadInstructionsMissingFile(t *testing.T) {
	_, err := LoadInstructions("/does/not/exist.csv")
	assert.Error(t, err)
}
