package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Zero(t, c.CarrierHz)
}

func TestTranslateFallsBackToDefaults(t *testing.T) {
	c := Config{}
	pc, err := c.Translate()
	require.NoError(t, err)
	assert.Equal(t, 12000.0, pc.CarrierHz)
	assert.Equal(t, 128, pc.PayloadBits)
}

func TestLoadAndTranslateOverridesSNR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chimera.toml")
	require.NoError(t, os.WriteFile(path, []byte("carrier_freq_hz = 13000\nsnr_db = 5.0\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	pc, err := c.Translate()
	require.NoError(t, err)
	assert.Equal(t, 13000.0, pc.CarrierHz)
	assert.Equal(t, 5.0, c.SNRDB)
}

func TestTranslateRejectsInvalidHex(t *testing.T) {
	c := Config{SyncSequenceHex: "not-hex"}
	_, err := c.Translate()
	assert.Error(t, err)
}

func TestBoolOr(t *testing.T) {
	var b *bool
	assert.True(t, BoolOr(b, true))
	v := false
	assert.False(t, BoolOr(&v, true))
}
