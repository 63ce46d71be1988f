package wav

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat32RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	var buf bytes.Buffer
	require.NoError(t, WriteFloat32(&buf, samples, 48000))

	out, rate, err := ReadFloat32(&buf)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	require.Len(t, out, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], out[i], 1e-6)
	}
}

func TestPCM16RoundTripLossy(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	var buf bytes.Buffer
	require.NoError(t, WritePCM16(&buf, samples, 44100))

	out, rate, err := ReadFloat32(&buf)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	require.Len(t, out, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], out[i], 0.001)
	}
}

func TestReadFloat32RejectsBadHeader(t *testing.T) {
	_, _, err := ReadFloat32(bytes.NewReader(make([]byte, 44)))
	assert.Error(t, err)
}
