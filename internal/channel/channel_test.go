package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromDBHighSNRLowNoise(t *testing.T) {
	p := FromDB(100, 0, 1.0)
	assert.Less(t, p.NoiseStd, 0.01)
}

func TestFromDBLowSNRHigherNoise(t *testing.T) {
	low := FromDB(5, 0, 1.0)
	high := FromDB(20, 0, 1.0)
	assert.Greater(t, low.NoiseStd, high.NoiseStd)
}

func TestAWGNDeterministic(t *testing.T) {
	a1 := NewAWGN(42)
	a2 := NewAWGN(42)
	samples := []float32{0, 0, 0, 0}
	out1 := a1.ApplyAudio(samples, 0.1)
	out2 := a2.ApplyAudio(samples, 0.1)
	assert.Equal(t, out1, out2)
}

func TestAWGNZeroStdNoOp(t *testing.T) {
	a := NewAWGN(1)
	samples := []float32{1, 2, 3}
	out := a.ApplyAudio(samples, 0)
	assert.Equal(t, samples, out)
}
