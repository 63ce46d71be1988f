package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRCKernelUnitEnergy(t *testing.T) {
	kernel := RRCKernel(0.25, 8, 4)
	var energy float64
	for _, v := range kernel {
		energy += v * v
	}
	assert.InDelta(t, 1.0, energy, 1e-6)
}

func TestRRCKernelSymmetric(t *testing.T) {
	kernel := RRCKernel(0.25, 8, 4)
	n := len(kernel)
	for i := 0; i < n/2; i++ {
		assert.InDelta(t, kernel[i], kernel[n-1-i], 1e-9)
	}
}

func TestConvolveFullPreservesLength(t *testing.T) {
	signal := make([]float64, 100)
	for i := range signal {
		signal[i] = math.Sin(float64(i) * 0.1)
	}
	kernel := RRCKernel(0.25, 8, 4)
	out := ConvolveFull(signal, kernel)
	assert.Len(t, out, len(signal))
}

func TestMovingAveragePhaseSmoothContinuity(t *testing.T) {
	phases := []float64{0, 0, 0, math.Pi, math.Pi, math.Pi}
	out := MovingAveragePhaseSmooth(phases, 3)
	assert.Len(t, out, len(phases))
	for _, p := range out {
		assert.True(t, p >= -math.Pi-1e-9 && p <= math.Pi+1e-9)
	}
}
