package demodulator

import (
	"math"
	"testing"

	"github.com/ArrEssJay/chimera/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAGCConvergesWithinToleranceAndClamps(t *testing.T) {
	agc := NewAGC()
	var lastPower float64
	for i := 0; i < 250; i++ {
		x := math.Sin(2 * math.Pi * 0.05 * float64(i))
		y := agc.Process(x)
		lastPower = agc.Alpha*y*y + (1-agc.Alpha)*lastPower
		require.GreaterOrEqual(t, agc.Gain, 0.01)
		require.LessOrEqual(t, agc.Gain, 100.0)
	}
	assert.InDelta(t, agc.TargetPower, agc.Phat, 0.3)
}

func TestDownconverterMinusSignOnImaginary(t *testing.T) {
	d := &Downconverter{CarrierHz: 1000, SampleRate: 48000}
	out := d.Process([]float64{1, 1, 1, 1})
	// at n=0, phase=0: out = 2*1*(cos(0) - j sin(0)) = 2 + 0j
	assert.InDelta(t, 2.0, real(out[0]), 1e-9)
	assert.InDelta(t, 0.0, imag(out[0]), 1e-9)
	// at n=1: imag = -2*sin(w0), negative for a positive carrier
	assert.InDelta(t, -2*math.Sin(2*math.Pi*1000/48000), imag(out[1]), 1e-9)
}

func TestDecimateBlockAverage(t *testing.T) {
	samples := make([]complex128, 12)
	for i := range samples {
		samples[i] = complex(float64(i), 0)
	}
	dec, leftover := DecimateBlockAverage(samples, 3)
	require.Len(t, dec, 4)
	assert.Empty(t, leftover)
	assert.InDelta(t, 1.0, real(dec[0]), 1e-9) // avg(0,1,2)=1
}

func TestGardnerRecoversApproxSymbolCount(t *testing.T) {
	sps := 4.0
	nSymbols := 500
	samples := make([]complex128, nSymbols*int(sps))
	for i := range samples {
		symIdx := i / int(sps)
		v := 1.0
		if symIdx%2 == 0 {
			v = -1.0
		}
		samples[i] = complex(v, 0)
	}
	loop := NewGardnerLoop(sps, 0.002*16)
	out := loop.Process(samples)
	assert.InDelta(t, nSymbols, len(out), float64(nSymbols)*0.05)
}

func TestCostasLoopRotatesTowardDecision(t *testing.T) {
	loop := NewCostasLoop(0.003*16, 0.1)
	sqrtHalf := math.Sqrt2 / 2
	var last complex128
	for i := 0; i < 50; i++ {
		last = loop.Step(complex(sqrtHalf, sqrtHalf))
	}
	assert.InDelta(t, sqrtHalf, real(last), 0.2)
	assert.InDelta(t, sqrtHalf, imag(last), 0.2)
}

func TestFSKLoopQuantizesPositiveFrequency(t *testing.T) {
	loop := NewFSKLoop(protocol.Default())
	var bit int
	var boundary bool
	for i := 0; i < loop.symbolsPerBit; i++ {
		bit, boundary = loop.Observe(1.0) // large positive residual
	}
	assert.True(t, boundary)
	assert.Equal(t, 1, bit)
	assert.Greater(t, loop.Correction(), 0.0)
}
