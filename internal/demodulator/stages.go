// Package demodulator implements the RX chain of spec §4.4: matched
// filtering, AGC, I/Q downconversion, decimation, Gardner timing
// recovery, preamble correlation (acquisition), Costas carrier tracking,
// the decision-directed FSK loop, and frame slicing/decoding.
//
// Grounded on original_source/chimera-core/src/signal_processing/demodulation.rs
// for every loop-gain formula and stage ordering, and on the teacher's
// src/pll_dcd.go for the shape of a hysteresis-based lock/state-transition
// machine (adapted to this spec's SEARCHING/ACQUIRING/LOCKED states
// rather than samoyed's DCD good/bad bit-history score).
package demodulator

import (
	"math"
	"math/cmplx"
)

// AGC implements spec §4.4 Stage 2: feedback automatic gain control.
// Time constant approx 50 samples (alpha = 1/50), target power 0.5.
type AGC struct {
	Gain        float64
	Phat        float64
	TargetPower float64
	Alpha       float64
}

// NewAGC constructs an AGC with the spec-mandated defaults.
func NewAGC() *AGC {
	return &AGC{Gain: 1.0, Phat: 0.5, TargetPower: 0.5, Alpha: 1.0 / 50.0}
}

// Process applies gain to one sample and updates the smoothed power
// estimate and gain per spec §4.4 Stage 2.
func (a *AGC) Process(x float64) float64 {
	y := a.Gain * x
	a.Phat = (1-a.Alpha)*a.Phat + a.Alpha*y*y
	if a.Phat > 1e-12 {
		a.Gain *= 1 + (math.Sqrt(a.TargetPower/a.Phat)-1)*a.Alpha
	}
	if a.Gain < 0.01 {
		a.Gain = 0.01
	}
	if a.Gain > 100 {
		a.Gain = 100
	}
	return y
}

// ProcessBlock applies the AGC sample-by-sample over a slice.
func (a *AGC) ProcessBlock(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = a.Process(s)
	}
	return out
}

// Downconverter performs I/Q downconversion to complex baseband (spec
// §4.4 Stage 3): b[n] = 2*y[n]*(cos(w0*t) - j*sin(w0*t)). The minus sign
// on the imaginary part is required for down- rather than up-conversion.
// FrequencyOffsetHz lets the FSK decision loop steer the reference
// oscillator (DESIGN.md Open Question 2) without double-counting against
// the Costas loop's own frequency state.
type Downconverter struct {
	CarrierHz         float64
	SampleRate        float64
	FrequencyOffsetHz float64
	phase             float64
}

// Process downconverts a block of real samples to complex baseband,
// carrying the phase accumulator across calls.
func (d *Downconverter) Process(samples []float64) []complex128 {
	out := make([]complex128, len(samples))
	omega := 2 * math.Pi * (d.CarrierHz + d.FrequencyOffsetHz) / d.SampleRate
	for i, y := range samples {
		out[i] = complex(2*y*math.Cos(d.phase), -2*y*math.Sin(d.phase))
		d.phase += omega
		if d.phase > math.Pi {
			d.phase -= 2 * math.Pi
		}
	}
	return out
}

// DecimateBlockAverage reduces baseband to a target of 4 samples/symbol
// by averaging each block of round((sampleRate/symbolRate)/4) consecutive
// complex samples (spec §4.4 Stage 4). Any partial trailing block
// shorter than the block size is returned in leftover, not emitted.
func DecimateBlockAverage(samples []complex128, blockSize int) (decimated []complex128, leftover []complex128) {
	if blockSize < 1 {
		blockSize = 1
	}
	n := len(samples) / blockSize
	decimated = make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		for j := 0; j < blockSize; j++ {
			sum += samples[i*blockSize+j]
		}
		decimated[i] = sum / complex(float64(blockSize), 0)
	}
	leftover = samples[n*blockSize:]
	return decimated, leftover
}

// DecimationBlockSize computes round((sampleRate/symbolRate)/4).
func DecimationBlockSize(sampleRate, symbolRate float64) int {
	return int(math.Round((sampleRate / symbolRate) / 4))
}

// GardnerLoop implements spec §4.4 Stage 5: second-order Gardner timing
// recovery producing one complex symbol per symbol period from a stream
// at ~4 samples/symbol.
type GardnerLoop struct {
	nominalSps float64
	sps        float64
	mu         float64
	alpha      float64
	beta       float64

	prevStrobe complex128
	haveStrobe bool

	idx float64
	buf []complex128
}

// NewGardnerLoop builds a loop for nominalSps samples/symbol with loop
// bandwidth bt (the decoder passes 0.002 of the symbol rate, i.e. 0.032
// at 16 sym/s) and damping zeta = 0.707 (spec §4.4 Stage 5 formulas).
// The first strobe is placed half a symbol in, so its midpoint sample
// exists.
func NewGardnerLoop(nominalSps, bt float64) *GardnerLoop {
	const zeta = 0.707
	omegaT := 2 * math.Pi * bt / (zeta + 1/(4*zeta))
	return &GardnerLoop{
		nominalSps: nominalSps,
		sps:        nominalSps,
		idx:        nominalSps / 2,
		beta:       omegaT * omegaT / (nominalSps * nominalSps),
		alpha:      2 * zeta * omegaT / nominalSps,
	}
}

func interpLinear(buf []complex128, idx float64) complex128 {
	if idx < 0 {
		idx = 0
	}
	i0 := int(math.Floor(idx))
	if i0 >= len(buf) {
		i0 = len(buf) - 1
	}
	frac := idx - float64(i0)
	i1 := i0 + 1
	if i1 >= len(buf) {
		i1 = len(buf) - 1
	}
	return buf[i0]*complex(1-frac, 0) + buf[i1]*complex(frac, 0)
}

// Process feeds new decimated baseband samples into the loop and
// returns every recovered symbol that could be produced with the data
// available so far; unconsumed samples are retained internally for the
// next call.
func (g *GardnerLoop) Process(samples []complex128) []complex128 {
	g.buf = append(g.buf, samples...)

	var out []complex128
	for {
		upperNeed := int(math.Ceil(g.idx)) + 1
		if upperNeed >= len(g.buf) {
			break
		}
		midIdx := g.idx - g.sps/2
		if midIdx < 0 {
			break
		}

		strobe := interpLinear(g.buf, g.idx)
		mid := interpLinear(g.buf, midIdx)

		var e float64
		if g.haveStrobe {
			e = real(mid * cmplx.Conj(strobe-g.prevStrobe))
		}
		g.mu += e * g.beta
		correction := e*g.alpha + g.mu
		sps := g.nominalSps - correction
		lo, hi := g.nominalSps*0.9, g.nominalSps*1.1
		if sps < lo {
			sps = lo
		}
		if sps > hi {
			sps = hi
		}
		g.sps = sps

		out = append(out, strobe)
		g.prevStrobe = strobe
		g.haveStrobe = true
		g.idx += g.sps
	}

	// Bound memory: drop fully-consumed prefix, keeping a small
	// lookback margin for the midpoint interpolator (spec §5 memory
	// bounds: hot-path buffers explicitly bounded).
	guard := int(g.nominalSps) + 2
	consumed := int(math.Floor(g.idx)) - guard
	if consumed > 0 && consumed < len(g.buf) {
		g.buf = g.buf[consumed:]
		g.idx -= float64(consumed)
	}
	return out
}
