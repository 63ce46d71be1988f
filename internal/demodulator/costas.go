package demodulator

import (
	"math"
	"math/cmplx"

	"github.com/ArrEssJay/chimera/internal/protocol"
)

// CostasLoop is the spec §4.4 Stage 7 second-order decision-directed
// QPSK carrier tracker, the slowest of the three loops
// (B_AGC >> B_timing > B_carrier).
type CostasLoop struct {
	phase     float64
	frequency float64
	alpha     float64
	beta      float64
}

// NewCostasLoop builds a loop with bandwidth bc (the decoder passes
// 0.003 of the symbol rate, i.e. 0.048 at 16 sym/s) and damping 0.707,
// phase pre-loaded to the acquisition-detected coarse offset.
func NewCostasLoop(bc, initialPhase float64) *CostasLoop {
	const zeta = 0.707
	omegaC := 2 * math.Pi * bc / (zeta + 1/(4*zeta))
	return &CostasLoop{
		phase:     initialPhase,
		frequency: 0,
		alpha:     2 * zeta * omegaC,
		beta:      omegaC * omegaC,
	}
}

// ResetFrequency zeroes the loop's own frequency accumulator. Called at
// each FSK bit boundary once FSK is enabled, so the FSK decision loop
// and the Costas frequency estimate never fight over the same residual
// (DESIGN.md Open Question 2).
func (c *CostasLoop) ResetFrequency() { c.frequency = 0 }

// FrequencyEstimate returns the loop's current frequency state in
// rad/symbol, consumed by the FSK decision loop.
func (c *CostasLoop) FrequencyEstimate() float64 { return c.frequency }

// Step rotates one incoming symbol by -phase, computes the
// decision-directed phase error against the nearest QPSK point, updates
// frequency/phase, and returns the rotated (corrected) symbol.
func (c *CostasLoop) Step(symbol complex128) complex128 {
	rotated := symbol * cmplx.Rect(1, -c.phase)
	decision := protocol.NearestPoint(rotated)
	e := imag(rotated * cmplx.Conj(decision))

	c.frequency += c.beta * e
	c.phase += c.alpha*e + c.frequency
	c.phase = wrapPhase(c.phase)

	return rotated
}

func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p <= -math.Pi {
		p += 2 * math.Pi
	}
	return p
}

// FSKLoop implements the decision-directed FSK loop of spec §4.4 Stage
// 8: accumulates Costas frequency estimates over one FSK bit period
// (symbolRate symbols) and quantizes the residual to a +-1Hz correction.
type FSKLoop struct {
	symbolsPerBit int
	symbolRate    float64
	shiftHz       float64

	accum       float64
	count       int
	correction  float64
}

// NewFSKLoop builds an FSK decision loop for the given protocol
// configuration.
func NewFSKLoop(cfg protocol.Config) *FSKLoop {
	spb := int(cfg.QPSKSymbolRate / cfg.FSKBitRate)
	if spb < 1 {
		spb = 1
	}
	return &FSKLoop{symbolsPerBit: spb, symbolRate: cfg.QPSKSymbolRate, shiftHz: cfg.FSKShiftHz}
}

// Correction returns the current +-shiftHz frequency correction.
func (f *FSKLoop) Correction() float64 { return f.correction }

// Observe folds in one symbol's worth of Costas frequency estimate
// (rad/symbol). When a full FSK bit period has elapsed it returns
// (bit, true) and updates Correction(); otherwise (0, false).
func (f *FSKLoop) Observe(costasFrequency float64) (bit int, boundary bool) {
	f.accum += costasFrequency
	f.count++
	if f.count < f.symbolsPerBit {
		return 0, false
	}

	avg := f.accum / float64(f.count)
	f.accum, f.count = 0, 0

	hz := avg * f.symbolRate / (2 * math.Pi)
	switch {
	case hz > 0.5:
		f.correction = f.shiftHz
		return 1, true
	case hz < -0.5:
		f.correction = -f.shiftHz
		return 0, true
	default:
		// keep current correction
		if f.correction >= 0 {
			return 1, true
		}
		return 0, true
	}
}
