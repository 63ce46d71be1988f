package demodulator

import (
	"math"
	"math/cmplx"

	"github.com/ArrEssJay/chimera/internal/protocol"
)

// AcquisitionThreshold is the normalized correlation-peak threshold
// above which acquisition is declared (spec §4.4 Stage 6).
const AcquisitionThreshold = 0.10

// SyncTemplate builds the differentially-encoded QPSK symbol template
// for the protocol sync sequence, used for preamble correlation (spec
// §4.4 Stage 6; differential encoding per DESIGN.md Open Question 1).
func SyncTemplate(cfg protocol.Config) []complex128 {
	bits := protocol.BitsFromUint32(cfg.SyncHex, cfg.SyncBits)
	diff := protocol.DifferentialEncode(bits)
	return protocol.MapBitsToSymbols(diff)
}

// AcquisitionResult reports the outcome of a correlation search.
type AcquisitionResult struct {
	Found        bool
	SymbolIndex  int
	CoarsePhase  float64
	PeakMagnitude float64
}

// Acquire slides template across rx, computing normalized complex
// correlation, and reports the highest peak over all offsets as found
// if it exceeds AcquisitionThreshold (spec §4.4 Stage 6).
func Acquire(rx, template []complex128) AcquisitionResult {
	if len(template) == 0 || len(rx) < len(template) {
		return AcquisitionResult{}
	}
	var templateEnergy float64
	for _, t := range template {
		templateEnergy += cmplx.Abs(t) * cmplx.Abs(t)
	}
	if templateEnergy == 0 {
		return AcquisitionResult{}
	}
	normDenom := math.Sqrt(templateEnergy)

	bestMag := 0.0
	bestIdx := -1
	bestPhase := 0.0

	for start := 0; start+len(template) <= len(rx); start++ {
		var corr complex128
		for k, t := range template {
			corr += rx[start+k] * cmplx.Conj(t)
		}
		mag := cmplx.Abs(corr) / normDenom
		if mag > bestMag {
			bestMag = mag
			bestIdx = start
			bestPhase = cmplx.Phase(corr)
		}
	}

	if bestIdx < 0 || bestMag <= AcquisitionThreshold {
		return AcquisitionResult{PeakMagnitude: bestMag}
	}
	return AcquisitionResult{
		Found:         true,
		SymbolIndex:   bestIdx,
		CoarsePhase:   bestPhase,
		PeakMagnitude: bestMag,
	}
}
