package protocol

import "math/cmplx"

// Constellation is the canonical QPSK bit-to-point mapping shared by the
// TX mapper and RX slicer (spec Data Model invariant: "TX mapper and RX
// slicer share one definition"). Ordering matches
// original_source/chimera-core/src/protocol.rs's QPSKConstellation:
// (1,1) -> 45 deg, (0,1) -> 135 deg, (0,0) -> 225 deg, (1,0) -> 315 deg.
// Adjacent points (in the table order below) differ by exactly one bit
// (Gray coding), satisfying spec Testable Property 2.
var constellationPoints = [4]complex128{
	cmplx.Rect(1, deg(45)),  // 11
	cmplx.Rect(1, deg(135)), // 01
	cmplx.Rect(1, deg(225)), // 00
	cmplx.Rect(1, deg(315)), // 10
}

func deg(d float64) float64 { return d * 3.14159265358979323846 / 180 }

func constellationIndex(b0, b1 byte) int {
	switch {
	case b0 == 1 && b1 == 1:
		return 0
	case b0 == 0 && b1 == 1:
		return 1
	case b0 == 0 && b1 == 0:
		return 2
	default: // b0 == 1, b1 == 0
		return 3
	}
}

// BitsToSymbol maps a Gray-coded bit pair to its QPSK constellation point.
func BitsToSymbol(b0, b1 byte) complex128 {
	return constellationPoints[constellationIndex(b0, b1)]
}

// SymbolToBits performs nearest-point hard decision, returning the bit
// pair for the closest constellation point to s.
func SymbolToBits(s complex128) (byte, byte) {
	best := 0
	bestDist := cmplx.Abs(s - constellationPoints[0])
	for i := 1; i < 4; i++ {
		d := cmplx.Abs(s - constellationPoints[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	switch best {
	case 0:
		return 1, 1
	case 1:
		return 0, 1
	case 2:
		return 0, 0
	default:
		return 1, 0
	}
}

// NearestPoint returns the ideal constellation point nearest to s,
// used by decision-directed loops (Costas) and diagnostics (EVM/SNR).
func NearestPoint(s complex128) complex128 {
	best := constellationPoints[0]
	bestDist := cmplx.Abs(s - best)
	for i := 1; i < 4; i++ {
		d := cmplx.Abs(s - constellationPoints[i])
		if d < bestDist {
			bestDist = d
			best = constellationPoints[i]
		}
	}
	return best
}

// MapBitsToSymbols maps a flat, even-length bit slice to QPSK symbols.
func MapBitsToSymbols(bits []byte) []complex128 {
	out := make([]complex128, len(bits)/2)
	for i := range out {
		out[i] = BitsToSymbol(bits[2*i], bits[2*i+1])
	}
	return out
}
