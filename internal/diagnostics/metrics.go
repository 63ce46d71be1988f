// Package diagnostics computes the pure, state-free signal-quality
// metrics of spec §4.6: EVM, SNR estimate, BER, spectrum and
// constellation snapshots. Every function here is a pure function of its
// inputs; none writes back to decoder state (spec §9: "Diagnostics as
// pure functions").
//
// Grounded on
// original_source/chimera-core/src/diagnostics/metrics.rs.
package diagnostics

import "math"

var idealQPSK = [4]complex128{
	complex(math.Sqrt2/2, math.Sqrt2/2),
	complex(-math.Sqrt2/2, math.Sqrt2/2),
	complex(-math.Sqrt2/2, -math.Sqrt2/2),
	complex(math.Sqrt2/2, -math.Sqrt2/2),
}

func nearestIdeal(s complex128) complex128 {
	best := idealQPSK[0]
	bestDist := cabs2(s - best)
	for i := 1; i < 4; i++ {
		d := cabs2(s - idealQPSK[i])
		if d < bestDist {
			bestDist = d
			best = idealQPSK[i]
		}
	}
	return best
}

func cabs2(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

// ComputeEVM computes EVM between aligned TX and RX symbol sequences,
// both power-normalized before comparison, expressed as a percentage.
func ComputeEVM(tx, rx []complex128) float32 {
	if len(tx) == 0 || len(rx) == 0 {
		return 0
	}
	count := len(tx)
	if len(rx) < count {
		count = len(rx)
	}

	var txPow, rxPow float64
	for i := 0; i < count; i++ {
		txPow += cabs2(tx[i])
		rxPow += cabs2(rx[i])
	}
	txPow /= float64(count)
	rxPow /= float64(count)
	if txPow <= 0 || rxPow <= 0 {
		return 0
	}

	txScale := math.Sqrt(1 / txPow)
	rxScale := math.Sqrt(1 / rxPow)

	var errSum float64
	for i := 0; i < count; i++ {
		txN := tx[i] * complex(txScale, 0)
		rxN := rx[i] * complex(rxScale, 0)
		e := rxN - txN
		errSum += cabs2(e)
	}
	return float32(100 * math.Sqrt(errSum/float64(count)))
}

// ComputeConstellationEVM measures deviation of rx symbols from the
// ideal QPSK constellation without requiring TX/RX alignment.
func ComputeConstellationEVM(rx []complex128) float32 {
	if len(rx) == 0 {
		return 0
	}
	var rxPow float64
	for _, s := range rx {
		rxPow += cabs2(s)
	}
	rxPow /= float64(len(rx))
	if rxPow <= 0 {
		return 0
	}
	scale := math.Sqrt(1 / rxPow)

	var errSum float64
	for _, s := range rx {
		n := s * complex(scale, 0)
		d := n - nearestIdeal(n)
		errSum += cabs2(d)
	}
	return float32(100 * math.Sqrt(errSum/float64(len(rx))))
}

// EstimateSNR estimates SNR in dB from received symbols by comparing
// received power to variance around the nearest scaled ideal point.
func EstimateSNR(rx []complex128) float32 {
	if len(rx) == 0 {
		return 0
	}
	var rxPow float64
	for _, s := range rx {
		rxPow += cabs2(s)
	}
	rxPow /= float64(len(rx))
	if rxPow <= 0 {
		return 0
	}
	scale := math.Sqrt(rxPow)

	var noisePow float64
	for _, s := range rx {
		best := cabs2(s - idealQPSK[0]*complex(scale, 0))
		for i := 1; i < 4; i++ {
			d := cabs2(s - idealQPSK[i]*complex(scale, 0))
			if d < best {
				best = d
			}
		}
		noisePow += best
	}
	noisePow /= float64(len(rx))

	if noisePow > 0 && rxPow > 0 {
		return float32(10 * math.Log10(rxPow/noisePow))
	}
	return 40 // very high SNR, degenerate case
}

// ComputeBER returns the fraction of mismatched bits between two
// sequences.
func ComputeBER(tx, rx []byte) float32 {
	if len(tx) == 0 || len(rx) == 0 {
		return 0
	}
	count := len(tx)
	if len(rx) < count {
		count = len(rx)
	}
	var errors int
	for i := 0; i < count; i++ {
		if tx[i] != rx[i] {
			errors++
		}
	}
	return float32(errors) / float32(count)
}

// RunningBER tracks instantaneous and cumulative-average BER across
// chunks (spec §4.6: "BER reported as instantaneous and running
// average").
type RunningBER struct {
	TotalBits   int
	TotalErrors int
}

// Update folds in one chunk's comparison and returns (instantaneous,
// running-average) BER.
func (r *RunningBER) Update(tx, rx []byte) (instant, running float32) {
	instant = ComputeBER(tx, rx)
	count := len(tx)
	if len(rx) < count {
		count = len(rx)
	}
	errors := int(instant * float32(count))
	r.TotalBits += count
	r.TotalErrors += errors
	if r.TotalBits == 0 {
		return instant, 0
	}
	return instant, float32(r.TotalErrors) / float32(r.TotalBits)
}
