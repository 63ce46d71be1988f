// Package dsp provides the shared pulse-shaping and filtering primitives
// used by both the TX modulator and RX demodulator: RRC kernel
// generation, full convolution with group-delay compensation, and the
// moving-average phase smoother used by the simpler carrier-synthesis
// path (spec §4.3/§4.4 Stage 1).
//
// Grounded on the teacher's src/dsp.go (gen_rrc_lowpass, window) for
// overall filter-generation shape, and on
// original_source/chimera-core/src/signal_processing/filters.rs for the
// exact unit-energy normalization and group-delay slicing this spec
// requires.
package dsp

import "math"

// RRCKernel generates a unit-energy, symmetric root-raised-cosine
// impulse response spanning spanSymbols symbols at samplesPerSymbol
// samples/symbol, with the given rolloff factor beta.
func RRCKernel(rolloff float64, spanSymbols, samplesPerSymbol int) []float64 {
	n := spanSymbols*samplesPerSymbol + 1
	kernel := make([]float64, n)
	mid := n / 2
	sps := float64(samplesPerSymbol)

	for i := 0; i < n; i++ {
		t := (float64(i) - float64(mid)) / sps // in symbol periods
		kernel[i] = rrcSample(t, rolloff)
	}

	// Normalize to unit energy.
	var energy float64
	for _, v := range kernel {
		energy += v * v
	}
	if energy > 0 {
		scale := 1 / math.Sqrt(energy)
		for i := range kernel {
			kernel[i] *= scale
		}
	}
	return kernel
}

// rrcSample evaluates the RRC impulse response at t symbol periods from
// center, handling the t=0 and t=±1/(4*beta) removable singularities.
func rrcSample(t, beta float64) float64 {
	if t == 0 {
		return 1 - beta + 4*beta/math.Pi
	}
	if beta > 0 && math.Abs(math.Abs(4*beta*t)-1) < 1e-9 {
		return (beta / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*beta)) + (1-2/math.Pi)*math.Cos(math.Pi/(4*beta)))
	}
	num := math.Sin(math.Pi*t*(1-beta)) + 4*beta*t*math.Cos(math.Pi*t*(1+beta))
	den := math.Pi * t * (1 - math.Pow(4*beta*t, 2))
	return num / den
}

// ConvolveFull performs full convolution (length N+M-1) of signal with
// kernel, then returns the input-aligned, group-delay-compensated
// portion of length len(signal) (spec §4.4 Stage 1: "return the
// input-aligned portion (group-delay-compensated)").
func ConvolveFull(signal, kernel []float64) []float64 {
	full := convolveFull(signal, kernel)
	delay := (len(kernel) - 1) / 2
	out := make([]float64, len(signal))
	for i := range out {
		idx := i + delay
		if idx < len(full) {
			out[i] = full[idx]
		}
	}
	return out
}

func convolveFull(signal, kernel []float64) []float64 {
	n, m := len(signal), len(kernel)
	if n == 0 || m == 0 {
		return nil
	}
	out := make([]float64, n+m-1)
	for i, s := range signal {
		if s == 0 {
			continue
		}
		for j, k := range kernel {
			out[i+j] += s * k
		}
	}
	return out
}

// MovingAveragePhaseSmooth smooths a repeated-phase sequence by
// averaging sin and cos separately over a window of the given odd
// length and recombining with atan2, preserving phase continuity (spec
// §4.3 carrier synthesis step 2).
func MovingAveragePhaseSmooth(phases []float64, windowLen int) []float64 {
	if windowLen%2 == 0 {
		windowLen++
	}
	half := windowLen / 2
	out := make([]float64, len(phases))

	sinAcc, cosAcc := make([]float64, len(phases)), make([]float64, len(phases))
	for i, p := range phases {
		sinAcc[i] = math.Sin(p)
		cosAcc[i] = math.Cos(p)
	}

	for i := range phases {
		var sSum, cSum float64
		var count int
		for d := -half; d <= half; d++ {
			idx := i + d
			if idx < 0 || idx >= len(phases) {
				continue
			}
			sSum += sinAcc[idx]
			cSum += cosAcc[idx]
			count++
		}
		if count == 0 {
			out[i] = phases[i]
			continue
		}
		out[i] = math.Atan2(sSum/float64(count), cSum/float64(count))
	}
	return out
}
