package modulator

import (
	"math"

	"github.com/ArrEssJay/chimera/internal/dsp"
	"github.com/ArrEssJay/chimera/internal/protocol"
)

// CarrierSynth turns a QPSK symbol stream plus an FSK bit source into
// 48 kHz real audio (spec §4.3 "Carrier synthesis").
type CarrierSynth struct {
	cfg protocol.Config
}

// NewCarrierSynth constructs a carrier synthesizer for cfg.
func NewCarrierSynth(cfg protocol.Config) *CarrierSynth {
	return &CarrierSynth{cfg: cfg}
}

// Modulate converts symbols (paired with one FSK frequency offset per
// symbol, fskHzPerSymbol) to audio samples, using the moving-average
// pulse-shaping approximation (spec §4.3 steps 1-3), then appends one
// frame's worth of trailing zero samples to flush the filter tail (step
// 4).
func (c *CarrierSynth) Modulate(symbols []complex128, fskHzPerSymbol []float64) []float32 {
	cfg := c.cfg
	sps := cfg.SamplesPerSymbol()

	// Step 1: repeat each symbol's phase for sps samples, no zero-insertion.
	phases := make([]float64, len(symbols)*sps)
	for i, s := range symbols {
		p := math.Atan2(imag(s), real(s))
		for j := 0; j < sps; j++ {
			phases[i*sps+j] = p
		}
	}

	// Step 2: moving-average smoother of length sample_rate/bandwidth_hz (odd).
	bandwidthHz := cfg.QPSKSymbolRate * (1 + cfg.RRCRolloff)
	windowLen := int(cfg.SampleRate / bandwidthHz)
	if windowLen < 1 {
		windowLen = 1
	}
	smoothed := dsp.MovingAveragePhaseSmooth(phases, windowLen)

	// Step 3: accumulate carrier phase driven by the current FSK
	// frequency, updated every sample_rate samples (1 bit/s), add the
	// pulse-shaped payload phase, output sin(total_phase).
	audio := make([]float32, len(smoothed))
	var carrierPhase float64
	omegaBase := 2 * math.Pi * cfg.CarrierHz / cfg.SampleRate

	fskUpdatePeriod := int(cfg.SampleRate / cfg.FSKBitRate)
	if fskUpdatePeriod < 1 {
		fskUpdatePeriod = 1
	}

	for i := range smoothed {
		// Hold each FSK frequency for one update period, taken from the
		// symbol at the start of that period.
		symbolIdx := (i / fskUpdatePeriod) * fskUpdatePeriod / sps
		var fskHz float64
		if symbolIdx < len(fskHzPerSymbol) {
			fskHz = fskHzPerSymbol[symbolIdx]
		}
		omega := omegaBase + 2*math.Pi*fskHz/cfg.SampleRate
		carrierPhase += omega
		total := carrierPhase + smoothed[i]
		audio[i] = float32(math.Sin(total))
	}

	// Step 4: append one frame of trailing zero padding.
	tail := make([]float32, cfg.TotalSymbols()*sps)
	return append(audio, tail...)
}

// ModulateRRC is the matched-RRC alternative: zero-insert symbols at the
// sample rate, convolve with the shared RRC kernel, then modulate onto
// the carrier (spec §4.3 "Matched RRC alternative"). TX and RX must use
// identical RRC coefficients for matched filtering.
func (c *CarrierSynth) ModulateRRC(symbols []complex128, fskHzPerSymbol []float64) []float32 {
	cfg := c.cfg
	sps := cfg.SamplesPerSymbol()
	kernel := dsp.RRCKernel(cfg.RRCRolloff, cfg.RRCSpanSymbols, sps)

	zeroInsertedI := make([]float64, len(symbols)*sps)
	zeroInsertedQ := make([]float64, len(symbols)*sps)
	for i, s := range symbols {
		zeroInsertedI[i*sps] = real(s)
		zeroInsertedQ[i*sps] = imag(s)
	}

	shapedI := dsp.ConvolveFull(zeroInsertedI, kernel)
	shapedQ := dsp.ConvolveFull(zeroInsertedQ, kernel)

	audio := make([]float32, len(shapedI))
	var carrierPhase float64
	omegaBase := 2 * math.Pi * cfg.CarrierHz / cfg.SampleRate

	for i := range shapedI {
		symbolIdx := i / sps
		var fskHz float64
		if symbolIdx < len(fskHzPerSymbol) {
			fskHz = fskHzPerSymbol[symbolIdx]
		}
		omega := omegaBase + 2*math.Pi*fskHz/cfg.SampleRate
		carrierPhase += omega
		payloadPhase := math.Atan2(shapedQ[i], shapedI[i])
		total := carrierPhase + payloadPhase
		audio[i] = float32(math.Sin(total))
	}

	tail := make([]float32, cfg.TotalSymbols()*sps)
	return append(audio, tail...)
}
