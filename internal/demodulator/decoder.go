package demodulator

import (
	"github.com/ArrEssJay/chimera/internal/blockcode"
	"github.com/ArrEssJay/chimera/internal/protocol"
)

// LockState is the receiver state machine of spec §4.4: "SEARCHING ->
// ACQUIRING (first two frames after acquisition) -> LOCKED (subsequent
// frames)". Shape grounded on the teacher's src/pll_dcd.go
// hysteresis-based lock declare/drop logic, adapted to this spec's three
// named states rather than samoyed's DCD good/bad bit score.
type LockState int

const (
	Searching LockState = iota
	Acquiring
	Locked
)

func (s LockState) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case Acquiring:
		return "ACQUIRING"
	case Locked:
		return "LOCKED"
	default:
		return "UNKNOWN"
	}
}

// FrameResult is one decoded frame.
type FrameResult struct {
	FrameIndex int
	Message    []byte
}

// StreamingSymbolDecoder is the RX streaming state machine of spec §4.4
// and §9 ("naturally expressed as explicit state records... not as
// suspended coroutines"). One instance persists across process_chunk
// calls for the lifetime of a pipeline session.
type StreamingSymbolDecoder struct {
	cfg  protocol.Config
	code *blockcode.Code

	agc     *AGC
	down    *Downconverter
	gardner *GardnerLoop
	costas  *CostasLoop
	fsk     *FSKLoop

	decBlockSize int
	pendingReal  []float64

	state       LockState
	framesSinceAcquire int
	syncIndex   int // symbol index within d.rxSymbols where sync was found
	symbolCount int // total symbols run through tracking; not reset on re-acquisition or Reset

	consecutiveBadFrames int  // frames in a row whose sync field failed to re-confirm
	expectedSync         []byte // sync field bits, for re-confirmation checks

	bitAccum   []byte // hard-decision bits since acquisition; differential-decoded per frame when sliced
	rxSymbols  []complex128
	txSymbolsForEVM []complex128 // unused placeholder for symmetry with TX symbols when available

	kernel []float64

	enableQPSK bool
	enableFSK  bool

	Decoded []FrameResult
}

// syncReconfirmWindow is the number of consecutive frames whose sync
// field may fail to re-confirm before the decoder declares loss of
// acquisition (spec §4.4: "loss of acquisition (correlation fails to
// re-confirm over a configurable window) returns to SEARCHING and
// resets loop state").
const syncReconfirmWindow = 4

// maxSyncBitErrors is the per-frame sync-field bit-error tolerance
// below which a frame still counts as a valid re-confirmation.
const maxSyncBitErrors = 4

// NewStreamingSymbolDecoder constructs an RX decoder for cfg/code.
// Loop bandwidths satisfy B_AGC >> B_timing > B_carrier (spec §4.4).
func NewStreamingSymbolDecoder(cfg protocol.Config, code *blockcode.Code, kernel []float64) *StreamingSymbolDecoder {
	decBlock := DecimationBlockSize(cfg.SampleRate, cfg.QPSKSymbolRate)
	// Gardner runs on the decimated stream (4 samples/symbol by default).
	sps := float64(cfg.SamplesPerSymbol()) / float64(max(decBlock, 1))
	return &StreamingSymbolDecoder{
		cfg:          cfg,
		code:         code,
		agc:          NewAGC(),
		down:         &Downconverter{CarrierHz: cfg.CarrierHz, SampleRate: cfg.SampleRate},
		gardner:      NewGardnerLoop(sps, 0.002*cfg.QPSKSymbolRate),
		costas:       NewCostasLoop(0.003*cfg.QPSKSymbolRate, 0),
		fsk:          NewFSKLoop(cfg),
		decBlockSize: decBlock,
		kernel:       kernel,
		state:        Searching,
		enableQPSK:   true,
		enableFSK:    true,
		expectedSync: protocol.BitsFromUint32(cfg.SyncHex, cfg.SyncBits),
	}
}

// SetFSKEnabled toggles the FSK decision loop (spec §6 runtime toggle,
// diagnostic purposes).
func (d *StreamingSymbolDecoder) SetFSKEnabled(on bool) { d.enableFSK = on }

// SetQPSKEnabled toggles QPSK symbol processing (diagnostic purposes).
func (d *StreamingSymbolDecoder) SetQPSKEnabled(on bool) { d.enableQPSK = on }

// State returns the current lock state for diagnostics.
func (d *StreamingSymbolDecoder) State() LockState { return d.state }

// ProcessAudio runs one chunk of real 48kHz audio samples through the
// full RX chain (spec §4.4 Stages 1-9) and returns any symbols produced
// this call for diagnostics. Frame decode results accumulate in
// d.Decoded. Never panics on any input length (spec §7).
func (d *StreamingSymbolDecoder) ProcessAudio(samples []float32) []complex128 {
	if len(samples) == 0 {
		return nil
	}
	if !d.enableQPSK {
		return nil
	}

	real64 := make([]float64, len(samples))
	for i, s := range samples {
		real64[i] = float64(s)
	}

	// Stage 1: matched filtering.
	filtered := matchedFilter(real64, d.kernel)

	// Stage 2: AGC.
	agced := d.agc.ProcessBlock(filtered)

	// Stage 3: I/Q downconversion, steered by any active FSK correction
	// (DESIGN.md Open Question 2: FSK correction and Costas frequency
	// state are never summed).
	d.down.FrequencyOffsetHz = d.fsk.Correction()
	baseband := d.down.Process(agced)

	// Stage 4: block-averaged decimation.
	d.pendingReal = nil // decimation consumes directly; no cross-call real-sample buffering needed here
	decimated, _ := DecimateBlockAverage(baseband, d.decBlockSize)

	// Stage 5: Gardner timing recovery.
	symbols := d.gardner.Process(decimated)
	if len(symbols) == 0 {
		return nil
	}

	d.rxSymbols = append(d.rxSymbols, symbols...)
	if len(d.rxSymbols) > 2048 {
		d.rxSymbols = d.rxSymbols[len(d.rxSymbols)-2048:]
	}

	if d.state == Searching {
		d.tryAcquire(symbols)
		if d.state == Searching {
			return symbols
		}
		// Acquisition just landed: begin bit accumulation at the
		// detected correlation peak (d.syncIndex) within the
		// accumulated symbol buffer, not at the start of this call's
		// batch (spec §4.4 Stage 9: frame accumulation starts at
		// sync_index in the bit stream).
		d.trackAndDecode(d.rxSymbols[d.syncIndex:])
		return symbols
	}

	d.trackAndDecode(symbols)
	return symbols
}

func matchedFilter(samples, kernel []float64) []float64 {
	if len(kernel) == 0 {
		return samples
	}
	return convolveFullLocal(samples, kernel)
}

// convolveFullLocal mirrors dsp.ConvolveFull without importing dsp here
// to avoid an import cycle concern; kept trivially simple.
func convolveFullLocal(signal, kernel []float64) []float64 {
	n, m := len(signal), len(kernel)
	if n == 0 || m == 0 {
		return signal
	}
	full := make([]float64, n+m-1)
	for i, s := range signal {
		if s == 0 {
			continue
		}
		for j, k := range kernel {
			full[i+j] += s * k
		}
	}
	delay := (m - 1) / 2
	out := make([]float64, n)
	for i := range out {
		idx := i + delay
		if idx < len(full) {
			out[i] = full[idx]
		}
	}
	return out
}

// tryAcquire runs preamble correlation over the freshest symbols (spec
// §4.4 Stage 6). On success it seeds the Costas loop with the detected
// coarse phase and transitions SEARCHING -> ACQUIRING.
func (d *StreamingSymbolDecoder) tryAcquire(symbols []complex128) {
	template := SyncTemplate(d.cfg)
	result := Acquire(d.rxSymbols, template)
	if !result.Found {
		return
	}
	d.costas = NewCostasLoop(0.003*d.cfg.QPSKSymbolRate, result.CoarsePhase)
	d.syncIndex = result.SymbolIndex
	d.bitAccum = nil
	d.state = Acquiring
	d.framesSinceAcquire = 0
	d.consecutiveBadFrames = 0
}

// trackAndDecode runs the Costas loop, FSK decision loop and frame
// slicing over newly-recovered symbols (spec §4.4 Stages 7-9).
func (d *StreamingSymbolDecoder) trackAndDecode(symbols []complex128) {
	frameBits := d.cfg.TotalBits()
	off := d.cfg.Offsets()

	for _, s := range symbols {
		corrected := d.costas.Step(s)
		b0, b1 := protocol.SymbolToBits(corrected)

		if d.enableFSK {
			bit, boundary := d.fsk.Observe(d.costas.FrequencyEstimate())
			if boundary {
				d.costas.ResetFrequency()
				_ = bit
			}
		}

		d.bitAccum = append(d.bitAccum, b0, b1)
		d.symbolCount++

		for len(d.bitAccum) >= frameBits {
			frameBitsSlice := protocol.DifferentialDecode(d.bitAccum[:frameBits])
			eccRegion := frameBitsSlice[off.PayloadStart:off.ECCStart+d.cfg.ECCBits]
			message := d.code.Decode(eccRegion)

			cmdWord := protocol.Uint32FromBits(frameBitsSlice[off.CommandStart:off.PayloadStart])
			frameIdx := int((cmdWord >> d.cfg.CurrentFrameShift) & 0xFF)

			d.Decoded = append(d.Decoded, FrameResult{FrameIndex: frameIdx, Message: message})
			d.bitAccum = d.bitAccum[frameBits:]

			d.framesSinceAcquire++
			if d.state == Acquiring && d.framesSinceAcquire >= 2 {
				d.state = Locked
			}

			if d.syncFieldMismatch(frameBitsSlice[off.SyncStart:off.TargetIDStart]) {
				d.consecutiveBadFrames++
				if d.consecutiveBadFrames >= syncReconfirmWindow {
					d.dropLock()
					return
				}
			} else {
				d.consecutiveBadFrames = 0
			}
		}
	}

	if len(d.bitAccum) > 4*frameBits {
		d.bitAccum = d.bitAccum[len(d.bitAccum)-frameBits:]
	}
}

// syncFieldMismatch reports whether a decoded frame's sync field
// differs from the expected sync pattern by more than
// maxSyncBitErrors bits, used to detect loss of acquisition on an
// otherwise-locked stream (spec §4.4).
func (d *StreamingSymbolDecoder) syncFieldMismatch(bits []byte) bool {
	errs := 0
	for i, b := range bits {
		if b != d.expectedSync[i] {
			errs++
		}
	}
	return errs > maxSyncBitErrors
}

// resetLoopState rebuilds every tracking loop and returns to SEARCHING,
// shared by Reset (caller-driven) and dropLock (loss-of-acquisition
// driven) so both paths reset identically (spec §4.4, §6).
func (d *StreamingSymbolDecoder) resetLoopState() {
	sps := float64(d.cfg.SamplesPerSymbol()) / float64(max(d.decBlockSize, 1))
	d.agc = NewAGC()
	d.down = &Downconverter{CarrierHz: d.cfg.CarrierHz, SampleRate: d.cfg.SampleRate}
	d.gardner = NewGardnerLoop(sps, 0.002*d.cfg.QPSKSymbolRate)
	d.costas = NewCostasLoop(0.003*d.cfg.QPSKSymbolRate, 0)
	d.fsk = NewFSKLoop(d.cfg)
	d.state = Searching
	d.framesSinceAcquire = 0
	d.consecutiveBadFrames = 0
	d.bitAccum = nil
	d.rxSymbols = nil
}

// dropLock declares loss of acquisition: the sync field failed to
// re-confirm over syncReconfirmWindow consecutive frames, so the
// decoder returns to SEARCHING and resets loop state (spec §4.4
// "States and transitions").
func (d *StreamingSymbolDecoder) dropLock() {
	d.resetLoopState()
}

// Reset returns the decoder to its initial SEARCHING state (spec §6).
func (d *StreamingSymbolDecoder) Reset() {
	d.resetLoopState()
	d.Decoded = nil
}

// RecentSymbols returns up to n of the most recent recovered symbols,
// for diagnostics (spec §4.6).
func (d *StreamingSymbolDecoder) RecentSymbols(n int) []complex128 {
	if len(d.rxSymbols) <= n {
		return d.rxSymbols
	}
	return d.rxSymbols[len(d.rxSymbols)-n:]
}
