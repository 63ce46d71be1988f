// Package modulator implements the TX chain: the streaming frame
// encoder (spec §4.3) and carrier synthesis (moving-average and matched
// RRC variants).
//
// Grounded on original_source/chimera-core/src/encoder.rs for the
// StreamingFrameEncoder's field layout and FSK pattern construction, and
// on the teacher's src/gen_tone.go for the general shape of
// phase-accumulator carrier synthesis (adapted away from its
// package-level global state).
package modulator

import (
	"github.com/ArrEssJay/chimera/internal/blockcode"
	"github.com/ArrEssJay/chimera/internal/protocol"
)

// FrameEncoder is the streaming TX frame-bit and symbol source described
// in spec §4.3 and §9 ("naturally expressed as explicit state records...
// not as suspended coroutines").
type FrameEncoder struct {
	cfg  protocol.Config
	code *blockcode.Code

	payloadBits []byte // full message bitstream, MSB-first
	totalFrames int

	currentFrameIndex    int
	currentFrameBits     []byte
	currentFrameSymbols  []complex128
	currentSymbolInFrame int

	fskPattern       []byte // 32-bit pattern
	fskIndex         int
	fskSymbolCounter int

	producedAtLeastOnePass bool
}

// NewFrameEncoder constructs a streaming encoder for payload (raw
// bytes, converted MSB-first to bits per spec §6) under cfg/code.
func NewFrameEncoder(cfg protocol.Config, code *blockcode.Code, payload []byte) *FrameEncoder {
	bits := protocol.BytesToBits(payload)
	k := code.K
	total := (len(bits) + k - 1) / k
	if total < 1 {
		total = 1
	}

	e := &FrameEncoder{
		cfg:         cfg,
		code:        code,
		payloadBits: bits,
		totalFrames: total,
		fskPattern:  generateFSKPattern(payload),
	}
	e.generateCurrentFrame()
	return e
}

// generateFSKPattern builds the 32-bit internal FSK bit pattern: sync
// prefix 11001100, 8-bit XOR checksum of the payload, then alternating
// fill to 32 bits (spec §4.3).
func generateFSKPattern(payload []byte) []byte {
	pattern := make([]byte, 0, 32)
	pattern = append(pattern, 1, 1, 0, 0, 1, 1, 0, 0)

	var checksum byte
	for _, b := range payload {
		checksum ^= b
	}
	pattern = append(pattern, protocol.BitsFromUint32(uint32(checksum), 8)...)

	fill := byte(0)
	for len(pattern) < 32 {
		pattern = append(pattern, fill)
		fill ^= 1
	}
	return pattern[:32]
}

// messageSlice returns the k-bit message block for the given frame
// index, zero-padding the final partial frame.
func (e *FrameEncoder) messageSlice(frameIndex int) []byte {
	k := e.code.K
	start := frameIndex * k
	msg := make([]byte, k)
	if start >= len(e.payloadBits) {
		return msg
	}
	end := start + k
	if end > len(e.payloadBits) {
		end = len(e.payloadBits)
	}
	copy(msg, e.payloadBits[start:end])
	return msg
}

// generateCurrentFrame builds the frame-bit buffer for
// currentFrameIndex by concatenating sync | target-id | command-word |
// systematic payload | parity (spec §4.3), encodes it, and maps it to
// QPSK symbols with differential encoding applied (DESIGN.md Open
// Question 1).
func (e *FrameEncoder) generateCurrentFrame() {
	cfg := e.cfg
	buf := make([]byte, 0, cfg.TotalBits())

	buf = append(buf, protocol.BitsFromUint32(cfg.SyncHex, cfg.SyncBits)...)
	buf = append(buf, protocol.BitsFromUint32(cfg.TargetIDHex, cfg.TargetIDBits)...)

	word := cfg.CommandWord(uint32(e.currentFrameIndex), uint32(e.totalFrames))
	buf = append(buf, protocol.BitsFromUint32(word, cfg.CommandBits)...)

	message := e.messageSlice(e.currentFrameIndex)
	codeword := e.code.Encode(message)
	buf = append(buf, codeword...) // systematic payload (first k bits) + parity (remaining)

	e.currentFrameBits = buf
	diffEncoded := protocol.DifferentialEncode(buf)
	e.currentFrameSymbols = protocol.MapBitsToSymbols(diffEncoded)
	e.currentSymbolInFrame = 0
}

// GetCurrentFrameBits returns the most recently generated frame-bit
// buffer (spec §4.3 public operation).
func (e *FrameEncoder) GetCurrentFrameBits() []byte { return e.currentFrameBits }

// IsComplete reports whether the encoder has produced every frame at
// least once. For continuous live transmissions the encoder wraps
// instead of truly terminating; IsComplete reflects "one full pass
// completed" for batch callers.
func (e *FrameEncoder) IsComplete() bool {
	return e.currentFrameIndex == 0 && e.currentSymbolInFrame == 0 && e.totalFrames > 0 && e.producedAtLeastOnePass
}

// GetNextSymbols returns up to n QPSK symbols from the current frame,
// rolling over to the next frame (wrapping to 0 after the last) when the
// current frame is exhausted (spec §4.3 pull interface).
func (e *FrameEncoder) GetNextSymbols(n int) (symbols []complex128, frameChanged bool, frameIndex, symbolInFrame int, done bool) {
	symbols = make([]complex128, 0, n)
	frameIndex = e.currentFrameIndex
	symbolInFrame = e.currentSymbolInFrame

	for len(symbols) < n {
		remaining := e.currentFrameSymbols[e.currentSymbolInFrame:]
		take := n - len(symbols)
		if take > len(remaining) {
			take = len(remaining)
		}
		symbols = append(symbols, remaining[:take]...)
		e.currentSymbolInFrame += take
		e.updateFSKState(take)

		if e.currentSymbolInFrame >= len(e.currentFrameSymbols) {
			e.currentFrameIndex++
			wrapped := false
			if e.currentFrameIndex >= e.totalFrames {
				e.currentFrameIndex = 0
				wrapped = true
				e.producedAtLeastOnePass = true
			}
			e.generateCurrentFrame()
			frameChanged = true
			if wrapped {
				done = true
			}
		} else {
			break
		}
	}

	frameIndex = e.currentFrameIndex
	symbolInFrame = e.currentSymbolInFrame
	return symbols, frameChanged, frameIndex, symbolInFrame, done
}

// updateFSKState advances the FSK bit index: the FSK bit stream updates
// every qpsk_symbol_rate QPSK symbols (spec §4.3/§4.4: FSK bit rate is
// 1 bit/s against a 16 sym/s QPSK rate, i.e. every 16 symbols).
func (e *FrameEncoder) updateFSKState(symbolsConsumed int) {
	span := int(e.cfg.QPSKSymbolRate / e.cfg.FSKBitRate)
	if span <= 0 {
		span = 1
	}
	e.fskSymbolCounter += symbolsConsumed
	for e.fskSymbolCounter >= span {
		e.fskSymbolCounter -= span
		e.fskIndex = (e.fskIndex + 1) % len(e.fskPattern)
	}
}

// GetCurrentFSKFrequency returns the carrier frequency offset for the
// current FSK bit: +fsk_shift_hz for bit 1, -fsk_shift_hz for bit 0.
func (e *FrameEncoder) GetCurrentFSKFrequency() float64 {
	if e.fskPattern[e.fskIndex] == 1 {
		return e.cfg.FSKShiftHz
	}
	return -e.cfg.FSKShiftHz
}
