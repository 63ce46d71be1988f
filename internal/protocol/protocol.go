// Package protocol defines the wire-exact constants, frame layout and
// QPSK constellation shared by the transmit and receive chains. Nothing
// here is mutable after construction.
package protocol

import (
	"fmt"
	"math"
)

// Config is the immutable, bit-exact wire contract for one pipeline
// instance. Zero value is not valid; use Default() (internal/config's
// Translate also starts from it).
type Config struct {
	CarrierHz      float64
	QPSKSymbolRate float64
	FSKBitRate     float64
	FSKShiftHz     float64
	SampleRate     float64
	RRCRolloff     float64
	RRCSpanSymbols int

	SyncHex      uint32
	TargetIDHex  uint32
	CommandOp    uint32

	SyncBits      int
	TargetIDBits  int
	CommandBits   int
	PayloadBits   int
	ECCBits       int

	// Bit offsets of F (current frame index) and N (total frames)
	// within the command word, per spec §6.
	CurrentFrameShift uint
	TotalFramesShift  uint
}

// Default returns the fixed constants from spec §4.1.
func Default() Config {
	return Config{
		CarrierHz:      12000,
		QPSKSymbolRate: 16,
		FSKBitRate:     1,
		FSKShiftHz:     1,
		SampleRate:     48000,
		RRCRolloff:     0.25,
		RRCSpanSymbols: 8,

		SyncHex:     0xA5A5A5A5,
		TargetIDHex: 0xDEADBEEF,
		CommandOp:   0,

		// Per spec §4.1 the frame is 128 symbols split (sync 16,
		// target_id 16, command 16, payload 64, ecc 16) *symbols*;
		// bit counts are twice that (spec §6's wire-level layout:
		// sync_bits(32)|target_id_bits(32)|command_word_bits(32)|
		// payload_bits(128)|parity_bits(32)).
		SyncBits:     32,
		TargetIDBits: 32,
		CommandBits:  32,
		PayloadBits:  128,
		ECCBits:      32,

		CurrentFrameShift: 16,
		TotalFramesShift:  24,
	}
}

// TotalSymbols is sync+target_id+command+payload+ecc, in QPSK symbols
// (two bits per symbol).
func (c Config) TotalSymbols() int {
	return (c.SyncBits + c.TargetIDBits + c.CommandBits + c.PayloadBits + c.ECCBits) / 2
}

// TotalBits is the frame-bit buffer length.
func (c Config) TotalBits() int {
	return c.SyncBits + c.TargetIDBits + c.CommandBits + c.PayloadBits + c.ECCBits
}

// SamplesPerSymbol is sample_rate / qpsk_symbol_rate, required to be an
// integer (spec Data Model invariant).
func (c Config) SamplesPerSymbol() int {
	return int(c.SampleRate / c.QPSKSymbolRate)
}

// CodeK and CodeN are the block-code message and codeword lengths
// derived from the frame layout (spec §4.2).
func (c Config) CodeK() int { return c.PayloadBits }
func (c Config) CodeN() int { return c.PayloadBits + c.ECCBits }

// Validate enforces spec §7's configuration-error taxonomy: missing or
// non-finite parameters, frame layout not summing to total, non-integer
// sample_rate/symbol_rate, Nyquist violation. Returns before any state
// is created by the caller.
func (c Config) Validate() error {
	fields := map[string]float64{
		"carrier_hz":       c.CarrierHz,
		"qpsk_symbol_rate": c.QPSKSymbolRate,
		"fsk_bit_rate":     c.FSKBitRate,
		"fsk_shift_hz":     c.FSKShiftHz,
		"sample_rate":      c.SampleRate,
		"rrc_rolloff":      c.RRCRolloff,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrConfig, name)
		}
	}
	if c.QPSKSymbolRate <= 0 || c.SampleRate <= 0 {
		return fmt.Errorf("%w: symbol rate and sample rate must be positive", ErrConfig)
	}
	ratio := c.SampleRate / c.QPSKSymbolRate
	if math.Trunc(ratio) != ratio {
		return fmt.Errorf("%w: sample_rate/symbol_rate must be integer, got %v", ErrConfig, ratio)
	}
	if c.CarrierHz+c.FSKShiftHz >= c.SampleRate/2 {
		return fmt.Errorf("%w: carrier frequency violates Nyquist at this sample rate", ErrConfig)
	}
	if c.RRCSpanSymbols <= 0 {
		return fmt.Errorf("%w: rrc_span_symbols must be positive", ErrConfig)
	}
	sum := c.SyncBits + c.TargetIDBits + c.CommandBits + c.PayloadBits + c.ECCBits
	if sum%2 != 0 {
		return fmt.Errorf("%w: frame layout must sum to an even bit count", ErrConfig)
	}
	if c.PayloadBits <= 0 || c.ECCBits <= 0 {
		return fmt.Errorf("%w: payload and ecc bit counts must be positive", ErrConfig)
	}
	return nil
}

// ErrConfig is the sentinel wrapped by all configuration errors.
var ErrConfig = fmt.Errorf("chimera: configuration error")

// FrameOffsets are the bit-level start offsets of each field within a
// frame-bit buffer, derived from a Config.
type FrameOffsets struct {
	SyncStart     int
	TargetIDStart int
	CommandStart  int
	PayloadStart  int
	ECCStart      int
	Total         int
}

// Offsets computes field offsets for this configuration.
func (c Config) Offsets() FrameOffsets {
	o := FrameOffsets{}
	o.SyncStart = 0
	o.TargetIDStart = o.SyncStart + c.SyncBits
	o.CommandStart = o.TargetIDStart + c.TargetIDBits
	o.PayloadStart = o.CommandStart + c.CommandBits
	o.ECCStart = o.PayloadStart + c.PayloadBits
	o.Total = o.ECCStart + c.ECCBits
	return o
}

// CommandWord packs opcode, current frame index and total frame count
// per spec §6: command_word = opcode | (F << current_frame_shift) | (N << total_frames_shift).
func (c Config) CommandWord(frameIndex, totalFrames uint32) uint32 {
	return c.CommandOp | (frameIndex << c.CurrentFrameShift) | (totalFrames << c.TotalFramesShift)
}
