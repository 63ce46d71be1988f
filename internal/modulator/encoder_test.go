package modulator

import (
	"testing"

	"github.com/ArrEssJay/chimera/internal/blockcode"
	"github.com/ArrEssJay/chimera/internal/protocol"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestCode(t require.TestingT) (protocol.Config, *blockcode.Code) {
	cfg := protocol.Default()
	code, err := blockcode.New(cfg.CodeK(), cfg.CodeN(), 7)
	require.NoError(t, err)
	return cfg, code
}

func TestFrameOffsetsRoundTrip(t *testing.T) {
	cfg, code := newTestCode(t)
	enc := NewFrameEncoder(cfg, code, []byte("Hello"))

	off := cfg.Offsets()
	bits := enc.GetCurrentFrameBits()
	require.Len(t, bits, cfg.TotalBits())

	sync := protocol.Uint32FromBits(bits[off.SyncStart:off.TargetIDStart])
	target := protocol.Uint32FromBits(bits[off.TargetIDStart:off.CommandStart])
	cmd := protocol.Uint32FromBits(bits[off.CommandStart:off.PayloadStart])

	require.Equal(t, cfg.SyncHex, sync)
	require.Equal(t, cfg.TargetIDHex, target)
	frameIdx := (cmd >> cfg.CurrentFrameShift) & 0xFF
	require.EqualValues(t, 0, frameIdx)
}

func TestEncodeDeterminism(t *testing.T) {
	cfg, code1 := newTestCode(t)
	_, code2 := newTestCode(t)

	e1 := NewFrameEncoder(cfg, code1, []byte("deterministic payload"))
	e2 := NewFrameEncoder(cfg, code2, []byte("deterministic payload"))

	s1, _, _, _, _ := e1.GetNextSymbols(200)
	s2, _, _, _, _ := e2.GetNextSymbols(200)
	require.Equal(t, s1, s2)
}

func TestGetNextSymbolsWrapsAndLoops(t *testing.T) {
	cfg, code := newTestCode(t)
	enc := NewFrameEncoder(cfg, code, []byte("A"))

	total := 0
	sawWrap := false
	for i := 0; i < 10; i++ {
		symbols, _, _, _, done := enc.GetNextSymbols(cfg.TotalSymbols())
		total += len(symbols)
		if done {
			sawWrap = true
		}
	}
	require.Equal(t, 10*cfg.TotalSymbols(), total)
	require.True(t, sawWrap)
}

func TestFSKPatternLength(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		payload := make([]byte, n)
		pattern := generateFSKPattern(payload)
		require.Len(t, pattern, 32)
		require.Equal(t, []byte{1, 1, 0, 0, 1, 1, 0, 0}, pattern[:8])
	})
}

func TestCarrierSynthesisLength(t *testing.T) {
	cfg, code := newTestCode(t)
	enc := NewFrameEncoder(cfg, code, []byte("Hi"))
	symbols, _, _, _, _ := enc.GetNextSymbols(cfg.TotalSymbols())

	fskHz := make([]float64, len(symbols))
	synth := NewCarrierSynth(cfg)
	audio := synth.Modulate(symbols, fskHz)

	sps := cfg.SamplesPerSymbol()
	expectedMin := len(symbols)*sps + cfg.TotalSymbols()*sps
	require.Equal(t, expectedMin, len(audio))
}
