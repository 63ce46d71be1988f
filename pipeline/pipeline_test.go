package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ArrEssJay/chimera/internal/protocol"
)

func TestConfigureRejectsInvalidProtocol(t *testing.T) {
	p := New()
	opts := DefaultOptions()
	opts.Protocol.SampleRate = 0
	err := p.Configure(opts)
	assert.Error(t, err)
}

func TestPushPayloadBeforeConfigureFails(t *testing.T) {
	p := New()
	err := p.PushPayload([]byte("hi"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProcessChunkBeforePushPayloadFails(t *testing.T) {
	p := New()
	require.NoError(t, p.Configure(DefaultOptions()))
	out := p.ProcessChunk(nil)
	assert.False(t, out.Success)
}

// TestHighSNRRoundTripEventuallyLocks exercises the full TX -> channel ->
// RX chain at high SNR and checks the decoder reaches LOCKED state after
// enough chunks (spec §8 Testable Property 8 / scenario E1).
func TestHighSNRRoundTripEventuallyLocks(t *testing.T) {
	p := New()
	opts := DefaultOptions()
	opts.SNRDB = 40
	opts.Seed = 42
	require.NoError(t, p.Configure(opts))
	require.NoError(t, p.PushPayload([]byte("hi")))

	var lastState string
	for i := 0; i < 40; i++ {
		out := p.ProcessChunk(nil)
		require.True(t, out.Success)
		lastState = p.LastDiagnostics().LockState
		if lastState == "LOCKED" {
			break
		}
	}
	assert.Equal(t, "LOCKED", lastState)
	assert.Contains(t, string(p.DecodedSoFar()), "hi")
}

// TestResetClearsAccumulatedState (spec §6.5: Reset is idempotent and
// returns runtime state to initial).
func TestResetClearsAccumulatedState(t *testing.T) {
	p := New()
	require.NoError(t, p.Configure(DefaultOptions()))
	require.NoError(t, p.PushPayload([]byte("hi")))
	p.ProcessChunk(nil)
	p.Reset()
	assert.Empty(t, p.DecodedSoFar())
	assert.Equal(t, "SEARCHING", p.LastDiagnostics().LockState)
}

// TestUpdateChannelParamsAffectsSubsequentChunks (spec §6.6: runtime SNR
// update takes effect on the next ProcessChunk).
func TestUpdateChannelParamsAffectsSubsequentChunks(t *testing.T) {
	p := New()
	opts := DefaultOptions()
	opts.SNRDB = 40
	require.NoError(t, p.Configure(opts))
	require.NoError(t, p.PushPayload([]byte("hi")))
	p.ProcessChunk(nil)

	p.UpdateChannelParams(-10, 0)
	assert.Equal(t, -10.0, p.opts.SNRDB)
}

// TestQPSKDisableStopsSymbolRecovery (spec §6.6 enable/disable toggles).
func TestQPSKDisableStopsSymbolRecovery(t *testing.T) {
	p := New()
	opts := DefaultOptions()
	opts.EnableQPSK = false
	require.NoError(t, p.Configure(opts))
	require.NoError(t, p.PushPayload([]byte("hi")))
	out := p.ProcessChunk(nil)
	assert.Empty(t, out.RXSymbols)
}

// TestArbitraryPayloadRoundTripsThroughEncoderFraming is a property test
// (spec §8 Testable Property 2/3): any payload produces a valid,
// self-consistent frame stream whose total-symbol count matches the
// configured frame layout.
func TestArbitraryPayloadRoundTripsThroughEncoderFraming(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		payload := rapid.SliceOfN(rapid.Byte(), n, n).Draw(rt, "payload")

		p := New()
		opts := DefaultOptions()
		opts.SNRDB = 100
		require.NoError(rt, p.Configure(opts))
		require.NoError(rt, p.PushPayload(payload))

		out := p.ProcessChunk(nil)
		require.True(rt, out.Success)
		assert.Equal(rt, protocol.Default().TotalSymbols(), len(out.TXSymbols))
	})
}
