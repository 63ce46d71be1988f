// Package pipeline is the streaming facade of spec §4.5 and the
// External Interfaces of spec §6: Configure, PushPayload, ProcessChunk,
// Flush, Reset, runtime updates, and diagnostic read. It coordinates the
// encoder, modulator, optional channel impairment, demodulator, decoder
// and diagnostics behind one synchronous, single-threaded call per spec
// §5.
package pipeline

import (
	"fmt"

	"github.com/ArrEssJay/chimera/internal/blockcode"
	"github.com/ArrEssJay/chimera/internal/channel"
	"github.com/ArrEssJay/chimera/internal/demodulator"
	"github.com/ArrEssJay/chimera/internal/diagnostics"
	"github.com/ArrEssJay/chimera/internal/dsp"
	"github.com/ArrEssJay/chimera/internal/modulator"
	"github.com/ArrEssJay/chimera/internal/protocol"
	"github.com/charmbracelet/log"
)

// ErrNotConfigured is returned by operations attempted before Configure.
var ErrNotConfigured = fmt.Errorf("chimera: pipeline not configured")

// Options is the immutable configuration record of spec §6: "recognized
// fields: carrier_freq_hz, qpsk_symbol_rate, fsk_bit_rate, fsk_shift_hz,
// sample_rate, rrc_rolloff, rrc_span_symbols, sync_sequence_hex,
// target_id_hex, command_opcode, frame layout sizes, code parameters,
// snr_db, link_loss_db, enable_qpsk, enable_fsk, optional RNG seed".
type Options struct {
	Protocol protocol.Config

	SNRDB      float64
	LinkLossDB float64
	EnableQPSK bool
	EnableFSK  bool
	Seed       uint64

	// UseMatchedRRC selects the higher-fidelity RRC carrier-synthesis
	// path over the moving-average approximation (spec §4.3).
	UseMatchedRRC bool

	Logger *log.Logger
}

// DefaultOptions returns sane defaults built on protocol.Default().
func DefaultOptions() Options {
	return Options{
		Protocol:   protocol.Default(),
		SNRDB:      20,
		LinkLossDB: 0,
		EnableQPSK: true,
		EnableFSK:  true,
		Seed:       1,
	}
}

// Diagnostics is the most recent diagnostic snapshot (spec §4.6, §6.7).
type Diagnostics struct {
	Constellation diagnostics.Constellation
	Spectrum      diagnostics.Spectrum
	EVMPercent    float32
	SNRDB         float32
	BERInstant    float32
	BERRunning    float32
	LockState     string
	TotalSymbols  int
	TotalFrames   int
}

// Output is ProcessorOutput of spec §6.3.
type Output struct {
	DecodedBytes []byte
	Ready        bool
	TXSymbols    []complex128
	RXSymbols    []complex128
	Audio        []float32
	SNRDB        float32
	Success      bool
	Error        error
}

// Pipeline is the streaming facade; it exclusively owns encoder and
// decoder state (spec §3 Ownership). Not safe for concurrent use from
// multiple goroutines (spec §5: "no locking is required or permitted on
// the hot path").
type Pipeline struct {
	opts Options
	code *blockcode.Code
	rrcKernel []float64

	encoder *modulator.FrameEncoder
	carrier *modulator.CarrierSynth
	decoder *demodulator.StreamingSymbolDecoder
	noise   *channel.AWGN

	payload []byte
	configured bool

	decodedSoFar []byte
	runningBER   diagnostics.RunningBER
	lastDiag     Diagnostics
	totalFrames  int

	logger *log.Logger
}

// New constructs an unconfigured pipeline; call Configure before use.
func New() *Pipeline {
	return &Pipeline{logger: log.Default()}
}

// Configure validates opts, builds code matrices, and allocates state
// (spec §6.1). Returns before any state mutation if validation fails
// (spec §7 configuration-error policy).
func (p *Pipeline) Configure(opts Options) error {
	if err := opts.Protocol.Validate(); err != nil {
		return err
	}
	code, err := blockcode.New(opts.Protocol.CodeK(), opts.Protocol.CodeN(), opts.Seed)
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConfig, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	p.opts = opts
	p.code = code
	p.rrcKernel = dsp.RRCKernel(opts.Protocol.RRCRolloff, opts.Protocol.RRCSpanSymbols, opts.Protocol.SamplesPerSymbol())
	p.carrier = modulator.NewCarrierSynth(opts.Protocol)
	p.decoder = demodulator.NewStreamingSymbolDecoder(opts.Protocol, code, p.rrcKernel)
	p.decoder.SetFSKEnabled(opts.EnableFSK)
	p.decoder.SetQPSKEnabled(opts.EnableQPSK)
	p.noise = channel.NewAWGN(opts.Seed)
	p.configured = true
	p.logger = logger

	logger.Info("pipeline configured", "carrier_hz", opts.Protocol.CarrierHz, "snr_db", opts.SNRDB)
	return nil
}

// PushPayload submits payload bytes to transmit (spec §6.2, UTF-8,
// MSB-first bit order) and (re)builds the streaming frame encoder.
func (p *Pipeline) PushPayload(payload []byte) error {
	if !p.configured {
		return ErrNotConfigured
	}
	p.payload = payload
	p.encoder = modulator.NewFrameEncoder(p.opts.Protocol, p.code, payload)
	return nil
}

// ProcessChunk runs one batch through the TX->channel->RX path (spec
// §4.5, §6.3). input is currently unused opaque application payload
// (continuous live transmission is driven solely by the configured
// message, per spec §4.5); it is accepted for interface-compatibility
// with external collaborators that frame input chunk-wise.
func (p *Pipeline) ProcessChunk(input []byte) Output {
	if !p.configured || p.encoder == nil {
		return Output{Success: false, Error: ErrNotConfigured}
	}
	_ = input

	nSymbols := p.opts.Protocol.TotalSymbols()
	txSymbols, _, _, _, _ := p.encoder.GetNextSymbols(nSymbols)

	fskHz := make([]float64, len(txSymbols))
	freq := p.encoder.GetCurrentFSKFrequency()
	for i := range fskHz {
		fskHz[i] = freq
	}

	var audio []float32
	if p.opts.UseMatchedRRC {
		audio = p.carrier.ModulateRRC(txSymbols, fskHz)
	} else {
		audio = p.carrier.Modulate(txSymbols, fskHz)
	}

	noisyAudio := audio
	if p.opts.SNRDB < 100 {
		params := channel.FromDB(p.opts.SNRDB, p.opts.LinkLossDB, 1.0)
		noisyAudio = p.noise.ApplyAudio(audio, params.NoiseStd)
	}

	rxSymbols := p.decoder.ProcessAudio(noisyAudio)

	var newBytes []byte
	for _, frame := range p.decoder.Decoded {
		newBytes = append(newBytes, protocol.BitsToBytes(frame.Message)...)
	}
	p.decoder.Decoded = nil
	if len(newBytes) > 0 {
		p.decodedSoFar = append(p.decodedSoFar, newBytes...)
		p.totalFrames++
	}

	p.updateDiagnostics(txSymbols, rxSymbols)

	return Output{
		DecodedBytes: newBytes,
		Ready:        len(newBytes) > 0,
		TXSymbols:    txSymbols,
		RXSymbols:    rxSymbols,
		Audio:        noisyAudio,
		SNRDB:        p.lastDiag.SNRDB,
		Success:      true,
	}
}

func (p *Pipeline) updateDiagnostics(tx, rx []complex128) {
	recent := p.decoder.RecentSymbols(256)
	instant, running := p.runningBER.Update(protocol.BytesToBits(p.payload), protocol.BytesToBits(p.decodedSoFar))
	p.lastDiag = Diagnostics{
		Constellation: diagnostics.ComputeConstellation(recent, 256),
		Spectrum:      diagnostics.ComputeSpectrum(p.decoder.RecentSymbols(512), p.opts.Protocol.QPSKSymbolRate),
		EVMPercent:    diagnostics.ComputeEVM(tx, rx),
		SNRDB:         diagnostics.EstimateSNR(recent),
		BERInstant:    instant,
		BERRunning:    running,
		LockState:     p.decoder.State().String(),
		TotalSymbols:  len(recent),
		TotalFrames:   p.totalFrames,
	}
}

// Flush drains remaining buffered input at end-of-stream (spec §6.4).
// Because the encoder loops continuously, Flush runs chunks until the
// encoder reports one full pass completed or a safety cap is hit.
func (p *Pipeline) Flush() Output {
	var last Output
	for i := 0; i < 64 && p.encoder != nil && !p.encoder.IsComplete(); i++ {
		last = p.ProcessChunk(nil)
	}
	return last
}

// Reset returns all runtime state to initial, idempotently (spec §6.5).
func (p *Pipeline) Reset() {
	if !p.configured {
		return
	}
	p.encoder = nil
	p.decoder = demodulator.NewStreamingSymbolDecoder(p.opts.Protocol, p.code, p.rrcKernel)
	p.decoder.SetFSKEnabled(p.opts.EnableFSK)
	p.decoder.SetQPSKEnabled(p.opts.EnableQPSK)
	p.noise = channel.NewAWGN(p.opts.Seed)
	p.decodedSoFar = nil
	p.runningBER = diagnostics.RunningBER{}
	p.lastDiag = Diagnostics{LockState: p.decoder.State().String()}
	p.totalFrames = 0
}

// UpdateChannelParams changes SNR/link-loss at runtime (spec §6.6).
func (p *Pipeline) UpdateChannelParams(snrDB, linkLossDB float64) {
	p.opts.SNRDB = snrDB
	p.opts.LinkLossDB = linkLossDB
}

// SetModulationMode switches between idle and active modulation (spec
// §6.6). The core pipeline always demodulates identically. Idle
// (active == false) sets the channel SNR to 100 dB, which turns noise
// injection off; active leaves the channel parameters unchanged, so
// noise stays off after an idle period until UpdateChannelParams sets a
// lower SNR.
func (p *Pipeline) SetModulationMode(active bool) {
	if !active {
		p.opts.SNRDB = 100
	}
}

// SetQPSKEnabled / SetFSKEnabled are diagnostic-purpose toggles (spec §6.6).
func (p *Pipeline) SetQPSKEnabled(on bool) {
	p.opts.EnableQPSK = on
	if p.decoder != nil {
		p.decoder.SetQPSKEnabled(on)
	}
}

func (p *Pipeline) SetFSKEnabled(on bool) {
	p.opts.EnableFSK = on
	if p.decoder != nil {
		p.decoder.SetFSKEnabled(on)
	}
}

// DecodedSoFar returns the decoded byte stream accumulated since the
// last Reset.
func (p *Pipeline) DecodedSoFar() []byte { return p.decodedSoFar }

// LastDiagnostics returns the most recent diagnostic snapshot (spec §6.7).
func (p *Pipeline) LastDiagnostics() Diagnostics { return p.lastDiag }
