// Command chimera drives the acoustic modem pipeline from the command
// line: encode a payload, push it through the optional AWGN channel,
// decode it back, and report diagnostics, optionally writing the
// synthesized waveform to a WAV file (spec §6's CLI surface).
//
// Grounded on the teacher's cmd/direwolf/main.go flag-declaration and
// usage-message shape, adapted from its cgo audio_config/KISS/APRS
// machinery to this modem's configure/push/process/flush pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ArrEssJay/chimera/internal/config"
	"github.com/ArrEssJay/chimera/internal/wav"
	"github.com/ArrEssJay/chimera/pipeline"
)

func main() {
	var (
		payload     = pflag.StringP("payload", "m", "hello, chimera", "Message payload to transmit.")
		snrDB       = pflag.Float64P("snr-db", "s", 20, "Channel signal-to-noise ratio in dB.")
		linkLossDB  = pflag.Float64P("link-loss-db", "l", 0, "Additional link loss in dB.")
		wavOut      = pflag.StringP("wav-out", "w", "", "Write synthesized audio to this WAV file path.")
		configPath  = pflag.StringP("config-file", "c", "chimera.toml", "Configuration file name.")
		disableQPSK = pflag.Bool("disable-qpsk", false, "Disable the QPSK data channel (diagnostic use).")
		disableFSK  = pflag.Bool("disable-fsk", false, "Disable the FSK auxiliary channel (diagnostic use).")
		seed        = pflag.Uint64P("seed", "e", 1, "RNG seed for deterministic noise generation.")
		verbose     = pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
		help        = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "chimera - a narrow-band acoustic covert-channel modem.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: chimera [options]\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	fileCfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	protoCfg, err := fileCfg.Translate()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	opts := pipeline.DefaultOptions()
	opts.Protocol = protoCfg
	opts.SNRDB = *snrDB
	opts.LinkLossDB = *linkLossDB
	opts.EnableQPSK = !*disableQPSK
	opts.EnableFSK = !*disableFSK
	opts.Seed = *seed
	opts.Logger = logger

	// Config-file values apply only where the matching flag was not given.
	if fileCfg.SNRDB != 0 && !pflag.CommandLine.Changed("snr-db") {
		opts.SNRDB = fileCfg.SNRDB
	}
	if fileCfg.LinkLossDB != 0 && !pflag.CommandLine.Changed("link-loss-db") {
		opts.LinkLossDB = fileCfg.LinkLossDB
	}
	if !pflag.CommandLine.Changed("disable-qpsk") {
		opts.EnableQPSK = config.BoolOr(fileCfg.EnableQPSK, opts.EnableQPSK)
	}
	if !pflag.CommandLine.Changed("disable-fsk") {
		opts.EnableFSK = config.BoolOr(fileCfg.EnableFSK, opts.EnableFSK)
	}

	p := pipeline.New()
	if err := p.Configure(opts); err != nil {
		logger.Error("configure failed", "err", err)
		os.Exit(1)
	}
	if err := p.PushPayload([]byte(*payload)); err != nil {
		logger.Error("push payload failed", "err", err)
		os.Exit(1)
	}

	var audio []float32
	out := p.Flush()
	audio = append(audio, out.Audio...)

	diag := p.LastDiagnostics()
	logger.Info("decode complete",
		"lock_state", diag.LockState,
		"evm_percent", diag.EVMPercent,
		"snr_db_estimate", diag.SNRDB,
		"ber_running", diag.BERRunning,
		"frames_decoded", diag.TotalFrames,
	)
	fmt.Printf("decoded: %q\n", string(p.DecodedSoFar()))

	if *wavOut != "" {
		f, err := os.Create(*wavOut)
		if err != nil {
			logger.Error("failed to create wav file", "path", *wavOut, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := wav.WriteFloat32(f, audio, int(protoCfg.SampleRate)); err != nil {
			logger.Error("failed to write wav file", "err", err)
			os.Exit(1)
		}
		logger.Info("wrote audio", "path", *wavOut, "samples", len(audio))
	}
}
