// Package config loads chimera.toml into a Config record and translates
// its protocol fields into protocol.Config (spec §6, §10.2); cmd/chimera
// copies snr_db, link_loss_db, enable_qpsk and enable_fsk into
// pipeline.Options itself, and the seed field is decoded but not
// applied. An
// external collaborator consumed only by cmd/chimera, per spec §1's
// core/non-core boundary: the pipeline itself never imports this
// package.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ArrEssJay/chimera/internal/protocol"
)

// Config is the on-disk TOML representation. Zero fields fall back to
// protocol.Default()'s values (spec §10.2: "recognized fields:
// carrier_freq_hz, qpsk_symbol_rate, ...").
type Config struct {
	CarrierHz      float64 `toml:"carrier_freq_hz"`
	QPSKSymbolRate float64 `toml:"qpsk_symbol_rate"`
	FSKBitRate     float64 `toml:"fsk_bit_rate"`
	FSKShiftHz     float64 `toml:"fsk_shift_hz"`
	SampleRate     float64 `toml:"sample_rate"`
	RRCRolloff     float64 `toml:"rrc_rolloff"`
	RRCSpanSymbols int     `toml:"rrc_span_symbols"`

	SyncSequenceHex string `toml:"sync_sequence_hex"`
	TargetIDHex     string `toml:"target_id_hex"`
	CommandOpcode   uint32 `toml:"command_opcode"`

	SyncBits     int `toml:"sync_bits"`
	TargetIDBits int `toml:"target_id_bits"`
	CommandBits  int `toml:"command_word_bits"`
	PayloadBits  int `toml:"payload_bits"`
	ECCBits      int `toml:"parity_bits"`

	SNRDB      float64 `toml:"snr_db"`
	LinkLossDB float64 `toml:"link_loss_db"`
	EnableQPSK *bool   `toml:"enable_qpsk"`
	EnableFSK  *bool   `toml:"enable_fsk"`
	Seed       uint64  `toml:"seed"`
}

// Load decodes a TOML file at path into a Config. A missing file is not
// an error; the returned Config is the zero value and Translate will
// fill every field from protocol.Default().
func Load(path string) (Config, error) {
	var c Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// Translate merges c over protocol.Default(), returning a fully-populated
// protocol.Config. Zero-valued numeric fields in c are treated as "not
// set" and keep the default.
func (c Config) Translate() (protocol.Config, error) {
	pc := protocol.Default()

	if c.CarrierHz != 0 {
		pc.CarrierHz = c.CarrierHz
	}
	if c.QPSKSymbolRate != 0 {
		pc.QPSKSymbolRate = c.QPSKSymbolRate
	}
	if c.FSKBitRate != 0 {
		pc.FSKBitRate = c.FSKBitRate
	}
	if c.FSKShiftHz != 0 {
		pc.FSKShiftHz = c.FSKShiftHz
	}
	if c.SampleRate != 0 {
		pc.SampleRate = c.SampleRate
	}
	if c.RRCRolloff != 0 {
		pc.RRCRolloff = c.RRCRolloff
	}
	if c.RRCSpanSymbols != 0 {
		pc.RRCSpanSymbols = c.RRCSpanSymbols
	}
	if c.SyncSequenceHex != "" {
		v, err := parseHex32(c.SyncSequenceHex)
		if err != nil {
			return protocol.Config{}, fmt.Errorf("config: sync_sequence_hex: %w", err)
		}
		pc.SyncHex = v
	}
	if c.TargetIDHex != "" {
		v, err := parseHex32(c.TargetIDHex)
		if err != nil {
			return protocol.Config{}, fmt.Errorf("config: target_id_hex: %w", err)
		}
		pc.TargetIDHex = v
	}
	if c.CommandOpcode != 0 {
		pc.CommandOp = c.CommandOpcode
	}
	if c.SyncBits != 0 {
		pc.SyncBits = c.SyncBits
	}
	if c.TargetIDBits != 0 {
		pc.TargetIDBits = c.TargetIDBits
	}
	if c.CommandBits != 0 {
		pc.CommandBits = c.CommandBits
	}
	if c.PayloadBits != 0 {
		pc.PayloadBits = c.PayloadBits
	}
	if c.ECCBits != 0 {
		pc.ECCBits = c.ECCBits
	}

	if err := pc.Validate(); err != nil {
		return protocol.Config{}, err
	}
	return pc, nil
}

func parseHex32(s string) (uint32, error) {
	var v uint32
	_, err := fmt.Sscanf(s, "0x%x", &v)
	if err != nil {
		_, err = fmt.Sscanf(s, "%x", &v)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return v, nil
}

// BoolOr returns *b if non-nil, otherwise def.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
