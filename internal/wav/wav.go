// Package wav is a minimal canonical-header WAV encoder/decoder for mono
// PCM16 or float32 audio, used by cmd/chimera to persist synthesized or
// captured signal for offline inspection. An external collaborator per
// spec §1/§6 ("WAV I/O ... interface only"), grounded on the teacher's
// src/audio.go sample-format handling (32-bit sample conventions, here
// adapted from OSS ioctl framing to a plain io.Writer/io.Reader encoder).
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	formatPCM   = 1
	formatFloat = 3
)

// WriteFloat32 writes samples as mono 32-bit IEEE-float PCM at sampleRate,
// with a canonical 44-byte RIFF/WAVE header (spec §12.1).
func WriteFloat32(w io.Writer, samples []float32, sampleRate int) error {
	const bitsPerSample = 32
	dataSize := len(samples) * 4
	if err := writeHeader(w, formatFloat, 1, sampleRate, bitsPerSample, dataSize); err != nil {
		return err
	}
	buf := make([]byte, 4)
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(s))
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("wav: write sample: %w", err)
		}
	}
	return nil
}

// WritePCM16 writes samples (clamped to [-1,1]) as mono 16-bit PCM at
// sampleRate.
func WritePCM16(w io.Writer, samples []float32, sampleRate int) error {
	const bitsPerSample = 16
	dataSize := len(samples) * 2
	if err := writeHeader(w, formatPCM, 1, sampleRate, bitsPerSample, dataSize); err != nil {
		return err
	}
	buf := make([]byte, 2)
	for _, s := range samples {
		v := s
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint16(buf, uint16(int16(v*32767)))
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("wav: write sample: %w", err)
		}
	}
	return nil
}

func writeHeader(w io.Writer, format uint16, channels uint16, sampleRate, bitsPerSample, dataSize int) error {
	byteRate := sampleRate * int(channels) * bitsPerSample / 8
	blockAlign := int(channels) * bitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], format)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	return nil
}

// ReadFloat32 reads a mono WAV file (PCM16 or float32) back into
// normalized float32 samples in [-1,1], for round-trip testing and
// offline channel replay.
func ReadFloat32(r io.Reader) ([]float32, int, error) {
	header := make([]byte, 44)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, fmt.Errorf("wav: read header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("wav: not a RIFF/WAVE file")
	}
	format := binary.LittleEndian.Uint16(header[20:22])
	sampleRate := int(binary.LittleEndian.Uint32(header[24:28]))
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])
	dataSize := binary.LittleEndian.Uint32(header[40:44])

	raw := make([]byte, dataSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, 0, fmt.Errorf("wav: read data: %w", err)
	}

	switch {
	case format == formatFloat && bitsPerSample == 32:
		out := make([]float32, len(raw)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = math.Float32frombits(bits)
		}
		return out, sampleRate, nil
	case format == formatPCM && bitsPerSample == 16:
		out := make([]float32, len(raw)/2)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			out[i] = float32(v) / 32768
		}
		return out, sampleRate, nil
	default:
		return nil, 0, fmt.Errorf("wav: unsupported format=%d bits=%d", format, bitsPerSample)
	}
}
