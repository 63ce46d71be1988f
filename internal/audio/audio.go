// Package audio wraps gordonklaus/portaudio for live sound-card capture
// and playback, the portable equivalent of the teacher's direct
// OSS/ALSA ioctl access in src/audio.go (audio_open/audio_get/
// audio_put/audio_close). An external collaborator per spec §1; neither
// the pipeline core nor cmd/chimera imports this package, and
// cmd/chimera has no live-device mode.
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device is an open full-duplex mono audio stream at a fixed sample
// rate, mirroring the teacher's one-device-per-channel model.
type Device struct {
	stream *portaudio.Stream
	in     []float32
	out    []float32

	sampleRate      float64
	framesPerBuffer int
}

// Open initializes the default portaudio host and opens a mono
// full-duplex stream at sampleRate with the given block size
// (analogous to audio_open's ONE_BUF_TIME-derived buffer sizing).
func Open(sampleRate float64, framesPerBuffer int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize: %w", err)
	}
	d := &Device{
		in:              make([]float32, framesPerBuffer),
		out:             make([]float32, framesPerBuffer),
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
	}
	stream, err := portaudio.OpenDefaultStream(1, 1, sampleRate, framesPerBuffer, d.in, d.out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audio: open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("audio: start stream: %w", err)
	}
	d.stream = stream
	return d, nil
}

// Put writes one block of audio samples (audio_put_real equivalent),
// blocking until the device has consumed them. len(samples) must equal
// the device's framesPerBuffer.
func (d *Device) Put(samples []float32) error {
	n := copy(d.out, samples)
	for ; n < len(d.out); n++ {
		d.out[n] = 0
	}
	if err := d.stream.Write(); err != nil {
		return fmt.Errorf("audio: write: %w", err)
	}
	return nil
}

// Get reads one block of captured audio samples (audio_get_real
// equivalent) into buf, blocking until a full block is available.
func (d *Device) Get(buf []float32) error {
	if err := d.stream.Read(); err != nil {
		return fmt.Errorf("audio: read: %w", err)
	}
	copy(buf, d.in)
	return nil
}

// FramesPerBuffer returns the fixed block size negotiated at Open.
func (d *Device) FramesPerBuffer() int { return d.framesPerBuffer }

// Close stops the stream and releases portaudio resources
// (audio_close equivalent).
func (d *Device) Close() error {
	if err := d.stream.Close(); err != nil {
		portaudio.Terminate()
		return fmt.Errorf("audio: close: %w", err)
	}
	return portaudio.Terminate()
}
