package main

import (
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

// sink is an output backend for rendered stereo blocks. Neither
// implementation lives under pkg/engine: the core never imports an
// output backend, only this demo harness does.
type sink interface {
	// Write delivers one rendered block as separate left and right
	// channel slices.
	Write(left, right []float32) error
	Close()
}

// nullSink discards every block. Used in tests/benchmarks and whenever
// the host has no real audio output (e.g. headless CI).
type nullSink struct{}

func newNullSink() *nullSink { return &nullSink{} }

func (n *nullSink) Write(left, right []float32) error { return nil }
func (n *nullSink) Close()                            {}

// sdl2Sink queues rendered blocks to an SDL2 audio device opened in
// AUDIO_F32 interleaved stereo.
type sdl2Sink struct {
	dev     sdl.AudioDeviceID
	scratch []byte
}

// newSDL2Sink opens the default SDL2 audio output device at sampleRate,
// stereo, float32, with samplesPerCallback frames of internal buffering.
func newSDL2Sink(sampleRate int, samplesPerCallback uint16) (*sdl2Sink, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("enginectl: sdl audio init: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  samplesPerCallback,
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("enginectl: opening audio device: %w", err)
	}
	sdl.PauseAudioDevice(dev, false)
	return &sdl2Sink{dev: dev}, nil
}

// Write interleaves left/right and queues them to the device, encoding
// little-endian float32 by hand (go-sdl2's QueueAudio wants raw bytes).
func (s *sdl2Sink) Write(left, right []float32) error {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	need := n * 2 * 4
	if cap(s.scratch) < need {
		s.scratch = make([]byte, need)
	}
	buf := s.scratch[:need]
	for i := 0; i < n; i++ {
		putFloat32LE(buf[i*8:], left[i])
		putFloat32LE(buf[i*8+4:], right[i])
	}
	return sdl.QueueAudio(s.dev, buf)
}

func (s *sdl2Sink) Close() {
	sdl.CloseAudioDevice(s.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}

func putFloat32LE(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
