package modulation

import (
	"github.com/sndcore/dawengine/pkg/dsp/modulation"
)

// Source produces a normalized [-1,1] (or [0,1] for envelope sources)
// signal, advanced once per control tick.
type Source interface {
	Tick() float64
	Retrigger()
	Reset()
}

// Waveform lists the LFO shapes spec §4.4 requires. Sine/Triangle/Square
// /Sawtooth/SampleAndHold map directly onto the teacher's
// dsp/modulation.LFO; SmoothRandom is new, built as an interpolated
// random walk the teacher's LFO doesn't offer.
type Waveform int

const (
	WaveformSine Waveform = iota
	WaveformTriangle
	WaveformSawtooth
	WaveformSquare
	WaveformSampleHold
	WaveformSmoothRandom
)

// Mode selects whether an LFO instance is shared across every voice of an
// instrument (mono) or re-instantiated per voice (poly).
type Mode int

const (
	ModeMono Mode = iota
	ModePoly
)

// LFOSource adapts the teacher's dsp/modulation.LFO to the Source
// interface, adding smooth-random, a phase offset in degrees, fade-in,
// free-run vs retrigger-on-note, and tempo-synced rate selection.
type LFOSource struct {
	lfo *modulation.LFO

	waveform    Waveform
	phaseOffset float64 // degrees, [0,360)
	depth       float64 // [0,1]
	fadeInTicks int
	ticksSince  int
	freeRun     bool

	sampleRate  float64
	useTempo    bool
	division    Division
	bpm         func() float64

	smoothTarget  float64
	smoothCurrent float64
	smoothStep    int
	smoothPeriod  int
	rngState      uint32
}

// NewLFOSource creates a free-running sine LFO at 1Hz with full depth.
func NewLFOSource(controlRateHz float64) *LFOSource {
	s := &LFOSource{
		lfo:          modulation.NewLFO(controlRateHz),
		depth:        1.0,
		freeRun:      true,
		sampleRate:   controlRateHz,
		smoothPeriod: int(controlRateHz), // 1 Hz default smooth-random rate
		rngState:     0x9E3779B9,
	}
	s.lfo.SetWaveform(modulation.WaveformSine)
	return s
}

// SetWaveform selects the LFO shape.
func (s *LFOSource) SetWaveform(w Waveform) {
	s.waveform = w
	switch w {
	case WaveformSine:
		s.lfo.SetWaveform(modulation.WaveformSine)
	case WaveformTriangle:
		s.lfo.SetWaveform(modulation.WaveformTriangle)
	case WaveformSawtooth:
		s.lfo.SetWaveform(modulation.WaveformSawtooth)
	case WaveformSquare:
		s.lfo.SetWaveform(modulation.WaveformSquare)
	case WaveformSampleHold:
		s.lfo.SetWaveform(modulation.WaveformRandom)
	case WaveformSmoothRandom:
		// handled entirely in Tick, not delegated to the wrapped LFO
	}
}

// SetRateHz sets a free-running rate in Hz.
func (s *LFOSource) SetRateHz(hz float64) {
	s.useTempo = false
	s.lfo.SetFrequency(hz)
	if hz > 0 {
		s.smoothPeriod = int(s.sampleRate / hz)
	}
}

// SetTempoSynced selects a tempo-synced division, re-evaluated from bpm()
// every tick (§12 Open Question 3).
func (s *LFOSource) SetTempoSynced(div Division, bpm func() float64) {
	s.useTempo = true
	s.division = div
	s.bpm = bpm
}

// SetDepth sets modulation depth [0,1].
func (s *LFOSource) SetDepth(depth float64) {
	if depth < 0 {
		depth = 0
	}
	if depth > 1 {
		depth = 1
	}
	s.depth = depth
}

// SetPhaseOffset sets the starting phase offset in degrees [0,360).
func (s *LFOSource) SetPhaseOffset(degrees float64) {
	s.phaseOffset = degrees
}

// SetFadeInTicks sets how many control ticks the output ramps in over
// after a retrigger.
func (s *LFOSource) SetFadeInTicks(ticks int) {
	s.fadeInTicks = ticks
}

// SetFreeRun selects free-run (true) vs retrigger-on-note (false) mode;
// retrigger mode resets phase and fade-in on every Retrigger call.
func (s *LFOSource) SetFreeRun(freeRun bool) {
	s.freeRun = freeRun
}

// Retrigger resets the LFO phase and fade-in ramp if not free-running.
func (s *LFOSource) Retrigger() {
	if s.freeRun {
		return
	}
	s.lfo.SetPhase(s.phaseOffset / 360.0)
	s.ticksSince = 0
}

// Reset fully resets the source's internal state.
func (s *LFOSource) Reset() {
	s.lfo.Reset()
	s.lfo.SetPhase(s.phaseOffset / 360.0)
	s.ticksSince = 0
	s.smoothCurrent = 0
	s.smoothTarget = 0
	s.smoothStep = 0
}

// Tick advances the source by one control-rate tick and returns the
// current [-1,1] value scaled by depth and fade-in.
func (s *LFOSource) Tick() float64 {
	if s.useTempo && s.bpm != nil {
		s.lfo.SetFrequency(DivisionToHz(s.division, s.bpm()))
	}

	var raw float64
	if s.waveform == WaveformSmoothRandom {
		raw = s.tickSmoothRandom()
	} else {
		raw = s.lfo.Process()
	}

	raw *= s.depth
	if s.fadeInTicks > 0 && s.ticksSince < s.fadeInTicks {
		raw *= float64(s.ticksSince) / float64(s.fadeInTicks)
	}
	s.ticksSince++
	return raw
}

func (s *LFOSource) tickSmoothRandom() float64 {
	period := s.smoothPeriod
	if period <= 0 {
		period = 1
	}
	if s.smoothStep >= period {
		s.smoothStep = 0
		s.smoothCurrent = s.smoothTarget
		s.smoothTarget = 2.0*s.nextRand() - 1.0
	}
	frac := float64(s.smoothStep) / float64(period)
	s.smoothStep++
	return s.smoothCurrent + (s.smoothTarget-s.smoothCurrent)*frac
}

func (s *LFOSource) nextRand() float64 {
	s.rngState = s.rngState*1664525 + 1013904223
	return float64(s.rngState) / float64(1<<32)
}

// EnvelopeSource exposes a DAHDSR envelope's current output as a
// normalized [0,1] modulation source (spec §4.4 "Envelope-as-source").
type EnvelopeSource struct {
	level func() float64
}

// NewEnvelopeSource wraps a level-reading closure (typically
// voice.Envelope.Level) as a modulation Source.
func NewEnvelopeSource(level func() float64) *EnvelopeSource {
	return &EnvelopeSource{level: level}
}

func (e *EnvelopeSource) Tick() float64 {
	if e.level == nil {
		return 0
	}
	return e.level()
}

func (e *EnvelopeSource) Retrigger() {}
func (e *EnvelopeSource) Reset()     {}
