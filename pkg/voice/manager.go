package voice

import (
	"fmt"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/score"
)

// forcedFadeMillis is the cut-itself fade length mandated by spec §4.3.
const forcedFadeMillis = 2.0

// Kind discriminates an instrument's sound source (spec §3 Data Model:
// Instrument Kind is "Sample" or "Synth").
type Kind int

const (
	// KindSample plays back a resident buffer through the sample engine's
	// resampling note source (spec §4.3). The zero value, so an
	// Instrument left unset behaves as it always has.
	KindSample Kind = iota
	// KindSynth has no buffer; each voice renders from an oscillator run
	// through a filter and LFO instead (spec §3: "parameter set over
	// oscillators, filter, envelopes, LFOs").
	KindSynth
)

func (k Kind) String() string {
	if k == KindSynth {
		return "Synth"
	}
	return "Sample"
}

// Waveform selects a Synth instrument's oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

// Instrument is the voice manager's view of a registered instrument: just
// enough to drive allocation, envelope shape, and stealing. The mixer
// channel assignment and sample/synth payload live in their own packages.
type Instrument struct {
	ID core.ID

	Kind Kind

	CutItself bool // spec §4.3: new note-on fades out all prior voices of this instrument

	// MaxVoices is this instrument's own polyphony cap; 0 means unbounded
	// (subject only to the manager's global cap).
	MaxVoices int

	TuningA4         float64 // Hz, 0 defaults to 440
	VelocityGamma    float64 // 0 or 1 = linear velocity->amplitude
	Delay            float64
	Attack           float64
	Hold             float64
	Decay            float64
	Sustain          float64
	Release          float64

	// Synth-kind parameters (spec §3 Synth Instrument Kind). Ignored for
	// Sample-kind instruments.
	Waveform        Waveform
	FilterCutoffHz  float64 // 0 disables the filter stage
	FilterResonance float64 // Q, 0 defaults to a neutral 0.707
	LFORateHz       float64 // 0 disables vibrato
	LFODepthSemis   float64 // vibrato depth in semitones
}

// Manager allocates, runs, and retires voices for every registered
// instrument (spec §4.2). It is driven entirely from the audio thread:
// note_on/note_off are called with events already resolved to a sample
// offset by the scheduler, and render fills per-instrument output.
type Manager struct {
	sampleRate float64

	globalMaxVoices int
	voices          []*Voice

	instruments map[score.InstrumentID]*Instrument

	sequence uint64

	missedAllocations uint64
	stolenVoices      uint64
}

// NewManager creates a voice manager with the given global polyphony cap
// (spec §9/Quality Manager presets set this per quality tier).
func NewManager(sampleRate float64, globalMaxVoices int) *Manager {
	return &Manager{
		sampleRate:      sampleRate,
		globalMaxVoices: globalMaxVoices,
		voices:          make([]*Voice, 0, globalMaxVoices),
		instruments:     make(map[score.InstrumentID]*Instrument),
	}
}

// RegisterInstrument adds or replaces an instrument's voice-allocation
// configuration.
func (m *Manager) RegisterInstrument(id score.InstrumentID, cfg Instrument) {
	cfg.ID = core.NewID()
	m.instruments[id] = &cfg
}

// UnregisterInstrument silences and removes every voice of an instrument,
// per spec §3 "must first silence all dependent voices."
func (m *Manager) UnregisterInstrument(id score.InstrumentID) {
	for _, v := range m.voices {
		if v.InstrumentID == id {
			v.Envelope.Stop()
		}
	}
	delete(m.instruments, id)
	m.reap()
}

// ActiveVoiceCount returns the number of non-Dead voices, optionally
// filtered to one instrument (empty id means all instruments).
func (m *Manager) ActiveVoiceCount(id score.InstrumentID) int {
	n := 0
	for _, v := range m.voices {
		if !v.IsDead() && (id == "" || v.InstrumentID == id) {
			n++
		}
	}
	return n
}

// NoteOn allocates a voice for a note-on event at the given sample offset
// within the current block (spec §4.2 public contract). sampleOffset is
// informational here; callers render starting at that offset.
func (m *Manager) NoteOn(instrumentID score.InstrumentID, pitch score.Pitch, velocity float64) (*Voice, error) {
	inst, ok := m.instruments[instrumentID]
	if !ok {
		return nil, fmt.Errorf("voice: unknown instrument %q: %w", instrumentID, core.ErrUnknownEntity)
	}

	if inst.CutItself {
		fadeSamples := int(forcedFadeMillis / 1000.0 * m.sampleRate)
		for _, v := range m.voices {
			if v.InstrumentID == instrumentID && !v.IsDead() {
				v.ForceFadeOut(fadeSamples)
			}
		}
	}

	m.enforceCaps(instrumentID, inst.MaxVoices)

	env := New(m.sampleRate)
	env.SetDAHDSR(inst.Delay, inst.Attack, inst.Hold, inst.Decay, inst.Sustain, inst.Release)
	m.sequence++
	v := NewVoice(instrumentID, pitch, velocity, inst.TuningA4, inst.VelocityGamma, env, m.sequence)
	m.voices = append(m.voices, v)
	return v, nil
}

// NoteOff transitions every live, non-releasing voice of instrumentID at
// pitch into Release (spec §4.2: "transitions matching voices from
// Sustain/Hold/Decay to Release").
func (m *Manager) NoteOff(instrumentID score.InstrumentID, pitch score.Pitch) {
	for _, v := range m.voices {
		if v.InstrumentID == instrumentID && v.Pitch == pitch && !v.IsDead() && !v.IsInRelease() {
			v.ReleaseNote()
		}
	}
}

// enforceCaps steals voices, per the §4.2 priority order, until adding one
// more voice for instrumentID would not exceed either the per-instrument
// or the global cap.
func (m *Manager) enforceCaps(instrumentID score.InstrumentID, perInstrumentCap int) {
	m.reap()

	for perInstrumentCap > 0 && m.ActiveVoiceCount(instrumentID) >= perInstrumentCap {
		if !m.stealOne(instrumentID) {
			break
		}
	}
	for m.globalMaxVoices > 0 && len(m.voices) >= m.globalMaxVoices {
		if !m.stealOne("") {
			break
		}
	}
}

// stealOne kills one voice per the priority order: Dead (reclaim, free),
// then quietest-in-Release, then oldest overall. scope empty means any
// instrument; non-empty restricts the search to that instrument only.
func (m *Manager) stealOne(scope score.InstrumentID) bool {
	// Priority 1: reclaim an already-Dead voice (pure bookkeeping, not a
	// steal in the telemetry sense since nothing audible is cut).
	for i, v := range m.voices {
		if scope != "" && v.InstrumentID != scope {
			continue
		}
		if v.IsDead() {
			m.removeAt(i)
			return true
		}
	}

	// Priority 2: quietest voice in Release.
	quietestIdx := -1
	quietestLevel := 0.0
	for i, v := range m.voices {
		if scope != "" && v.InstrumentID != scope {
			continue
		}
		if !v.IsInRelease() {
			continue
		}
		level := v.Amplitude * v.Envelope.Level()
		if quietestIdx == -1 || level < quietestLevel {
			quietestIdx = i
			quietestLevel = level
		}
	}
	if quietestIdx != -1 {
		m.voices[quietestIdx].Envelope.Stop()
		m.removeAt(quietestIdx)
		m.stolenVoices++
		return true
	}

	// Priority 3: oldest voice in any stage.
	oldestIdx := -1
	var oldestSeq uint64
	for i, v := range m.voices {
		if scope != "" && v.InstrumentID != scope {
			continue
		}
		if oldestIdx == -1 || v.bornAtSample < oldestSeq {
			oldestIdx = i
			oldestSeq = v.bornAtSample
		}
	}
	if oldestIdx != -1 {
		m.voices[oldestIdx].Envelope.Stop()
		m.removeAt(oldestIdx)
		m.stolenVoices++
		return true
	}

	m.missedAllocations++
	return false
}

func (m *Manager) removeAt(i int) {
	last := len(m.voices) - 1
	m.voices[i] = m.voices[last]
	m.voices[last] = nil
	m.voices = m.voices[:last]
}

// reap drops fully-dead voices so they no longer count against polyphony
// caps (spec §4.2: "becomes Dead and is reclaimed next block").
func (m *Manager) reap() {
	live := m.voices[:0]
	for _, v := range m.voices {
		if v.IsDead() {
			continue
		}
		live = append(live, v)
	}
	m.voices = live
}

// Voices returns the manager's live voice set for rendering. Callers must
// not retain the slice across calls to NoteOn/NoteOff/Render, which may
// reallocate it.
func (m *Manager) Voices() []*Voice {
	return m.voices
}

// Reap drops fully-dead voices so they no longer count against polyphony
// caps. Exported for callers that advance voice envelopes themselves (the
// sample engine, calling Level() once per output sample) instead of going
// through Render, which would otherwise advance every envelope twice.
func (m *Manager) Reap() {
	m.reap()
}

// Render advances every live voice's envelope by one block's worth of
// samples and reaps any that died during the block. The sample engine
// (pkg/sample) is responsible for turning each voice's per-sample Level()
// into actual audio; Render here only owns envelope/lifecycle bookkeeping
// so both packages agree on one authoritative Dead/alive state per block.
func (m *Manager) Render(blockSize int) {
	for _, v := range m.voices {
		for i := 0; i < blockSize; i++ {
			v.Level()
			if v.IsDead() {
				break
			}
		}
	}
	m.reap()
}

// Stats reports voice-stealing telemetry counters (spec §7: "recorded in
// telemetry counters").
type Stats struct {
	Active  int
	Stolen  uint64
	Missed  uint64
}

// StatsSnapshot returns a point-in-time copy of the manager's counters.
func (m *Manager) StatsSnapshot() Stats {
	return Stats{
		Active: len(m.voices),
		Stolen: m.stolenVoices,
		Missed: m.missedAllocations,
	}
}
