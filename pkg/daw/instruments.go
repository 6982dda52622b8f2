package daw

import (
	"fmt"
	"math"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/dsp/filter"
	"github.com/sndcore/dawengine/pkg/dsp/oscillator"
	"github.com/sndcore/dawengine/pkg/mixer"
	"github.com/sndcore/dawengine/pkg/sample"
	"github.com/sndcore/dawengine/pkg/score"
	"github.com/sndcore/dawengine/pkg/voice"
)

// rootPitch is the neutral MIDI note (C4) a sample-based instrument's
// buffer is assumed recorded at; a note-on's pitch offset from this root,
// in semitones, drives the note source's resampling rate.
const rootPitch = 60.0

// instrumentState is the engine's bookkeeping for one registered
// instrument: its voice-allocation config (owned by voice.Manager), its
// routing to a mixer Track, and, for sample-based instruments, the
// buffer its voices resample.
type instrumentState struct {
	id        score.InstrumentID
	trackID   core.ID
	voiceCfg  voice.Instrument
	bufferID  core.ID // empty for synthesized (non-sample) instruments
	pan       float64

	sources map[core.ID]*noteSourceState // keyed by voice.Voice.ID, Kind Sample only
	synths  map[core.ID]*synthVoiceState // keyed by voice.Voice.ID, Kind Synth only
}

// noteSourceState pairs a sample engine resampling source with the
// cumulative sample count since its voice's note-on, which NoteSource.Next
// needs for fade-in shaping but doesn't track itself across block calls.
type noteSourceState struct {
	src     *sample.NoteSource
	elapsed int
}

// synthVoiceState is one Synth-kind voice's oscillator, filter, and
// vibrato LFO (spec §3: "parameter set over oscillators, filter,
// envelopes, LFOs"). The envelope itself is the voice's own
// voice.Envelope; this only owns the tone-generation chain.
type synthVoiceState struct {
	osc        *oscillator.Oscillator
	lfo        *oscillator.Oscillator
	filt       *filter.SVF
	sampleRate float64
	baseFreq   float64
	cfg        voice.Instrument
}

func newSynthVoiceState(sampleRate, baseFreq float64, cfg voice.Instrument) *synthVoiceState {
	s := &synthVoiceState{
		osc:        oscillator.New(sampleRate),
		lfo:        oscillator.New(sampleRate),
		filt:       filter.NewSVF(1),
		sampleRate: sampleRate,
		baseFreq:   baseFreq,
		cfg:        cfg,
	}
	s.osc.SetFrequency(baseFreq)
	if cfg.LFORateHz > 0 {
		s.lfo.SetFrequency(cfg.LFORateHz)
	}
	if cfg.FilterCutoffHz > 0 {
		q := cfg.FilterResonance
		if q <= 0 {
			q = 0.707
		}
		s.filt.SetFrequencyAndQ(sampleRate, cfg.FilterCutoffHz, q)
	}
	return s
}

// next renders one sample from the oscillator, applying vibrato (the
// LFO drives a semitone offset off the voice's fixed base frequency) and
// the optional filter stage.
func (s *synthVoiceState) next() float32 {
	if s.cfg.LFORateHz > 0 && s.cfg.LFODepthSemis != 0 {
		semis := float64(s.lfo.Sine()) * s.cfg.LFODepthSemis
		s.osc.SetFrequency(s.baseFreq * semitoneRatio(semis))
	}

	var raw float32
	switch s.cfg.Waveform {
	case voice.WaveSaw:
		raw = s.osc.Saw()
	case voice.WaveSquare:
		raw = s.osc.Square()
	case voice.WaveTriangle:
		raw = s.osc.Triangle()
	default:
		raw = s.osc.Sine()
	}

	if s.cfg.FilterCutoffHz <= 0 {
		return raw
	}
	return s.filt.ProcessSample(raw, 0).Lowpass
}

// semitoneRatio converts a semitone offset to a frequency multiplier,
// mirroring pkg/sample's own private conversion (unexported there, so a
// one-line duplicate is cheaper than exporting it for one caller).
func semitoneRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12.0)
}

// LoadBuffer decodes channels into an immutable original buffer and makes
// it resident in the sample cache, returning the ID later instruments
// reference via AddInstrument's bufferID. Not part of the real-time
// command surface: a host calls this at load time, from the control
// thread, well before the buffer's first note-on.
func (e *Engine) LoadBuffer(channels [][]float32, sampleRate float64) core.ID {
	buf := sample.NewBuffer(channels, sampleRate)
	e.cache.AddOriginal(buf)
	return buf.ID
}

// AddInstrument registers a new instrument, routes it to trackID (which
// must already exist in the mixer graph), and, if bufferID names a
// resident original buffer, makes it sample-playback-backed. cfg.Kind
// and bufferID must agree (spec §3: Instrument Kind is exclusively
// Sample or Synth) — Sample requires a buffer, Synth requires none.
func (e *Engine) AddInstrument(id score.InstrumentID, trackID core.ID, cfg voice.Instrument, bufferID core.ID) core.Result {
	if err := ensureTrackExists(e.mixerGraph, trackID); err != nil {
		return core.RejectedResult(err)
	}
	switch cfg.Kind {
	case voice.KindSample:
		if bufferID.Empty() {
			return core.RejectedResult(fmt.Errorf("daw: Sample instrument %q requires a buffer: %w", id, core.ErrInvalidArgument))
		}
	case voice.KindSynth:
		if !bufferID.Empty() {
			return core.RejectedResult(fmt.Errorf("daw: Synth instrument %q must not reference a buffer: %w", id, core.ErrInvalidArgument))
		}
	}
	e.queueOp(func(eng *Engine) {
		eng.voices.RegisterInstrument(id, cfg)
		eng.instMu.Lock()
		eng.instruments[id] = &instrumentState{
			id:       id,
			trackID:  trackID,
			voiceCfg: cfg,
			bufferID: bufferID,
			sources:  make(map[core.ID]*noteSourceState),
			synths:   make(map[core.ID]*synthVoiceState),
		}
		eng.instMu.Unlock()
	})
	return core.OkResult()
}

// SetInstrumentPan sets the constant pan applied to every voice of an
// instrument, synth-backed or sample-backed.
func (e *Engine) SetInstrumentPan(id score.InstrumentID, pan float64) core.Result {
	e.queueOp(func(eng *Engine) {
		eng.instMu.Lock()
		defer eng.instMu.Unlock()
		if inst, ok := eng.instruments[id]; ok {
			inst.pan = pan
			for _, st := range inst.sources {
				st.src.Pan = pan
			}
		}
	})
	return core.OkResult()
}

// RemoveInstrument silences and unregisters an instrument (spec §3: must
// first silence all dependent voices, which voice.Manager.UnregisterInstrument
// already guarantees).
func (e *Engine) RemoveInstrument(id score.InstrumentID) core.Result {
	e.queueOp(func(eng *Engine) {
		eng.voices.UnregisterInstrument(id)
		eng.instMu.Lock()
		delete(eng.instruments, id)
		eng.instMu.Unlock()
	})
	return core.OkResult()
}

// attachNoteSource creates the render source for a freshly allocated
// voice: a resampling NoteSource for a Sample instrument, or an
// oscillator/filter/LFO chain for a Synth instrument.
func (e *Engine) attachNoteSource(instrumentID score.InstrumentID, v *voice.Voice) {
	e.instMu.RLock()
	inst, ok := e.instruments[instrumentID]
	e.instMu.RUnlock()
	if !ok {
		return
	}

	if inst.voiceCfg.Kind == voice.KindSynth {
		inst.synths[v.ID] = newSynthVoiceState(e.sampleRate, v.FrequencyHz, inst.voiceCfg)
		return
	}

	if inst.bufferID.Empty() {
		return
	}
	buf, ok := e.cache.Original(inst.bufferID)
	if !ok {
		e.counters.RecordBufferMiss(string(inst.bufferID))
		return
	}
	src := sample.NewNoteSource(buf, e.sampleRate)
	src.PitchOffset = float64(v.Pitch) - rootPitch
	src.Pan = inst.pan
	inst.sources[v.ID] = &noteSourceState{src: src}
}

// synthesizeInstruments renders every instrument's live voices into its
// routed track's stereo buffer for this block (spec §4.3: per-note
// resampling/shaping; spec §4.2: per-voice envelope level). Sample
// instruments read through their NoteSource; Synth instruments read
// through their oscillator/filter/LFO chain (spec §3 Synth Instrument
// Kind).
func (e *Engine) synthesizeInstruments(blockSize int) map[core.ID][][]float32 {
	out := make(map[core.ID][][]float32, len(e.instruments))

	e.instMu.RLock()
	defer e.instMu.RUnlock()

	for _, inst := range e.instruments {
		buf, exists := out[inst.trackID]
		if !exists {
			buf = [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
			out[inst.trackID] = buf
		}

		for _, v := range e.voices.Voices() {
			if v.InstrumentID != inst.id || v.IsDead() {
				continue
			}
			srcState := inst.sources[v.ID]
			synthState := inst.synths[v.ID]
			for i := 0; i < blockSize; i++ {
				level := v.Level()
				if v.IsDead() {
					break
				}
				var mono float32
				switch {
				case srcState != nil:
					s, ok := srcState.src.Next(0, srcState.elapsed)
					srcState.elapsed++
					if !ok {
						v.ForceFadeOut(0)
						break
					}
					mono = s * float32(level)
				case synthState != nil:
					mono = synthState.next() * float32(level)
				default:
					mono = float32(level)
				}
				l, r := sample.PanToStereo(mono, inst.pan)
				buf[0][i] += l
				buf[1][i] += r
			}
			if v.IsDead() {
				if srcState != nil {
					delete(inst.sources, v.ID)
				}
				if synthState != nil {
					delete(inst.synths, v.ID)
				}
			}
		}
	}
	return out
}

// trackBufferFor implements the mixer.Graph.Render trackSources closure
// signature over synthesizeInstruments' per-track output map.
func trackBufferFor(buffers map[core.ID][][]float32) func(core.ID) [][]float32 {
	return func(id core.ID) [][]float32 {
		return buffers[id]
	}
}

// ensureTrackExists is a small helper AddInstrument-adjacent commands use
// to validate a trackID belongs to a live mixer.Channel before queuing a
// structural op that would otherwise fail deep inside RenderBlock.
func ensureTrackExists(g *mixer.Graph, id core.ID) error {
	ch, ok := g.Channel(id)
	if !ok {
		return fmt.Errorf("daw: unknown channel %q: %w", id, core.ErrUnknownEntity)
	}
	if ch.Variant != mixer.Track {
		return fmt.Errorf("daw: channel %q is not a Track: %w", id, core.ErrInvalidArgument)
	}
	return nil
}
