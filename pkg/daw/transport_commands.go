package daw

import (
	"fmt"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/quality"
	"github.com/sndcore/dawengine/pkg/score"
	"github.com/sndcore/dawengine/pkg/transport"
)

// Play resumes playback (spec §6 "transport.play()").
func (e *Engine) Play() core.Result {
	e.transport.Play()
	return core.OkResult()
}

// Pause stops advancing the transport without resetting position (spec
// §6 "transport.pause()").
func (e *Engine) Pause() core.Result {
	e.transport.Pause()
	return core.OkResult()
}

// Stop halts playback and resets position to zero (spec §6
// "transport.stop()").
func (e *Engine) Stop() core.Result {
	e.transport.Stop()
	return core.OkResult()
}

// SetBPM changes tempo (spec §6 "transport.set_bpm(bpm)").
func (e *Engine) SetBPM(bpm float64) core.Result {
	if err := e.transport.SetBPM(bpm); err != nil {
		return core.RejectedResult(err)
	}
	return core.OkResult()
}

// Seek moves the transport to an absolute tick position (spec §6
// "transport.seek(ticks)").
func (e *Engine) Seek(ticks int64) core.Result {
	if err := e.transport.Seek(ticks); err != nil {
		return core.RejectedResult(err)
	}
	return core.OkResult()
}

// TransportState reports the transport's current play/pause/stop state,
// tempo, and tick position for a UI or CLI to display.
func (e *Engine) TransportState() (transport.State, float64, int64) {
	return e.transport.State(), e.transport.BPM(), e.transport.PositionTicks()
}

// ReplacePattern installs or replaces an instrument's scheduled pattern
// (spec §6 "notes.replace_pattern(instrument, events)"). Structural:
// deferred, since the scheduler never mutates a pattern's Events slice in
// place and the audio thread may be mid-resolveWindow against the old one.
func (e *Engine) ReplacePattern(instrumentID score.InstrumentID, events []score.Event, lengthTicks int64) core.Result {
	e.instMu.RLock()
	_, known := e.instruments[instrumentID]
	e.instMu.RUnlock()
	if !known {
		return core.RejectedResult(fmt.Errorf("daw: unknown instrument %q: %w", instrumentID, core.ErrUnknownEntity))
	}
	e.queueOp(func(eng *Engine) {
		eng.scheduler.ReplacePattern(&transport.Pattern{InstrumentID: instrumentID, Events: events, LengthTicks: lengthTicks})
	})
	return core.DeferredResult(string(instrumentID))
}

// ClearPattern removes an instrument's pattern entirely.
func (e *Engine) ClearPattern(instrumentID score.InstrumentID) core.Result {
	e.queueOp(func(eng *Engine) {
		eng.scheduler.ClearPattern(instrumentID)
	})
	return core.DeferredResult(string(instrumentID))
}

// NoteOn injects a live (non-scheduled) note-on, e.g. from an on-screen
// keyboard or a MIDI controller (spec §6 "notes.note_on(instrument,
// pitch, velocity)"). Applied at the next block's safe point so it lands
// on a well-defined sample boundary alongside scheduled events.
func (e *Engine) NoteOn(instrumentID score.InstrumentID, pitch score.Pitch, velocity float64) core.Result {
	e.queueOp(func(eng *Engine) {
		v, err := eng.voices.NoteOn(instrumentID, pitch, velocity)
		if err != nil {
			return
		}
		eng.attachNoteSource(instrumentID, v)
	})
	return core.OkResult()
}

// NoteOff injects a live note-off for a previously triggered note.
func (e *Engine) NoteOff(instrumentID score.InstrumentID, pitch score.Pitch) core.Result {
	e.queueOp(func(eng *Engine) {
		eng.voices.NoteOff(instrumentID, pitch)
	})
	return core.OkResult()
}

// ApplyQualityPreset switches to one of the five fixed quality tiers
// (spec §6 "quality.apply_preset(tier)"; §4.8 stop-reprepare-resume).
// The audio thread is "stopped" by pausing the transport for the
// duration of the reconfiguration and resumed by restoring its prior
// state, rather than by blocking RenderBlock itself.
func (e *Engine) ApplyQualityPreset(preset quality.Preset) core.Result {
	e.queueOp(func(eng *Engine) {
		prior := eng.transport.State()
		eng.quality.Reconfigure(preset, func() {
			eng.transport.Pause()
		}, eng.reconfigurableTargets(), func() {
			if prior == transport.Playing {
				eng.transport.Play()
			}
		})
		_, settings := eng.quality.Current()
		eng.sampleRate = settings.SampleRate
		eng.maxBlockSize = settings.BlockSize
		eng.mixerGraph.Prepare(2, settings.BlockSize, eng.guard)
	})
	return core.DeferredResult("quality-preset")
}

// reconfigurableTargets collects every live insert processor for the
// quality manager's stop-reprepare-resume cycle (spec §4.8: every target
// is re-Prepare'd, never losing parameter values since those live in
// each insert's own registry, untouched by Prepare).
func (e *Engine) reconfigurableTargets() []quality.Reconfigurable {
	var targets []quality.Reconfigurable
	for _, id := range e.mixerGraph.AllChannelIDs() {
		ch, ok := e.mixerGraph.Channel(id)
		if !ok {
			continue
		}
		for _, ins := range ch.Inserts {
			targets = append(targets, ins.Processor)
		}
	}
	return targets
}
