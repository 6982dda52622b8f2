package daw

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/mixer"
	"github.com/sndcore/dawengine/pkg/modulation"
	"github.com/sndcore/dawengine/pkg/paramctl"
	"github.com/sndcore/dawengine/pkg/processor"
	"github.com/sndcore/dawengine/pkg/quality"
	"github.com/sndcore/dawengine/pkg/score"
	"github.com/sndcore/dawengine/pkg/transport"
	"github.com/sndcore/dawengine/pkg/voice"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 48000
	cfg.BlockSize = 64
	return cfg
}

func synthInstrument() voice.Instrument {
	return voice.Instrument{
		Kind:           voice.KindSynth,
		Waveform:       voice.WaveSaw,
		FilterCutoffHz: 4000,
		TuningA4:       440,
		VelocityGamma:  1,
		Attack:         0.001,
		Decay:          0.02,
		Sustain:        0.8,
		Release:        0.02,
		MaxVoices:      8,
	}
}

func sampleInstrument() voice.Instrument {
	return voice.Instrument{
		Kind:          voice.KindSample,
		TuningA4:      440,
		VelocityGamma: 1,
		Attack:        0.001,
		Decay:         0.02,
		Sustain:       0.8,
		Release:       0.02,
		MaxVoices:     8,
	}
}

func TestNewEngineHasSingletonMaster(t *testing.T) {
	e := New(testConfig())
	_, ok := e.mixerGraph.Channel(e.mixerGraph.MasterID())
	require.True(t, ok)
}

func TestRenderBlockSilentWithNoInstruments(t *testing.T) {
	e := New(testConfig())
	out := e.RenderBlock(64)
	require.Len(t, out, 2)
	for _, ch := range out {
		for _, s := range ch {
			require.Zero(t, s)
		}
	}
}

func TestAddChannelAddInstrumentRendersNonSilence(t *testing.T) {
	e := New(testConfig())
	trackID, res := e.AddChannel("Kick", mixer.Track)
	require.Equal(t, core.Deferred, res.Status)

	// AddChannel's op is deferred to the next RenderBlock's drainOps.
	e.RenderBlock(64)
	require.Equal(t, core.Deferred, e.AddSend(trackID, e.mixerGraph.MasterID(), 0, false).Status)
	e.RenderBlock(64)

	require.Equal(t, core.OkResult(), e.AddInstrument("kick", trackID, synthInstrument(), core.ID("")))

	res = e.NoteOn("kick", 60, 1.0)
	require.Equal(t, core.Ok, res.Status)

	var sawSignal bool
	for i := 0; i < 8; i++ {
		out := e.RenderBlock(64)
		for _, s := range out[0] {
			if s != 0 {
				sawSignal = true
			}
		}
	}
	require.True(t, sawSignal, "expected a synth-only instrument to audition as a non-silent tone")
}

func TestSetInsertWiresPerInsertParameterController(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Bus", mixer.Track)
	e.RenderBlock(64)

	insertID, res := e.SetInsert(trackID, 0, processor.KindCompressor)
	require.Equal(t, core.Deferred, res.Status)
	e.RenderBlock(64)

	e.insertMu.RLock()
	st, ok := e.inserts[insertID]
	e.insertMu.RUnlock()
	require.True(t, ok)
	require.NotNil(t, st.controller)
	require.NotNil(t, st.registry)

	setRes := e.SetParameter(insertID, processor.CompressorParamThreshold, -12, paramctl.RampNone, 0)
	require.Equal(t, core.Ok, setRes.Status)

	// flushAllParams runs at the top of the next RenderBlock.
	e.RenderBlock(64)
	p := st.registry.Get(processor.CompressorParamThreshold)
	require.InDelta(t, -12, p.GetPlainValue(), 1e-9)
}

func TestSetInsertUnknownChannelRejected(t *testing.T) {
	e := New(testConfig())
	_, res := e.SetInsert(core.NewID(), 0, processor.KindCompressor)
	require.Equal(t, core.Rejected, res.Status)
}

func TestSetInsertUnknownKindRejected(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Bus", mixer.Track)
	e.RenderBlock(64)
	_, res := e.SetInsert(trackID, 0, processor.Kind("not_a_real_kind"))
	require.Equal(t, core.Rejected, res.Status)
}

func TestAddSendCyclicEditRolledBack(t *testing.T) {
	e := New(testConfig())
	a, _ := e.AddChannel("A", mixer.BusChannel)
	b, _ := e.AddChannel("B", mixer.BusChannel)
	e.RenderBlock(64)

	require.Equal(t, core.Deferred, e.AddSend(a, b, 0, false).Status)
	e.RenderBlock(64)

	// b -> a would close a cycle since a already sends to b; the deferred
	// op must detect and roll this back rather than leave a corrupt graph.
	require.Equal(t, core.Deferred, e.AddSend(b, a, 0, false).Status)
	e.RenderBlock(64)

	chB, ok := e.mixerGraph.Channel(b)
	require.True(t, ok)
	for _, s := range chB.Sends {
		require.NotEqual(t, a, s.TargetID)
	}
}

func TestSetSidechainCyclicEditRolledBack(t *testing.T) {
	e := New(testConfig())
	a, _ := e.AddChannel("A", mixer.Track)
	b, _ := e.AddChannel("B", mixer.Track)
	e.RenderBlock(64)

	insA, _ := e.SetInsert(a, 0, processor.KindCompressor)
	e.RenderBlock(64)

	// a's insert sidechains off b, and b sends into a: a cycle.
	require.Equal(t, core.Deferred, e.AddSend(b, a, 0, false).Status)
	e.RenderBlock(64)

	require.Equal(t, core.Deferred, e.SetSidechain(a, insA, b).Status)
	e.RenderBlock(64)

	chA, ok := e.mixerGraph.Channel(a)
	require.True(t, ok)
	var found *mixer.InsertEffect
	for _, ins := range chA.Inserts {
		if ins.ID == insA {
			found = ins
		}
	}
	require.NotNil(t, found)
	require.True(t, found.SidechainID.Empty())
}

func TestModulationSlotAddAndRemove(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Bus", mixer.Track)
	e.RenderBlock(64)
	insertID, _ := e.SetInsert(trackID, 0, processor.KindCompressor)
	e.RenderBlock(64)

	src := modulation.NewLFOSource(60)
	dest, res := e.AddModulationSlot(src, insertID, processor.CompressorParamThreshold, 1.0, modulation.CurveLinear)
	require.Equal(t, core.Ok, res.Status)
	require.NotZero(t, dest)

	e.RenderBlock(64)

	e.insertMu.RLock()
	st := e.inserts[insertID]
	e.insertMu.RUnlock()
	require.NotNil(t, st)

	remRes := e.RemoveModulationSlot(dest)
	require.Equal(t, core.Ok, remRes.Status)

	e.destMu.Lock()
	_, stillThere := e.destTargets[dest]
	e.destMu.Unlock()
	require.False(t, stillThere)
}

func TestAddModulationSlotUnknownParameterRejected(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Bus", mixer.Track)
	e.RenderBlock(64)
	insertID, _ := e.SetInsert(trackID, 0, processor.KindCompressor)
	e.RenderBlock(64)

	src := modulation.NewLFOSource(60)
	_, res := e.AddModulationSlot(src, insertID, 9999, 1.0, modulation.CurveLinear)
	require.Equal(t, core.Rejected, res.Status)
}

func TestApplyQualityPresetPreservesTransportPlayState(t *testing.T) {
	e := New(testConfig())
	require.Equal(t, core.Ok, e.Play().Status)

	res := e.ApplyQualityPreset(quality.Economy)
	require.Equal(t, core.Deferred, res.Status)
	e.RenderBlock(64)

	state, _, _ := e.TransportState()
	require.Equal(t, transport.Playing, state)
}

func TestReplacePatternSchedulesNoteOn(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Kick", mixer.Track)
	e.RenderBlock(64)
	require.Equal(t, core.Deferred, e.AddSend(trackID, e.mixerGraph.MasterID(), 0, false).Status)
	e.RenderBlock(64)
	require.Equal(t, core.Ok, e.AddInstrument("kick", trackID, synthInstrument(), core.ID("")).Status)

	events := []score.Event{
		{InstrumentID: "kick", Pitch: 36, Velocity: 1.0, StartTicks: 0, DurationTick: 480},
	}
	require.Equal(t, core.Deferred, e.ReplacePattern("kick", events, 1920).Status)
	require.Equal(t, core.Ok, e.SetBPM(120).Status)
	require.Equal(t, core.Ok, e.Play().Status)

	var sawSignal bool
	for i := 0; i < 16; i++ {
		out := e.RenderBlock(64)
		for _, s := range out[0] {
			if s != 0 {
				sawSignal = true
			}
		}
	}
	require.True(t, sawSignal)
}

func TestRemoveChannelPrunesInserts(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Bus", mixer.Track)
	e.RenderBlock(64)
	insertID, _ := e.SetInsert(trackID, 0, processor.KindCompressor)
	e.RenderBlock(64)

	require.Equal(t, core.Deferred, e.RemoveChannel(trackID).Status)
	e.RenderBlock(64)

	e.insertMu.RLock()
	_, stillThere := e.inserts[insertID]
	e.insertMu.RUnlock()
	require.False(t, stillThere)
}

func TestLoadBufferMakesInstrumentSampleBacked(t *testing.T) {
	e := New(testConfig())
	trackID, _ := e.AddChannel("Snare", mixer.Track)
	e.RenderBlock(64)
	require.Equal(t, core.Deferred, e.AddSend(trackID, e.mixerGraph.MasterID(), 0, false).Status)
	e.RenderBlock(64)

	channels := [][]float32{make([]float32, 256), make([]float32, 256)}
	for i := range channels[0] {
		channels[0][i] = 0.5
		channels[1][i] = 0.5
	}
	bufID := e.LoadBuffer(channels, 48000)
	require.False(t, bufID.Empty())

	require.Equal(t, core.Ok, e.AddInstrument("snare", trackID, sampleInstrument(), bufID).Status)
	require.Equal(t, core.Ok, e.NoteOn("snare", 60, 1.0).Status)

	var sawSignal bool
	for i := 0; i < 4; i++ {
		out := e.RenderBlock(64)
		for _, s := range out[0] {
			if s != 0 {
				sawSignal = true
			}
		}
	}
	require.True(t, sawSignal)
}
