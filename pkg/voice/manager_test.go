package voice

import (
	"testing"
)

const testSampleRate = 48000.0

func basicInstrument() Instrument {
	return Instrument{
		TuningA4:      440,
		VelocityGamma: 1,
		Attack:        0.001,
		Decay:         0.05,
		Sustain:       0.8,
		Release:       0.05,
		MaxVoices:     4,
	}
}

func TestNoteOnUnknownInstrumentRejected(t *testing.T) {
	m := NewManager(testSampleRate, 16)
	if _, err := m.NoteOn("missing", 60, 1.0); err == nil {
		t.Fatal("expected error for unknown instrument")
	}
}

func TestNoteOnThenNoteOffReleases(t *testing.T) {
	m := NewManager(testSampleRate, 16)
	m.RegisterInstrument("kick", basicInstrument())

	v, err := m.NoteOn("kick", 36, 1.0)
	if err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	if v.Envelope.CurrentStage() != StageAttack {
		t.Fatalf("stage = %s, want Attack", v.Envelope.CurrentStage())
	}

	m.NoteOff("kick", 36)
	if v.Envelope.CurrentStage() != StageRelease {
		t.Fatalf("stage after note_off = %s, want Release", v.Envelope.CurrentStage())
	}
}

func TestCutItselfFadesPriorVoices(t *testing.T) {
	m := NewManager(testSampleRate, 16)
	inst := basicInstrument()
	inst.CutItself = true
	m.RegisterInstrument("kick", inst)

	first, _ := m.NoteOn("kick", 36, 1.0)
	for i := 0; i < 100; i++ {
		first.Level()
	}
	_, err := m.NoteOn("kick", 40, 1.0)
	if err != nil {
		t.Fatalf("second NoteOn: %v", err)
	}
	if !first.forcedFade {
		t.Fatal("expected first voice to be force-faded by cut-itself")
	}
}

func TestPolyphonyCapStealsQuietestRelease(t *testing.T) {
	m := NewManager(testSampleRate, 16)
	inst := basicInstrument()
	inst.MaxVoices = 2
	m.RegisterInstrument("pad", inst)

	v1, _ := m.NoteOn("pad", 60, 1.0)
	m.NoteOff("pad", 60)
	for i := 0; i < 5000; i++ {
		v1.Level()
	}

	_, _ = m.NoteOn("pad", 64, 1.0)
	_, err := m.NoteOn("pad", 67, 1.0)
	if err != nil {
		t.Fatalf("third NoteOn within cap via stealing: %v", err)
	}
	if m.ActiveVoiceCount("pad") > 2 {
		t.Fatalf("active voices = %d, want <= 2 after stealing", m.ActiveVoiceCount("pad"))
	}
}

func TestGlobalCapSteals(t *testing.T) {
	m := NewManager(testSampleRate, 1)
	m.RegisterInstrument("a", basicInstrument())
	m.RegisterInstrument("b", basicInstrument())

	_, _ = m.NoteOn("a", 60, 1.0)
	_, err := m.NoteOn("b", 60, 1.0)
	if err != nil {
		t.Fatalf("NoteOn under global cap via steal: %v", err)
	}
	if len(m.Voices()) > 1 {
		t.Fatalf("voices = %d, want <= 1 under global cap of 1", len(m.Voices()))
	}
}

func TestUnregisterInstrumentSilencesVoices(t *testing.T) {
	m := NewManager(testSampleRate, 16)
	m.RegisterInstrument("kick", basicInstrument())
	m.NoteOn("kick", 36, 1.0)

	m.UnregisterInstrument("kick")
	if m.ActiveVoiceCount("kick") != 0 {
		t.Fatalf("active voices for removed instrument = %d, want 0", m.ActiveVoiceCount("kick"))
	}
}

func TestVelocityMapsToAmplitudeWithGamma(t *testing.T) {
	m := NewManager(testSampleRate, 16)
	inst := basicInstrument()
	inst.VelocityGamma = 2
	m.RegisterInstrument("snare", inst)

	v, _ := m.NoteOn("snare", 38, 0.5)
	want := 0.25 // 0.5^2
	if diff := v.Amplitude - want; diff > 0.01 || diff < -0.01 {
		t.Fatalf("amplitude = %f, want ~%f", v.Amplitude, want)
	}
}

func TestRetriggerRestartsFromDelay(t *testing.T) {
	env := New(testSampleRate)
	env.SetDAHDSR(0.01, 0.01, 0, 0.01, 0.8, 0.01)
	env.Trigger()
	if env.CurrentStage() != StageDelay {
		t.Fatalf("stage after Trigger with nonzero delay = %s, want Delay", env.CurrentStage())
	}
}
