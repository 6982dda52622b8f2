package voice

import (
	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/score"
)

// fadeOutSamples is the cut-itself forced fade length (2 ms, spec §4.3),
// converted to samples against the engine's sample rate at Voice creation.

// Voice is one sounding instance of an instrument note (spec §3 glossary).
// It owns the amplitude envelope and the bookkeeping voice stealing needs;
// actual sample rendering (buffer read position, resampling, panning) is
// driven by the sample engine reading this voice's public fields each block.
type Voice struct {
	ID           core.ID
	InstrumentID score.InstrumentID
	Pitch        score.Pitch
	FrequencyHz  float64
	Velocity     float64 // raw [0,1], as received at note-on
	Amplitude    float64 // velocity^gamma, fixed for the voice's lifetime

	Envelope *Envelope

	// ReadPos is the sample engine's fractional read position into the
	// instrument's buffer; owned and advanced by the sample engine, not by
	// the voice manager.
	ReadPos float64

	// bornAtSample is a monotonically increasing allocation sequence number
	// (not wall time) used to find the oldest voice when stealing.
	bornAtSample uint64

	// forcedFade is set by cut-itself to linearly ramp Amplitude to zero
	// over fadeRemaining samples instead of the normal envelope release.
	forcedFade      bool
	fadeRemaining   int
	fadeTotalLength int
}

// velocityAmplitude maps raw velocity to amplitude using v^gamma (spec
// §4.2 Numeric semantics). gamma <= 0 is treated as 1 (linear).
func velocityAmplitude(velocity, gamma float64) float64 {
	if gamma <= 0 {
		gamma = 1
	}
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 1 {
		velocity = 1
	}
	return powFrac(velocity, gamma)
}

// powFrac computes v^gamma via exp(gamma*ln(v)) using the same
// Taylor-series building blocks as the envelope, avoiding a math.Pow
// import on the note-on path (control thread, but kept allocation- and
// libm-free to match the rest of the package).
func powFrac(v, gamma float64) float64 {
	if v <= 0 {
		return 0
	}
	if v == 1 {
		return 1
	}
	return fastExp(gamma * fastLn(v))
}

func fastLn(x float64) float64 {
	if x <= 0 {
		return -745 // ~ln(smallest normal float64), avoids -Inf propagating
	}
	// ln(x) = log2(x) * ln(2)
	return log2Local(x) * 0.6931471805599453
}

// log2Local mirrors score.log2 (unexported there) so this package doesn't
// need to reach into another package's internals for a tiny helper.
func log2Local(x float64) float64 {
	if x <= 0 {
		return -1000.0
	}
	exp := 0
	for x >= 2.0 {
		x /= 2.0
		exp++
	}
	for x < 1.0 {
		x *= 2.0
		exp--
	}
	t := x - 1.0
	frac := t * (1.4427 - t*(0.7213-t*0.4821))
	return float64(exp) + frac
}

// NewVoice allocates a voice for a note-on, computing frequency, amplitude,
// and envelope from the instrument's configuration.
func NewVoice(instrumentID score.InstrumentID, pitch score.Pitch, velocity, tuningA4, gamma float64, env *Envelope, sequence uint64) *Voice {
	v := &Voice{
		ID:           core.NewID(),
		InstrumentID: instrumentID,
		Pitch:        pitch,
		FrequencyHz:  score.PitchToFrequency(pitch, tuningA4),
		Velocity:     velocity,
		Amplitude:    velocityAmplitude(velocity, gamma),
		Envelope:     env,
		bornAtSample: sequence,
	}
	v.Envelope.Trigger()
	return v
}

// ReleaseNote transitions the voice to Release via its envelope.
func (v *Voice) ReleaseNote() {
	v.Envelope.Release()
}

// ForceFadeOut begins a cut-itself forced linear fade over durationSamples,
// overriding the normal envelope curve; once it completes the voice is
// marked Dead. durationSamples <= 0 kills the voice immediately.
func (v *Voice) ForceFadeOut(durationSamples int) {
	if durationSamples <= 0 {
		v.Envelope.Stop()
		return
	}
	v.forcedFade = true
	v.fadeRemaining = durationSamples
	v.fadeTotalLength = durationSamples
}

// IsDead reports whether the voice is fully reclaimable.
func (v *Voice) IsDead() bool {
	if v.forcedFade {
		return v.fadeRemaining <= 0
	}
	return v.Envelope.CurrentStage() == StageDead
}

// IsInRelease reports whether the voice is in Release (used by the
// stealing priority "quietest voice in Release").
func (v *Voice) IsInRelease() bool {
	return !v.forcedFade && v.Envelope.CurrentStage() == StageRelease
}

// Level advances the voice's envelope (or forced fade) by one sample and
// returns the combined amplitude-scaled level for this sample.
func (v *Voice) Level() float64 {
	if v.forcedFade {
		if v.fadeRemaining <= 0 {
			return 0
		}
		frac := float64(v.fadeRemaining) / float64(v.fadeTotalLength)
		v.fadeRemaining--
		return v.Amplitude * frac
	}
	return v.Amplitude * v.Envelope.Next()
}
