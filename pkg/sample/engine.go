package sample

import (
	"github.com/sndcore/dawengine/pkg/dsp/interpolation"
	"github.com/sndcore/dawengine/pkg/dsp/pan"
)

// Interpolator selects the resampling quality used when reading a buffer
// at a fractional position (spec §4.3 step 1).
type Interpolator int

const (
	InterpolatorLinear Interpolator = iota
	InterpolatorSinc
)

// NoteShape carries the per-note envelope shaping data pulled from
// pattern data (spec §4.3 step 3) plus the supplemented per-instrument
// pitch-roll offset (§11) consulted alongside it.
type NoteShape struct {
	FadeInSamples  int
	FadeOutSamples int
	Gain           float64
	PitchRollSemis float64 // additive semitone offset from the instrument's pitch-roll table
}

// Voice is the subset of a voice.Voice the renderer needs to read a
// buffer against: read position, playback rate, amplitude envelope, and
// pan.
type NoteSource struct {
	Buffer       *Buffer
	ReadPos      float64 // fractional frame position, advanced by the caller
	BaseRate     float64 // input-sample-rate / output-sample-rate at unity pitch
	PitchOffset  float64 // semitones, from the resolved event + pitch-roll
	TempoFactor  float64 // tempo-tracking factor, 1.0 = none
	Interpolator Interpolator
	Shape        NoteShape
	Pan          float64
	sincWindow   int
}

// NewNoteSource prepares a render source for one voice against one
// buffer, defaulting tempo factor and sinc window per spec §11.
func NewNoteSource(buf *Buffer, sampleRate float64) *NoteSource {
	rate := 1.0
	if sampleRate > 0 && buf != nil && buf.SampleRate > 0 {
		rate = buf.SampleRate / sampleRate
	}
	return &NoteSource{
		Buffer:       buf,
		BaseRate:     rate,
		TempoFactor:  1.0,
		Interpolator: InterpolatorLinear,
		Shape:        NoteShape{Gain: 1.0},
		sincWindow:   8,
	}
}

// ReadRate returns the current fractional-frame advance per output sample
// (spec §4.3 step 2: "read-rate = base-rate x 2^(pitch_offset/12) x
// tempo-tracking factor").
func (n *NoteSource) ReadRate() float64 {
	return n.BaseRate * semitoneRatio(n.PitchOffset+n.Shape.PitchRollSemis) * n.TempoFactor
}

func semitoneRatio(semitones float64) float64 {
	return fastExp2(semitones / 12.0)
}

// fastExp2 computes 2^x without math.Pow, following the engine-wide
// Taylor-approximation convention for hot per-sample paths.
func fastExp2(x float64) float64 {
	whole := int64(x)
	frac := x - float64(whole)
	if frac < 0 {
		frac++
		whole--
	}
	fracPow := 1.0 + frac*(0.693147+frac*(0.240227+frac*0.055504))
	if whole >= 0 {
		return float64(uint64(1)<<uint(whole)) * fracPow
	}
	return fracPow / float64(uint64(1)<<uint(-whole))
}

// Next advances the read position by one output sample and returns the
// resampled value for channel ch, applying the per-note envelope shape.
// Returns (0, false) if the read position has run past the end of the
// buffer (the voice should stop).
func (n *NoteSource) Next(ch int, samplesRendered int) (float32, bool) {
	if n.Buffer == nil || ch >= n.Buffer.NumChannels() {
		return 0, false
	}
	data := n.Buffer.Channels[ch]
	if n.ReadPos < 0 || int(n.ReadPos) >= len(data)-1 {
		return 0, false
	}

	idx := int(n.ReadPos)
	frac := float32(n.ReadPos - float64(idx))

	var v float32
	switch n.Interpolator {
	case InterpolatorSinc:
		v = interpolation.Sinc(data, idx, frac, n.sincWindow)
	default:
		v = interpolation.Linear(data[idx], data[idx+1], frac)
	}

	v *= float32(n.shapeGain(samplesRendered))
	n.ReadPos += n.ReadRate()
	return v, true
}

// shapeGain computes the per-note fade-in/fade-out envelope at the given
// sample count since the note started (spec §4.3 step 3).
func (n *NoteSource) shapeGain(samplesRendered int) float64 {
	gain := n.Shape.Gain
	if n.Shape.FadeInSamples > 0 && samplesRendered < n.Shape.FadeInSamples {
		gain *= float64(samplesRendered) / float64(n.Shape.FadeInSamples)
	}
	return gain
}

// PanToStereo applies equal-power panning to a mono sample, writing the
// left/right contributions (spec §4.3 step 5).
func PanToStereo(mono float32, panPos float64) (left, right float32) {
	l, r := pan.MonoToStereo(float32(panPos), pan.ConstantPower)
	return mono * l, mono * r
}
