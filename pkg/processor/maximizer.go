package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/distortion"
	"github.com/sndcore/dawengine/pkg/dsp/dynamics"
	"github.com/sndcore/dawengine/pkg/engine"
)

// Maximizer parameter IDs.
const (
	MaximizerParamCeiling uint32 = iota
	MaximizerParamSaturationCurve
	MaximizerParamSaturationDrive
	MaximizerParamTruePeak
)

// Maximizer is a loudness-maximizing brick-wall limiter preceded by a
// selectable saturation stage (spec §4.7 built-in processor: "Maximizer").
type Maximizer struct {
	left, right *dynamics.Limiter
	shaper      *distortion.Waveshaper
}

func NewMaximizer() *Maximizer {
	return &Maximizer{shaper: distortion.NewWaveshaper(distortion.CurveSaturate)}
}

func (m *Maximizer) Prepare(sampleRate float64, maxBlockSize int) {
	m.left = dynamics.NewLimiter(sampleRate)
	m.right = dynamics.NewLimiter(sampleRate)
}

func (m *Maximizer) Reset() {
	if m.left != nil {
		m.left.Reset()
		m.right.Reset()
	}
}

func (m *Maximizer) SetParameter(id uint32, value float64) {
	switch id {
	case MaximizerParamCeiling:
		m.left.SetThreshold(value)
		m.right.SetThreshold(value)
	case MaximizerParamSaturationCurve:
		m.shaper.SetCurveType(distortion.CurveType(int(value)))
	case MaximizerParamSaturationDrive:
		m.shaper.SetDrive(value)
	case MaximizerParamTruePeak:
		on := value >= 0.5
		m.left.SetTruePeak(on)
		m.right.SetTruePeak(on)
	}
}

func (m *Maximizer) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	for ch := range input {
		lim := m.left
		if ch == 1 {
			lim = m.right
		}
		for i, s := range input[ch] {
			driven := float32(m.shaper.Process(float64(s)))
			output[ch][i] = lim.Process(flushDenormal(clip64(driven)))
		}
	}
}

func (m *Maximizer) LatencySamples() int { return 0 }
