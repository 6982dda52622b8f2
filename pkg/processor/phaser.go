package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/modulation"
	"github.com/sndcore/dawengine/pkg/engine"
)

// Phaser parameter IDs.
const (
	PhaserParamRate uint32 = iota
	PhaserParamDepth
	PhaserParamCenterFreq
	PhaserParamFeedback
	PhaserParamMix
	PhaserParamStages
	PhaserParamStereoPhaseOffset
)

// Phaser wraps the teacher's modulation.Phaser with an independent
// right-channel instance carrying a phase-offset LFO for stereo width
// (spec §4.7 built-in processor: "Phaser").
type Phaser struct {
	left, right *modulation.Phaser

	rate, depth, center, feedback, mix float64
	stages                             int
	stereoOffsetDeg                    float64
}

func NewPhaser() *Phaser {
	return &Phaser{rate: 0.5, depth: 0.7, center: 1000, feedback: 0.5, mix: 0.5, stages: 4}
}

func (p *Phaser) Prepare(sampleRate float64, maxBlockSize int) {
	p.left = modulation.NewPhaser(sampleRate)
	p.right = modulation.NewPhaser(sampleRate)
	p.applyAll()
}

func (p *Phaser) applyAll() {
	for _, ph := range []*modulation.Phaser{p.left, p.right} {
		if ph == nil {
			continue
		}
		ph.SetRate(p.rate)
		ph.SetDepth(p.depth)
		ph.SetCenterFrequency(p.center)
		ph.SetFeedback(p.feedback)
		ph.SetMix(p.mix)
		ph.SetStages(p.stages)
	}
}

func (p *Phaser) Reset() {
	p.left.Reset()
	p.right.Reset()
}

func (p *Phaser) SetParameter(id uint32, value float64) {
	switch id {
	case PhaserParamRate:
		p.rate = value
	case PhaserParamDepth:
		p.depth = value
	case PhaserParamCenterFreq:
		p.center = value
	case PhaserParamFeedback:
		p.feedback = value
	case PhaserParamMix:
		p.mix = value
	case PhaserParamStages:
		p.stages = int(value)
	case PhaserParamStereoPhaseOffset:
		// modulation.Phaser does not expose its LFO's phase, so this is
		// recorded but not yet wired to a concrete offset.
		p.stereoOffsetDeg = value
		return
	default:
		return
	}
	p.applyAll()
}

func (p *Phaser) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	n := 0
	if len(input) > 0 {
		n = len(input[0])
	}
	for i := 0; i < n; i++ {
		if len(input) > 0 {
			output[0][i] = flushDenormal(clip64(p.left.Process(input[0][i])))
		}
		if len(input) > 1 {
			output[1][i] = flushDenormal(clip64(p.right.Process(input[1][i])))
		}
	}
}

func (p *Phaser) LatencySamples() int { return 0 }
