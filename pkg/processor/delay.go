package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/delay"
	"github.com/sndcore/dawengine/pkg/engine"
)

// Delay parameter IDs.
const (
	DelayParamTimeMs uint32 = iota
	DelayParamFeedback
	DelayParamMix
	DelayParamPingPong
)

const delayMaxSeconds = 4.0

// Delay wraps the teacher's delay.Line per channel with feedback and an
// optional ping-pong cross-feed between left and right (spec §4.7
// built-in processor: "Delay").
type Delay struct {
	lines    [2]*delay.Line
	timeMs   float64
	feedback float32
	mix      float32
	pingPong bool

	fbState [2]float32
}

func NewDelay() *Delay {
	return &Delay{timeMs: 250, feedback: 0.35, mix: 0.3}
}

func (d *Delay) Prepare(sampleRate float64, maxBlockSize int) {
	d.lines[0] = delay.New(delayMaxSeconds, sampleRate)
	d.lines[1] = delay.New(delayMaxSeconds, sampleRate)
}

func (d *Delay) Reset() {
	d.lines[0].Reset()
	d.lines[1].Reset()
	d.fbState = [2]float32{}
}

func (d *Delay) SetParameter(id uint32, value float64) {
	switch id {
	case DelayParamTimeMs:
		d.timeMs = value
	case DelayParamFeedback:
		d.feedback = float32(value)
	case DelayParamMix:
		d.mix = float32(value)
	case DelayParamPingPong:
		d.pingPong = value >= 0.5
	}
}

func (d *Delay) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	n := 0
	if len(input) > 0 {
		n = len(input[0])
	}
	for i := 0; i < n; i++ {
		for ch := range input {
			line := d.lines[ch%2]
			fed := input[ch][i] + d.fbState[ch]*d.feedback
			wet := line.ProcessMs(fed, d.timeMs)
			output[ch][i] = flushDenormal(clip64(input[ch][i]*(1-d.mix) + wet*d.mix))
			d.fbState[ch] = wet
		}
		if d.pingPong && len(input) > 1 {
			d.fbState[0], d.fbState[1] = d.fbState[1], d.fbState[0]
		}
	}
}

func (d *Delay) LatencySamples() int { return 0 }
