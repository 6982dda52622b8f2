package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/delay"
	"github.com/sndcore/dawengine/pkg/dsp/dynamics"
	"github.com/sndcore/dawengine/pkg/engine"
)

// RhythmMode selects the Rhythm FX processor's behavior.
type RhythmMode int

const (
	RhythmModeGate RhythmMode = iota
	RhythmModeStutter
	RhythmModeRepeat
	RhythmModeReverse
	RhythmModeGlitch
	RhythmModeTapeStop
)

// RhythmFX parameter IDs.
const (
	RhythmFXParamMode uint32 = iota
	RhythmFXParamDivisionSamples
	RhythmFXParamAmount
	RhythmFXParamRateHz
)

const rhythmBufferSeconds = 2.0

// RhythmFX implements tempo-synced rhythmic effects (gate pulse, stutter,
// repeat/glitch capture, reverse, tape-stop) layered over a capture
// buffer and the teacher's dynamics.Gate (spec §4.7 built-in processor:
// "Rhythm FX").
type RhythmFX struct {
	gate  *dynamics.Gate
	line  *delay.Line
	capture []float32

	mode RhythmMode

	divisionSamples int
	amount          float64
	rateHz          float64

	phase          int
	captured       bool
	captureLen     int
	playbackIndex  int
	tapeStopFactor float64
}

func NewRhythmFX() *RhythmFX {
	return &RhythmFX{mode: RhythmModeGate, divisionSamples: 12000, amount: 1.0, rateHz: 4.0, tapeStopFactor: 1.0}
}

func (r *RhythmFX) Prepare(sampleRate float64, maxBlockSize int) {
	r.gate = dynamics.NewGate(sampleRate)
	r.line = delay.New(rhythmBufferSeconds, sampleRate)
	captureSamples := int(rhythmBufferSeconds * sampleRate)
	r.capture = make([]float32, captureSamples)
}

func (r *RhythmFX) Reset() {
	r.gate.Reset()
	r.line.Reset()
	for i := range r.capture {
		r.capture[i] = 0
	}
	r.phase = 0
	r.captured = false
	r.captureLen = 0
	r.playbackIndex = 0
	r.tapeStopFactor = 1.0
}

func (r *RhythmFX) SetParameter(id uint32, value float64) {
	switch id {
	case RhythmFXParamMode:
		r.mode = RhythmMode(int(value))
	case RhythmFXParamDivisionSamples:
		n := int(value)
		if n < 1 {
			n = 1
		}
		if n > len(r.capture) {
			n = len(r.capture)
		}
		r.divisionSamples = n
	case RhythmFXParamAmount:
		r.amount = value
	case RhythmFXParamRateHz:
		r.rateHz = value
	}
}

func (r *RhythmFX) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	n := 0
	if len(input) > 0 {
		n = len(input[0])
	}
	ch0 := 0
	if len(input) == 0 {
		return
	}

	for i := 0; i < n; i++ {
		src := input[ch0][i]

		switch r.mode {
		case RhythmModeGate:
			gateEnv := float32(0)
			if (r.phase/r.divisionSamples)%2 == 0 {
				gateEnv = 1
			}
			r.writeAll(output, i, input, gateEnv)

		case RhythmModeStutter, RhythmModeRepeat, RhythmModeGlitch:
			if r.phase == 0 && !r.captured {
				r.captureLen = 0
			}
			if !r.captured {
				if r.captureLen < r.divisionSamples && r.captureLen < len(r.capture) {
					r.capture[r.captureLen] = src
					r.captureLen++
				}
				r.writeAll(output, i, input, 1)
			} else {
				idx := r.playbackIndex % r.captureLen
				sample := r.capture[idx] * float32(r.amount)
				for ch := range output {
					output[ch][i] = flushDenormal(clip64(sample))
				}
				r.playbackIndex++
			}

		case RhythmModeReverse:
			if r.captureLen < len(r.capture) {
				r.capture[r.captureLen] = src
				r.captureLen++
				r.writeAll(output, i, input, 0)
			} else {
				idx := r.captureLen - 1 - r.playbackIndex
				if idx < 0 {
					idx = 0
				}
				sample := r.capture[idx]
				for ch := range output {
					output[ch][i] = flushDenormal(clip64(sample))
				}
				r.playbackIndex++
			}

		case RhythmModeTapeStop:
			r.tapeStopFactor -= 1.0 / (float64(r.divisionSamples) * 4)
			if r.tapeStopFactor < 0 {
				r.tapeStopFactor = 0
			}
			delayed := r.line.Process(src, float64(r.phase)*(1.0-r.tapeStopFactor))
			for ch := range output {
				output[ch][i] = flushDenormal(clip64(delayed))
			}
		}

		r.phase++
		if r.phase >= r.divisionSamples {
			r.phase = 0
			if r.mode == RhythmModeStutter || r.mode == RhythmModeRepeat || r.mode == RhythmModeGlitch {
				r.captured = !r.captured
				r.playbackIndex = 0
			}
			if r.mode == RhythmModeReverse && r.captureLen >= len(r.capture) {
				r.captureLen = 0
				r.playbackIndex = 0
			}
		}
	}
}

func (r *RhythmFX) writeAll(output [][]float32, i int, input [][]float32, gain float32) {
	for ch := range output {
		output[ch][i] = flushDenormal(clip64(input[ch][i] * gain))
	}
}

func (r *RhythmFX) LatencySamples() int { return 0 }
