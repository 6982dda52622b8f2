package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/filter"
	"github.com/sndcore/dawengine/pkg/engine"
)

// ThreeBandEQ parameter IDs.
const (
	EQ3ParamLowFreq uint32 = iota
	EQ3ParamLowGain
	EQ3ParamMidFreq
	EQ3ParamMidGain
	EQ3ParamMidQ
	EQ3ParamHighFreq
	EQ3ParamHighGain
)

// ThreeBandEQ is a low-shelf/peaking-mid/high-shelf EQ built directly
// from dsp/filter.Biquad's design functions (spec §4.7 built-in
// processor: "3-band EQ").
type ThreeBandEQ struct {
	low, mid, high *filter.Biquad

	sampleRate                        float64
	lowFreq, lowGain                  float64
	midFreq, midGain, midQ            float64
	highFreq, highGain                float64
}

func NewThreeBandEQ() *ThreeBandEQ {
	return &ThreeBandEQ{
		lowFreq: 200, midFreq: 1000, midQ: 1.0, highFreq: 5000,
	}
}

func (e *ThreeBandEQ) Prepare(sampleRate float64, maxBlockSize int) {
	e.sampleRate = sampleRate
	e.low = filter.NewBiquad(2)
	e.mid = filter.NewBiquad(2)
	e.high = filter.NewBiquad(2)
	e.applyAll()
}

func (e *ThreeBandEQ) applyAll() {
	if e.sampleRate <= 0 {
		return
	}
	e.low.SetLowShelf(e.sampleRate, e.lowFreq, 0.707, e.lowGain)
	e.mid.SetPeakingEQ(e.sampleRate, e.midFreq, e.midQ, e.midGain)
	e.high.SetHighShelf(e.sampleRate, e.highFreq, 0.707, e.highGain)
}

func (e *ThreeBandEQ) Reset() {
	e.low.Reset()
	e.mid.Reset()
	e.high.Reset()
}

func (e *ThreeBandEQ) SetParameter(id uint32, value float64) {
	switch id {
	case EQ3ParamLowFreq:
		e.lowFreq = value
	case EQ3ParamLowGain:
		e.lowGain = value
	case EQ3ParamMidFreq:
		e.midFreq = value
	case EQ3ParamMidGain:
		e.midGain = value
	case EQ3ParamMidQ:
		e.midQ = value
	case EQ3ParamHighFreq:
		e.highFreq = value
	case EQ3ParamHighGain:
		e.highGain = value
	}
	e.applyAll()
}

func (e *ThreeBandEQ) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	for ch := range input {
		buf := output[ch][:len(input[ch])]
		copy(buf, input[ch])
		e.low.Process(buf, ch)
		e.mid.Process(buf, ch)
		e.high.Process(buf, ch)
		for i, s := range buf {
			buf[i] = flushDenormal(clip64(s))
		}
	}
}

func (e *ThreeBandEQ) LatencySamples() int { return 0 }
