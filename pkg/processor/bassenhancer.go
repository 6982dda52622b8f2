package processor

import (
	"math"

	"github.com/sndcore/dawengine/pkg/dsp/distortion"
	"github.com/sndcore/dawengine/pkg/dsp/envelope"
	"github.com/sndcore/dawengine/pkg/dsp/filter"
	"github.com/sndcore/dawengine/pkg/dsp/reverb"
	"github.com/sndcore/dawengine/pkg/engine"
)

// BassEnhancer parameter IDs.
const (
	BassEnhancerParamCrossover uint32 = iota
	BassEnhancerParamSubAmount
	BassEnhancerParamDrive
	BassEnhancerParamTaste
	BassEnhancerParamMix
)

// BassEnhancer isolates the low band, follows its envelope, generates a
// signed-square-root sub-harmonic, runs it through tube saturation, and
// stirs in a small amount of Freeverb as a "taste" stage before summing
// back with the untouched high band (spec §4.7 built-in processor:
// "Bass Enhancer").
type BassEnhancer struct {
	sampleRate float64

	lowA, lowB   [2]*filter.Biquad
	highA, highB [2]*filter.Biquad
	follower     [2]*envelope.Detector
	tube         [2]*distortion.TubeSaturator
	taste        *reverb.Freeverb

	crossoverHz float64
	subAmount   float64
	drive       float64
	tasteAmount float64
	mix         float64
}

func NewBassEnhancer() *BassEnhancer {
	return &BassEnhancer{crossoverHz: 120, subAmount: 0.5, drive: 2.0, tasteAmount: 0.1, mix: 0.5}
}

func (b *BassEnhancer) Prepare(sampleRate float64, maxBlockSize int) {
	b.sampleRate = sampleRate
	for ch := 0; ch < 2; ch++ {
		b.lowA[ch] = filter.NewBiquad(1)
		b.lowB[ch] = filter.NewBiquad(1)
		b.highA[ch] = filter.NewBiquad(1)
		b.highB[ch] = filter.NewBiquad(1)
		b.follower[ch] = envelope.NewDetector(sampleRate, envelope.ModeRMS)
		b.tube[ch] = distortion.NewTubeSaturator(sampleRate)
	}
	b.taste = reverb.NewFreeverb(sampleRate)
	b.taste.SetPresetSmallRoom()
	b.applyCrossover()
}

func (b *BassEnhancer) applyCrossover() {
	if b.sampleRate <= 0 {
		return
	}
	for ch := 0; ch < 2; ch++ {
		b.lowA[ch].SetLowpass(b.sampleRate, b.crossoverHz, 0.707)
		b.lowB[ch].SetLowpass(b.sampleRate, b.crossoverHz, 0.707)
		b.highA[ch].SetHighpass(b.sampleRate, b.crossoverHz, 0.707)
		b.highB[ch].SetHighpass(b.sampleRate, b.crossoverHz, 0.707)
	}
}

func (b *BassEnhancer) Reset() {
	for ch := 0; ch < 2; ch++ {
		b.lowA[ch].Reset()
		b.lowB[ch].Reset()
		b.highA[ch].Reset()
		b.highB[ch].Reset()
		b.follower[ch].Reset()
	}
	b.taste.Reset()
}

func (b *BassEnhancer) SetParameter(id uint32, value float64) {
	switch id {
	case BassEnhancerParamCrossover:
		b.crossoverHz = value
		b.applyCrossover()
	case BassEnhancerParamSubAmount:
		b.subAmount = value
	case BassEnhancerParamDrive:
		b.drive = value
		for ch := range b.tube {
			b.tube[ch].SetDrive(value)
		}
	case BassEnhancerParamTaste:
		b.tasteAmount = value
	case BassEnhancerParamMix:
		b.mix = value
	}
}

func (b *BassEnhancer) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	n := 0
	if len(input) > 0 {
		n = len(input[0])
	}

	for ch := range input {
		idx := ch % 2
		low := make([]float32, n)
		high := make([]float32, n)
		copy(low, input[ch])
		b.lowA[idx].Process(low, 0)
		b.lowB[idx].Process(low, 0)
		copy(high, input[ch])
		b.highA[idx].Process(high, 0)
		b.highB[idx].Process(high, 0)

		for i := 0; i < n; i++ {
			env := b.follower[idx].Detect(low[i])
			sub := signedSqrt(float64(low[i])) * float64(env) * b.subAmount
			driven := float32(b.tube[idx].Process(sub))

			tasteL, tasteR := b.taste.ProcessStereo(driven, driven)
			taste := tasteL
			if idx == 1 {
				taste = tasteR
			}
			enhanced := driven + float32(b.tasteAmount)*taste

			wet := high[i] + enhanced
			output[ch][i] = flushDenormal(clip64(input[ch][i]*float32(1-b.mix) + wet*float32(b.mix)))
		}
	}
}

func signedSqrt(x float64) float64 {
	if x < 0 {
		return -math.Sqrt(-x)
	}
	return math.Sqrt(x)
}

func (b *BassEnhancer) LatencySamples() int { return 0 }
