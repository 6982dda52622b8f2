package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/distortion"
	"github.com/sndcore/dawengine/pkg/engine"
)

// ClipMode selects which transfer function the Clipper applies.
type ClipMode int

const (
	ClipModeHard ClipMode = iota
	ClipModeSoft
	ClipModeSaturate
	ClipModeFoldback
	ClipModeTube
	ClipModeBitcrush
)

// Clipper parameter IDs.
const (
	ClipperParamMode uint32 = iota
	ClipperParamDrive
	ClipperParamMix
	ClipperParamBitDepth
)

// Clipper wraps the six teacher distortion transfer functions behind one
// mode switch (spec §4.7 built-in processor: "Clipper", 6 modes).
type Clipper struct {
	mode ClipMode

	shaper *distortion.Waveshaper
	tube   [2]*distortion.TubeSaturator
	crush  [2]*distortion.BitCrusher
}

func NewClipper() *Clipper {
	return &Clipper{
		mode:   ClipModeHard,
		shaper: distortion.NewWaveshaper(distortion.CurveHardClip),
	}
}

func (c *Clipper) Prepare(sampleRate float64, maxBlockSize int) {
	c.tube[0] = distortion.NewTubeSaturator(sampleRate)
	c.tube[1] = distortion.NewTubeSaturator(sampleRate)
	c.crush[0] = distortion.NewBitCrusher(sampleRate)
	c.crush[1] = distortion.NewBitCrusher(sampleRate)
}

func (c *Clipper) Reset() {}

func (c *Clipper) SetParameter(id uint32, value float64) {
	switch id {
	case ClipperParamMode:
		c.mode = ClipMode(int(value))
		switch c.mode {
		case ClipModeHard:
			c.shaper.SetCurveType(distortion.CurveHardClip)
		case ClipModeSoft:
			c.shaper.SetCurveType(distortion.CurveSoftClip)
		case ClipModeSaturate:
			c.shaper.SetCurveType(distortion.CurveSaturate)
		case ClipModeFoldback:
			c.shaper.SetCurveType(distortion.CurveFoldback)
		}
	case ClipperParamDrive:
		c.shaper.SetDrive(value)
		c.tube[0].SetDrive(value)
		c.tube[1].SetDrive(value)
	case ClipperParamMix:
		c.shaper.SetMix(value)
		c.tube[0].SetMix(value)
		c.tube[1].SetMix(value)
		c.crush[0].SetMix(value)
		c.crush[1].SetMix(value)
	case ClipperParamBitDepth:
		c.crush[0].SetBitDepth(int(value))
		c.crush[1].SetBitDepth(int(value))
	}
}

func (c *Clipper) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	for ch := range input {
		for i, s := range input[ch] {
			var shaped float64
			switch c.mode {
			case ClipModeTube:
				shaped = c.tube[ch%2].Process(float64(s))
			case ClipModeBitcrush:
				shaped = c.crush[ch%2].Process(float64(s))
			default:
				shaped = c.shaper.Process(float64(s))
			}
			output[ch][i] = flushDenormal(clip64(float32(shaped)))
		}
	}
}

func (c *Clipper) LatencySamples() int { return 0 }
