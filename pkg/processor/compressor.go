package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/dynamics"
	"github.com/sndcore/dawengine/pkg/dsp/filter"
	"github.com/sndcore/dawengine/pkg/engine"
)

// Compressor parameter IDs.
const (
	CompressorParamThreshold uint32 = iota
	CompressorParamRatio
	CompressorParamAttack
	CompressorParamRelease
	CompressorParamMakeupGain
	CompressorParamSidechainHPF
	CompressorParamSidechainLPF
	CompressorParamStereoLink
)

// Compressor extends the teacher's dynamics.Compressor with a sidechain
// HPF/LPF pre-filter pair, external sidechain input, stereo link, and a
// -0.3dBFS soft limiter safety stage (spec §4.7 built-in processor:
// "Compressor").
type Compressor struct {
	sampleRate float64

	left, right *dynamics.Compressor
	scHPF       filter.Biquad
	scLPF       filter.Biquad
	limiter     *dynamics.Limiter

	stereoLink bool
	hpfHz      float64
	lpfHz      float64

	gainReduction float64
}

// NewCompressor creates an unprepared compressor; call Prepare before use.
func NewCompressor() *Compressor {
	return &Compressor{hpfHz: 0, lpfHz: 0, stereoLink: true}
}

func (c *Compressor) Prepare(sampleRate float64, maxBlockSize int) {
	c.sampleRate = sampleRate
	c.left = dynamics.NewCompressor(sampleRate)
	c.right = dynamics.NewCompressor(sampleRate)
	c.scHPF = *filter.NewBiquad(1)
	c.scLPF = *filter.NewBiquad(1)
	c.limiter = dynamics.NewLimiter(sampleRate)
	c.limiter.SetThreshold(-0.3)
	c.applySidechainFilters()
}

func (c *Compressor) Reset() {
	if c.left != nil {
		c.left.Reset()
		c.right.Reset()
		c.limiter.Reset()
	}
	c.scHPF.Reset()
	c.scLPF.Reset()
}

func (c *Compressor) SetParameter(id uint32, value float64) {
	switch id {
	case CompressorParamThreshold:
		c.left.SetThreshold(value)
		c.right.SetThreshold(value)
	case CompressorParamRatio:
		c.left.SetRatio(value)
		c.right.SetRatio(value)
	case CompressorParamAttack:
		c.left.SetAttack(value)
		c.right.SetAttack(value)
	case CompressorParamRelease:
		c.left.SetRelease(value)
		c.right.SetRelease(value)
	case CompressorParamMakeupGain:
		c.left.SetMakeupGain(value)
		c.right.SetMakeupGain(value)
	case CompressorParamSidechainHPF:
		c.hpfHz = value
		c.applySidechainFilters()
	case CompressorParamSidechainLPF:
		c.lpfHz = value
		c.applySidechainFilters()
	case CompressorParamStereoLink:
		c.stereoLink = value >= 0.5
	}
}

func (c *Compressor) applySidechainFilters() {
	if c.sampleRate <= 0 {
		return
	}
	if c.hpfHz > 0 {
		c.scHPF.SetHighpass(c.sampleRate, c.hpfHz, 0.707)
	}
	if c.lpfHz > 0 {
		c.scLPF.SetLowpass(c.sampleRate, c.lpfHz, 0.707)
	}
}

func (c *Compressor) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	det := input
	if sidechain != nil {
		det = sidechain
	}

	n := 0
	if len(input) > 0 {
		n = len(input[0])
	}

	detFiltered := make([][]float32, len(det))
	for ch := range det {
		buf := make([]float32, n)
		copy(buf, det[ch][:n])
		if c.hpfHz > 0 {
			c.scHPF.Process(buf, ch)
		}
		if c.lpfHz > 0 {
			c.scLPF.Process(buf, ch)
		}
		detFiltered[ch] = buf
	}

	if c.stereoLink && len(detFiltered) > 1 {
		for i := 0; i < n; i++ {
			link := (detFiltered[0][i] + detFiltered[1][i]) * 0.5
			detFiltered[0][i] = link
			detFiltered[1][i] = link
		}
	}

	if len(input) > 0 {
		sc := detFiltered[0]
		if len(detFiltered) == 0 {
			sc = input[0]
		}
		c.left.ProcessSidechain(input[0][:n], sc, output[0][:n])
	}
	if len(input) > 1 {
		sc := detFiltered[0]
		if len(detFiltered) > 1 {
			sc = detFiltered[1]
		}
		c.right.ProcessSidechain(input[1][:n], sc, output[1][:n])
	}

	c.gainReduction = c.left.GetGainReduction()

	for ch := range output {
		for i := range output[ch] {
			output[ch][i] = flushDenormal(clip64(output[ch][i]))
			output[ch][i] = c.limiter.Process(output[ch][i])
		}
	}
}

// GainReductionDB reports the left channel's current gain reduction for
// metering.
func (c *Compressor) GainReductionDB() float64 { return c.gainReduction }

func (c *Compressor) LatencySamples() int { return 0 }
