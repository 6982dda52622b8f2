package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/analysis"
	"github.com/sndcore/dawengine/pkg/dsp/filter"
	"github.com/sndcore/dawengine/pkg/engine"
)

// Imager parameter IDs. Widths are per-band: 0 = mono, 1 = unity, 2 = double.
const (
	ImagerParamCrossoverLow uint32 = iota
	ImagerParamCrossoverMid
	ImagerParamCrossoverHigh
	ImagerParamWidthLow
	ImagerParamWidthLowMid
	ImagerParamWidthHighMid
	ImagerParamWidthHigh
)

const imagerBandCount = 4

// imagerCrossover is a 4th-order Linkwitz-Riley splitter built from two
// cascaded 2nd-order Biquads per leg, which sum to a flat-magnitude
// 24dB/oct crossover (spec §4.7 built-in processor: "Imager", multiband
// M/S width).
type imagerCrossover struct {
	lowA, lowB   *filter.Biquad
	highA, highB *filter.Biquad
}

func newImagerCrossover(channels int) *imagerCrossover {
	return &imagerCrossover{
		lowA:  filter.NewBiquad(channels),
		lowB:  filter.NewBiquad(channels),
		highA: filter.NewBiquad(channels),
		highB: filter.NewBiquad(channels),
	}
}

func (x *imagerCrossover) setFrequency(sampleRate, freq float64) {
	x.lowA.SetLowpass(sampleRate, freq, 0.707)
	x.lowB.SetLowpass(sampleRate, freq, 0.707)
	x.highA.SetHighpass(sampleRate, freq, 0.707)
	x.highB.SetHighpass(sampleRate, freq, 0.707)
}

// split processes in-place, filling low and high with the two bands.
func (x *imagerCrossover) split(in []float32, channel int, low, high []float32) {
	copy(low, in)
	x.lowA.Process(low, channel)
	x.lowB.Process(low, channel)
	copy(high, in)
	x.highA.Process(high, channel)
	x.highB.Process(high, channel)
}

// Imager splits a stereo signal into four frequency bands and applies an
// independent mid/side width control per band, then sums the bands back
// to L/R.
type Imager struct {
	sampleRate float64

	crossoverLow, crossoverMid, crossoverHigh [2]*imagerCrossover

	freqLow, freqMid, freqHigh float64
	width                      [imagerBandCount]float64

	corrMeter          *analysis.CorrelationMeter
	corrScratchL, corrScratchR []float64
}

func NewImager() *Imager {
	return &Imager{
		freqLow:  120,
		freqMid:  2000,
		freqHigh: 8000,
		width:    [imagerBandCount]float64{1, 1, 1, 1},
	}
}

func (im *Imager) Prepare(sampleRate float64, maxBlockSize int) {
	im.sampleRate = sampleRate
	for ch := 0; ch < 2; ch++ {
		im.crossoverLow[ch] = newImagerCrossover(1)
		im.crossoverMid[ch] = newImagerCrossover(1)
		im.crossoverHigh[ch] = newImagerCrossover(1)
	}
	im.applyCrossovers()
	im.corrMeter = analysis.NewCorrelationMeter(maxBlockSize, sampleRate)
	im.corrScratchL = make([]float64, maxBlockSize)
	im.corrScratchR = make([]float64, maxBlockSize)
}

func (im *Imager) applyCrossovers() {
	if im.sampleRate <= 0 {
		return
	}
	for ch := 0; ch < 2; ch++ {
		im.crossoverLow[ch].setFrequency(im.sampleRate, im.freqLow)
		im.crossoverMid[ch].setFrequency(im.sampleRate, im.freqMid)
		im.crossoverHigh[ch].setFrequency(im.sampleRate, im.freqHigh)
	}
}

func (im *Imager) Reset() {}

func (im *Imager) SetParameter(id uint32, value float64) {
	switch id {
	case ImagerParamCrossoverLow:
		im.freqLow = value
		im.applyCrossovers()
	case ImagerParamCrossoverMid:
		im.freqMid = value
		im.applyCrossovers()
	case ImagerParamCrossoverHigh:
		im.freqHigh = value
		im.applyCrossovers()
	case ImagerParamWidthLow:
		im.width[0] = value
	case ImagerParamWidthLowMid:
		im.width[1] = value
	case ImagerParamWidthHighMid:
		im.width[2] = value
	case ImagerParamWidthHigh:
		im.width[3] = value
	}
}

func (im *Imager) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	if len(input) < 2 {
		for ch := range input {
			copy(output[ch], input[ch])
		}
		return
	}

	n := len(input[0])
	bandsL := make([][]float32, imagerBandCount)
	bandsR := make([][]float32, imagerBandCount)
	for b := range bandsL {
		bandsL[b] = make([]float32, n)
		bandsR[b] = make([]float32, n)
	}

	// Split into low band and the residual above the low crossover, then
	// keep subdividing the residual into low-mid/high-mid/high.
	restL := make([]float32, n)
	restR := make([]float32, n)
	im.crossoverLow[0].split(input[0], 0, bandsL[0], restL)
	im.crossoverLow[1].split(input[1], 0, bandsR[0], restR)

	lowMidL := make([]float32, n)
	highL := make([]float32, n)
	im.crossoverMid[0].split(restL, 0, lowMidL, highL)
	lowMidR := make([]float32, n)
	highR := make([]float32, n)
	im.crossoverMid[1].split(restR, 0, lowMidR, highR)

	bandsL[1], bandsR[1] = lowMidL, lowMidR

	highMidL := make([]float32, n)
	topL := make([]float32, n)
	im.crossoverHigh[0].split(highL, 0, highMidL, topL)
	highMidR := make([]float32, n)
	topR := make([]float32, n)
	im.crossoverHigh[1].split(highR, 0, highMidR, topR)

	bandsL[2], bandsR[2] = highMidL, highMidR
	bandsL[3], bandsR[3] = topL, topR

	for i := 0; i < n; i++ {
		var sumL, sumR float32
		for b := 0; b < imagerBandCount; b++ {
			l, r := bandsL[b][i], bandsR[b][i]
			mid := (l + r) * 0.5
			side := (l - r) * 0.5 * float32(im.width[b])
			sumL += mid + side
			sumR += mid - side
		}
		output[0][i] = flushDenormal(clip64(sumL))
		output[1][i] = flushDenormal(clip64(sumR))
	}

	if cap(im.corrScratchL) < n {
		im.corrScratchL = make([]float64, n)
		im.corrScratchR = make([]float64, n)
	}
	scratchL, scratchR := im.corrScratchL[:n], im.corrScratchR[:n]
	for i := 0; i < n; i++ {
		scratchL[i] = float64(output[0][i])
		scratchR[i] = float64(output[1][i])
	}
	im.corrMeter.Process(scratchL, scratchR)
}

// Correlation reports the current windowed stereo phase correlation for
// metering (spec §4.7 "publishes inter-channel correlation ∈ [−1,+1]").
func (im *Imager) Correlation() float64 { return im.corrMeter.GetCorrelation() }

func (im *Imager) LatencySamples() int { return 0 }
