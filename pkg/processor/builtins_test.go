package processor

import (
	"math"
	"testing"
)

const testSampleRate = 48000.0
const testBlockSize = 64

func stereoBuffers(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func fillSine(buf []float32, freq, sampleRate float64, amp float32) {
	for i := range buf {
		buf[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
}

func TestCompressorReducesGainAboveThreshold(t *testing.T) {
	c := NewCompressor()
	c.Prepare(testSampleRate, testBlockSize)
	c.SetParameter(CompressorParamThreshold, -24)
	c.SetParameter(CompressorParamRatio, 8)
	c.SetParameter(CompressorParamAttack, 0.001)
	c.SetParameter(CompressorParamRelease, 0.05)

	in := stereoBuffers(4096)
	fillSine(in[0], 440, testSampleRate, 0.9)
	copy(in[1], in[0])
	out := stereoBuffers(4096)

	c.Process(nil, in, nil, out)

	if c.GainReductionDB() <= 0 {
		t.Fatalf("expected positive gain reduction for a loud signal above threshold, got %v", c.GainReductionDB())
	}
}

func TestMaximizerNeverExceedsCeiling(t *testing.T) {
	m := NewMaximizer()
	m.Prepare(testSampleRate, testBlockSize)
	m.SetParameter(MaximizerParamCeiling, -0.3)

	in := stereoBuffers(2048)
	fillSine(in[0], 200, testSampleRate, 3.0)
	copy(in[1], in[0])
	out := stereoBuffers(2048)

	m.Process(nil, in, nil, out)

	ceilingLinear := float32(math.Pow(10, -0.3/20))
	for _, v := range out[0] {
		if v > ceilingLinear+0.05 {
			t.Fatalf("sample %v exceeds ceiling %v", v, ceilingLinear)
		}
	}
}

func TestClipperHardModeClampsToUnity(t *testing.T) {
	c := NewClipper()
	c.Prepare(testSampleRate, testBlockSize)
	c.SetParameter(ClipperParamMode, float64(ClipModeHard))
	c.SetParameter(ClipperParamDrive, 4)
	c.SetParameter(ClipperParamMix, 1.0)

	in := stereoBuffers(256)
	fillSine(in[0], 100, testSampleRate, 1.0)
	copy(in[1], in[0])
	out := stereoBuffers(256)

	c.Process(nil, in, nil, out)

	for _, v := range out[0] {
		if v > 1.01 || v < -1.01 {
			t.Fatalf("hard clip exceeded unity: %v", v)
		}
	}
}

func TestDelayFeedsBackIntoItself(t *testing.T) {
	d := NewDelay()
	d.Prepare(testSampleRate, testBlockSize)
	d.SetParameter(DelayParamTimeMs, 10)
	d.SetParameter(DelayParamFeedback, 0.5)
	d.SetParameter(DelayParamMix, 1.0)

	in := stereoBuffers(2000)
	in[0][0] = 1.0
	copy(in[1], in[0])
	out := stereoBuffers(2000)

	d.Process(nil, in, nil, out)

	delaySamples := int(10 * testSampleRate / 1000)
	if out[0][delaySamples] == 0 {
		t.Fatalf("expected a delayed echo at sample %d", delaySamples)
	}
}

func TestReverbAlgorithmPresetsDoNotPanic(t *testing.T) {
	for _, alg := range []ReverbAlgorithm{ReverbRoom, ReverbHall, ReverbPlate, ReverbSpring, ReverbChamber} {
		r := NewReverb()
		r.Prepare(testSampleRate, testBlockSize)
		r.SetParameter(ReverbParamAlgorithm, float64(alg))

		in := stereoBuffers(128)
		fillSine(in[0], 300, testSampleRate, 0.5)
		copy(in[1], in[0])
		out := stereoBuffers(128)
		r.Process(nil, in, nil, out)
	}
}

func TestThreeBandEQBoostsLowShelf(t *testing.T) {
	flat := NewThreeBandEQ()
	flat.Prepare(testSampleRate, testBlockSize)

	boosted := NewThreeBandEQ()
	boosted.Prepare(testSampleRate, testBlockSize)
	boosted.SetParameter(EQ3ParamLowGain, 12)

	in := stereoBuffers(4096)
	fillSine(in[0], 80, testSampleRate, 0.2)
	copy(in[1], in[0])

	outFlat := stereoBuffers(4096)
	outBoosted := stereoBuffers(4096)
	flat.Process(nil, in, nil, outFlat)
	boosted.Process(nil, in, nil, outBoosted)

	if rms(outBoosted[0]) <= rms(outFlat[0]) {
		t.Fatalf("expected low-shelf boost to raise low-frequency energy")
	}
}

func TestImagerMonoWidthCollapsesToCenter(t *testing.T) {
	im := NewImager()
	im.Prepare(testSampleRate, testBlockSize)
	for _, id := range []uint32{ImagerParamWidthLow, ImagerParamWidthLowMid, ImagerParamWidthHighMid, ImagerParamWidthHigh} {
		im.SetParameter(id, 0)
	}

	in := stereoBuffers(2048)
	fillSine(in[0], 440, testSampleRate, 0.5)
	for i := range in[1] {
		in[1][i] = -in[0][i]
	}
	out := stereoBuffers(2048)
	im.Process(nil, in, nil, out)

	for i := range out[0] {
		if math.Abs(float64(out[0][i]-out[1][i])) > 0.01 {
			t.Fatalf("expected zero width to collapse L/R to identical mono sum at sample %d", i)
		}
	}
}

func TestPhaserProducesNonSilentOutput(t *testing.T) {
	p := NewPhaser()
	p.Prepare(testSampleRate, testBlockSize)

	in := stereoBuffers(4096)
	fillSine(in[0], 500, testSampleRate, 0.5)
	copy(in[1], in[0])
	out := stereoBuffers(4096)
	p.Process(nil, in, nil, out)

	if rms(out[0]) == 0 {
		t.Fatalf("expected non-silent phaser output")
	}
}

func TestBassEnhancerAddsSubHarmonicEnergy(t *testing.T) {
	b := NewBassEnhancer()
	b.Prepare(testSampleRate, testBlockSize)
	b.SetParameter(BassEnhancerParamSubAmount, 1.0)
	b.SetParameter(BassEnhancerParamMix, 1.0)

	in := stereoBuffers(4096)
	fillSine(in[0], 60, testSampleRate, 0.5)
	copy(in[1], in[0])
	out := stereoBuffers(4096)
	b.Process(nil, in, nil, out)

	if rms(out[0]) == 0 {
		t.Fatalf("expected non-silent bass enhancer output")
	}
}

func TestRhythmFXGateModePulsesOnOff(t *testing.T) {
	r := NewRhythmFX()
	r.Prepare(testSampleRate, testBlockSize)
	r.SetParameter(RhythmFXParamMode, float64(RhythmModeGate))
	r.SetParameter(RhythmFXParamDivisionSamples, 100)

	in := stereoBuffers(500)
	for i := range in[0] {
		in[0][i] = 1.0
	}
	copy(in[1], in[0])
	out := stereoBuffers(500)
	r.Process(nil, in, nil, out)

	sawZero, sawNonZero := false, false
	for _, v := range out[0] {
		if v == 0 {
			sawZero = true
		} else {
			sawNonZero = true
		}
	}
	if !sawZero || !sawNonZero {
		t.Fatalf("expected gate mode to alternate between silence and pass-through")
	}
}

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}
