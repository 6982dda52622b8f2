package engine

import (
	"math"

	"github.com/sndcore/dawengine/pkg/dsp"
	"github.com/sndcore/dawengine/pkg/telemetry"
)

// AudioAnalyzer inspects rendered buffers for the conditions the engine's
// non-finite guard (spec §7 "Fatal: DSP state becomes non-finite") needs to
// detect: NaN/Inf, clipping, DC offset, and silence.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates an analyzer with the engine's default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult is the outcome of analyzing one buffer.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	HasNaN         bool
	NaNCount       int
}

// Analyze computes peak/RMS/DC/clipping/NaN statistics for one channel's
// buffer in a single pass.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{}
	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) || math.IsInf(float64(sample), 0) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}
		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}
		sum += float64(sample)
		sumSquares += float64(sample * sample)
	}

	result.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	result.DC = float32(sum / float64(len(buffer)))
	result.Silent = result.RMS < a.silenceThreshold
	return result
}

// Guard runs the non-finite recovery protocol from spec §7 over a
// processor's output each block: if any sample is NaN/Inf, the whole
// buffer is clamped to silence, the caller is told to reset the owning
// processor, and the occurrence is counted exactly once per incident.
type Guard struct {
	analyzer      *AudioAnalyzer
	nonFiniteHits uint64
	counters      *telemetry.Counters
}

// NewGuard creates a non-finite guard using the default analysis
// thresholds and no telemetry reporting.
func NewGuard() *Guard {
	return &Guard{analyzer: NewAudioAnalyzer()}
}

// NewGuardWithTelemetry creates a non-finite guard that also reports each
// incident to the given counters (spec §7 "report once to telemetry").
func NewGuardWithTelemetry(counters *telemetry.Counters) *Guard {
	return &Guard{analyzer: NewAudioAnalyzer(), counters: counters}
}

// Check scans output in place. It returns true if the buffer contained a
// non-finite sample, in which case output has already been zeroed and the
// caller must Reset() the processor that produced it before next block.
func (g *Guard) Check(processorName string, output [][]float32) bool {
	bad := false
	for ch := range output {
		result := g.analyzer.Analyze(output[ch])
		if result.HasNaN {
			bad = true
		}
	}
	if !bad {
		return false
	}
	g.nonFiniteHits++
	for ch := range output {
		dsp.Clear(output[ch])
	}
	if g.counters != nil {
		g.counters.RecordNonFiniteReset(processorName)
	}
	return true
}

// NonFiniteHits reports the running count of clamp-and-reset incidents
// (spec §7: "report once to telemetry").
func (g *Guard) NonFiniteHits() uint64 {
	return g.nonFiniteHits
}
