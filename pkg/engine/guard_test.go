package engine

import (
	"math"
	"testing"
)

func TestAudioAnalyzerBasic(t *testing.T) {
	analyzer := NewAudioAnalyzer()
	buffer := make([]float32, 1000)
	for i := range buffer {
		buffer[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	result := analyzer.Analyze(buffer)

	if result.Peak < 0.49 || result.Peak > 0.51 {
		t.Errorf("Peak incorrect: %f", result.Peak)
	}
	expectedRMS := 0.5 / math.Sqrt(2)
	if math.Abs(float64(result.RMS)-expectedRMS) > 0.01 {
		t.Errorf("RMS incorrect: %f, expected ~%f", result.RMS, expectedRMS)
	}
	if result.Silent {
		t.Error("should not be silent")
	}
}

func TestAudioAnalyzerClipping(t *testing.T) {
	analyzer := NewAudioAnalyzer()
	buffer := []float32{0.5, 0.99, 1.0, -0.99, -1.0, 0.5}
	result := analyzer.Analyze(buffer)
	if !result.Clipping {
		t.Error("should detect clipping")
	}
	if result.ClippedSamples != 4 {
		t.Errorf("clipped samples = %d, want 4", result.ClippedSamples)
	}
}

func TestAudioAnalyzerSilence(t *testing.T) {
	analyzer := NewAudioAnalyzer()
	result := analyzer.Analyze(make([]float32, 100))
	if !result.Silent {
		t.Error("should detect silence")
	}
}

func TestAudioAnalyzerNaN(t *testing.T) {
	analyzer := NewAudioAnalyzer()
	buffer := []float32{1.0, float32(math.NaN()), 0.5, float32(math.NaN())}
	result := analyzer.Analyze(buffer)
	if !result.HasNaN {
		t.Error("should detect NaN")
	}
	if result.NaNCount != 2 {
		t.Errorf("NaN count = %d, want 2", result.NaNCount)
	}
}

func TestGuardClampsNonFiniteAndCounts(t *testing.T) {
	g := NewGuard()
	out := [][]float32{{1, float32(math.NaN()), 0.5}}

	if !g.Check("testproc", out) {
		t.Fatal("expected Check to report a non-finite incident")
	}
	for _, s := range out[0] {
		if s != 0 {
			t.Fatalf("expected buffer clamped to silence, got %v", out[0])
		}
	}
	if g.NonFiniteHits() != 1 {
		t.Fatalf("NonFiniteHits = %d, want 1", g.NonFiniteHits())
	}
}

func TestGuardPassesCleanBuffer(t *testing.T) {
	g := NewGuard()
	out := [][]float32{{0.1, 0.2, -0.1}}
	if g.Check("testproc", out) {
		t.Fatal("clean buffer should not trip the guard")
	}
}
