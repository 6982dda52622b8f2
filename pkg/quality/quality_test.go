package quality

import (
	"context"
	"testing"
)

func TestProbeReturnsPositiveCores(t *testing.T) {
	cap, err := Probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cap.Cores < 1 {
		t.Fatalf("expected at least one core, got %d", cap.Cores)
	}
	if cap.BenchmarkScore <= 0 {
		t.Fatalf("expected positive benchmark score, got %v", cap.BenchmarkScore)
	}
}

func TestSelectPresetLowCoreFallsBackToEconomy(t *testing.T) {
	p := SelectPreset(Capability{Cores: 1, BenchmarkScore: 0.1})
	if p != Economy {
		t.Fatalf("expected Economy for a single weak core, got %v", p)
	}
}

func TestSelectPresetHighEndReachesUltra(t *testing.T) {
	p := SelectPreset(Capability{Cores: 16, BenchmarkScore: 3.0})
	if p != Ultra {
		t.Fatalf("expected Ultra for a strong many-core machine, got %v", p)
	}
}

type fakeTarget struct {
	preparedSampleRate float64
	preparedBlockSize  int
	prepareCount       int
}

func (f *fakeTarget) Prepare(sampleRate float64, maxBlockSize int) {
	f.preparedSampleRate = sampleRate
	f.preparedBlockSize = maxBlockSize
	f.prepareCount++
}

func TestManagerReconfigureStopsRepreparesAndResumes(t *testing.T) {
	m := NewManager(Economy)
	target := &fakeTarget{}

	var stopped, resumed bool
	m.Reconfigure(Studio, func() { stopped = true }, []Reconfigurable{target}, func() { resumed = true })

	if !stopped || !resumed {
		t.Fatalf("expected stop and resume both called")
	}
	if target.prepareCount != 1 {
		t.Fatalf("expected target re-prepared once, got %d", target.prepareCount)
	}
	preset, settings := m.Current()
	if preset != Studio {
		t.Fatalf("expected current preset Studio, got %v", preset)
	}
	if target.preparedSampleRate != settings.SampleRate || target.preparedBlockSize != settings.BlockSize {
		t.Fatalf("expected target prepared with new settings, got %v/%v", target.preparedSampleRate, target.preparedBlockSize)
	}
}

func TestManagerReconfigureNoOpForSamePreset(t *testing.T) {
	m := NewManager(Balanced)
	target := &fakeTarget{}
	m.Reconfigure(Balanced, func() { t.Fatal("stop should not be called for a no-op reconfigure") }, []Reconfigurable{target}, func() { t.Fatal("resume should not be called for a no-op reconfigure") })
	if target.prepareCount != 0 {
		t.Fatalf("expected no re-prepare for unchanged preset")
	}
}
