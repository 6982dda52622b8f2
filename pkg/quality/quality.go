// Package quality implements the Quality Manager (spec §4.8): start-up
// capability probing, preset selection, and stop-reprepare-resume
// reconfiguration that never loses a parameter value.
package quality

import (
	"context"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Preset is one of the engine's fixed quality tiers.
type Preset int

const (
	Economy Preset = iota
	Balanced
	Quality
	Studio
	Ultra
)

func (p Preset) String() string {
	switch p {
	case Economy:
		return "economy"
	case Balanced:
		return "balanced"
	case Quality:
		return "quality"
	case Studio:
		return "studio"
	default:
		return "ultra"
	}
}

// Settings is the set of engine-wide knobs a Preset governs.
type Settings struct {
	SampleRate                 float64
	BlockSize                  int
	MaxPolyphony               int
	MaxMixerChannels           int
	EnableHighQualityResampling bool
	EnableRealTimeEffects      bool
}

// presetTable maps each preset to its settings at a reference 48kHz
// sample rate; Probe scales SampleRate/BlockSize to the detected
// capability separately.
var presetTable = map[Preset]Settings{
	Economy:  {SampleRate: 44100, BlockSize: 512, MaxPolyphony: 32, MaxMixerChannels: 16, EnableHighQualityResampling: false, EnableRealTimeEffects: false},
	Balanced: {SampleRate: 48000, BlockSize: 256, MaxPolyphony: 64, MaxMixerChannels: 32, EnableHighQualityResampling: false, EnableRealTimeEffects: true},
	Quality:  {SampleRate: 48000, BlockSize: 128, MaxPolyphony: 128, MaxMixerChannels: 64, EnableHighQualityResampling: true, EnableRealTimeEffects: true},
	Studio:   {SampleRate: 96000, BlockSize: 128, MaxPolyphony: 192, MaxMixerChannels: 96, EnableHighQualityResampling: true, EnableRealTimeEffects: true},
	Ultra:    {SampleRate: 96000, BlockSize: 64, MaxPolyphony: 256, MaxMixerChannels: 128, EnableHighQualityResampling: true, EnableRealTimeEffects: true},
}

// SettingsFor returns the fixed settings for a preset.
func SettingsFor(p Preset) Settings {
	return presetTable[p]
}

// Capability is the outcome of the start-up probe: detected core count,
// a relative benchmark score, and estimated available memory.
type Capability struct {
	Cores          int
	BenchmarkScore float64 // higher is faster; 1.0 is the probe's reference baseline
	MemoryHintMB   int
}

// Probe runs a short, parallel per-core benchmark using errgroup to
// estimate this machine's processing headroom (spec §4.8 "estimates CPU
// performance"). Control-thread only; never called from the audio
// thread.
func Probe(ctx context.Context) (Capability, error) {
	cores := runtime.NumCPU()
	scores := make([]float64, cores)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cores; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			scores[i] = benchmarkCore()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Capability{}, err
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}
	avg := total / float64(cores)

	return Capability{
		Cores:          cores,
		BenchmarkScore: avg / referenceScore,
		MemoryHintMB:   estimateMemoryMB(),
	}, nil
}

// referenceScore calibrates BenchmarkScore to ~1.0 on a modest machine.
const referenceScore = 50_000_000.0

// benchmarkCore runs a fixed amount of floating-point work and returns an
// operations-per-second estimate.
func benchmarkCore() float64 {
	start := time.Now()
	const iterations = 5_000_000
	x := 1.0000001
	for i := 0; i < iterations; i++ {
		x = x*1.0000001 + 0.0000001
	}
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-9
	}
	_ = x
	return float64(iterations) / elapsed
}

func estimateMemoryMB() int {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int(m.Sys / (1024 * 1024))
}

// SelectPreset chooses a preset from a probed capability using simple,
// documented thresholds (spec leaves the exact scoring to the
// implementation — see DESIGN.md Open Question note).
func SelectPreset(cap Capability) Preset {
	switch {
	case cap.Cores >= 8 && cap.BenchmarkScore >= 1.5:
		return Ultra
	case cap.Cores >= 6 && cap.BenchmarkScore >= 1.2:
		return Studio
	case cap.Cores >= 4 && cap.BenchmarkScore >= 0.8:
		return Quality
	case cap.Cores >= 2:
		return Balanced
	default:
		return Economy
	}
}

// Reconfigurable is anything the Manager must stop, re-prepare, and
// resume across a preset change without losing parameter state (the
// mixer graph's insert effects and the voice manager both implement
// this).
type Reconfigurable interface {
	Prepare(sampleRate float64, maxBlockSize int)
}

// Manager owns the active preset and drives the stop-reprepare-resume
// sequence (spec §4.8: "Settings are applied by stopping the graph,
// re-prepare-ing every processor, and resuming; no parameter value is
// lost").
type Manager struct {
	current  Preset
	settings Settings
}

// NewManager creates a manager at the given starting preset.
func NewManager(preset Preset) *Manager {
	return &Manager{current: preset, settings: SettingsFor(preset)}
}

// Current returns the active preset and its settings.
func (m *Manager) Current() (Preset, Settings) {
	return m.current, m.settings
}

// Reconfigure switches to a new preset. stop is called first (must leave
// the graph silent and safe to mutate), then every Reconfigurable is
// re-prepared with the new settings (Prepare re-initializes buffers and
// filter memory but never touches parameter values, since parameters
// live in the registry, not in the processor), then resume is called.
// Parameter values are untouched throughout, since only Process/Reset
// state is reallocated.
func (m *Manager) Reconfigure(preset Preset, stop func(), targets []Reconfigurable, resume func()) {
	if preset == m.current {
		return
	}
	log.Info("quality preset change", "from", m.current, "to", preset)
	stop()
	m.current = preset
	m.settings = SettingsFor(preset)
	for _, t := range targets {
		t.Prepare(m.settings.SampleRate, m.settings.BlockSize)
	}
	resume()
}
