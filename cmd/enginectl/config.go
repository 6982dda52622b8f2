package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sndcore/dawengine/pkg/daw"
	"github.com/sndcore/dawengine/pkg/quality"
)

// bootConfig is the on-disk shape of the engine's boot configuration
// (spec §9 ambient "Configuration"): everything read once at startup and
// never touched again except through ApplyQualityPreset.
type bootConfig struct {
	SampleRate          float64 `yaml:"sample_rate"`
	BlockSize           int     `yaml:"block_size"`
	QualityPreset       string  `yaml:"quality_preset"`
	BufferCacheMaxBytes int64   `yaml:"buffer_cache_max_bytes"`
	MeteringRefreshHz   float64 `yaml:"metering_refresh_hz"`
}

// loadBootConfig reads a YAML boot config from path, falling back to the
// engine's defaults for any zero-valued field. An empty path is not an
// error: it just means "use the defaults."
func loadBootConfig(path string) (daw.Config, error) {
	cfg := daw.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("enginectl: reading boot config %q: %w", path, err)
	}

	var boot bootConfig
	if err := yaml.Unmarshal(data, &boot); err != nil {
		return cfg, fmt.Errorf("enginectl: parsing boot config %q: %w", path, err)
	}

	if boot.SampleRate > 0 {
		cfg.SampleRate = boot.SampleRate
	}
	if boot.BlockSize > 0 {
		cfg.BlockSize = boot.BlockSize
	}
	if boot.BufferCacheMaxBytes > 0 {
		cfg.BufferCacheMaxBytes = boot.BufferCacheMaxBytes
	}
	if boot.MeteringRefreshHz > 0 {
		cfg.MeteringRefreshHz = boot.MeteringRefreshHz
	}
	if preset, ok := parsePreset(boot.QualityPreset); ok {
		cfg.QualityPreset = preset
	}
	return cfg, nil
}

func parsePreset(name string) (quality.Preset, bool) {
	switch name {
	case "economy":
		return quality.Economy, true
	case "balanced":
		return quality.Balanced, true
	case "quality":
		return quality.Quality, true
	case "studio":
		return quality.Studio, true
	case "ultra":
		return quality.Ultra, true
	default:
		return quality.Balanced, false
	}
}
