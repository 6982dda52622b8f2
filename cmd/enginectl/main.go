// Command enginectl is a demo harness for the real-time audio engine
// core: it boots an Engine from a YAML config, registers one synth
// instrument and a one-bar pattern, and renders it to either a null sink
// or a live SDL2 audio device.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/daw"
	"github.com/sndcore/dawengine/pkg/dsp/debug"
	"github.com/sndcore/dawengine/pkg/mixer"
	"github.com/sndcore/dawengine/pkg/score"
	"github.com/sndcore/dawengine/pkg/voice"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to a YAML boot config (defaults used if omitted)")
		output     = pflag.StringP("output", "o", "null", "output backend: \"null\" or \"sdl2\"")
		seconds    = pflag.Float64P("seconds", "s", 4.0, "seconds of audio to render")
		bpm        = pflag.Float64P("bpm", "b", 120.0, "transport tempo")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
		help       = pflag.BoolP("help", "h", false, "display this help text")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "enginectl: render a demo pattern through the engine core\n\nUsage:\n  enginectl [flags]\n\nFlags:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(*configPath, *output, *seconds, *bpm); err != nil {
		log.Error("enginectl failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, output string, seconds, bpm float64) error {
	cfg, err := loadBootConfig(configPath)
	if err != nil {
		return err
	}

	eng := daw.New(cfg)

	out, err := openSink(output, int(cfg.SampleRate), uint16(cfg.BlockSize))
	if err != nil {
		return err
	}
	defer out.Close()

	trackID, res := eng.AddChannel("Demo", mixer.Track)
	if res.Status != core.Deferred {
		return fmt.Errorf("enginectl: AddChannel: %v", res.Status)
	}
	eng.RenderBlock(cfg.BlockSize) // drain the deferred AddChannel

	if res := eng.AddSend(trackID, eng.MasterID(), 0, false); res.Status != core.Deferred {
		return fmt.Errorf("enginectl: AddSend: %v", res.Status)
	}
	eng.RenderBlock(cfg.BlockSize) // drain the deferred AddSend

	instrument := voice.Instrument{
		Kind:            voice.KindSynth,
		Waveform:        voice.WaveSaw,
		FilterCutoffHz:  3200,
		FilterResonance: 0.9,
		LFORateHz:       5,
		LFODepthSemis:   0.15,
		TuningA4:        440,
		VelocityGamma:   1,
		Attack:          0.003,
		Decay:           0.08,
		Sustain:         0.6,
		Release:         0.12,
		MaxVoices:       8,
	}
	if res := eng.AddInstrument("lead", trackID, instrument, core.ID("")); res.Status != core.Ok {
		return fmt.Errorf("enginectl: AddInstrument: %v", res.Status)
	}

	pattern := []score.Event{
		{InstrumentID: "lead", Pitch: 48, Velocity: 0.9, StartTicks: 0, DurationTick: 360},
		{InstrumentID: "lead", Pitch: 55, Velocity: 0.8, StartTicks: 480, DurationTick: 360},
		{InstrumentID: "lead", Pitch: 60, Velocity: 0.85, StartTicks: 960, DurationTick: 360},
		{InstrumentID: "lead", Pitch: 55, Velocity: 0.8, StartTicks: 1440, DurationTick: 360},
	}
	if res := eng.ReplacePattern("lead", pattern, 1920); res.Status != core.Deferred {
		return fmt.Errorf("enginectl: ReplacePattern: %v", res.Status)
	}
	if res := eng.SetBPM(bpm); res.Status != core.Ok {
		return fmt.Errorf("enginectl: SetBPM: %v", res.Status)
	}
	if res := eng.Play(); res.Status != core.Ok {
		return fmt.Errorf("enginectl: Play: %v", res.Status)
	}

	totalBlocks := int(seconds * cfg.SampleRate / float64(cfg.BlockSize))
	start := time.Now()
	for i := 0; i < totalBlocks; i++ {
		debug.StartFrame()
		block := eng.RenderBlock(cfg.BlockSize)
		if allocs, bytes := debug.EndFrame(); allocs > 0 {
			log.Debug("allocation in render path", "block", i, "allocs", allocs, "bytes", bytes)
		}
		if err := out.Write(block[0], block[1]); err != nil {
			return fmt.Errorf("enginectl: sink write: %w", err)
		}
	}
	log.Info("render complete", "blocks", totalBlocks, "elapsed", time.Since(start))
	return nil
}

func openSink(kind string, sampleRate int, blockSize uint16) (sink, error) {
	switch kind {
	case "sdl2":
		return newSDL2Sink(sampleRate, blockSize)
	case "null", "":
		return newNullSink(), nil
	default:
		return nil, fmt.Errorf("enginectl: unknown output backend %q", kind)
	}
}
