package processor

import "github.com/sndcore/dawengine/pkg/paramctl"

// Kind names a built-in processor type for the mixer's set_insert command
// (spec §6 "mixer.set_insert(id, index, spec)"). The mixer resolves a
// spec's Kind to a fresh Processor plus the paramctl.Registry describing
// its own parameter set, scoped to that one insert instance.
type Kind string

const (
	KindCompressor   Kind = "compressor"
	KindMaximizer    Kind = "maximizer"
	KindClipper      Kind = "clipper"
	KindImager       Kind = "imager"
	KindBassEnhancer Kind = "bass_enhancer"
	KindDelay        Kind = "delay"
	KindReverb       Kind = "reverb"
	KindPhaser       Kind = "phaser"
	KindEQ3          Kind = "eq3"
	KindRhythmFX     Kind = "rhythm_fx"
)

func param(id uint32, name string, min, max, def float64) *paramctl.Parameter {
	p := &paramctl.Parameter{ID: id, Name: name, Min: min, Max: max, DefaultValue: def, Flags: paramctl.CanAutomate}
	p.SetPlainValue(def)
	return p
}

// descriptors lists every built-in's parameters as (id, name, min, max,
// default); New builds the registry and a matching fresh Processor from
// this single source of truth.
var descriptors = map[Kind][]*paramctl.Parameter{
	KindCompressor: {
		param(CompressorParamThreshold, "threshold", -60, 0, -24),
		param(CompressorParamRatio, "ratio", 1, 20, 4),
		param(CompressorParamAttack, "attack", 0.0001, 1, 0.01),
		param(CompressorParamRelease, "release", 0.01, 2, 0.1),
		param(CompressorParamMakeupGain, "makeup_gain", 0, 24, 0),
		param(CompressorParamSidechainHPF, "sidechain_hpf", 0, 2000, 0),
		param(CompressorParamSidechainLPF, "sidechain_lpf", 0, 20000, 0),
		param(CompressorParamStereoLink, "stereo_link", 0, 1, 1),
	},
	KindMaximizer: {
		param(MaximizerParamCeiling, "ceiling", -6, 0, -0.3),
		param(MaximizerParamSaturationCurve, "saturation_curve", 0, 6, 2),
		param(MaximizerParamSaturationDrive, "saturation_drive", 0, 24, 0),
		param(MaximizerParamTruePeak, "true_peak", 0, 1, 1),
	},
	KindClipper: {
		param(ClipperParamMode, "mode", 0, 5, 0),
		param(ClipperParamDrive, "drive", 0, 24, 0),
		param(ClipperParamMix, "mix", 0, 1, 1),
		param(ClipperParamBitDepth, "bit_depth", 1, 16, 16),
	},
	KindImager: {
		param(ImagerParamCrossoverLow, "crossover_low", 40, 400, 120),
		param(ImagerParamCrossoverMid, "crossover_mid", 400, 6000, 2000),
		param(ImagerParamCrossoverHigh, "crossover_high", 4000, 16000, 8000),
		param(ImagerParamWidthLow, "width_low", 0, 2, 1),
		param(ImagerParamWidthLowMid, "width_low_mid", 0, 2, 1),
		param(ImagerParamWidthHighMid, "width_high_mid", 0, 2, 1),
		param(ImagerParamWidthHigh, "width_high", 0, 2, 1),
	},
	KindBassEnhancer: {
		param(BassEnhancerParamCrossover, "crossover", 40, 300, 120),
		param(BassEnhancerParamSubAmount, "sub_amount", 0, 1, 0.5),
		param(BassEnhancerParamDrive, "drive", 0, 10, 2.0),
		param(BassEnhancerParamTaste, "taste", 0, 1, 0.1),
		param(BassEnhancerParamMix, "mix", 0, 1, 0.5),
	},
	KindDelay: {
		param(DelayParamTimeMs, "time_ms", 1, delayMaxSeconds*1000, 250),
		param(DelayParamFeedback, "feedback", 0, 0.95, 0.35),
		param(DelayParamMix, "mix", 0, 1, 0.3),
		param(DelayParamPingPong, "ping_pong", 0, 1, 0),
	},
	KindReverb: {
		param(ReverbParamAlgorithm, "algorithm", 0, 4, float64(ReverbHall)),
		param(ReverbParamRoomSize, "room_size", 0, 1, 0.5),
		param(ReverbParamDamping, "damping", 0, 1, 0.5),
		param(ReverbParamWidth, "width", 0, 1, 1),
		param(ReverbParamWetLevel, "wet_level", 0, 1, 0.33),
		param(ReverbParamDryLevel, "dry_level", 0, 1, 1),
	},
	KindPhaser: {
		param(PhaserParamRate, "rate", 0.01, 10, 0.5),
		param(PhaserParamDepth, "depth", 0, 1, 0.7),
		param(PhaserParamCenterFreq, "center_freq", 100, 8000, 1000),
		param(PhaserParamFeedback, "feedback", 0, 0.95, 0.5),
		param(PhaserParamMix, "mix", 0, 1, 0.5),
		param(PhaserParamStages, "stages", 2, 12, 4),
		param(PhaserParamStereoPhaseOffset, "stereo_phase_offset", 0, 180, 0),
	},
	KindEQ3: {
		param(EQ3ParamLowFreq, "low_freq", 20, 500, 200),
		param(EQ3ParamLowGain, "low_gain", -24, 24, 0),
		param(EQ3ParamMidFreq, "mid_freq", 200, 8000, 1000),
		param(EQ3ParamMidGain, "mid_gain", -24, 24, 0),
		param(EQ3ParamMidQ, "mid_q", 0.1, 10, 1.0),
		param(EQ3ParamHighFreq, "high_freq", 1000, 20000, 5000),
		param(EQ3ParamHighGain, "high_gain", -24, 24, 0),
	},
	KindRhythmFX: {
		param(RhythmFXParamMode, "mode", 0, 5, 0),
		param(RhythmFXParamDivisionSamples, "division_samples", 1, rhythmBufferSeconds*48000, 12000),
		param(RhythmFXParamAmount, "amount", 0, 1, 1),
		param(RhythmFXParamRateHz, "rate_hz", 0.1, 32, 4.0),
	},
}

func newInstance(kind Kind) Processor {
	switch kind {
	case KindCompressor:
		return NewCompressor()
	case KindMaximizer:
		return NewMaximizer()
	case KindClipper:
		return NewClipper()
	case KindImager:
		return NewImager()
	case KindBassEnhancer:
		return NewBassEnhancer()
	case KindDelay:
		return NewDelay()
	case KindReverb:
		return NewReverb()
	case KindPhaser:
		return NewPhaser()
	case KindEQ3:
		return NewThreeBandEQ()
	case KindRhythmFX:
		return NewRhythmFX()
	default:
		return nil
	}
}

// New builds a fresh processor instance of kind plus a parameter registry
// describing its own parameter set, scoped to this one insert (spec §4.5:
// the Parameter Controller's registry is per effect instance, not global).
// Returns (nil, nil, false) for an unknown kind.
func New(kind Kind) (Processor, *paramctl.Registry, bool) {
	desc, ok := descriptors[kind]
	if !ok {
		return nil, nil, false
	}
	proc := newInstance(kind)
	if proc == nil {
		return nil, nil, false
	}
	reg := paramctl.NewRegistry()
	fresh := make([]*paramctl.Parameter, len(desc))
	for i, d := range desc {
		fresh[i] = param(d.ID, d.Name, d.Min, d.Max, d.DefaultValue)
	}
	reg.Add(fresh...)
	return proc, reg, true
}

// Kinds lists every built-in processor kind, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCompressor, KindMaximizer, KindClipper, KindImager, KindBassEnhancer,
		KindDelay, KindReverb, KindPhaser, KindEQ3, KindRhythmFX,
	}
}
