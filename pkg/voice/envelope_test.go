package voice

import "testing"

func TestEnvelopeRunsFullStageSequence(t *testing.T) {
	e := New(1000) // 1 kHz for short, deterministic stage lengths in samples
	e.SetDAHDSR(0.002, 0.002, 0.002, 0.002, 0.5, 0.002)
	e.Trigger()

	seen := map[Stage]bool{}
	for i := 0; i < 200; i++ {
		seen[e.CurrentStage()] = true
		e.Next()
		if e.CurrentStage() == StageSustain {
			break
		}
	}
	for _, want := range []Stage{StageDelay, StageAttack, StageHold, StageDecay} {
		if !seen[want] {
			t.Errorf("never observed stage %s", want)
		}
	}
}

func TestEnvelopeReleaseReachesDeadWithinBoundedSamples(t *testing.T) {
	e := New(48000)
	e.SetDAHDSR(0, 0.001, 0, 0.01, 1.0, 0.05)
	e.Trigger()
	for i := 0; i < 48000; i++ {
		e.Next()
		if e.CurrentStage() == StageSustain {
			break
		}
	}
	e.Release()

	maxSamples := int(0.05*48000) * 20 // generous bound past the release time constant
	for i := 0; i < maxSamples; i++ {
		e.Next()
		if e.CurrentStage() == StageDead {
			return
		}
	}
	t.Fatalf("envelope never reached Dead within %d samples of release", maxSamples)
}

func TestEnvelopeMonotonicDuringAttack(t *testing.T) {
	e := New(48000)
	e.SetDAHDSR(0, 0.01, 0, 0.05, 0.5, 0.05)
	e.Trigger()
	prev := -1.0
	for i := 0; i < 480; i++ {
		if e.CurrentStage() != StageAttack {
			break
		}
		lvl := e.Next()
		if lvl < prev {
			t.Fatalf("attack level decreased: %f -> %f at sample %d", prev, lvl, i)
		}
		prev = lvl
	}
}

func TestZeroDelayAndHoldSkipDirectlyToDecay(t *testing.T) {
	e := New(48000)
	e.SetDAHDSR(0, 0.0001, 0, 0.01, 0.5, 0.01)
	e.Trigger()
	if e.CurrentStage() != StageAttack {
		t.Fatalf("stage after Trigger with zero delay = %s, want Attack", e.CurrentStage())
	}
	for i := 0; i < 100 && e.CurrentStage() == StageAttack; i++ {
		e.Next()
	}
	if e.CurrentStage() != StageDecay && e.CurrentStage() != StageSustain {
		t.Fatalf("stage after attack completes with zero hold = %s, want Decay or Sustain", e.CurrentStage())
	}
}

func TestStopForcesDead(t *testing.T) {
	e := New(48000)
	e.Trigger()
	e.Next()
	e.Stop()
	if e.CurrentStage() != StageDead {
		t.Fatalf("stage after Stop = %s, want Dead", e.CurrentStage())
	}
	if e.IsActive() {
		t.Fatal("stopped envelope should not be active")
	}
}
