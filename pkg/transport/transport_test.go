package transport

import (
	"testing"

	"github.com/sndcore/dawengine/pkg/score"
)

func TestStateMachine(t *testing.T) {
	tr := New(120)
	if tr.State() != Stopped {
		t.Fatalf("initial state = %s, want Stopped", tr.State())
	}
	tr.Play()
	if tr.State() != Playing {
		t.Fatalf("state after Play = %s, want Playing", tr.State())
	}
	tr.Pause()
	if tr.State() != Paused {
		t.Fatalf("state after Pause = %s, want Paused", tr.State())
	}
	tr.Play()
	if tr.State() != Playing {
		t.Fatalf("state after resume = %s, want Playing", tr.State())
	}
	tr.Stop()
	if tr.State() != Stopped {
		t.Fatalf("state after Stop = %s, want Stopped", tr.State())
	}
	if tr.PositionTicks() != 0 {
		t.Errorf("position after Stop = %d, want 0", tr.PositionTicks())
	}
}

func TestSeekOnlyAllowedWhenPausedOrStopped(t *testing.T) {
	tr := New(120)
	tr.Play()
	if err := tr.Seek(1000); err == nil {
		t.Fatal("Seek while Playing should be rejected")
	}
	tr.Pause()
	if err := tr.Seek(1000); err != nil {
		t.Fatalf("Seek while Paused should succeed: %v", err)
	}
	if tr.PositionTicks() != 1000 {
		t.Errorf("position = %d, want 1000", tr.PositionTicks())
	}
}

func TestSetBPMRejectsNonPositive(t *testing.T) {
	tr := New(120)
	if err := tr.SetBPM(0); err == nil {
		t.Fatal("SetBPM(0) should be rejected")
	}
	if err := tr.SetBPM(-10); err == nil {
		t.Fatal("SetBPM(-10) should be rejected")
	}
	if tr.BPM() != 120 {
		t.Errorf("BPM changed despite rejection: %f", tr.BPM())
	}
}

func TestEventsForBlockFourOnTheFloor(t *testing.T) {
	const sampleRate = 48000.0
	const blockSize = 128
	const bpm = 120.0 // one beat = 0.5s = 24000 samples

	tr := New(bpm)
	tr.Play()
	sched := NewScheduler(tr)
	sched.ReplacePattern(&Pattern{
		InstrumentID: "kick",
		LengthTicks:  TicksPerQuarter() * 4,
		Events: []score.Event{
			{InstrumentID: "kick", Pitch: 36, Velocity: 1, StartTicks: 0, DurationTick: 10},
		},
	})

	q := score.NewQueue()
	found := false
	for block := 0; block < 400; block++ {
		sched.EventsForBlock(blockSize, sampleRate, q)
		for _, ev := range q.Sorted() {
			if ev.Kind == score.NoteOn {
				found = true
			}
		}
		if found {
			break
		}
	}
	if !found {
		t.Fatal("expected at least one NoteOn within the first loop")
	}
}
