package paramctl

import "testing"

func TestCommandRingDrainsInFIFOOrder(t *testing.T) {
	ring := NewCommandRing(4)
	for i := uint32(0); i < 3; i++ {
		if !ring.Push(Command{ParamID: i}) {
			t.Fatalf("expected push %d to succeed", i)
		}
	}

	var seen []uint32
	ring.Drain(func(cmd Command) { seen = append(seen, cmd.ParamID) })

	for i, id := range seen {
		if id != uint32(i) {
			t.Fatalf("expected FIFO order, got %v", seen)
		}
	}
}

func TestCommandRingRejectsPushWhenFull(t *testing.T) {
	ring := NewCommandRing(2)
	ok1 := ring.Push(Command{ParamID: 1})
	ok2 := ring.Push(Command{ParamID: 2})
	ok3 := ring.Push(Command{ParamID: 3})

	if !ok1 || !ok2 {
		t.Fatalf("expected the first two pushes to succeed")
	}
	if ok3 {
		t.Fatalf("expected the ring to reject a push past capacity")
	}
}

func newTestController(t *testing.T) (*Controller, *Registry) {
	t.Helper()
	reg := NewRegistry()
	p := &Parameter{ID: 1, Min: 0, Max: 100, DefaultValue: 0}
	p.SetPlainValue(0)
	if err := reg.Add(p); err != nil {
		t.Fatalf("add: %v", err)
	}
	c := NewController(reg, 16)
	c.Prepare(48000)
	return c, reg
}

func TestControllerFlushAppliesQueuedWriteImmediatelyWithRampNone(t *testing.T) {
	c, reg := newTestController(t)
	c.SetParameter(1, 50, RampNone, 0)
	c.Flush(64)

	if got := reg.Get(1).GetPlainValue(); got < 49.9 || got > 50.1 {
		t.Fatalf("expected parameter to reach 50 immediately with RampNone, got %v", got)
	}
}

func TestControllerFlushRampsGraduallyWithRampLinear(t *testing.T) {
	c, reg := newTestController(t)
	c.SetParameter(1, 100, RampLinear, 100)
	c.Flush(64)

	got := reg.Get(1).GetPlainValue()
	if got <= 0 || got >= 100 {
		t.Fatalf("expected a 100ms linear ramp to be partway after one 64-sample block, got %v", got)
	}
}

func TestControllerNewWriteCancelsInFlightRamp(t *testing.T) {
	c, reg := newTestController(t)
	c.SetParameter(1, 100, RampLinear, 1000)
	c.Flush(64)
	midway := reg.Get(1).GetPlainValue()

	c.SetParameter(1, 0, RampNone, 0)
	c.Flush(64)

	got := reg.Get(1).GetPlainValue()
	if got > midway {
		t.Fatalf("expected the new write to cancel the in-flight ramp toward 100, got %v after midway %v", got, midway)
	}
}

func TestControllerDirtySnapshotReportsAndClearsTouchedParameters(t *testing.T) {
	c, _ := newTestController(t)
	c.SetParameter(1, 10, RampNone, 0)
	c.Flush(64)

	dirty := c.DirtySnapshot()
	if len(dirty) != 1 || dirty[0] != 1 {
		t.Fatalf("expected parameter 1 reported dirty, got %v", dirty)
	}

	if again := c.DirtySnapshot(); len(again) != 0 {
		t.Fatalf("expected dirty set to be cleared after the first snapshot, got %v", again)
	}
}

func TestControllerRecordingCapturesTimelineOnlyWhenEnabled(t *testing.T) {
	c, _ := newTestController(t)
	c.SetParameter(1, 25, RampNone, 0)
	c.Flush(64)
	if len(c.Timeline()) != 0 {
		t.Fatalf("expected no timeline events before recording is enabled")
	}

	c.SetRecording(true)
	c.SetParameter(1, 75, RampNone, 0)
	c.Flush(64)

	if len(c.Timeline()) == 0 {
		t.Fatalf("expected at least one timeline event once recording is enabled")
	}
}
