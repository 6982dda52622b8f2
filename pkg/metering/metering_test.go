package metering

import (
	"testing"
	"time"

	"github.com/sndcore/dawengine/pkg/transport"
)

func TestPublisherLoadReturnsLatestSnapshot(t *testing.T) {
	p := NewPublisher()
	if len(p.Load().Channels) != 0 {
		t.Fatalf("expected empty initial snapshot")
	}
	p.Publish(&Snapshot{Instruments: []InstrumentMeter{{InstrumentID: "kick", ActiveVoices: 3}}})
	got := p.Load()
	if len(got.Instruments) != 1 || got.Instruments[0].ActiveVoices != 3 {
		t.Fatalf("expected published snapshot to be visible, got %+v", got)
	}
}

func TestRefreshIntervalClampsToBand(t *testing.T) {
	fast := RefreshInterval(1000)
	if fast != RefreshInterval(MaxRefreshHz) {
		t.Fatalf("expected clamp to max refresh rate")
	}
	slow := RefreshInterval(1)
	if slow != RefreshInterval(MinRefreshHz) {
		t.Fatalf("expected clamp to min refresh rate")
	}
}

func TestCollectorTickPublishesTransportState(t *testing.T) {
	pub := NewPublisher()
	tr := transport.New(120)
	c := NewCollector(pub, tr, nil, nil, nil)
	c.Tick()
	got := pub.Load()
	if got.TransportBPM != 120 {
		t.Fatalf("expected transport BPM 120, got %v", got.TransportBPM)
	}
	if got.TransportState != transport.Stopped {
		t.Fatalf("expected Stopped state, got %v", got.TransportState)
	}
}

func TestCollectorRunStopsOnSignal(t *testing.T) {
	pub := NewPublisher()
	c := NewCollector(pub, nil, nil, nil, nil)
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		c.Run(MaxRefreshHz, stop)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after signal")
	}
}
