package metering

import (
	"time"

	"github.com/sndcore/dawengine/pkg/transport"
)

const (
	// MinRefreshHz and MaxRefreshHz bound the metering publish rate (spec
	// §4.8-adjacent ambient requirement: "≥30Hz/≤120Hz refresh rate").
	MinRefreshHz = 30.0
	MaxRefreshHz = 120.0
)

// RefreshInterval clamps a requested refresh rate into the supported band
// and returns the corresponding tick interval.
func RefreshInterval(hz float64) time.Duration {
	if hz < MinRefreshHz {
		hz = MinRefreshHz
	}
	if hz > MaxRefreshHz {
		hz = MaxRefreshHz
	}
	return time.Duration(float64(time.Second) / hz)
}

// Collector assembles a Snapshot from the engine's live state each
// refresh tick and publishes it. It holds no audio-thread state itself;
// each source function is supplied by the engine wiring so this package
// stays independent of voice/mixer/transport internals.
type Collector struct {
	publisher *Publisher
	tr        *transport.Transport

	channels    func() []ChannelMeter
	inserts     func() []InsertMeter
	instruments func() []InstrumentMeter
}

// NewCollector creates a collector publishing into pub, reading transport
// state from tr and the remaining sections from the supplied closures
// (any of which may be nil to omit that section).
func NewCollector(pub *Publisher, tr *transport.Transport, channels func() []ChannelMeter, inserts func() []InsertMeter, instruments func() []InstrumentMeter) *Collector {
	return &Collector{publisher: pub, tr: tr, channels: channels, inserts: inserts, instruments: instruments}
}

// Tick builds and publishes one snapshot.
func (c *Collector) Tick() {
	s := &Snapshot{}
	if c.channels != nil {
		s.Channels = c.channels()
	}
	if c.inserts != nil {
		s.Inserts = c.inserts()
	}
	if c.instruments != nil {
		s.Instruments = c.instruments()
	}
	if c.tr != nil {
		s.TransportPos = c.tr.PositionTicks()
		s.TransportBPM = c.tr.BPM()
		s.TransportState = c.tr.State()
	}
	c.publisher.Publish(s)
}

// Run ticks the collector on its own goroutine at the given refresh rate
// until stop is closed.
func (c *Collector) Run(refreshHz float64, stop <-chan struct{}) {
	ticker := time.NewTicker(RefreshInterval(refreshHz))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
