// Package metering publishes a point-in-time snapshot of engine state —
// levels, gain reduction, voice counts, transport position — for
// control-thread readers (UI, telemetry) without ever blocking the audio
// thread that writes it (spec §5 Concurrency & Resource Model).
package metering

import (
	"sync/atomic"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/transport"
)

// ChannelMeter is the per-mixer-channel portion of a snapshot.
type ChannelMeter struct {
	ID          core.ID
	PeakLeft    float32
	PeakRight   float32
	RMSLeft     float32
	RMSRight    float32
	Correlation float32 // [-1,1], stereo phase correlation
}

// InsertMeter is the per-insert-effect portion of a snapshot (gain
// reduction in dB, 0 = no reduction).
type InsertMeter struct {
	ChannelID  core.ID
	InsertID   core.ID
	GainReductionDB float32
}

// InstrumentMeter tracks active voice counts per instrument.
type InstrumentMeter struct {
	InstrumentID string
	ActiveVoices int
}

// Snapshot is one complete, self-consistent read of engine state.
type Snapshot struct {
	Channels     []ChannelMeter
	Inserts      []InsertMeter
	Instruments  []InstrumentMeter
	TransportPos int64
	TransportBPM float64
	TransportState transport.State
}

// Publisher is the single-writer/multi-reader snapshot protocol spec §5
// describes ("writer increments even/odd, readers retry on mismatch"):
// each Publish hands over a brand-new, fully-built, immutable Snapshot
// via one atomic pointer swap, so a reader's Load always returns a
// complete, self-consistent snapshot without retrying. The sequence
// counter is incremented around the swap for callers that want to detect
// whether the snapshot changed between two reads (e.g. a UI poll loop
// deciding whether to redraw).
type Publisher struct {
	seq atomic.Uint64
	buf atomic.Pointer[Snapshot]
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	p := &Publisher{}
	p.buf.Store(&Snapshot{})
	return p
}

// Publish installs a new snapshot, visible to readers as soon as the
// pointer swap completes.
func (p *Publisher) Publish(s *Snapshot) {
	p.seq.Add(1)
	p.buf.Store(s)
	p.seq.Add(1)
}

// Load returns the most recently published snapshot. Never blocks.
func (p *Publisher) Load() *Snapshot {
	return p.buf.Load()
}

// Sequence returns the current publish sequence counter (even = stable).
func (p *Publisher) Sequence() uint64 {
	return p.seq.Load()
}
