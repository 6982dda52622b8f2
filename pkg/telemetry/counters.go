package telemetry

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Counters accumulates the engine-wide fault and miss counts spec §7
// expects reported once per incident rather than crashing: non-finite DSP
// resets, buffer-cache misses, and block-deadline overruns.
type Counters struct {
	nonFiniteResets  atomic.Uint64
	bufferMisses     atomic.Uint64
	deadlineOverruns atomic.Uint64
	outOfBudget      atomic.Uint64
	notResident      atomic.Uint64

	sink ErrorSink
}

// ErrorSink forwards a fault occurrence to an external error-reporting
// service. Only implemented by the optional Sentry-backed sink; nil by
// default.
type ErrorSink interface {
	ReportFault(kind, detail string)
}

// NewCounters creates a zeroed counter set with no external sink.
func NewCounters() *Counters {
	return &Counters{}
}

// SetSink wires an optional external error sink (e.g. Sentry). The audio
// thread never calls into Counters directly with a sink attached — only
// the control-thread telemetry consumer drains and forwards.
func (c *Counters) SetSink(sink ErrorSink) {
	c.sink = sink
}

// RecordNonFiniteReset logs and counts a processor reset after non-finite
// output was detected and clamped to silence for the block (spec §7).
func (c *Counters) RecordNonFiniteReset(processorName string) {
	n := c.nonFiniteResets.Add(1)
	log.Warn("non-finite DSP state reset", "processor", processorName, "incident", n)
	if c.sink != nil {
		c.sink.ReportFault("non_finite_reset", processorName)
	}
}

// RecordBufferMiss logs and counts a sample-buffer cache miss that forced
// a voice to emit silence for the block (spec §4.3).
func (c *Counters) RecordBufferMiss(bufferID string) {
	n := c.bufferMisses.Add(1)
	log.Debug("sample buffer not resident, emitting silence", "buffer", bufferID, "count", n)
}

// RecordDeadlineOverrun counts a block render that exceeded its deadline.
func (c *Counters) RecordDeadlineOverrun() {
	c.deadlineOverruns.Add(1)
}

// RecordOutOfBudget counts a rejected allocation/voice request that would
// have exceeded a configured resource budget (core.ErrOutOfBudget).
func (c *Counters) RecordOutOfBudget() {
	n := c.outOfBudget.Add(1)
	if c.sink != nil {
		c.sink.ReportFault("out_of_budget", "")
	}
	_ = n
}

// RecordNotResident counts a rejected operation against a buffer or
// resource that is not yet resident (core.ErrNotResident).
func (c *Counters) RecordNotResident() {
	n := c.notResident.Add(1)
	if c.sink != nil {
		c.sink.ReportFault("not_resident", "")
	}
	_ = n
}

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	NonFiniteResets  uint64
	BufferMisses     uint64
	DeadlineOverruns uint64
	OutOfBudget      uint64
	NotResident      uint64
}

// Snapshot reads all counters without resetting them.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		NonFiniteResets:  c.nonFiniteResets.Load(),
		BufferMisses:     c.bufferMisses.Load(),
		DeadlineOverruns: c.deadlineOverruns.Load(),
		OutOfBudget:      c.outOfBudget.Load(),
		NotResident:      c.notResident.Load(),
	}
}
