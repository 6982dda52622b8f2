package paramctl

import (
	"sync"
	"time"
)

// AutoFlushInterval is the control-thread batching window spec §4.5
// requires ("parameter writes are batched and flushed to the audio
// thread at least every ~16ms, independent of block size").
const AutoFlushInterval = 16 * time.Millisecond

// TimelineEvent is one recorded automation write, captured with the
// sample position it was applied at.
type TimelineEvent struct {
	SamplePos int64
	ParamID   uint32
	Value     float64
}

// Controller is the audio-thread-facing front end over a CommandRing: it
// owns one Smoother per registered parameter, tracks which parameters
// changed since the last drain (the "dirty set" control-thread readers
// poll to know what to redraw), and optionally records an automation
// timeline.
type Controller struct {
	registry   *Registry
	ring       *CommandRing
	sampleRate float64

	smoothers map[uint32]*Smoother

	dirtyMu sync.Mutex
	dirty   map[uint32]struct{}

	samplePos int64

	recordMu sync.Mutex
	recording bool
	timeline  []TimelineEvent
}

// NewController builds a controller over registry with a command ring
// sized for size pending writes.
func NewController(registry *Registry, size int) *Controller {
	c := &Controller{
		registry:  registry,
		ring:      NewCommandRing(size),
		smoothers: make(map[uint32]*Smoother),
		dirty:     make(map[uint32]struct{}),
	}
	for _, p := range registry.All() {
		c.smoothers[p.ID] = NewSmoother(LinearSmoothing, 1)
	}
	return c
}

// Prepare records the engine sample rate used to convert a ramp
// duration in milliseconds into a smoother step rate.
func (c *Controller) Prepare(sampleRate float64) {
	c.sampleRate = sampleRate
}

// SetParameter queues a plain-value parameter write from the control
// thread. Returns false if the command ring is full.
func (c *Controller) SetParameter(id uint32, value float64, ramp RampMode, rampMs float64) bool {
	return c.ring.Push(Command{ParamID: id, Value: value, Ramp: ramp, RampMs: rampMs})
}

// SetParameters queues a batch of writes, returning the number accepted.
func (c *Controller) SetParameters(cmds []Command) int {
	accepted := 0
	for _, cmd := range cmds {
		if c.ring.Push(cmd) {
			accepted++
		}
	}
	return accepted
}

// Flush drains the command ring and applies every queued write: it
// replaces each touched parameter's smoother target (cancelling any
// ramp in progress, per spec's "new write replaces the in-flight ramp"
// semantics), advances every smoother across the block, writes the
// result back into the registry, and marks the parameter dirty. Called
// once per audio block. Never blocks; never allocates beyond recording
// the optional automation timeline.
func (c *Controller) Flush(blockSize int) int {
	applied := c.ring.Drain(func(cmd Command) {
		param := c.registry.Get(cmd.ParamID)
		if param == nil {
			return
		}
		smoother := c.smootherFor(cmd.ParamID)
		rate := rampRate(cmd.Ramp, cmd.RampMs, c.sampleRate)
		smoother.smoothingType = rampToSmoothingType(cmd.Ramp)
		smoother.rate = rate
		smoother.SetTarget(param.Normalize(cmd.Value))
		c.markDirty(cmd.ParamID)
	})

	for id, smoother := range c.smoothers {
		param := c.registry.Get(id)
		if param == nil || !smoother.IsSmoothing() {
			continue
		}
		var last float64
		for i := 0; i < blockSize; i++ {
			last = smoother.Next()
		}
		param.SetValue(last)
	}

	c.samplePos += int64(blockSize)

	c.recordMu.Lock()
	recording := c.recording
	c.recordMu.Unlock()
	if recording && applied > 0 {
		c.recordApplied()
	}

	return applied
}

func (c *Controller) smootherFor(id uint32) *Smoother {
	s, ok := c.smoothers[id]
	if !ok {
		s = NewSmoother(LinearSmoothing, 1)
		c.smoothers[id] = s
	}
	return s
}

func rampRate(mode RampMode, rampMs float64, sampleRate float64) float64 {
	if mode == RampNone || rampMs <= 0 || sampleRate <= 0 {
		return 1
	}
	return rampMs * sampleRate / 1000.0
}

func rampToSmoothingType(mode RampMode) SmoothingType {
	if mode == RampExponential {
		return ExponentialSmoothing
	}
	return LinearSmoothing
}

func (c *Controller) markDirty(id uint32) {
	c.dirtyMu.Lock()
	c.dirty[id] = struct{}{}
	c.dirtyMu.Unlock()
}

// DirtySnapshot returns and clears the set of parameter IDs touched
// since the last call. Safe to call from the control thread at any
// rate; briefly locks a mutex shared only with markDirty, never with the
// ring itself.
func (c *Controller) DirtySnapshot() []uint32 {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	ids := make([]uint32, 0, len(c.dirty))
	for id := range c.dirty {
		ids = append(ids, id)
		delete(c.dirty, id)
	}
	return ids
}

// SetRecording enables or disables automation timeline capture.
func (c *Controller) SetRecording(enabled bool) {
	c.recordMu.Lock()
	c.recording = enabled
	if enabled {
		c.timeline = c.timeline[:0]
	}
	c.recordMu.Unlock()
}

// recordApplied appends the current sample position and every
// registry value to the timeline. Coarse (one entry per parameter per
// flush that had at least one write) rather than per-command, which is
// enough to reconstruct the automation curve at block resolution.
func (c *Controller) recordApplied() {
	c.recordMu.Lock()
	defer c.recordMu.Unlock()
	for _, p := range c.registry.All() {
		c.timeline = append(c.timeline, TimelineEvent{
			SamplePos: c.samplePos,
			ParamID:   p.ID,
			Value:     p.GetPlainValue(),
		})
	}
}

// Timeline returns a copy of the recorded automation events.
func (c *Controller) Timeline() []TimelineEvent {
	c.recordMu.Lock()
	defer c.recordMu.Unlock()
	out := make([]TimelineEvent, len(c.timeline))
	copy(out, c.timeline)
	return out
}
