// Package transport converts wall-clock block time into musical time and
// exposes the play/pause/stop/seek state machine the scheduler runs
// against.
package transport

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sndcore/dawengine/pkg/core"
)

// Exported aliases keep call sites reading "transport.ErrInvalidArgument"
// while sharing the one taxonomy defined in pkg/core.
var (
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrRejected        = core.ErrRejected
)

// State is the transport's playback state.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// ticksPerQuarter is the musical-time resolution; 960 gives sub-32nd-note
// triplet accuracy without outgrowing int64 over long sessions.
const ticksPerQuarter = 960

// Transport owns musical position, tempo, and the play/pause/stop/seek
// state machine. Position and state are read by the audio thread every
// block and written only through its own methods, so both live behind
// atomics rather than a mutex the audio thread could block on.
type Transport struct {
	state        atomic.Int32
	bpm          atomic.Uint64 // math.Float64bits
	positionTick atomic.Int64
}

// New creates a stopped transport at the given starting tempo.
func New(bpm float64) *Transport {
	t := &Transport{}
	t.bpm.Store(floatBits(bpm))
	return t
}

// TicksPerQuarter is the fixed musical-time resolution used throughout the
// engine (pattern positions, event start times, loop lengths).
func TicksPerQuarter() int64 { return ticksPerQuarter }

// State returns the current playback state.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// BPM returns the current tempo.
func (t *Transport) BPM() float64 {
	return floatFromBits(t.bpm.Load())
}

// PositionTicks returns the current musical position in ticks.
func (t *Transport) PositionTicks() int64 {
	return t.positionTick.Load()
}

// SetBPM updates tempo; bpm <= 0 is rejected so the scheduler never
// divides by a non-positive tempo.
func (t *Transport) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("transport: invalid bpm %f: %w", bpm, ErrInvalidArgument)
	}
	t.bpm.Store(floatBits(bpm))
	return nil
}

// Play transitions Stopped/Paused -> Playing. It is a no-op if already
// playing.
func (t *Transport) Play() {
	for {
		cur := State(t.state.Load())
		if cur == Playing {
			return
		}
		if t.state.CompareAndSwap(int32(cur), int32(Playing)) {
			return
		}
	}
}

// Pause transitions Playing -> Paused without resetting position or
// voices; a subsequent Play resumes from the same tick.
func (t *Transport) Pause() {
	t.state.CompareAndSwap(int32(Playing), int32(Paused))
}

// Stop forces Playing/Paused -> Stopped and resets musical position to 0.
// Callers are responsible for releasing all voices (§4.2/§5) before or
// after calling Stop; the transport itself only owns position and state.
func (t *Transport) Stop() {
	t.state.Store(int32(Stopped))
	t.positionTick.Store(0)
}

// Seek moves the musical position. Only legal while Paused or Stopped.
func (t *Transport) Seek(ticks int64) error {
	switch State(t.state.Load()) {
	case Paused, Stopped:
		if ticks < 0 {
			ticks = 0
		}
		t.positionTick.Store(ticks)
		return nil
	default:
		return fmt.Errorf("transport: seek while %s: %w", t.State(), ErrRejected)
	}
}

// AdvanceTicks advances musical position by the given number of ticks and
// returns the window [start, start+delta) that was crossed. It is a no-op
// (returns a zero-length window at the current position) unless Playing.
func (t *Transport) AdvanceTicks(delta int64) (start, end int64) {
	if State(t.state.Load()) != Playing || delta <= 0 {
		p := t.positionTick.Load()
		return p, p
	}
	start = t.positionTick.Load()
	end = start + delta
	t.positionTick.Store(end)
	return start, end
}

// TicksForBlock converts a block's sample count to musical ticks at the
// current tempo and sample rate.
func TicksForBlock(bpm, sampleRate float64, blockSize int) int64 {
	if bpm <= 0 || sampleRate <= 0 {
		return 0
	}
	blockSeconds := float64(blockSize) / sampleRate
	quartersPerSecond := bpm / 60.0
	ticks := blockSeconds * quartersPerSecond * float64(ticksPerQuarter)
	return int64(ticks + 0.5)
}

func floatBits(f float64) uint64     { return math.Float64bits(f) }
func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }
