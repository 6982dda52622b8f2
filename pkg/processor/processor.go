// Package processor defines the DSP processor contract every insert
// effect implements (spec §4.7) and hosts the built-in processors.
package processor

import "github.com/sndcore/dawengine/pkg/engine"

// Processor is the contract every insert effect implements. Process must
// be deterministic given identical inputs and state, must never allocate
// or block, and must produce exactly as many samples as it is given.
type Processor interface {
	// Prepare allocates and resets state for a given sample rate and
	// maximum block size. Idempotent: calling it again re-initializes
	// cleanly without leaking the previous allocation.
	Prepare(sampleRate float64, maxBlockSize int)

	// Reset flushes filter memory and buffers to silence without
	// releasing the allocations Prepare made.
	Reset()

	// SetParameter applies an already-validated parameter value. Called
	// only from the audio thread, after the Parameter Controller flush.
	SetParameter(id uint32, value float64)

	// Process runs one block. sidechain is nil unless the effect declared
	// a sidechain input and the mixer resolved one for it. input and
	// output may alias the same underlying buffer (in-place processing).
	Process(ctx *engine.BlockContext, input, sidechain, output [][]float32)

	// LatencySamples reports the effect's look-ahead/delay-compensation
	// contribution in samples (spec §4.7: "mixer accumulates and, at the
	// Master, applies inverse delay to the dry path").
	LatencySamples() int
}

// clip64 defensively clips a value to the engine's numeric convention
// (spec §4.7: "values outside [-64, +64] are clipped defensively").
func clip64(v float32) float32 {
	const limit = 64.0
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// flushDenormal zeroes values too small to matter, avoiding the CPU
// penalty denormalized floats cause in tight IIR feedback loops.
func flushDenormal(v float32) float32 {
	const denormalFloor = 1e-15
	if v > -denormalFloor && v < denormalFloor {
		return 0
	}
	return v
}
