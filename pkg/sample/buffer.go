// Package sample implements the Sample Engine (spec §4.3): per-note
// rendering from sample-based instruments, backed by a two-level buffer
// cache keyed by Buffer ID.
package sample

import (
	"github.com/sndcore/dawengine/pkg/core"
)

// Buffer is an immutable, shared, decoded PCM sample. Once created it is
// never mutated in place; processed variants live in the Cache's second
// level instead.
type Buffer struct {
	ID         core.ID
	Channels   [][]float32 // one slice per channel, shared across every reader
	SampleRate float64
}

// NumFrames returns the buffer's length in sample frames.
func (b *Buffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// NumChannels returns the buffer's channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// NewBuffer wraps already-decoded PCM data as an immutable original
// buffer, assigning it a fresh stable ID.
func NewBuffer(channels [][]float32, sampleRate float64) *Buffer {
	return &Buffer{ID: core.NewID(), Channels: channels, SampleRate: sampleRate}
}
