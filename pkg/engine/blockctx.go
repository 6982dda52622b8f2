// Package engine wires the per-block processing context every DSP
// processor and mixer channel runs against, plus the engine's
// non-finite-state guard (spec §4.7, §7).
package engine

import (
	"github.com/sndcore/dawengine/pkg/paramctl"
)

// BlockContext is the zero-allocation view into one block's audio and
// parameter state that every Processor.Process call receives.
type BlockContext struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	// Pre-allocated work buffers, reused across blocks so the audio thread
	// never allocates mid-block.
	workBuffer []float32
	tempBuffer []float32

	params *paramctl.Registry
}

// NewBlockContext creates a block context with pre-allocated buffers sized
// to the engine's maximum block size.
func NewBlockContext(maxBlockSize int, params *paramctl.Registry) *BlockContext {
	return &BlockContext{
		workBuffer: make([]float32, maxBlockSize),
		tempBuffer: make([]float32, maxBlockSize),
		params:     params,
	}
}

// Param returns the current normalized [0,1] value of a parameter.
func (c *BlockContext) Param(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain (engineering-unit) value of a parameter.
func (c *BlockContext) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// NumSamples returns the number of samples in the current block.
func (c *BlockContext) NumSamples() int {
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels.
func (c *BlockContext) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels.
func (c *BlockContext) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns a slice of the pre-allocated work buffer sized to the
// current block size.
func (c *BlockContext) WorkBuffer() []float32 {
	return c.workBuffer[:c.NumSamples()]
}

// TempBuffer returns a slice of the pre-allocated temp buffer sized to the
// current block size.
func (c *BlockContext) TempBuffer() []float32 {
	return c.tempBuffer[:c.NumSamples()]
}

// PassThrough copies input to output (used by a bypassed insert effect).
func (c *BlockContext) PassThrough() {
	numChannels := c.NumInputChannels()
	if c.NumOutputChannels() < numChannels {
		numChannels = c.NumOutputChannels()
	}
	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers.
func (c *BlockContext) Clear() {
	for ch := range c.Output {
		for i := range c.Output[ch] {
			c.Output[ch][i] = 0
		}
	}
}

// SetParameterAtOffset applies a parameter change mid-block. Sample-offset
// accuracy within the block is handled by the caller splitting Process
// into sub-ranges around each offset; this call itself applies immediately.
func (c *BlockContext) SetParameterAtOffset(paramID uint32, value float64, sampleOffset int) {
	if p := c.params.Get(paramID); p != nil {
		p.SetValue(value)
	}
}
