package mixer

import (
	"fmt"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/dsp"
	"github.com/sndcore/dawengine/pkg/dsp/pan"
	"github.com/sndcore/dawengine/pkg/engine"
	"github.com/sndcore/dawengine/pkg/processor"
)

// Variant is the role a Channel plays in the graph (spec §3 "Mixer Channel").
type Variant int

const (
	Track Variant = iota
	BusChannel
	Master
)

func (v Variant) String() string {
	switch v {
	case Track:
		return "Track"
	case BusChannel:
		return "Bus"
	default:
		return "Master"
	}
}

// Send routes a channel's post-insert signal to a target Bus/Master
// channel at a configurable level, pre- or post-insert.
type Send struct {
	TargetID core.ID
	LevelDB  float64
	PreFade  bool

	linearGain float64 // cached dB->linear; recomputed only when LevelDB changes
}

func (s *Send) cacheGain() {
	s.linearGain = dbToLinear(s.LevelDB)
}

// InsertEffect is one entry in a channel's ordered processing chain (spec
// §3 "Insert Effect").
type InsertEffect struct {
	ID          core.ID
	Processor   processor.Processor
	Bypass      bool
	WetDry      float64 // [0,1], 1 = fully wet
	SidechainID core.ID // empty = no sidechain
}

// Channel is one node in the mixer DAG.
type Channel struct {
	ID      core.ID
	Name    string
	Variant Variant

	Gain float64 // linear
	Pan  float64 // [-1,+1]
	Mute bool
	Solo bool

	Inserts []*InsertEffect
	Sends   []*Send

	buffer   [][]float32 // post-insert signal, cached for sends + sidechain taps
	sumInput [][]float32 // per-block accumulation buffer for Bus/Master
}

// NewChannel creates a channel with unity gain, centered pan, and an empty
// insert chain.
func NewChannel(id core.ID, name string, variant Variant) *Channel {
	return &Channel{
		ID:      id,
		Name:    name,
		Variant: variant,
		Gain:    1.0,
	}
}

// AddSend appends a send to a target channel, caching its dB->linear gain.
func (c *Channel) AddSend(targetID core.ID, levelDB float64, preFade bool) *Send {
	s := &Send{TargetID: targetID, LevelDB: levelDB, PreFade: preFade}
	s.cacheGain()
	c.Sends = append(c.Sends, s)
	return s
}

// SetSendLevel updates a send's level and its cached linear gain.
func (c *Channel) SetSendLevel(targetID core.ID, levelDB float64) error {
	for _, s := range c.Sends {
		if s.TargetID == targetID {
			s.LevelDB = levelDB
			s.cacheGain()
			return nil
		}
	}
	return fmt.Errorf("mixer: no send to %q on channel %q: %w", targetID, c.ID, core.ErrUnknownEntity)
}

// AddInsert appends an insert effect to the end of the chain.
func (c *Channel) AddInsert(ins *InsertEffect) {
	c.Inserts = append(c.Inserts, ins)
}

// RemoveInsert removes an insert effect by ID.
func (c *Channel) RemoveInsert(id core.ID) {
	for i, ins := range c.Inserts {
		if ins.ID == id {
			c.Inserts = append(c.Inserts[:i], c.Inserts[i+1:]...)
			return
		}
	}
}

// ensureBuffers sizes the channel's internal buffers to (channels, blockSize).
func (c *Channel) ensureBuffers(numChannels, blockSize int) {
	if len(c.buffer) != numChannels || (len(c.buffer) > 0 && len(c.buffer[0]) != blockSize) {
		c.buffer = make([][]float32, numChannels)
		c.sumInput = make([][]float32, numChannels)
		for ch := 0; ch < numChannels; ch++ {
			c.buffer[ch] = make([]float32, blockSize)
			c.sumInput[ch] = make([]float32, blockSize)
		}
	}
}

// clearSum zeros the channel's per-block accumulation buffer (used by
// Bus/Master before summing inbound sends/tracks).
func (c *Channel) clearSum() {
	for ch := range c.sumInput {
		dsp.Clear(c.sumInput[ch])
	}
}

// accumulate adds src into the channel's summation buffer (equal-index
// channel mapping; mono sources are duplicated to both sides by the
// caller before calling this).
func (c *Channel) accumulate(src [][]float32, gain float64) {
	for ch := range c.sumInput {
		if ch >= len(src) {
			continue
		}
		dsp.AddScaled(c.sumInput[ch], src[ch], float32(gain))
	}
}

// applyGainPan scales the summed input by gain and equal-power pans it
// into the channel's post-insert buffer, ready for the insert chain.
func (c *Channel) applyGainPan() {
	left32, right32 := pan.MonoToStereo(float32(c.Pan), pan.ConstantPower)
	left, right := float64(left32), float64(right32)
	for i := range c.buffer[0] {
		c.buffer[0][i] = c.sumInput[0][i] * float32(c.Gain*left)
	}
	if len(c.buffer) > 1 {
		rightSrc := c.sumInput[0]
		if len(c.sumInput) > 1 {
			rightSrc = c.sumInput[1]
		}
		for i := range c.buffer[1] {
			c.buffer[1][i] = rightSrc[i] * float32(c.Gain*right)
		}
	}
}

// dbToLinear converts a decibel level to a linear amplitude multiplier.
func dbToLinear(db float64) float64 {
	return fastPow10(db / 20.0)
}

// fastPow10 computes 10^x via 2^(x*log2(10)) using the engine-wide Taylor
// approximation convention (no math.Pow on the control/audio path).
func fastPow10(x float64) float64 {
	const log2_10 = 3.321928094887362
	y := x * log2_10
	whole := int64(y)
	frac := y - float64(whole)
	if frac < 0 {
		frac++
		whole--
	}
	fracPow := 1.0 + frac*(0.693147+frac*(0.240227+frac*0.055504))
	if whole >= 0 {
		return float64(uint64(1)<<uint(whole)) * fracPow
	}
	return fracPow / float64(uint64(1)<<uint(-whole))
}

// RunInserts processes the channel's post-gain/pan buffer through its
// insert chain in order. sidechainLookup resolves a declared sidechain
// channel ID to that channel's current post-insert buffer.
func (c *Channel) RunInserts(ctx *engine.BlockContext, guard *engine.Guard, sidechainLookup func(core.ID) [][]float32) {
	for _, ins := range c.Inserts {
		if ins.Bypass {
			continue
		}
		var sidechain [][]float32
		if !ins.SidechainID.Empty() && sidechainLookup != nil {
			sidechain = sidechainLookup(ins.SidechainID)
		}
		ins.Processor.Process(ctx, c.buffer, sidechain, c.buffer)
		if guard != nil {
			guard.Check(string(ins.ID), c.buffer)
		}
	}
}

// PostInsertSignal returns the channel's current post-insert buffer (the
// signal sends and sidechain taps read from).
func (c *Channel) PostInsertSignal() [][]float32 {
	return c.buffer
}
