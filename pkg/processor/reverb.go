package processor

import (
	"github.com/sndcore/dawengine/pkg/dsp/reverb"
	"github.com/sndcore/dawengine/pkg/engine"
)

// ReverbAlgorithm selects the reverb character preset.
type ReverbAlgorithm int

const (
	ReverbRoom ReverbAlgorithm = iota
	ReverbHall
	ReverbPlate
	ReverbSpring
	ReverbChamber
)

// Reverb parameter IDs.
const (
	ReverbParamAlgorithm uint32 = iota
	ReverbParamRoomSize
	ReverbParamDamping
	ReverbParamWidth
	ReverbParamWetLevel
	ReverbParamDryLevel
)

// Reverb wraps the teacher's Freeverb implementation behind an
// algorithm-select front end (spec §4.7 built-in processor: "Reverb",
// algorithms {room, hall, plate, spring, chamber}). Plate, spring, and
// chamber reuse Freeverb's comb/allpass network with tighter
// damping/room-size presets, since the teacher ships only one reverb
// engine.
type Reverb struct {
	fv *reverb.Freeverb

	algorithm ReverbAlgorithm
}

func NewReverb() *Reverb {
	return &Reverb{algorithm: ReverbHall}
}

func (r *Reverb) Prepare(sampleRate float64, maxBlockSize int) {
	r.fv = reverb.NewFreeverb(sampleRate)
	r.applyAlgorithm()
}

func (r *Reverb) Reset() {
	r.fv.Reset()
}

func (r *Reverb) applyAlgorithm() {
	switch r.algorithm {
	case ReverbRoom:
		r.fv.SetPresetSmallRoom()
	case ReverbHall:
		r.fv.SetPresetMediumHall()
	case ReverbPlate:
		r.fv.SetRoomSize(0.5)
		r.fv.SetDamping(0.1)
		r.fv.SetWidth(1.0)
	case ReverbSpring:
		r.fv.SetRoomSize(0.3)
		r.fv.SetDamping(0.6)
		r.fv.SetWidth(0.6)
	case ReverbChamber:
		r.fv.SetPresetLargeHall()
		r.fv.SetDamping(0.4)
	}
}

func (r *Reverb) SetParameter(id uint32, value float64) {
	switch id {
	case ReverbParamAlgorithm:
		r.algorithm = ReverbAlgorithm(int(value))
		r.applyAlgorithm()
	case ReverbParamRoomSize:
		r.fv.SetRoomSize(value)
	case ReverbParamDamping:
		r.fv.SetDamping(value)
	case ReverbParamWidth:
		r.fv.SetWidth(value)
	case ReverbParamWetLevel:
		r.fv.SetWetLevel(value)
	case ReverbParamDryLevel:
		r.fv.SetDryLevel(value)
	}
}

func (r *Reverb) Process(ctx *engine.BlockContext, input, sidechain, output [][]float32) {
	n := 0
	if len(input) > 0 {
		n = len(input[0])
	}
	for i := 0; i < n; i++ {
		inL := input[0][i]
		inR := inL
		if len(input) > 1 {
			inR = input[1][i]
		}
		l, rr := r.fv.ProcessStereo(inL, inR)
		output[0][i] = flushDenormal(clip64(l))
		if len(output) > 1 {
			output[1][i] = flushDenormal(clip64(rr))
		}
	}
}

func (r *Reverb) LatencySamples() int { return 0 }
