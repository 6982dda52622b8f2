// Package score defines the scheduled note events the transport resolves
// each block and the pitch/frequency conversions voices and the sample
// engine need to render them.
package score

import "fmt"

// Kind distinguishes a note-on from a note-off within a resolved event list.
type Kind uint8

const (
	// NoteOff must sort before NoteOn at an identical sample offset so a
	// retrigger silences the old voice before the new one starts.
	NoteOff Kind = iota
	NoteOn
)

func (k Kind) String() string {
	if k == NoteOn {
		return "NoteOn"
	}
	return "NoteOff"
}

// InstrumentID identifies a registered instrument.
type InstrumentID string

// Pitch is a MIDI-style note number (0-127); fractional values express a
// semitone offset for detuned or micro-tonal scheduling.
type Pitch float64

// Event is one scheduled occurrence read from a pattern. It is immutable
// once scheduled; a pattern edit invalidates and replaces the whole set
// rather than mutating an event in place.
type Event struct {
	InstrumentID InstrumentID
	Pitch        Pitch
	Velocity     float64 // [0,1]
	StartTicks   int64   // musical position, in ticks
	DurationTick int64   // musical duration, in ticks; 0 for untimed note-offs
	Params       map[string]float64
}

// Resolved is one event placed within the current block window by the
// scheduler, carrying its sub-block sample offset and on/off kind.
type Resolved struct {
	Event        Event
	Kind         Kind
	SampleOffset int // [0, block size)
}

func (r Resolved) String() string {
	return fmt.Sprintf("%s{instrument:%s pitch:%.2f vel:%.2f offset:%d}",
		r.Kind, r.Event.InstrumentID, r.Event.Pitch, r.Event.Velocity, r.SampleOffset)
}

// Less orders resolved events by sample offset, then note-offs before
// note-ons at identical offsets, per the transport's retrigger guarantee.
func Less(a, b Resolved) bool {
	if a.SampleOffset != b.SampleOffset {
		return a.SampleOffset < b.SampleOffset
	}
	return a.Kind < b.Kind
}

const defaultTuningA4 = 440.0

// PitchToFrequency converts a MIDI-style note number to Hz using equal
// temperament tuned to tuningA4 (440 Hz when zero).
func PitchToFrequency(pitch Pitch, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = defaultTuningA4
	}
	return tuningA4 * exp2((float64(pitch)-69.0)/12.0)
}

// FrequencyToPitch is the inverse of PitchToFrequency, clamped to [0,127].
func FrequencyToPitch(freqHz, tuningA4 float64) Pitch {
	if tuningA4 == 0 {
		tuningA4 = defaultTuningA4
	}
	note := 69.0 + 12.0*log2(freqHz/tuningA4)
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return Pitch(note)
}

// exp2 avoids a dependency on math.Pow for the hot pitch/frequency path;
// the Taylor term keeps error well under a cent across one octave.
func exp2(x float64) float64 {
	if x < 0 {
		return 1.0 / exp2(-x)
	}
	whole := int(x)
	frac := x - float64(whole)
	fracPow := 1.0 + frac*(0.693147+frac*(0.240227+frac*0.055504))
	return float64(uint64(1)<<uint(whole)) * fracPow
}

func log2(x float64) float64 {
	if x <= 0 {
		return -1000.0
	}
	exp := 0
	for x >= 2.0 {
		x /= 2.0
		exp++
	}
	for x < 1.0 {
		x *= 2.0
		exp--
	}
	t := x - 1.0
	frac := t * (1.4427 - t*(0.7213-t*0.4821))
	return float64(exp) + frac
}

// NoteName renders a MIDI-style note number as e.g. "C#4".
func NoteName(pitch Pitch) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	n := int(pitch + 0.5)
	octave := n/12 - 1
	return fmt.Sprintf("%s%d", names[((n%12)+12)%12], octave)
}
