package transport

import (
	"github.com/sndcore/dawengine/pkg/score"
)

// Pattern is the set of scheduled events for one instrument, plus an
// optional explicit loop length. When Length is zero the scheduler falls
// back to the longest-instrument convention across all registered
// patterns (spec §9 Open Question: loop length is the longest instrument
// loop unless an explicit pattern length is set).
type Pattern struct {
	InstrumentID score.InstrumentID
	Events       []score.Event
	LengthTicks  int64
}

// Scheduler resolves patterns against the transport's musical position
// into the set of note-on/note-off events that fall within one block
// window, per spec §4.1.
type Scheduler struct {
	transport *Transport
	patterns  map[score.InstrumentID]*Pattern
	order     []score.InstrumentID
}

// NewScheduler creates a scheduler bound to a transport.
func NewScheduler(t *Transport) *Scheduler {
	return &Scheduler{
		transport: t,
		patterns:  make(map[score.InstrumentID]*Pattern),
	}
}

// ReplacePattern installs (or replaces) the pattern for one instrument.
// Replacing a pattern invalidates any events the old one had scheduled;
// the scheduler never mutates an Event in place.
func (s *Scheduler) ReplacePattern(p *Pattern) {
	if _, exists := s.patterns[p.InstrumentID]; !exists {
		s.order = append(s.order, p.InstrumentID)
	}
	s.patterns[p.InstrumentID] = p
}

// ClearPattern removes an instrument's pattern entirely.
func (s *Scheduler) ClearPattern(id score.InstrumentID) {
	delete(s.patterns, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// loopLengthTicks implements the §9 Open Question decision: the longest
// instrument's implicit or explicit length, never zero.
func (s *Scheduler) loopLengthTicks() int64 {
	var longest int64
	for _, p := range s.patterns {
		l := p.LengthTicks
		if l == 0 {
			l = implicitLength(p.Events)
		}
		if l > longest {
			longest = l
		}
	}
	if longest == 0 {
		return TicksPerQuarter() * 4 // one bar of 4/4 as a sane empty-project default
	}
	return longest
}

func implicitLength(events []score.Event) int64 {
	var end int64
	for _, e := range events {
		if t := e.StartTicks + e.DurationTick; t > end {
			end = t
		}
	}
	return end
}

// EventsForBlock resolves all note-on/note-off events intersecting
// [pos, pos+delta) into out, ordered by sample offset then by kind
// (note-offs before note-ons). delta is the block duration expressed in
// ticks (see TicksForBlock). blockSize/sampleRate/bpm convert a tick
// offset within the window back into a sample offset.
//
// On loop wrap-around, pending note-offs for notes whose duration would
// have crossed the loop boundary are emitted at the boundary (the
// non-looping interpretation, per spec §4.1), and scanning resumes from
// position 0 for the remainder of the block.
func (s *Scheduler) EventsForBlock(blockSize int, sampleRate float64, out *score.Queue) {
	out.Reset()
	if s.transport.State() != Playing {
		return
	}
	bpm := s.transport.BPM()
	deltaTicks := TicksForBlock(bpm, sampleRate, blockSize)
	if deltaTicks <= 0 {
		return
	}
	start, _ := s.transport.AdvanceTicks(deltaTicks)
	loopLen := s.loopLengthTicks()

	samplesPerTick := float64(blockSize) / float64(deltaTicks)
	toSampleOffset := func(ticksIntoBlock int64) int {
		off := int(float64(ticksIntoBlock)*samplesPerTick + 0.5)
		if off < 0 {
			off = 0
		}
		if off >= blockSize {
			off = blockSize - 1
		}
		return off
	}

	remaining := deltaTicks
	pos := start % max64(loopLen, 1)
	consumedTicks := int64(0)
	for remaining > 0 {
		windowEnd := pos + remaining
		wrapped := windowEnd > loopLen
		if wrapped {
			windowEnd = loopLen
		}
		s.resolveWindow(pos, windowEnd, consumedTicks, toSampleOffset, out)
		advanced := windowEnd - pos
		remaining -= advanced
		consumedTicks += advanced
		if wrapped {
			pos = 0
		} else {
			pos = windowEnd
		}
	}
}

func (s *Scheduler) resolveWindow(winStart, winEnd, ticksIntoBlockBase int64, toSampleOffset func(int64) int, out *score.Queue) {
	atLoopEnd := winEnd == s.loopLengthTicks()
	for _, id := range s.order {
		p := s.patterns[id]
		if p == nil {
			continue
		}
		for _, e := range p.Events {
			if e.StartTicks >= winStart && e.StartTicks < winEnd {
				off := toSampleOffset(ticksIntoBlockBase + (e.StartTicks - winStart))
				out.Add(score.Resolved{Event: e, Kind: score.NoteOn, SampleOffset: off})
			}
			noteOffTick := e.StartTicks + e.DurationTick
			switch {
			case e.DurationTick > 0 && noteOffTick >= winStart && noteOffTick < winEnd:
				off := toSampleOffset(ticksIntoBlockBase + (noteOffTick - winStart))
				out.Add(score.Resolved{Event: e, Kind: score.NoteOff, SampleOffset: off})
			case atLoopEnd && e.DurationTick > 0 && e.StartTicks < winEnd && noteOffTick > winEnd:
				// Non-looping interpretation: a note whose duration would
				// cross the loop boundary gets its note-off forced here
				// instead of being carried into the re-seeded next pass.
				off := toSampleOffset(ticksIntoBlockBase + (winEnd - winStart))
				out.Add(score.Resolved{Event: e, Kind: score.NoteOff, SampleOffset: off})
			}
		}
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
