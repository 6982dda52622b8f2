package score

import "sort"

// Queue accumulates resolved events for the current block and keeps them
// sorted by sample offset (note-offs before note-ons at equal offsets).
// It is reused block-to-block by the scheduler to avoid allocating a new
// slice every call.
type Queue struct {
	events []Resolved
	sorted bool
}

// NewQueue creates an empty queue with room for a typical block's events.
func NewQueue() *Queue {
	return &Queue{events: make([]Resolved, 0, 32), sorted: true}
}

// Add appends one resolved event; the queue is re-sorted lazily on read.
func (q *Queue) Add(e Resolved) {
	q.events = append(q.events, e)
	q.sorted = false
}

// Reset empties the queue for reuse in the next block, keeping capacity.
func (q *Queue) Reset() {
	q.events = q.events[:0]
	q.sorted = true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Sorted returns the queue's events ordered per Less. The returned slice
// aliases internal storage and is only valid until the next Add or Reset.
func (q *Queue) Sorted() []Resolved {
	if !q.sorted {
		sort.SliceStable(q.events, func(i, j int) bool {
			return Less(q.events[i], q.events[j])
		})
		q.sorted = true
	}
	return q.events
}
