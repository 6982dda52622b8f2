package core

import "github.com/google/uuid"

// ID is a stable identifier for buffers, instruments, voices, mixer
// channels, and insert effects (spec §3: every entity in the data model
// carries "a stable ID"). It is a plain string so it can be used as a map
// key and round-tripped through the command surface without a codec.
type ID string

// NewID mints a fresh random ID. Called only on the control thread (at
// registration time); the audio thread only ever reads IDs that already
// exist.
func NewID() ID {
	return ID(uuid.NewString())
}

// Empty reports whether the ID is the zero value.
func (id ID) Empty() bool {
	return id == ""
}
