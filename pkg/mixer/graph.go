package mixer

import (
	"fmt"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/engine"
)

// Graph owns the full set of mixer channels and renders them in
// topological order each block (spec §4.6).
type Graph struct {
	channels map[core.ID]*Channel
	masterID core.ID

	order      []core.ID
	orderStale bool

	guard *engine.Guard

	numChannels int
	blockSize   int
}

// NewGraph creates an empty graph with a singleton Master channel (spec
// §3 invariant: "exactly one Master").
func NewGraph() *Graph {
	g := &Graph{channels: make(map[core.ID]*Channel), orderStale: true}
	master := NewChannel(core.NewID(), "Master", Master)
	g.channels[master.ID] = master
	g.masterID = master.ID
	return g
}

// MasterID returns the ID of the singleton Master channel.
func (g *Graph) MasterID() core.ID { return g.masterID }

// AddChannel registers a new Track or Bus channel and marks the cached
// topology stale.
func (g *Graph) AddChannel(ch *Channel) {
	g.channels[ch.ID] = ch
	g.orderStale = true
}

// RemoveChannel removes a non-Master channel and every send/sidechain
// reference to it from the rest of the graph.
func (g *Graph) RemoveChannel(id core.ID) error {
	ch, ok := g.channels[id]
	if !ok {
		return fmt.Errorf("mixer: unknown channel %q: %w", id, core.ErrUnknownEntity)
	}
	if ch.Variant == Master {
		return fmt.Errorf("mixer: cannot remove Master: %w", core.ErrRejected)
	}
	delete(g.channels, id)
	for _, other := range g.channels {
		kept := other.Sends[:0]
		for _, s := range other.Sends {
			if s.TargetID != id {
				kept = append(kept, s)
			}
		}
		other.Sends = kept
		for _, ins := range other.Inserts {
			if ins.SidechainID == id {
				ins.SidechainID = ""
			}
		}
	}
	g.orderStale = true
	return nil
}

// Channel looks up a channel by ID.
func (g *Graph) Channel(id core.ID) (*Channel, bool) {
	ch, ok := g.channels[id]
	return ch, ok
}

// AllChannelIDs returns every channel ID currently in the graph,
// including Master, in no particular order.
func (g *Graph) AllChannelIDs() []core.ID {
	ids := make([]core.ID, 0, len(g.channels))
	for id := range g.channels {
		ids = append(ids, id)
	}
	return ids
}

// hasSoloedChannel reports whether any Track/Bus channel is soloed (spec:
// "Solo is a view over mute, not a mutation of mute").
func (g *Graph) hasSoloedChannel() bool {
	for _, ch := range g.channels {
		if ch.Solo {
			return true
		}
	}
	return false
}

// effectiveMute reports whether a channel should contribute silence this
// block, combining its own mute flag with solo-as-view-over-mute.
func (g *Graph) effectiveMute(ch *Channel) bool {
	if ch.Mute {
		return true
	}
	if ch.Variant == Master {
		return false
	}
	if g.hasSoloedChannel() && !ch.Solo {
		return true
	}
	return false
}

// recomputeOrder rebuilds the cached topological order over channels ∪
// sends ∪ sidechain edges (spec §4.6 step 1). Returns ErrCyclic if the
// edge set is not a DAG.
func (g *Graph) recomputeOrder() error {
	visited := make(map[core.ID]int) // 0=unvisited 1=visiting 2=done
	var order []core.ID

	var visit func(id core.ID) error
	visit = func(id core.ID) error {
		switch visited[id] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("mixer: cycle detected at %q: %w", id, core.ErrCyclic)
		}
		visited[id] = 1
		ch := g.channels[id]
		if ch != nil {
			for _, s := range ch.Sends {
				if err := visit(s.TargetID); err != nil {
					return err
				}
			}
			for _, ins := range ch.Inserts {
				if !ins.SidechainID.Empty() {
					if ins.SidechainID == id {
						return fmt.Errorf("mixer: self-sidechain on %q: %w", id, core.ErrCyclic)
					}
					if err := visit(ins.SidechainID); err != nil {
						return err
					}
				}
			}
		}
		visited[id] = 2
		order = append(order, id)
		return nil
	}

	for id := range g.channels {
		if err := visit(id); err != nil {
			return err
		}
	}

	// visit appends a channel only after everything it depends on; reverse
	// to get upstream-to-downstream render order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	g.order = order
	g.orderStale = false
	return nil
}

// ValidateTopology recomputes the cached order if stale and returns
// ErrCyclic if the current edge set is not a DAG (used by the command
// surface to reject an edit before applying it).
func (g *Graph) ValidateTopology() error {
	if !g.orderStale {
		return nil
	}
	return g.recomputeOrder()
}

// Prepare sizes every channel's internal buffers for the engine's channel
// count and block size.
func (g *Graph) Prepare(numChannels, blockSize int, guard *engine.Guard) {
	g.numChannels = numChannels
	g.blockSize = blockSize
	g.guard = guard
	for _, ch := range g.channels {
		ch.ensureBuffers(numChannels, blockSize)
	}
}

// Render runs the full per-block mixer algorithm (spec §4.6 step 2-3):
// recompute order if stale, clear accumulators, feed track sources in,
// then for each channel in topological order apply gain/pan, run
// inserts, and distribute to send targets. trackSources supplies each
// Track channel's instrument buffer for this block (e.g. from the voice
// manager / sample engine).
func (g *Graph) Render(ctx *engine.BlockContext, trackSources func(core.ID) [][]float32) ([][]float32, error) {
	if g.orderStale {
		if err := g.recomputeOrder(); err != nil {
			return nil, err
		}
	}

	for _, ch := range g.channels {
		ch.clearSum()
	}

	for _, id := range g.order {
		ch := g.channels[id]
		if ch.Variant == Track && trackSources != nil {
			if src := trackSources(id); src != nil {
				ch.accumulate(src, 1.0)
			}
		}
		if g.effectiveMute(ch) {
			ch.applyGainPan()
			for c := range ch.buffer {
				for i := range ch.buffer[c] {
					ch.buffer[c][i] = 0
				}
			}
		} else {
			ch.applyGainPan()
			ch.RunInserts(ctx, g.guard, func(id core.ID) [][]float32 {
				if src, ok := g.channels[id]; ok {
					return src.PostInsertSignal()
				}
				return nil
			})
		}

		for _, s := range ch.Sends {
			target, ok := g.channels[s.TargetID]
			if !ok {
				continue
			}
			target.accumulate(ch.PostInsertSignal(), s.linearGain)
		}
	}

	master := g.channels[g.masterID]
	return master.PostInsertSignal(), nil
}
