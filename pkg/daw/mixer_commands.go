package daw

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/mixer"
	"github.com/sndcore/dawengine/pkg/paramctl"
	"github.com/sndcore/dawengine/pkg/processor"
)

// AddChannel creates a new Track or Bus channel (spec §6
// "mixer.add_channel(variant, name)"). Structural: deferred to the next
// block's safe point so the audio thread never observes a half-wired
// graph.
func (e *Engine) AddChannel(name string, variant mixer.Variant) (core.ID, core.Result) {
	id := core.NewID()
	e.queueOp(func(eng *Engine) {
		ch := mixer.NewChannel(id, name, variant)
		eng.mixerGraph.AddChannel(ch)
		eng.mixerGraph.Prepare(2, eng.maxBlockSize, eng.guard)
	})
	return id, core.DeferredResult(string(id))
}

// RemoveChannel deletes a Track/Bus channel and every send/sidechain
// edge referencing it (spec §6 "mixer.remove_channel(id)"). Rejected
// synchronously if the channel doesn't exist or is Master, since that
// check doesn't need a safe point to evaluate.
func (e *Engine) RemoveChannel(id core.ID) core.Result {
	if _, ok := e.mixerGraph.Channel(id); !ok {
		return core.RejectedResult(fmt.Errorf("daw: unknown channel %q: %w", id, core.ErrUnknownEntity))
	}
	if id == e.mixerGraph.MasterID() {
		return core.RejectedResult(fmt.Errorf("daw: cannot remove Master: %w", core.ErrRejected))
	}
	e.queueOp(func(eng *Engine) {
		if err := eng.mixerGraph.RemoveChannel(id); err != nil {
			return
		}
		eng.insertMu.Lock()
		for insID, st := range eng.inserts {
			if st.channelID == id {
				delete(eng.inserts, insID)
			}
		}
		eng.insertMu.Unlock()
	})
	return core.DeferredResult(string(id))
}

// SetChannelField applies one of the simple per-block-safe field edits
// mixer.set_channel_field covers: gain (linear), pan, mute, solo. Routed
// through the same deferred-op queue as structural edits (this engine's
// uniform simplification over the narrower "only structural edits defer"
// framing — see DESIGN.md).
func (e *Engine) SetChannelField(id core.ID, field string, value float64) core.Result {
	if _, ok := e.mixerGraph.Channel(id); !ok {
		return core.RejectedResult(fmt.Errorf("daw: unknown channel %q: %w", id, core.ErrUnknownEntity))
	}
	e.queueOp(func(eng *Engine) {
		ch, ok := eng.mixerGraph.Channel(id)
		if !ok {
			return
		}
		switch field {
		case "gain":
			ch.Gain = value
		case "pan":
			ch.Pan = value
		case "mute":
			ch.Mute = value != 0
		case "solo":
			ch.Solo = value != 0
		}
	})
	return core.OkResult()
}

// AddSend wires a channel's post- (or pre-) fade signal to a Bus/Master
// target (spec §6 "mixer.add_send(id, target, level_db, pre_fade)").
func (e *Engine) AddSend(id, target core.ID, levelDB float64, preFade bool) core.Result {
	if _, ok := e.mixerGraph.Channel(id); !ok {
		return core.RejectedResult(fmt.Errorf("daw: unknown channel %q: %w", id, core.ErrUnknownEntity))
	}
	if _, ok := e.mixerGraph.Channel(target); !ok {
		return core.RejectedResult(fmt.Errorf("daw: unknown send target %q: %w", target, core.ErrUnknownEntity))
	}
	e.queueOp(func(eng *Engine) {
		ch, ok := eng.mixerGraph.Channel(id)
		if !ok {
			return
		}
		ch.AddSend(target, levelDB, preFade)
		if err := eng.mixerGraph.ValidateTopology(); err != nil {
			// Undo: sends slice doesn't track insertion index once others
			// exist, so drop the most recently added match for target.
			for i := len(ch.Sends) - 1; i >= 0; i-- {
				if ch.Sends[i].TargetID == target {
					ch.Sends = append(ch.Sends[:i], ch.Sends[i+1:]...)
					break
				}
			}
		}
	})
	return core.DeferredResult(string(id))
}

// SetSendLevel updates an existing send's level in dB.
func (e *Engine) SetSendLevel(id, target core.ID, levelDB float64) core.Result {
	ch, ok := e.mixerGraph.Channel(id)
	if !ok {
		return core.RejectedResult(fmt.Errorf("daw: unknown channel %q: %w", id, core.ErrUnknownEntity))
	}
	if err := ch.SetSendLevel(target, levelDB); err != nil {
		return core.RejectedResult(err)
	}
	return core.OkResult()
}

// SetInsert creates, at the given chain index, a fresh insert effect of
// kind on channel id, along with its own scoped parameter controller
// (spec §6 "mixer.set_insert(id, index, spec)"; §4.5: per-instance
// registry, not global). Replaces whatever was previously at that index.
func (e *Engine) SetInsert(channelID core.ID, index int, kind processor.Kind) (core.ID, core.Result) {
	if _, ok := e.mixerGraph.Channel(channelID); !ok {
		return "", core.RejectedResult(fmt.Errorf("daw: unknown channel %q: %w", channelID, core.ErrUnknownEntity))
	}
	proc, reg, ok := processor.New(kind)
	if !ok {
		return "", core.RejectedResult(fmt.Errorf("daw: unknown processor kind %q: %w", kind, core.ErrInvalidArgument))
	}
	insertID := core.NewID()
	e.queueOp(func(eng *Engine) {
		ch, ok := eng.mixerGraph.Channel(channelID)
		if !ok {
			return
		}
		proc.Prepare(eng.sampleRate, eng.maxBlockSize)
		ins := &mixer.InsertEffect{ID: insertID, Processor: proc, WetDry: 1.0}
		if index >= 0 && index < len(ch.Inserts) {
			old := ch.Inserts[index]
			ch.Inserts[index] = ins
			eng.insertMu.Lock()
			delete(eng.inserts, old.ID)
			eng.insertMu.Unlock()
		} else {
			ch.AddInsert(ins)
		}
		ctrl := paramctl.NewController(reg, 64)
		ctrl.Prepare(eng.sampleRate)
		eng.insertMu.Lock()
		eng.inserts[insertID] = &insertState{channelID: channelID, controller: ctrl, registry: reg}
		eng.insertMu.Unlock()
	})
	return insertID, core.DeferredResult(string(insertID))
}

// RemoveInsert removes an insert effect by ID from its channel.
func (e *Engine) RemoveInsert(channelID, insertID core.ID) core.Result {
	e.queueOp(func(eng *Engine) {
		if ch, ok := eng.mixerGraph.Channel(channelID); ok {
			ch.RemoveInsert(insertID)
		}
		eng.insertMu.Lock()
		delete(eng.inserts, insertID)
		eng.insertMu.Unlock()
	})
	return core.DeferredResult(string(insertID))
}

// SetInsertBypass toggles an insert's bypass flag.
func (e *Engine) SetInsertBypass(channelID, insertID core.ID, bypass bool) core.Result {
	e.queueOp(func(eng *Engine) {
		ch, ok := eng.mixerGraph.Channel(channelID)
		if !ok {
			return
		}
		for _, ins := range ch.Inserts {
			if ins.ID == insertID {
				ins.Bypass = bypass
				return
			}
		}
	})
	return core.OkResult()
}

// SetSidechain declares (or clears, with an empty sourceID) the
// sidechain input for an insert. The edit is deferred to the next safe
// point, where it is applied and then validated for acyclicity; a cyclic
// edit is rolled back there rather than committed (spec §6 "mixer.set_
// sidechain" combined with the graph's own cycle-detection guarantee).
// Because the validation itself only runs at that later safe point, this
// call cannot report rejection synchronously — the result is always
// Deferred; a rolled-back edit surfaces only as the sidechain silently
// staying unset.
func (e *Engine) SetSidechain(channelID, insertID, sourceID core.ID) core.Result {
	e.queueOp(func(eng *Engine) {
		ch, ok := eng.mixerGraph.Channel(channelID)
		if !ok {
			return
		}
		var target *mixer.InsertEffect
		for _, ins := range ch.Inserts {
			if ins.ID == insertID {
				target = ins
				break
			}
		}
		if target == nil {
			return
		}
		prev := target.SidechainID
		target.SidechainID = sourceID
		if err := eng.mixerGraph.ValidateTopology(); err != nil {
			target.SidechainID = prev
			log.Warn("sidechain edit rejected, would create a cycle", "channel", channelID, "insert", insertID, "err", err)
		}
	})
	return core.DeferredResult(string(insertID))
}

// flushAllParams drains every insert's parameter controller and applies
// the dirty set to its Processor (spec §4.5: SetParameter is called only
// from the audio thread, after the flush). Runs once per RenderBlock,
// before the mixer graph renders.
func (e *Engine) flushAllParams(blockSize int) {
	e.insertMu.RLock()
	defer e.insertMu.RUnlock()
	for insID, st := range e.inserts {
		st.controller.Flush(blockSize)
		dirty := st.controller.DirtySnapshot()
		if len(dirty) == 0 {
			continue
		}
		ch, ok := e.mixerGraph.Channel(st.channelID)
		if !ok {
			continue
		}
		var proc processor.Processor
		for _, ins := range ch.Inserts {
			if ins.ID == insID {
				proc = ins.Processor
				break
			}
		}
		if proc == nil {
			continue
		}
		for _, id := range dirty {
			p := st.registry.Get(id)
			if p == nil {
				continue
			}
			proc.SetParameter(id, p.GetPlainValue())
		}
	}
}

// SetParameter queues a parameter write on an insert's own controller
// (spec §6 "params.set(target, id, value, ramp_ms)"). This is the only
// command-surface method that does NOT go through the deferred-op queue:
// the Parameter Controller's command ring is itself the safe, lock-free
// path into the audio thread.
func (e *Engine) SetParameter(insertID core.ID, paramID uint32, value float64, ramp paramctl.RampMode, rampMs float64) core.Result {
	e.insertMu.RLock()
	st, ok := e.inserts[insertID]
	e.insertMu.RUnlock()
	if !ok {
		return core.RejectedResult(fmt.Errorf("daw: unknown insert %q: %w", insertID, core.ErrUnknownEntity))
	}
	if !st.controller.SetParameter(paramID, value, ramp, rampMs) {
		return core.RejectedResult(fmt.Errorf("daw: parameter command ring full on insert %q: %w", insertID, core.ErrBusy))
	}
	return core.OkResult()
}
