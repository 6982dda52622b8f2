package daw

import (
	"fmt"

	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/modulation"
	"github.com/sndcore/dawengine/pkg/paramctl"
)

// tickModulation advances the router one control tick and writes its
// resolved values into every mapped insert parameter (spec §4.4: "the
// router publishes per-destination values at least once per block;
// parameters read the latest value via zero-order hold"). The router's
// destination space is global uint32 IDs the engine itself mints at
// AddModulationSlot time, translated back here to (insert, paramID)
// pairs since paramctl IDs are only unique within one insert's registry.
func (e *Engine) tickModulation() {
	e.router.Tick()

	e.destMu.Lock()
	targets := make(map[uint32]modDestination, len(e.destTargets))
	for k, v := range e.destTargets {
		targets[k] = v
	}
	e.destMu.Unlock()

	e.insertMu.RLock()
	defer e.insertMu.RUnlock()
	for dest, target := range targets {
		st, ok := e.inserts[target.insertID]
		if !ok {
			continue
		}
		value := e.router.Value(dest)
		st.controller.SetParameter(target.paramID, value, paramctl.RampNone, 0)
	}
}

// AddModulationSlot registers a modulation source driving one insert
// parameter (spec §6 "modulation.add_slot(source, dest_insert, dest_param,
// amount, curve)"). Mints a fresh global destination ID bridging the
// router's single uint32 destination space to this insert's own scoped
// parameter registry, and sets the destination's base/range from the
// parameter's own plain-value bounds so the router clamps correctly.
func (e *Engine) AddModulationSlot(source modulation.Source, insertID core.ID, paramID uint32, amount float64, curve modulation.Curve) (uint32, core.Result) {
	e.insertMu.RLock()
	st, ok := e.inserts[insertID]
	e.insertMu.RUnlock()
	if !ok {
		return 0, core.RejectedResult(fmt.Errorf("daw: unknown insert %q: %w", insertID, core.ErrUnknownEntity))
	}
	p := st.registry.Get(paramID)
	if p == nil {
		return 0, core.RejectedResult(fmt.Errorf("daw: unknown parameter %d on insert %q: %w", paramID, insertID, core.ErrUnknownEntity))
	}

	slot := &modulation.Slot{Source: source, Amount: amount, Curve: curve}

	e.destMu.Lock()
	e.nextDestID++
	dest := e.nextDestID
	slot.Destination = dest
	e.destTargets[dest] = modDestination{insertID: insertID, paramID: paramID, slot: slot}
	e.destMu.Unlock()

	e.router.SetDestinationRange(dest, p.GetPlainValue(), p.Min, p.Max)
	e.router.AddSlot(slot)
	return dest, core.OkResult()
}

// RemoveModulationSlot tears down a previously registered slot and its
// destination mapping.
func (e *Engine) RemoveModulationSlot(dest uint32) core.Result {
	e.destMu.Lock()
	target, ok := e.destTargets[dest]
	delete(e.destTargets, dest)
	e.destMu.Unlock()
	if ok {
		e.router.RemoveSlot(target.slot)
	}
	return core.OkResult()
}
