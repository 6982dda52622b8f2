package daw

import (
	"github.com/sndcore/dawengine/pkg/metering"
)

// captureChannelMeters feeds the rendered master output through the
// engine's master peak/RMS/correlation meters (spec §4.6: "peak, RMS,
// correlation") and stashes the result for the collector's next Tick to
// read back through snapshotChannels. Only the Master bus is analyzed
// here; per-channel taps would require reading each Channel's buffer
// directly, left for a future pass once the mixer exposes a read-only
// accessor.
func (e *Engine) captureChannelMeters(master [][]float32) {
	if len(master) == 0 || len(master[0]) == 0 {
		return
	}
	n := len(master[0])
	e.meterScratchL = growFloat64(e.meterScratchL, n)
	for i := 0; i < n; i++ {
		e.meterScratchL[i] = float64(master[0][i])
	}
	e.masterPeakL.Process(e.meterScratchL)
	e.masterRMSL.Process(e.meterScratchL)

	var peakR, rmsR float32
	if len(master) > 1 {
		e.meterScratchR = growFloat64(e.meterScratchR, n)
		for i := 0; i < n; i++ {
			e.meterScratchR[i] = float64(master[1][i])
		}
		e.masterPeakR.Process(e.meterScratchR)
		e.masterRMSR.Process(e.meterScratchR)
		e.masterCorr.Process(e.meterScratchL, e.meterScratchR)
		peakR = float32(e.masterPeakR.GetPeak())
		rmsR = float32(e.masterRMSR.GetRMS())
	}

	e.meterMu.Lock()
	e.lastChannelMeters = []metering.ChannelMeter{{
		ID:          e.mixerGraph.MasterID(),
		PeakLeft:    float32(e.masterPeakL.GetPeak()),
		PeakRight:   peakR,
		RMSLeft:     float32(e.masterRMSL.GetRMS()),
		RMSRight:    rmsR,
		Correlation: float32(e.masterCorr.GetCorrelation()),
	}}
	e.meterMu.Unlock()
}

// growFloat64 returns buf resliced to length n, reallocating only when
// its capacity is too small. Keeps the float32->float64 conversion the
// analysis meters need off the allocator on the steady-state path.
func growFloat64(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

// snapshotChannels is the metering.Collector closure reading the
// engine's most recently captured per-channel meters.
func (e *Engine) snapshotChannels() []metering.ChannelMeter {
	e.meterMu.Lock()
	defer e.meterMu.Unlock()
	out := make([]metering.ChannelMeter, len(e.lastChannelMeters))
	copy(out, e.lastChannelMeters)
	return out
}

// snapshotInserts is the metering.Collector closure reading the
// engine's most recently captured per-insert gain-reduction meters.
func (e *Engine) snapshotInserts() []metering.InsertMeter {
	e.meterMu.Lock()
	defer e.meterMu.Unlock()
	out := make([]metering.InsertMeter, len(e.lastInsertMeters))
	copy(out, e.lastInsertMeters)
	return out
}

// snapshotInstruments is the metering.Collector closure reading active
// voice counts per instrument.
func (e *Engine) snapshotInstruments() []metering.InstrumentMeter {
	e.instMu.RLock()
	defer e.instMu.RUnlock()
	out := make([]metering.InstrumentMeter, 0, len(e.instruments))
	for id, inst := range e.instruments {
		_ = inst
		out = append(out, metering.InstrumentMeter{
			InstrumentID: string(id),
			ActiveVoices: e.voices.ActiveVoiceCount(id),
		})
	}
	return out
}
