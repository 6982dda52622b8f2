// Package daw wires the Transport, Voice Manager, Sample Engine,
// Modulation Router, Mixer Graph, Metering Collector, Quality Manager,
// and per-insert Parameter Controllers into the single owned Engine
// struct the host process creates at boot and tears down on exit (spec
// §9 Design Notes: "process-wide owned engine struct... all references
// are borrows or handles"). Everything under pkg/ above this package is
// independently testable; this is the one place they are assembled.
package daw

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/dsp/analysis"
	"github.com/sndcore/dawengine/pkg/engine"
	"github.com/sndcore/dawengine/pkg/metering"
	"github.com/sndcore/dawengine/pkg/mixer"
	"github.com/sndcore/dawengine/pkg/modulation"
	"github.com/sndcore/dawengine/pkg/paramctl"
	"github.com/sndcore/dawengine/pkg/quality"
	"github.com/sndcore/dawengine/pkg/sample"
	"github.com/sndcore/dawengine/pkg/score"
	"github.com/sndcore/dawengine/pkg/telemetry"
	"github.com/sndcore/dawengine/pkg/transport"
	"github.com/sndcore/dawengine/pkg/voice"
)

// structuralOp is a pre-built mutation applied at the start of the next
// block (spec §5: "the audio thread performs any re-allocation... or
// defers to a safe point at the start of the next block"). Anything that
// would touch a shape the audio thread is reading mid-block — adding a
// channel, swapping an insert, replacing a pattern — goes through this
// queue instead of mutating live state from the control thread directly.
type structuralOp func(*Engine)

// insertState is everything the engine tracks about one mixer insert
// effect beyond the *mixer.InsertEffect itself: its own scoped parameter
// controller and the channel that owns it (needed to resolve
// mixer.set_sidechain and params.set by insert ID alone).
type insertState struct {
	channelID core.ID
	controller *paramctl.Controller
	registry   *paramctl.Registry
}

// Engine is the top-level real-time audio engine core (spec §2 System
// Overview). Command-surface methods (transport.*, instruments.*,
// notes.*, mixer.*, params.*, quality.*) run on the control thread;
// RenderBlock runs on the single audio thread and is the only method
// that may block briefly on opsMu (bounded: a handful of pointer/slice
// appends, never audio-rate contended).
type Engine struct {
	sampleRate   float64
	maxBlockSize int

	transport *transport.Transport
	scheduler *transport.Scheduler
	voices    *voice.Manager
	cache     *sample.Cache
	router    *modulation.Router
	mixerGraph *mixer.Graph
	quality   *quality.Manager
	guard     *engine.Guard
	counters  *telemetry.Counters

	meterPublisher *metering.Publisher
	collector      *metering.Collector

	instMu      sync.RWMutex
	instruments map[score.InstrumentID]*instrumentState

	insertMu sync.RWMutex
	inserts  map[core.ID]*insertState

	destMu      sync.Mutex
	destTargets map[uint32]modDestination
	nextDestID  uint32

	opsMu sync.Mutex
	ops   []structuralOp

	meterMu     sync.Mutex
	lastChannelMeters []metering.ChannelMeter
	lastInsertMeters  []metering.InsertMeter

	// Master-bus metering instruments (spec §4.6 "peak, RMS, correlation").
	// Stateful across blocks (peak decay/hold, RMS window, correlation
	// averaging), so they live on the Engine rather than being recomputed
	// from scratch in captureChannelMeters.
	masterPeakL, masterPeakR *analysis.PeakMeter
	masterRMSL, masterRMSR   *analysis.RMSMeter
	masterCorr               *analysis.CorrelationMeter
	meterScratchL, meterScratchR []float64

	queue *score.Queue
}

// modDestination resolves a modulation.Router destination ID back to the
// insert + parameter it drives, and the Slot registered for it (needed
// to remove the slot from the router by pointer identity).
type modDestination struct {
	insertID core.ID
	paramID  uint32
	slot     *modulation.Slot
}

// Config is the set of boot-time settings read once from the on-disk
// YAML config (spec §9 ambient "Configuration").
type Config struct {
	SampleRate         float64
	BlockSize          int
	QualityPreset      quality.Preset
	BufferCacheMaxBytes int64
	MeteringRefreshHz  float64
}

// DefaultConfig returns sane defaults for a Balanced-quality engine.
func DefaultConfig() Config {
	return Config{
		SampleRate:          48000,
		BlockSize:           256,
		QualityPreset:       quality.Balanced,
		BufferCacheMaxBytes: 256 * 1024 * 1024,
		MeteringRefreshHz:   60,
	}
}

// New boots an engine from cfg. The mixer graph starts with just its
// singleton Master channel; callers add Track/Bus channels via
// AddChannel.
func New(cfg Config) *Engine {
	qm := quality.NewManager(cfg.QualityPreset)
	_, settings := qm.Current()
	if cfg.SampleRate > 0 {
		settings.SampleRate = cfg.SampleRate
	}
	if cfg.BlockSize > 0 {
		settings.BlockSize = cfg.BlockSize
	}

	counters := telemetry.NewCounters()
	tr := transport.New(120)
	e := &Engine{
		sampleRate:   settings.SampleRate,
		maxBlockSize: settings.BlockSize,
		transport:    tr,
		scheduler:    transport.NewScheduler(tr),
		voices:       voice.NewManager(settings.SampleRate, settings.MaxPolyphony),
		cache:        sample.NewCache(cfg.BufferCacheMaxBytes, counters),
		router:       modulation.NewRouter(),
		mixerGraph:   mixer.NewGraph(),
		quality:      qm,
		guard:        engine.NewGuardWithTelemetry(counters),
		counters:     counters,
		meterPublisher: metering.NewPublisher(),
		instruments:  make(map[score.InstrumentID]*instrumentState),
		inserts:      make(map[core.ID]*insertState),
		destTargets:  make(map[uint32]modDestination),
		queue:        score.NewQueue(),

		masterPeakL: analysis.NewPeakMeter(settings.SampleRate),
		masterPeakR: analysis.NewPeakMeter(settings.SampleRate),
		masterRMSL:  analysis.NewRMSMeter(settings.BlockSize),
		masterRMSR:  analysis.NewRMSMeter(settings.BlockSize),
		masterCorr:  analysis.NewCorrelationMeter(settings.BlockSize, settings.SampleRate),

		meterScratchL: make([]float64, settings.BlockSize),
		meterScratchR: make([]float64, settings.BlockSize),
	}
	e.mixerGraph.Prepare(2, settings.BlockSize, e.guard)
	e.collector = metering.NewCollector(e.meterPublisher, tr, e.snapshotChannels, e.snapshotInserts, e.snapshotInstruments)
	return e
}

// StartMetering launches the collector's refresh loop on its own
// goroutine at the configured rate (spec §6 "refresh rate >= 30Hz,
// <=120Hz"), returning a stop func the caller invokes on shutdown.
func (e *Engine) StartMetering(refreshHz float64) (stop func()) {
	stopCh := make(chan struct{})
	go e.collector.Run(refreshHz, stopCh)
	return func() { close(stopCh) }
}

// MeteringSnapshot returns the most recently published telemetry
// snapshot (spec §6 Outbound stream).
func (e *Engine) MeteringSnapshot() *metering.Snapshot {
	return e.meterPublisher.Load()
}

// MasterID returns the ID of the engine's singleton Master channel, the
// usual send target for a freshly created Track.
func (e *Engine) MasterID() core.ID {
	return e.mixerGraph.MasterID()
}

// Counters exposes the telemetry counters backing the error-handling
// protocol (spec §7): NonFiniteReset, BufferMiss, DeadlineOverrun,
// OutOfBudget, NotResident.
func (e *Engine) Counters() telemetry.Snapshot {
	return e.counters.Snapshot()
}

// queueOp appends a structural mutation, applied at the start of the
// next RenderBlock. Briefly locks opsMu; never called from the audio
// thread itself.
func (e *Engine) queueOp(op structuralOp) {
	e.opsMu.Lock()
	e.ops = append(e.ops, op)
	e.opsMu.Unlock()
}

// drainOps applies every queued structural mutation at the current
// block's safe point.
func (e *Engine) drainOps() {
	e.opsMu.Lock()
	pending := e.ops
	e.ops = nil
	e.opsMu.Unlock()
	for _, op := range pending {
		op(e)
	}
}

// RenderBlock is the engine's single audio-thread entry point: apply
// queued structural edits, flush parameter writes, resolve this block's
// scheduled events, advance voices and synthesize their audio, tick
// modulation, render the mixer graph, and return the Master bus output.
// blockSize must not exceed the size Prepare was last called with.
func (e *Engine) RenderBlock(blockSize int) [][]float32 {
	e.drainOps()
	e.flushAllParams(blockSize)

	e.scheduler.EventsForBlock(blockSize, e.sampleRate, e.queue)
	for _, ev := range e.queue.Sorted() {
		e.applyResolvedEvent(ev)
	}

	trackBuffers := e.synthesizeInstruments(blockSize)
	e.voices.Reap()

	e.tickModulation()

	ctx := &engine.BlockContext{SampleRate: e.sampleRate}
	master, err := e.mixerGraph.Render(ctx, trackBufferFor(trackBuffers))
	if err != nil {
		log.Warn("mixer render rejected", "err", err)
		return nil
	}
	if e.guard != nil {
		e.guard.Check("master", master)
	}
	e.captureChannelMeters(master)
	return master
}

// applyResolvedEvent dispatches one scheduler-resolved note event to the
// voice manager (spec §5 "note-on and note-off... processed in strict
// sample-offset order; within equal offsets, note-offs precede note-ons" —
// guaranteed by score.Queue.Sorted already).
func (e *Engine) applyResolvedEvent(r score.Resolved) {
	switch r.Kind {
	case score.NoteOn:
		v, err := e.voices.NoteOn(r.Event.InstrumentID, r.Event.Pitch, r.Event.Velocity)
		if err != nil {
			log.Debug("note-on rejected", "instrument", r.Event.InstrumentID, "err", err)
			return
		}
		e.router.RetriggerAll()
		e.attachNoteSource(r.Event.InstrumentID, v)
	case score.NoteOff:
		e.voices.NoteOff(r.Event.InstrumentID, r.Event.Pitch)
	}
}
