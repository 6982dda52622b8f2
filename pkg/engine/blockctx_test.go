package engine

import (
	"testing"

	"github.com/sndcore/dawengine/pkg/paramctl"
)

func TestBlockContextBufferAccessors(t *testing.T) {
	registry := paramctl.NewRegistry()
	ctx := NewBlockContext(512, registry)
	ctx.Input = [][]float32{make([]float32, 256), make([]float32, 256)}
	ctx.Output = [][]float32{make([]float32, 256), make([]float32, 256)}

	if got := ctx.NumSamples(); got != 256 {
		t.Fatalf("NumSamples = %d, want 256", got)
	}
	if got := ctx.NumInputChannels(); got != 2 {
		t.Fatalf("NumInputChannels = %d, want 2", got)
	}
	if got := len(ctx.WorkBuffer()); got != 256 {
		t.Fatalf("WorkBuffer len = %d, want 256", got)
	}
}

func TestBlockContextPassThroughAndClear(t *testing.T) {
	registry := paramctl.NewRegistry()
	ctx := NewBlockContext(128, registry)
	ctx.Input = [][]float32{{1, 2, 3}}
	ctx.Output = [][]float32{{0, 0, 0}}

	ctx.PassThrough()
	for i, v := range ctx.Output[0] {
		if v != ctx.Input[0][i] {
			t.Fatalf("PassThrough mismatch at %d: got %f want %f", i, v, ctx.Input[0][i])
		}
	}

	ctx.Clear()
	for i, v := range ctx.Output[0] {
		if v != 0 {
			t.Fatalf("Clear left nonzero sample at %d: %f", i, v)
		}
	}
}

func TestMultiBusContextMainAndSidechain(t *testing.T) {
	registry := paramctl.NewRegistry()
	base := NewBlockContext(128, registry)
	cfg := NewStereoPortConfiguration().WithSidechain()
	mb := NewMultiBusContext(base, cfg)

	mb.InputBuses = []BusBuffers{
		{Channels: [][]float32{{1}, {1}}, BusInfo: &PortInfo{BusType: TypeMain, IsActive: true}},
		{Channels: [][]float32{{2}, {2}}, BusInfo: &PortInfo{BusType: TypeAux, IsActive: true}},
	}
	mb.OutputBuses = []BusBuffers{
		{Channels: [][]float32{{0}, {0}}, BusInfo: &PortInfo{BusType: TypeMain, IsActive: true}},
	}

	if mb.GetMainInput() == nil {
		t.Fatal("expected main input bus")
	}
	if mb.GetSidechainInput() == nil {
		t.Fatal("expected sidechain input bus")
	}
}
