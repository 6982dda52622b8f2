package modulation

import (
	"math"
	"testing"
)

type constSource struct{ v float64 }

func (c *constSource) Tick() float64 { return c.v }
func (c *constSource) Retrigger()    {}
func (c *constSource) Reset()        {}

func TestRouterSumsMultipleSlotsLinearly(t *testing.T) {
	r := NewRouter()
	r.SetDestinationRange(1, 0.5, 0, 1)
	r.AddSlot(&Slot{Source: &constSource{v: 0.2}, Destination: 1, Amount: 1, Curve: CurveLinear})
	r.AddSlot(&Slot{Source: &constSource{v: 0.1}, Destination: 1, Amount: 1, Curve: CurveLinear})

	r.Tick()
	got := r.Value(1)
	want := 0.5 + 0.2 + 0.1
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected linear superposition %v, got %v", want, got)
	}
}

func TestRouterClampsToRange(t *testing.T) {
	r := NewRouter()
	r.SetDestinationRange(1, 0, 0, 1)
	r.AddSlot(&Slot{Source: &constSource{v: 1.0}, Destination: 1, Amount: 5, Curve: CurveLinear})

	r.Tick()
	if r.Value(1) != 1 {
		t.Fatalf("expected clamp to max 1, got %v", r.Value(1))
	}
}

func TestRouterExponentialCurvePreservesSign(t *testing.T) {
	r := NewRouter()
	r.SetDestinationRange(1, 0, -10, 10)
	r.AddSlot(&Slot{Source: &constSource{v: -0.5}, Destination: 1, Amount: 1, Curve: CurveExponential})

	r.Tick()
	if r.Value(1) >= 0 {
		t.Fatalf("expected exponential curve to preserve negative sign, got %v", r.Value(1))
	}
}

func TestDivisionToHzMatchesQuarterNoteAtGivenBPM(t *testing.T) {
	hz := DivisionToHz(Div1_4, 120)
	want := 2.0 // 120bpm quarter note = 2Hz
	if math.Abs(hz-want) > 1e-6 {
		t.Fatalf("expected %v Hz, got %v", want, hz)
	}
}

func TestDivisionTripletIsFasterThanPlain(t *testing.T) {
	plain := DivisionToHz(Div1_8, 120)
	triplet := DivisionToHz(Div1_8T, 120)
	if triplet <= plain {
		t.Fatalf("expected triplet division to be faster (higher Hz) than plain, got triplet=%v plain=%v", triplet, plain)
	}
}

func TestLFOSourceSineOscillatesWithinUnitRange(t *testing.T) {
	src := NewLFOSource(1000)
	src.SetRateHz(10)
	for i := 0; i < 1000; i++ {
		v := src.Tick()
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("LFO value out of range: %v", v)
		}
	}
}

func TestLFOSourceFadeInRampsFromZero(t *testing.T) {
	src := NewLFOSource(1000)
	src.SetRateHz(1)
	src.SetFadeInTicks(100)
	src.SetFreeRun(false)
	src.Retrigger()

	first := src.Tick()
	if math.Abs(first) > 1e-6 {
		t.Fatalf("expected ~0 at start of fade-in, got %v", first)
	}
}

func TestEnvelopeSourceReflectsLevelFunction(t *testing.T) {
	level := 0.75
	src := NewEnvelopeSource(func() float64 { return level })
	if src.Tick() != 0.75 {
		t.Fatalf("expected envelope source to reflect level, got %v", src.Tick())
	}
	level = 0.1
	if src.Tick() != 0.1 {
		t.Fatalf("expected envelope source to track live updates, got %v", src.Tick())
	}
}
