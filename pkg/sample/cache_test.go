package sample

import (
	"context"
	"testing"
	"time"

	"github.com/sndcore/dawengine/pkg/telemetry"
)

func TestCacheOriginalResidency(t *testing.T) {
	c := NewCache(1<<20, nil)
	buf := NewBuffer([][]float32{{1, 2, 3}}, 48000)
	if c.IsResident(buf.ID) {
		t.Fatalf("buffer should not be resident before AddOriginal")
	}
	c.AddOriginal(buf)
	if !c.IsResident(buf.ID) {
		t.Fatalf("buffer should be resident after AddOriginal")
	}
	got, ok := c.Original(buf.ID)
	if !ok || got != buf {
		t.Fatalf("expected to retrieve the same buffer pointer")
	}
}

func TestCacheMissIncrementsTelemetry(t *testing.T) {
	counters := telemetry.NewCounters()
	c := NewCache(1<<20, counters)
	_, ok := c.GetOrBuild(context.Background(), VariantKey{OriginalID: "nonexistent"}, nil)
	if ok {
		t.Fatalf("expected miss for unknown original")
	}
	if counters.Snapshot().BufferMisses != 1 {
		t.Fatalf("expected one buffer miss recorded")
	}
}

func TestCacheBuildsVariantAsynchronouslyThenServesIt(t *testing.T) {
	c := NewCache(1<<20, nil)
	orig := NewBuffer([][]float32{{1, 2, 3, 4}}, 48000)
	c.AddOriginal(orig)

	key := VariantKey{OriginalID: orig.ID, Gain: 2.0}
	built := func(original *Buffer, k VariantKey) *Buffer {
		scaled := make([]float32, len(original.Channels[0]))
		for i, v := range original.Channels[0] {
			scaled[i] = v * float32(k.Gain)
		}
		return NewBuffer([][]float32{scaled}, original.SampleRate)
	}

	if _, ok := c.GetOrBuild(context.Background(), key, built); ok {
		t.Fatalf("expected first call to schedule a build, not return immediately")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := c.Variant(key); ok {
			if v.Channels[0][0] != 2 {
				t.Fatalf("expected variant gain applied, got %v", v.Channels[0][0])
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("variant was never built within deadline")
}

func TestCacheEvictsOldestVariantWhenOverBudget(t *testing.T) {
	c := NewCache(16, nil) // tiny budget: one float32 channel of 4 samples = 16 bytes
	orig := NewBuffer([][]float32{{1, 2, 3, 4}}, 48000)
	c.AddOriginal(orig)

	build := func(original *Buffer, k VariantKey) *Buffer {
		data := make([]float32, 4)
		copy(data, original.Channels[0])
		return NewBuffer([][]float32{data}, original.SampleRate)
	}

	keyA := VariantKey{OriginalID: orig.ID, TrimStart: 1}
	keyB := VariantKey{OriginalID: orig.ID, TrimStart: 2}

	c.GetOrBuild(context.Background(), keyA, build)
	waitForVariant(t, c, keyA)

	c.GetOrBuild(context.Background(), keyB, build)
	waitForVariant(t, c, keyB)

	if _, ok := c.Variant(keyA); ok {
		t.Fatalf("expected keyA evicted once keyB exceeded the byte budget")
	}
}

func waitForVariant(t *testing.T, c *Cache, key VariantKey) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Variant(key); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("variant %v never became ready", key)
}
