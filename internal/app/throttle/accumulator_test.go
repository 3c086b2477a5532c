package throttle

import (
	"testing"
	"time"

	"necroos/internal/adapter/clock/manual"
)

func TestAccumulator_BurstCollapses(t *testing.T) {
	clk := manual.New(time.Unix(1_700_000_000, 0))
	acc := New(clk, time.Second, 0, 100)

	if r := acc.Apply(10); !r.Applied || r.Value != 10 {
		t.Fatalf("expected first call applied to 10, got %+v", r)
	}
	clk.Advance(200 * time.Millisecond)
	if r := acc.Apply(5); r.Applied || r.Value != 10 {
		t.Fatalf("expected throttled read 10, got %+v", r)
	}
	clk.Advance(500 * time.Millisecond)
	if r := acc.Apply(5); r.Applied || r.Value != 10 {
		t.Fatalf("expected throttled read 10, got %+v", r)
	}
	if acc.Pending() != 10 {
		t.Fatalf("expected pending 10, got %d", acc.Pending())
	}
	clk.Advance(400 * time.Millisecond)
	r := acc.Apply(10)
	if !r.Applied || r.Value != 30 || r.Delta != 20 {
		t.Fatalf("expected applied to 30 with delta 20, got %+v", r)
	}
	if acc.Pending() != 0 {
		t.Fatalf("expected pending cleared, got %d", acc.Pending())
	}
}

func TestAccumulator_OppositeSignsCancel(t *testing.T) {
	clk := manual.New(time.Unix(1_700_000_000, 0))
	acc := New(clk, time.Second, 0, 100)
	acc.Load(50)
	acc.Apply(0)
	clk.Advance(100 * time.Millisecond)
	acc.Apply(10)
	acc.Apply(-15)
	if acc.Pending() != -5 {
		t.Fatalf("expected pending -5, got %d", acc.Pending())
	}
	clk.Advance(time.Second)
	if r := acc.Apply(0); r.Value != 45 {
		t.Fatalf("expected 45, got %d", r.Value)
	}
}

func TestAccumulator_Clamps(t *testing.T) {
	clk := manual.New(time.Unix(1_700_000_000, 0))
	acc := New(clk, time.Second, 0, 100)
	if r := acc.Apply(150); r.Value != 100 {
		t.Fatalf("expected clamp to 100, got %d", r.Value)
	}
	clk.Advance(time.Second)
	if r := acc.Apply(-500); r.Value != 0 || r.Previous != 100 {
		t.Fatalf("expected clamp to 0 from 100, got %+v", r)
	}
	clk.Advance(time.Second)
	if r := acc.Apply(-1); r.Changed() {
		t.Fatalf("expected no change at floor, got %+v", r)
	}
}

func TestAccumulator_FlushAndSet(t *testing.T) {
	clk := manual.New(time.Unix(1_700_000_000, 0))
	acc := New(clk, time.Second, 0, 100)
	acc.Apply(5)
	acc.Apply(7)
	if r := acc.Flush(); !r.Applied || r.Value != 12 {
		t.Fatalf("expected flush to 12, got %+v", r)
	}
	if r := acc.Flush(); r.Applied {
		t.Fatalf("expected empty flush to be a no-op, got %+v", r)
	}
	acc.Apply(3)
	if r := acc.Set(-4); r.Value != 0 || acc.Pending() != 0 {
		t.Fatalf("expected set clamps and drops pending, got %+v pending %d", r, acc.Pending())
	}
}
