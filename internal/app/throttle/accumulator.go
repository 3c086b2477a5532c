package throttle

import (
	"time"

	"necroos/internal/app/ports"
)

// Result describes one Apply call. When Applied is false the delta was queued
// and Value is the unchanged current value.
type Result struct {
	Previous int
	Value    int
	Delta    int
	Applied  bool
}

// Changed reports whether an applied mutation moved the value.
func (r Result) Changed() bool {
	return r.Applied && r.Value != r.Previous
}

// Accumulator rate-limits mutations of a bounded integer. Deltas arriving
// within Interval of the last applied mutation are summed into one pending
// delta and applied with the next unthrottled call. Not safe for concurrent
// use; callers serialize access.
type Accumulator struct {
	clock     ports.Clock
	interval  time.Duration
	min, max  int
	value     int
	pending   int
	lastApply time.Time
}

func New(clock ports.Clock, interval time.Duration, min, max int) *Accumulator {
	return &Accumulator{clock: clock, interval: interval, min: min, max: max}
}

func (a *Accumulator) Value() int   { return a.value }
func (a *Accumulator) Pending() int { return a.pending }

// Apply queues or applies delta according to the throttle window.
func (a *Accumulator) Apply(delta int) Result {
	now := a.clock.Now()
	if !a.lastApply.IsZero() && now.Sub(a.lastApply) < a.interval {
		a.pending += delta
		return Result{Previous: a.value, Value: a.value, Delta: delta}
	}
	total := a.pending + delta
	a.pending = 0
	return a.commit(total, now)
}

// Flush applies any pending delta regardless of the window.
func (a *Accumulator) Flush() Result {
	if a.pending == 0 {
		return Result{Previous: a.value, Value: a.value}
	}
	total := a.pending
	a.pending = 0
	return a.commit(total, a.clock.Now())
}

// Set replaces the value and drops any pending delta. It neither waits for
// nor opens a throttle window.
func (a *Accumulator) Set(v int) Result {
	prev := a.value
	a.pending = 0
	a.value = a.clamp(v)
	return Result{Previous: prev, Value: a.value, Delta: a.value - prev, Applied: true}
}

// Load restores the value from storage without touching the throttle window.
func (a *Accumulator) Load(v int) {
	a.value = a.clamp(v)
	a.pending = 0
}

func (a *Accumulator) commit(total int, now time.Time) Result {
	prev := a.value
	a.value = a.clamp(prev + total)
	a.lastApply = now
	return Result{Previous: prev, Value: a.value, Delta: total, Applied: true}
}

func (a *Accumulator) clamp(v int) int {
	if v < a.min {
		return a.min
	}
	if v > a.max {
		return a.max
	}
	return v
}
