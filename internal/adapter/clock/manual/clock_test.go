package manual

import (
	"testing"
	"time"
)

func TestAdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	c.Advance(3 * time.Second)
	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("expected [a b], got %v", fired)
	}
	if got := c.Now(); !got.Equal(start.Add(3 * time.Second)) {
		t.Fatalf("expected now=+3s, got %s", got.Sub(start))
	}
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", c.Pending())
	}
}

func TestStoppedTimerDoesNotFire(t *testing.T) {
	c := New(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected first stop to report active timer")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report inactive timer")
	}
	c.Advance(time.Minute)
	if fired {
		t.Fatalf("expected stopped timer not to fire")
	}
}

func TestCallbackCanRescheduleDuringAdvance(t *testing.T) {
	c := New(time.Unix(0, 0))
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(5 * time.Second)
	if count != 5 {
		t.Fatalf("expected 5 ticks, got %d", count)
	}
}
