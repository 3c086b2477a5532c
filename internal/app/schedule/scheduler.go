package schedule

import (
	"sort"
	"sync"
	"time"

	"necroos/internal/app/ports"
)

const (
	TaskEscalation   = "possession.escalation"
	TaskEndingPoll   = "ending.poll"
	TaskDebounceSave = "persistence.debounce"
)

// Scheduler owns every named timer of a session. Scheduling a name that is
// already pending replaces it, which is what debouncing needs. Callbacks run
// through the Loop.
type Scheduler struct {
	clock ports.Clock
	loop  *Loop

	mu     sync.Mutex
	gen    uint64
	tasks  map[string]*task
	closed bool
}

type task struct {
	gen   uint64
	timer ports.Timer
	fn    func()
}

func NewScheduler(clock ports.Clock, loop *Loop) *Scheduler {
	return &Scheduler{
		clock: clock,
		loop:  loop,
		tasks: map[string]*task{},
	}
}

// After runs fn once after d, replacing any pending task with the same name.
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked(name)
	s.gen++
	gen := s.gen
	t := &task{gen: gen, fn: fn}
	t.timer = s.clock.AfterFunc(d, func() {
		s.loop.Do(func() { s.fire(name, gen) })
	})
	s.tasks[name] = t
}

// Every runs fn every interval until the name is cancelled. The next run is
// armed before fn executes, so fn may cancel its own task.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	var run func()
	run = func() {
		s.After(name, interval, run)
		fn()
	}
	s.After(name, interval, run)
}

func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(name)
}

func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Names lists pending task names in sorted order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Flush runs a pending task immediately and reports whether one was pending.
// It must be called from inside the Loop.
func (s *Scheduler) Flush(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		t.timer.Stop()
		delete(s.tasks, name)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	t.fn()
	return true
}

// CancelAll stops every pending task. When closing, later scheduling calls
// are ignored.
func (s *Scheduler) CancelAll(closing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.tasks {
		s.stopLocked(name)
	}
	if closing {
		s.closed = true
	}
}

// Reopen allows scheduling again after CancelAll(true).
func (s *Scheduler) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
}

func (s *Scheduler) fire(name string, gen uint64) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if !ok || t.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, name)
	s.mu.Unlock()
	t.fn()
}

func (s *Scheduler) stopLocked(name string) bool {
	t, ok := s.tasks[name]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, name)
	return true
}
