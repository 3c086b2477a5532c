// Package lifecycle carries the before-terminate signal from the server's
// shutdown hook to the haunting core.
package lifecycle

import (
	"slices"
	"sync"
)

type Signal struct {
	mu    sync.Mutex
	fired bool
	fns   []func()
}

func (s *Signal) OnBeforeTerminate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

// Fire runs the callbacks once; later calls are no-ops.
func (s *Signal) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	fns := slices.Clone(s.fns)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
