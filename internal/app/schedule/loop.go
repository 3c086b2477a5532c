package schedule

import "sync"

// Loop serializes triggers. Every external call and every timer callback runs
// its whole handler inside Do, so handlers never interleave. Do must not be
// called from inside another Do.
type Loop struct {
	mu sync.Mutex
}

func (l *Loop) Do(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}
