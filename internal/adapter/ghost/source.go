// Package ghost holds the ghost companion's haunting level, set from outside
// (the HTTP layer or a companion process).
package ghost

import (
	"slices"
	"sync"
)

const (
	MinLevel = 1
	MaxLevel = 10
)

type Source struct {
	mu        sync.Mutex
	level     int
	listeners []func(int)
}

func NewSource(level int) *Source {
	return &Source{level: clamp(level)}
}

func (s *Source) HauntingLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Source) OnChange(fn func(level int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetLevel clamps level to 1..10 and notifies listeners when it changed.
// Listeners run after the lock is released and may read the level back.
func (s *Source) SetLevel(level int) int {
	level = clamp(level)
	s.mu.Lock()
	if level == s.level {
		s.mu.Unlock()
		return level
	}
	s.level = level
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(level)
	}
	return level
}

func clamp(level int) int {
	return min(MaxLevel, max(MinLevel, level))
}
