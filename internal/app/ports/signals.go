package ports

// GhostBehaviorSource exposes the ghost's haunting level (1-10).
type GhostBehaviorSource interface {
	HauntingLevel() int
	OnChange(fn func(level int))
}

// SessionLifecycleSignal notifies registered callbacks right before the
// process terminates.
type SessionLifecycleSignal interface {
	OnBeforeTerminate(fn func())
}
