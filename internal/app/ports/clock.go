package ports

import "time"

// Timer is a pending callback created by Clock.AfterFunc. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
