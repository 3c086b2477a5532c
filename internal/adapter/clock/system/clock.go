package system

import (
	"time"

	"necroos/internal/app/ports"
)

type Clock struct{}

func (Clock) Now() time.Time {
	return time.Now()
}

func (Clock) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}
