package haunt

import (
	"errors"

	"necroos/internal/domain/haunting"
)

var (
	ErrCooldownActive = errors.New("exorcism cooldown active")
	ErrInvalidAmount  = errors.New("invalid possession amount")
	ErrNotStarted     = errors.New("haunting session not started")
)

type CooldownActiveError struct {
	Kind             haunting.ActionKind
	RemainingSeconds int
}

func (e *CooldownActiveError) Error() string {
	return ErrCooldownActive.Error()
}

func (e *CooldownActiveError) Unwrap() error {
	return ErrCooldownActive
}
