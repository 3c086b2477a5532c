// Package effects holds effect collaborator plumbing shared by the concrete
// renderers in its subpackages.
package effects

import (
	"errors"

	"necroos/internal/app/ports"
)

// Fanout forwards every call to each collaborator in order and joins their
// errors.
type Fanout []ports.EffectCollaborator

func (f Fanout) Start(effectID string, params ports.EffectParams) error {
	var errs []error
	for _, c := range f {
		errs = append(errs, c.Start(effectID, params))
	}
	return errors.Join(errs...)
}

func (f Fanout) Stop(effectID string) error {
	var errs []error
	for _, c := range f {
		errs = append(errs, c.Stop(effectID))
	}
	return errors.Join(errs...)
}

func (f Fanout) TriggerOnce(effectID string, params ports.EffectParams) error {
	var errs []error
	for _, c := range f {
		errs = append(errs, c.TriggerOnce(effectID, params))
	}
	return errors.Join(errs...)
}
