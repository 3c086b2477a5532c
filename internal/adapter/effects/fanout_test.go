package effects

import (
	"errors"
	"testing"
	"time"

	"necroos/internal/adapter/clock/manual"
	"necroos/internal/adapter/effects/journal"
	"necroos/internal/app/ports"
)

type failing struct{}

func (failing) Start(string, ports.EffectParams) error       { return errors.New("no device") }
func (failing) Stop(string) error                            { return nil }
func (failing) TriggerOnce(string, ports.EffectParams) error { return nil }

func TestFanout_ReachesEveryCollaborator(t *testing.T) {
	j := journal.New(manual.New(time.Unix(0, 0)), 0)
	f := Fanout{failing{}, j}

	if err := f.Start("audio.whispers", nil); err == nil {
		t.Fatalf("expected joined error from failing collaborator")
	}
	if got := j.Active(); len(got) != 1 || got[0] != "audio.whispers" {
		t.Fatalf("expected journal to see the start despite the failure, got %v", got)
	}
	if err := f.Stop("audio.whispers"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(j.Active()) != 0 {
		t.Fatalf("expected journal cleared")
	}
}
