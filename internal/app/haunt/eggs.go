package haunt

import (
	"context"
	"fmt"
	"log"

	"necroos/internal/app/gameplay"
	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

// DiscoverEasterEgg records an egg found by an external surface.
func (s *Service) DiscoverEasterEgg(ctx context.Context, id string) (bool, error) {
	egg, err := haunting.ParseEggID(id)
	if err != nil {
		log.Printf("[haunt] rejected easter egg %q", id)
		return false, fmt.Errorf("%w: %q", err, id)
	}
	var found bool
	s.do(ctx, "haunt.DiscoverEasterEgg", func(context.Context) {
		found = s.discover(egg)
	})
	return found, nil
}

func (s *Service) UnlockAchievement(ctx context.Context, id string) (bool, error) {
	var (
		ok  bool
		err error
	)
	s.do(ctx, "haunt.UnlockAchievement", func(context.Context) {
		ok, err = s.achievements.Unlock(id)
	})
	return ok, err
}

// PressKey feeds the konami detector.
func (s *Service) PressKey(ctx context.Context, key string) bool {
	var hit bool
	s.do(ctx, "haunt.PressKey", func(context.Context) {
		if hit = s.konami.Press(key); hit {
			s.discover(haunting.EggKonamiCode)
		}
	})
	return hit
}

// Click feeds the secret coordinate detector.
func (s *Service) Click(ctx context.Context, x, y float64) bool {
	var hit bool
	s.do(ctx, "haunt.Click", func(context.Context) {
		if hit = s.clicks.Click(x, y, s.clock.Now()); hit {
			s.discover(haunting.EggSecretCoordinate)
			s.dispatcher.TriggerOnce(haunting.CategoryMeta, haunting.EffectSecretJumpscare, ports.EffectParams{"level": s.possession.Level()})
		}
	})
	return hit
}

// SubmitText handles free text typed anywhere. The secret and banishment
// phrases take precedence over name detection.
func (s *Service) SubmitText(ctx context.Context, text string) (TextInputResult, error) {
	var (
		out    TextInputResult
		outErr error
	)
	s.do(ctx, "haunt.SubmitText", func(context.Context) {
		switch {
		case haunting.IsSecretPhrase(text):
			out.SecretPhrase = true
			s.discover(haunting.EggSecretPhrase)
		case haunting.IsBanishmentPhrase(text):
			res, err := s.textExorcism(text)
			out.Exorcism, outErr = &res, err
		default:
			if name, ok := gameplay.LooksLikeName(text); ok {
				s.possession.SetDetectedUserName(name)
				out.DetectedName = name
			}
		}
	})
	return out, outErr
}

func (s *Service) discover(egg haunting.EggID) bool {
	if !s.possession.DiscoverEasterEgg(egg) {
		return false
	}
	log.Printf("[haunt] easter egg discovered: %s", egg)
	s.dispatcher.TriggerOnce(haunting.CategoryMeta, haunting.EffectEasterEgg, ports.EffectParams{"egg": string(egg)})
	s.achievements.Check()
	return true
}
