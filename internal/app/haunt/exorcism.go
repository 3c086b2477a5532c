package haunt

import (
	"context"
	"errors"
	"fmt"
	"log"

	"necroos/internal/app/gameplay"
	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

// PerformExorcism checks the cooldown for kind and, when ready, lowers the
// level by power. A non-positive power uses the default for kind. A cooldown
// rejection returns a failed result together with a *CooldownActiveError.
func (s *Service) PerformExorcism(ctx context.Context, kind string, power int) (ExorcismResult, error) {
	k, err := haunting.ParseActionKind(kind)
	if err != nil {
		log.Printf("[haunt] rejected exorcism kind %q", kind)
		return ExorcismResult{}, fmt.Errorf("%w: %q", err, kind)
	}
	var (
		out    ExorcismResult
		outErr error
	)
	s.do(ctx, "haunt.PerformExorcism", func(context.Context) {
		out, outErr = s.exorcise(k, power, nil)
	})
	return out, outErr
}

// TextExorcism accepts input containing the banishment phrase.
func (s *Service) TextExorcism(ctx context.Context, phrase string) (ExorcismResult, error) {
	var (
		out    ExorcismResult
		outErr error
	)
	s.do(ctx, "haunt.TextExorcism", func(context.Context) {
		out, outErr = s.textExorcism(phrase)
	})
	return out, outErr
}

func (s *Service) textExorcism(phrase string) (ExorcismResult, error) {
	if !haunting.IsBanishmentPhrase(phrase) {
		return s.failed(haunting.ActionText, haunting.ReasonWrongPhrase), nil
	}
	return s.exorcise(haunting.ActionText, 0, nil)
}

func (s *Service) CursedFiles(ctx context.Context) []haunting.CursedFile {
	var out []haunting.CursedFile
	s.do(ctx, "haunt.CursedFiles", func(context.Context) {
		out = s.board.CursedFiles()
	})
	return out
}

func (s *Service) RegenerateCursedFiles(ctx context.Context) []haunting.CursedFile {
	var out []haunting.CursedFile
	s.do(ctx, "haunt.RegenerateCursedFiles", func(context.Context) {
		out = s.board.GenerateCursedFiles()
	})
	return out
}

// DeleteCursedFile is a file exorcism. The file only disappears on success.
func (s *Service) DeleteCursedFile(ctx context.Context, fileID string) (ExorcismResult, error) {
	var (
		out    ExorcismResult
		outErr error
	)
	s.do(ctx, "haunt.DeleteCursedFile", func(context.Context) {
		file, err := s.board.CursedFile(fileID)
		if err != nil {
			out, outErr = s.failed(haunting.ActionFile, gameplay.FailureReason(err)), err
			return
		}
		out, outErr = s.exorcise(haunting.ActionFile, file.Power, func() {
			s.board.RemoveCursedFile(file.ID)
		})
	})
	return out, outErr
}

func (s *Service) NewPuzzle(ctx context.Context, difficulty string) haunting.Puzzle {
	var out haunting.Puzzle
	s.do(ctx, "haunt.NewPuzzle", func(context.Context) {
		out = s.board.GeneratePuzzle(haunting.PuzzleDifficulty(difficulty))
	})
	return out
}

// SolvePuzzle is a puzzle exorcism. The cooldown is checked before the
// solution so a cooling-down player learns nothing about correctness.
func (s *Service) SolvePuzzle(ctx context.Context, puzzleID string, solution []string) (ExorcismResult, error) {
	var (
		out    ExorcismResult
		outErr error
	)
	s.do(ctx, "haunt.SolvePuzzle", func(context.Context) {
		if res, err := s.cooldownCheck(haunting.ActionPuzzle); err != nil {
			out, outErr = res, err
			return
		}
		if err := s.board.CheckPuzzle(puzzleID, solution); err != nil {
			out, outErr = s.failed(haunting.ActionPuzzle, gameplay.FailureReason(err)), err
			return
		}
		out, outErr = s.exorcise(haunting.ActionPuzzle, 0, s.board.ConsumePuzzle)
	})
	return out, outErr
}

func (s *Service) cooldownCheck(kind haunting.ActionKind) (ExorcismResult, error) {
	tracker := s.possession.Cooldowns()
	now := s.clock.Now()
	if !tracker.IsOnCooldown(kind, now) {
		return ExorcismResult{}, nil
	}
	remaining := tracker.RemainingSeconds(kind, now)
	res := s.failed(kind, haunting.ReasonCooldown)
	res.RemainingSeconds = remaining
	return res, &CooldownActiveError{Kind: kind, RemainingSeconds: remaining}
}

// exorcise runs the whole exorcism sequence inside the loop: cooldown check,
// decrease, bookkeeping, achievements and feedback effects.
func (s *Service) exorcise(kind haunting.ActionKind, power int, onSuccess func()) (ExorcismResult, error) {
	if res, err := s.cooldownCheck(kind); err != nil {
		log.Printf("[haunt] %s exorcism on cooldown (%ds)", kind, res.RemainingSeconds)
		return res, err
	}
	if power <= 0 {
		power = haunting.ExorcismPower[kind]
	}
	s.possession.Decrease(power)
	s.possession.RecordExorcism(kind, power)
	if onSuccess != nil {
		onSuccess()
	}
	s.achievements.RecordExorcism()
	unlocked := s.achievements.Check()

	level := s.possession.Level()
	s.dispatcher.TriggerOnce(haunting.CategoryVisual, haunting.EffectExorcismFlash, ports.EffectParams{"kind": string(kind)})
	cleansed := level < haunting.CleansingBelowLevel
	if cleansed {
		s.dispatcher.TriggerOnce(haunting.CategoryMeta, haunting.EffectCleansing, ports.EffectParams{"level": level})
	}
	if s.metrics != nil {
		s.metrics.RecordExorcism(string(kind), true, "")
	}
	log.Printf("[haunt] %s exorcism reduced possession by %d to %d", kind, power, level)

	res := ExorcismResult{Success: true, Kind: kind, Reduction: power, Level: level, Cleansed: cleansed}
	for _, def := range unlocked {
		res.Unlocked = append(res.Unlocked, string(def.ID))
	}
	return res, nil
}

func (s *Service) failed(kind haunting.ActionKind, reason string) ExorcismResult {
	if s.metrics != nil {
		s.metrics.RecordExorcism(string(kind), false, reason)
	}
	return ExorcismResult{Kind: kind, Reason: reason, Level: s.possession.Level()}
}

// IsExorcismFailure reports whether err is a typed exorcism rejection rather
// than a validation error.
func IsExorcismFailure(err error) bool {
	return errors.Is(err, ErrCooldownActive) ||
		errors.Is(err, gameplay.ErrUnknownCursedFile) ||
		errors.Is(err, gameplay.ErrUnknownPuzzle) ||
		errors.Is(err, gameplay.ErrPuzzleExpired) ||
		errors.Is(err, gameplay.ErrPuzzleIncorrect)
}
