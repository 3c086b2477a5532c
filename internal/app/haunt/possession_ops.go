package haunt

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"necroos/internal/app/possession"
	"necroos/internal/app/throttle"
	"necroos/internal/domain/haunting"
)

func (s *Service) PossessionLevel(ctx context.Context) int {
	var level int
	s.do(ctx, "haunt.PossessionLevel", func(context.Context) {
		level = s.possession.Level()
	})
	return level
}

func (s *Service) IncreasePossession(ctx context.Context, amount int) (MutationResult, error) {
	return s.mutate(ctx, "haunt.IncreasePossession", amount, s.possession.Increase)
}

func (s *Service) DecreasePossession(ctx context.Context, amount int) (MutationResult, error) {
	return s.mutate(ctx, "haunt.DecreasePossession", amount, s.possession.Decrease)
}

func (s *Service) mutate(ctx context.Context, name string, amount int, apply func(int) throttle.Result) (MutationResult, error) {
	if amount < 0 || amount > haunting.MaxLevel {
		log.Printf("[haunt] rejected possession amount %d", amount)
		return MutationResult{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	var out MutationResult
	s.do(ctx, name, func(context.Context) {
		res := apply(amount)
		out = MutationResult{Level: res.Value, Applied: res.Applied, Pending: s.possession.PendingDelta()}
	})
	return out, nil
}

func (s *Service) SetPossessionLevel(ctx context.Context, level int) int {
	var out int
	s.do(ctx, "haunt.SetPossessionLevel", func(ctx context.Context) {
		out = s.possession.SetLevel(ctx, level, possession.SourceSet).Value
	})
	return out
}

func (s *Service) SetDifficulty(ctx context.Context, raw string) error {
	var err error
	s.do(ctx, "haunt.SetDifficulty", func(ctx context.Context) {
		err = s.possession.SetDifficulty(ctx, raw)
	})
	return err
}

func (s *Service) CheckEndingConditions(ctx context.Context) haunting.Ending {
	var out haunting.Ending
	s.do(ctx, "haunt.CheckEndingConditions", func(ctx context.Context) {
		out = s.endings.Check(ctx)
	})
	return out
}

func (s *Service) CurrentSeasonalEvent(ctx context.Context) *haunting.SeasonalEvent {
	return s.seasonal(s.clock.Now())
}

// State returns a copy of the full haunting state.
func (s *Service) State(ctx context.Context) haunting.State {
	var out haunting.State
	s.do(ctx, "haunt.State", func(context.Context) {
		out = s.possession.State()
	})
	return out
}

func (s *Service) StatisticsSnapshot(ctx context.Context) StatisticsSnapshot {
	var out StatisticsSnapshot
	s.do(ctx, "haunt.StatisticsSnapshot", func(context.Context) {
		st := s.possession.State()
		now := s.clock.Now()
		current := s.possession.SegmentElapsed()
		out = StatisticsSnapshot{
			TotalSessions:            st.Statistics.TotalSessions,
			CurrentSessionSeconds:    int64(current / time.Second),
			TotalTimeSurvivedSeconds: int64((st.Statistics.TotalTimeSurvived + current) / time.Second),
			CurrentPossessionLevel:   st.Level,
			MaxPossessionReached:     st.Statistics.MaxPossessionReached,
			TotalPossessionIncreases: st.Statistics.TotalPossessionIncreases,
			TotalPossessionDecreases: st.Statistics.TotalPossessionDecreases,
			ExorcismsPerformed:       st.Statistics.ExorcismsPerformed,
			JumpscaresSeen:           len(st.Statistics.JumpscaresSeen),
			AchievementsUnlocked:     st.Statistics.AchievementsUnlocked,
			Achievements:             setKeys(st.Achievements),
			EasterEggsFound:          st.Statistics.EasterEggsFound,
			EndingsReached:           setKeys(st.Statistics.EndingsReached),
			Difficulty:               st.Difficulty,
			EndingReached:            st.EndingReached,
			Cooldowns:                s.possession.Cooldowns().RemainingByKind(now),
			RecentEvents:             recentEvents(st.Statistics.EventsHistory, 10),
		}
		if st.Statistics.MinPossessionReached != nil {
			out.MinPossessionReached = *st.Statistics.MinPossessionReached
		}
	})
	return out
}

func (s *Service) UpdateCustomization(ctx context.Context, c haunting.Customization) error {
	var err error
	s.do(ctx, "haunt.UpdateCustomization", func(ctx context.Context) {
		if err = s.possession.SetCustomization(ctx, c); err != nil {
			log.Printf("[haunt] rejected customization: %v", err)
			return
		}
		s.dispatcher.Evaluate(s.possession.Level())
	})
	return err
}

func (s *Service) RecordJumpscare(ctx context.Context, id string) {
	s.do(ctx, "haunt.RecordJumpscare", func(context.Context) {
		s.possession.RecordJumpscare(id)
	})
}

func (s *Service) Effects(ctx context.Context) EffectsSnapshot {
	var out EffectsSnapshot
	s.do(ctx, "haunt.Effects", func(context.Context) {
		out = EffectsSnapshot{
			Active:        s.dispatcher.Active(),
			Seasonal:      s.seasonal(s.clock.Now()),
			Customization: s.possession.Customization(),
		}
		if s.ghost != nil {
			out.GhostLevel = s.ghost.HauntingLevel()
		}
	})
	return out
}

// ClearProgress wipes the stored snapshot and resets the state.
func (s *Service) ClearProgress(ctx context.Context) error {
	var err error
	s.do(ctx, "haunt.ClearProgress", func(ctx context.Context) {
		if err = s.repo.Clear(ctx); err != nil {
			log.Printf("[haunt] clear progress failed: %v", err)
			return
		}
		s.possession.ClearProgress()
		s.achievements.Reset()
		if s.started && !s.possession.SessionActive() {
			s.possession.StartSession(ctx)
		}
		s.board.GenerateCursedFiles()
		s.endings.StartPolling()
		log.Printf("[haunt] progress cleared")
	})
	return err
}

func setKeys[K ~string](m map[K]bool) []string {
	out := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, string(k))
		}
	}
	sort.Strings(out)
	return out
}

func recentEvents(events []haunting.Event, n int) []EventView {
	if len(events) > n {
		events = events[len(events)-n:]
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, EventView{Type: e.Type, Timestamp: e.Timestamp, Data: e.Data})
	}
	return out
}
