package haunt

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"necroos/internal/app/achievement"
	"necroos/internal/app/dispatch"
	"necroos/internal/app/ending"
	"necroos/internal/app/gameplay"
	"necroos/internal/app/persistence"
	"necroos/internal/app/ports"
	"necroos/internal/app/possession"
	"necroos/internal/app/schedule"
	"necroos/internal/domain/haunting"
)

type Deps struct {
	Clock     ports.Clock
	Store     ports.SnapshotStore
	TxManager ports.TxManager
	Visual    ports.EffectCollaborator
	Audio     ports.EffectCollaborator
	Meta      ports.EffectCollaborator
	Ghost     ports.GhostBehaviorSource
	Lifecycle ports.SessionLifecycleSignal
	Metrics   ports.HauntingMetrics
	Rand      *rand.Rand
	// Roll overrides the probability source of the effect bands.
	Roll     func() float64
	Seasonal func(time.Time) *haunting.SeasonalEvent
	Tracer   trace.Tracer
}

// Service is the outward face of the haunting core. Every call, timer fire
// and collaborator signal runs through one serial loop.
type Service struct {
	clock    ports.Clock
	loop     *schedule.Loop
	sched    *schedule.Scheduler
	repo     persistence.Repository
	metrics  ports.HauntingMetrics
	tracer   trace.Tracer
	seasonal func(time.Time) *haunting.SeasonalEvent
	ghost    ports.GhostBehaviorSource

	possession   *possession.Engine
	endings      *ending.Evaluator
	achievements *achievement.Engine
	dispatcher   *dispatch.Dispatcher
	board        *gameplay.Board

	konami haunting.KonamiDetector
	clicks haunting.CoordinateDetector

	started          bool
	achievementHooks []func(haunting.AchievementDefinition)
	endingHooks      []func(haunting.Ending)
}

func New(deps Deps) *Service {
	if deps.Clock == nil {
		panic("haunt: clock is required")
	}
	if deps.Seasonal == nil {
		deps.Seasonal = haunting.EvaluateSeasonal
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("necroos/internal/app/haunt")
	}
	if deps.Roll == nil && deps.Rand != nil {
		deps.Roll = deps.Rand.Float64
	}

	loop := &schedule.Loop{}
	sched := schedule.NewScheduler(deps.Clock, loop)
	repo := persistence.Repository{Store: deps.Store, TxManager: deps.TxManager, Metrics: deps.Metrics}
	engine := possession.New(possession.Deps{
		Clock:     deps.Clock,
		Scheduler: sched,
		Saver:     repo,
		Metrics:   deps.Metrics,
		Seasonal:  deps.Seasonal,
	})
	s := &Service{
		clock:        deps.Clock,
		loop:         loop,
		sched:        sched,
		repo:         repo,
		metrics:      deps.Metrics,
		tracer:       deps.Tracer,
		seasonal:     deps.Seasonal,
		ghost:        deps.Ghost,
		possession:   engine,
		endings:      ending.NewEvaluator(engine, repo, deps.Clock, sched),
		achievements: achievement.NewEngine(engine, deps.Clock),
		board:        gameplay.NewBoard(deps.Clock, deps.Rand),
	}
	s.dispatcher = dispatch.New(dispatch.Deps{
		Possession: engine,
		Visual:     deps.Visual,
		Audio:      deps.Audio,
		Meta:       deps.Meta,
		Ghost:      deps.Ghost,
		Clock:      deps.Clock,
		Scheduler:  sched,
		Metrics:    deps.Metrics,
		Roll:       deps.Roll,
		Seasonal:   deps.Seasonal,
	})

	engine.OnChange(s.onLevelChange)
	s.endings.OnEndingReached(s.onEnding)
	s.achievements.OnUnlocked(s.onAchievement)

	if deps.Ghost != nil {
		// Ghost sources signal from outside the loop.
		deps.Ghost.OnChange(func(int) {
			s.loop.Do(func() {
				if s.started {
					s.dispatcher.Evaluate(s.possession.Level())
				}
			})
		})
	}
	if deps.Lifecycle != nil {
		deps.Lifecycle.OnBeforeTerminate(func() {
			s.loop.Do(func() {
				if s.started {
					s.endings.BeforeTerminate(context.Background())
				}
			})
		})
	}
	return s
}

// Start loads the snapshot, resolves a pending consumed ending and starts or
// resumes the session.
func (s *Service) Start(ctx context.Context) error {
	s.do(ctx, "haunt.Start", func(ctx context.Context) {
		if s.started {
			return
		}
		s.sched.Reopen()
		state, found := s.repo.Load(ctx)
		s.possession.Load(state)
		if s.endings.ResolveConsumed(ctx) {
			log.Printf("[haunt] previous session ended consumed")
		}
		if s.possession.State().SessionStartedAt == nil {
			s.possession.StartSession(ctx)
		} else {
			s.possession.ResumeSession()
		}
		s.endings.Check(ctx)
		s.endings.StartPolling()
		s.board.GenerateCursedFiles()
		s.dispatcher.Evaluate(s.possession.Level())
		s.started = true
		log.Printf("[haunt] session started (restored=%v level=%d difficulty=%s)", found, s.possession.Level(), s.possession.Difficulty())
	})
	return nil
}

// Close ends the session, writes any pending save and cancels every timer.
func (s *Service) Close(ctx context.Context) error {
	s.do(ctx, "haunt.Close", func(ctx context.Context) {
		if !s.started {
			return
		}
		s.possession.EndSession()
		s.possession.Flush()
		s.dispatcher.StopAll()
		s.sched.CancelAll(true)
		s.started = false
		log.Printf("[haunt] session closed at level %d", s.possession.Level())
	})
	return nil
}

// OnAchievementUnlocked registers fn; it runs inside the loop and must not
// call back into the Service.
func (s *Service) OnAchievementUnlocked(fn func(haunting.AchievementDefinition)) {
	s.loop.Do(func() { s.achievementHooks = append(s.achievementHooks, fn) })
}

// OnEndingReached registers fn; it runs inside the loop and must not call back
// into the Service.
func (s *Service) OnEndingReached(fn func(haunting.Ending)) {
	s.loop.Do(func() { s.endingHooks = append(s.endingHooks, fn) })
}

func (s *Service) onLevelChange(change possession.LevelChange) {
	s.dispatcher.Evaluate(change.Current)
	if change.Source != possession.SourceClear {
		s.endings.Check(context.Background())
	}
	if haunting.IsSecretWallpaperLevel(change.Current) {
		s.discover(haunting.EggSecretWallpaper)
	}
}

func (s *Service) onEnding(e haunting.Ending) {
	s.dispatcher.TriggerOnce(haunting.CategoryMeta, "meta.ending."+string(e), ports.EffectParams{"ending": string(e)})
	for _, fn := range s.endingHooks {
		fn(e)
	}
}

func (s *Service) onAchievement(def haunting.AchievementDefinition) {
	s.dispatcher.TriggerOnce(haunting.CategoryMeta, haunting.EffectAchievement, ports.EffectParams{
		"achievement": string(def.ID),
		"name":        def.Name,
		"description": def.Description,
	})
	for _, fn := range s.achievementHooks {
		fn(def)
	}
}

// do runs fn inside the loop under a span named name.
func (s *Service) do(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	s.loop.Do(func() {
		fn(ctx)
		span.SetAttributes(attribute.Int("haunting.level", s.possession.Level()))
	})
}
