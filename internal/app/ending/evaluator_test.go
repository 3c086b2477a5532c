package ending

import (
	"context"
	"testing"
	"time"

	"necroos/internal/adapter/clock/manual"
	"necroos/internal/adapter/repo/memory"
	"necroos/internal/app/persistence"
	"necroos/internal/app/possession"
	"necroos/internal/app/schedule"
	"necroos/internal/domain/haunting"
)

type fixture struct {
	clock     *manual.Clock
	engine    *possession.Engine
	evaluator *Evaluator
	repo      persistence.Repository
	store     *memory.Store
	endings   []haunting.Ending
}

func newFixture() *fixture {
	clk := manual.New(time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC))
	sched := schedule.NewScheduler(clk, &schedule.Loop{})
	store := memory.NewStore(0)
	repo := persistence.Repository{Store: memory.NewSnapshotRepo(store), TxManager: memory.NewTxManager(store)}
	engine := possession.New(possession.Deps{
		Clock:     clk,
		Scheduler: sched,
		Saver:     repo,
		Seasonal:  func(time.Time) *haunting.SeasonalEvent { return nil },
	})
	f := &fixture{clock: clk, engine: engine, repo: repo, store: store}
	f.evaluator = NewEvaluator(engine, repo, clk, sched)
	f.evaluator.OnEndingReached(func(e haunting.Ending) { f.endings = append(f.endings, e) })
	return f
}

func TestCheck_PossessedImmediately(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.engine.StartSession(ctx)
	f.engine.SetLevel(ctx, 100, possession.SourceSet)
	if got := f.evaluator.Check(ctx); got != haunting.EndingPossessed {
		t.Fatalf("expected possessed, got %q", got)
	}
	if got := f.evaluator.Check(ctx); got != haunting.EndingPossessed {
		t.Fatalf("expected existing ending returned, got %q", got)
	}
	if len(f.endings) != 1 {
		t.Fatalf("expected one notification, got %v", f.endings)
	}
}

func TestCheck_PurifiedAfterFiveMinutes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.engine.StartSession(ctx)
	f.clock.Advance(4 * time.Minute)
	if got := f.evaluator.Check(ctx); got != haunting.EndingNone {
		t.Fatalf("expected no ending at 4 minutes, got %q", got)
	}
	f.clock.Advance(time.Minute)
	if got := f.evaluator.Check(ctx); got != haunting.EndingPurified {
		t.Fatalf("expected purified at 5 minutes, got %q", got)
	}
}

func TestPolling_ReachesSurvivor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if err := f.engine.SetDifficulty(ctx, "tourist"); err != nil {
		t.Fatalf("set tourist: %v", err)
	}
	f.engine.SetLevel(ctx, 20, possession.SourceSet)
	f.engine.StartSession(ctx)
	f.evaluator.StartPolling()
	f.clock.Advance(30 * time.Minute)
	if len(f.endings) != 1 || f.endings[0] != haunting.EndingSurvivor {
		t.Fatalf("expected survivor via polling, got %v (level %d)", f.endings, f.engine.Level())
	}
	if f.engine.SessionActive() {
		t.Fatalf("expected session ended by ending")
	}
}

func TestConsumed_MarkerResolvesOnNextStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.engine.StartSession(ctx)
	f.engine.SetLevel(ctx, 72, possession.SourceSet)
	f.evaluator.BeforeTerminate(ctx)
	if _, ok := f.store.Raw(persistence.MarkerKey); !ok {
		t.Fatalf("expected consumed marker written")
	}

	f.clock.Advance(2 * time.Hour)
	if !f.evaluator.ResolveConsumed(ctx) {
		t.Fatalf("expected consumed resolved")
	}
	if f.engine.Ending() != haunting.EndingConsumed {
		t.Fatalf("expected consumed ending, got %q", f.engine.Ending())
	}
	if _, ok := f.store.Raw(persistence.MarkerKey); ok {
		t.Fatalf("expected marker removed after resolution")
	}
}

func TestConsumed_StaleMarkerDiscarded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.engine.SetLevel(ctx, 90, possession.SourceSet)
	f.evaluator.BeforeTerminate(ctx)
	f.clock.Advance(25 * time.Hour)
	if f.evaluator.ResolveConsumed(ctx) {
		t.Fatalf("expected stale marker ignored")
	}
	if _, ok := f.store.Raw(persistence.MarkerKey); ok {
		t.Fatalf("expected stale marker removed")
	}
}

func TestConsumed_NoMarkerAtLowLevel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.engine.SetLevel(ctx, 60, possession.SourceSet)
	f.evaluator.BeforeTerminate(ctx)
	if _, ok := f.store.Raw(persistence.MarkerKey); ok {
		t.Fatalf("expected no marker at level 60")
	}
}
