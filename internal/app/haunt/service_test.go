package haunt

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"necroos/internal/adapter/clock/manual"
	"necroos/internal/adapter/repo/memory"
	"necroos/internal/app/gameplay"
	"necroos/internal/app/persistence"
	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

type effectLog struct {
	triggered []string
}

func (e *effectLog) Start(string, ports.EffectParams) error { return nil }
func (e *effectLog) Stop(string) error                      { return nil }
func (e *effectLog) TriggerOnce(id string, _ ports.EffectParams) error {
	e.triggered = append(e.triggered, id)
	return nil
}

func (e *effectLog) has(id string) bool {
	for _, got := range e.triggered {
		if got == id {
			return true
		}
	}
	return false
}

type terminateSignal struct{ fns []func() }

func (s *terminateSignal) OnBeforeTerminate(fn func()) { s.fns = append(s.fns, fn) }
func (s *terminateSignal) fire() {
	for _, fn := range s.fns {
		fn()
	}
}

type harness struct {
	clock     *manual.Clock
	store     *memory.Store
	visual    *effectLog
	meta      *effectLog
	lifecycle *terminateSignal
	svc       *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: manual.New(time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC)),
		store: memory.NewStore(0),
	}
	h.boot(t)
	return h
}

// boot starts a fresh Service over the harness store, as a restart would.
func (h *harness) boot(t *testing.T) {
	t.Helper()
	h.visual = &effectLog{}
	h.meta = &effectLog{}
	h.lifecycle = &terminateSignal{}
	h.svc = New(Deps{
		Clock:     h.clock,
		Store:     memory.NewSnapshotRepo(h.store),
		TxManager: memory.NewTxManager(h.store),
		Visual:    h.visual,
		Audio:     &effectLog{},
		Meta:      h.meta,
		Lifecycle: h.lifecycle,
		Rand:      rand.New(rand.NewPCG(7, 13)),
		Roll:      func() float64 { return 0.99 },
		Seasonal:  func(time.Time) *haunting.SeasonalEvent { return nil },
	})
	if err := h.svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func (h *harness) stored(t *testing.T) haunting.State {
	t.Helper()
	raw, ok := h.store.Raw(persistence.SnapshotKey)
	if !ok {
		t.Fatalf("expected a stored snapshot")
	}
	st, ok, err := persistence.Decode(raw)
	if err != nil || !ok {
		t.Fatalf("expected decodable snapshot, got ok=%v err=%v", ok, err)
	}
	return st
}

func TestPerformExorcism_CooldownBlocksSecondAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 50)

	first, err := h.svc.PerformExorcism(ctx, "text", 15)
	if err != nil || !first.Success {
		t.Fatalf("expected first exorcism to succeed, got %+v err=%v", first, err)
	}
	if first.Level != 35 {
		t.Fatalf("expected 35, got %d", first.Level)
	}
	if !h.visual.has(haunting.EffectExorcismFlash) {
		t.Fatalf("expected exorcism flash, got %v", h.visual.triggered)
	}

	h.clock.Advance(10 * time.Second)
	second, err := h.svc.PerformExorcism(ctx, "text", 15)
	var cooldownErr *CooldownActiveError
	if !errors.As(err, &cooldownErr) || !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected cooldown error, got %v", err)
	}
	if second.Success || second.Reason != haunting.ReasonCooldown {
		t.Fatalf("expected cooldown failure, got %+v", second)
	}
	if cooldownErr.RemainingSeconds != 110 || second.RemainingSeconds != 110 {
		t.Fatalf("expected 110 seconds remaining, got %d/%d", cooldownErr.RemainingSeconds, second.RemainingSeconds)
	}
	if got := h.svc.PossessionLevel(ctx); got != 35 {
		t.Fatalf("expected level to stay 35, got %d", got)
	}
}

func TestPerformExorcism_KindsCoolDownIndependently(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 80)

	if _, err := h.svc.PerformExorcism(ctx, "text", 0); err != nil {
		t.Fatalf("text exorcism: %v", err)
	}
	h.clock.Advance(2 * time.Second)
	res, err := h.svc.PerformExorcism(ctx, "puzzle", 0)
	if err != nil || res.Reduction != 20 {
		t.Fatalf("expected puzzle exorcism with default power, got %+v err=%v", res, err)
	}
	if res.Level != 45 {
		t.Fatalf("expected 45, got %d", res.Level)
	}
}

func TestPerformExorcism_RejectsUnknownKind(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.PerformExorcism(context.Background(), "holy_water", 10)
	if !errors.Is(err, haunting.ErrUnknownActionKind) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestPerformExorcism_CleansingNotificationBelowThirty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 40)

	res, err := h.svc.PerformExorcism(ctx, "puzzle", 0)
	if err != nil || !res.Cleansed {
		t.Fatalf("expected cleansing exorcism, got %+v err=%v", res, err)
	}
	if !h.meta.has(haunting.EffectCleansing) {
		t.Fatalf("expected cleansing notification, got %v", h.meta.triggered)
	}
}

func TestDeleteCursedFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 50)

	files := h.svc.CursedFiles(ctx)
	if len(files) < haunting.MinCursedFiles {
		t.Fatalf("expected cursed files on start, got %d", len(files))
	}
	res, err := h.svc.DeleteCursedFile(ctx, files[0].ID)
	if err != nil || !res.Success || res.Level != 42 {
		t.Fatalf("expected file exorcism to 42, got %+v err=%v", res, err)
	}
	if got := len(h.svc.CursedFiles(ctx)); got != len(files)-1 {
		t.Fatalf("expected file removed, got %d files", got)
	}

	res, err = h.svc.DeleteCursedFile(ctx, "cursed_missing")
	if !errors.Is(err, gameplay.ErrUnknownCursedFile) || res.Reason != haunting.ReasonUnknownFile {
		t.Fatalf("expected unknown file failure, got %+v err=%v", res, err)
	}
}

func TestSolvePuzzle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 60)

	p := h.svc.NewPuzzle(ctx, string(haunting.PuzzleEasy))
	wrong := append([]string(nil), p.Sequence...)
	wrong[0], wrong[len(wrong)-1] = wrong[len(wrong)-1], wrong[0]
	if wrong[0] == p.Sequence[0] {
		wrong[0] = "x"
	}
	res, err := h.svc.SolvePuzzle(ctx, p.ID, wrong)
	if !errors.Is(err, gameplay.ErrPuzzleIncorrect) || res.Success {
		t.Fatalf("expected incorrect solution, got %+v err=%v", res, err)
	}

	res, err = h.svc.SolvePuzzle(ctx, p.ID, p.Sequence)
	if err != nil || res.Level != 40 {
		t.Fatalf("expected puzzle exorcism to 40, got %+v err=%v", res, err)
	}
	if _, err := h.svc.SolvePuzzle(ctx, p.ID, p.Sequence); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected cooldown before puzzle lookup, got %v", err)
	}
}

func TestSubmitText(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 50)

	res, err := h.svc.SubmitText(ctx, "Morgan")
	if err != nil || res.DetectedName != "Morgan" {
		t.Fatalf("expected detected name, got %+v err=%v", res, err)
	}
	res, _ = h.svc.SubmitText(ctx, "help me")
	if !res.SecretPhrase || !h.meta.has(haunting.EffectEasterEgg) {
		t.Fatalf("expected secret phrase egg, got %+v meta=%v", res, h.meta.triggered)
	}
	res, err = h.svc.SubmitText(ctx, "I say BEGONE SPIRIT now")
	if err != nil || res.Exorcism == nil || !res.Exorcism.Success || res.Exorcism.Level != 35 {
		t.Fatalf("expected banishment exorcism, got %+v err=%v", res, err)
	}
	if got := h.svc.State(ctx).DetectedUserName; got != "Morgan" {
		t.Fatalf("expected Morgan stored, got %q", got)
	}
}

func TestKonamiCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var hit bool
	for _, key := range haunting.KonamiSequence {
		hit = h.svc.PressKey(ctx, key)
	}
	if !hit {
		t.Fatalf("expected konami code detected")
	}
	if !h.svc.State(ctx).DiscoveredEasterEggs[haunting.EggKonamiCode] {
		t.Fatalf("expected konami egg recorded")
	}
}

func TestEasterEggs_UnlockInvestigator(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var unlocked []haunting.AchievementID
	h.svc.OnAchievementUnlocked(func(def haunting.AchievementDefinition) {
		unlocked = append(unlocked, def.ID)
	})

	for _, id := range []string{"konami_code", "secret_phrase", "secret_coordinate"} {
		if _, err := h.svc.DiscoverEasterEgg(ctx, id); err != nil {
			t.Fatalf("discover %s: %v", id, err)
		}
	}
	if len(unlocked) != 0 {
		t.Fatalf("expected no achievement yet, got %v", unlocked)
	}
	h.svc.SetPossessionLevel(ctx, haunting.SecretWallpaperLevel)
	if len(unlocked) != 1 || unlocked[0] != haunting.AchievementParanormalInvestigator {
		t.Fatalf("expected investigator unlocked, got %v", unlocked)
	}
	if found, _ := h.svc.DiscoverEasterEgg(ctx, "konami_code"); found {
		t.Fatalf("expected repeat discovery to be a no-op")
	}
	if _, err := h.svc.DiscoverEasterEgg(ctx, "rickroll"); !errors.Is(err, haunting.ErrUnknownEasterEgg) {
		t.Fatalf("expected unknown egg error, got %v", err)
	}
}

func TestPossessedEndingNotifiesHooks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var endings []haunting.Ending
	h.svc.OnEndingReached(func(e haunting.Ending) { endings = append(endings, e) })

	h.svc.SetPossessionLevel(ctx, 100)
	if len(endings) != 1 || endings[0] != haunting.EndingPossessed {
		t.Fatalf("expected possessed ending, got %v", endings)
	}
	if !h.meta.has("meta.ending.possessed") {
		t.Fatalf("expected ending notification, got %v", h.meta.triggered)
	}
}

func TestClose_FlushesPendingDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.IncreasePossession(ctx, 10); err != nil {
		t.Fatalf("increase: %v", err)
	}
	h.clock.Advance(200 * time.Millisecond)
	res, _ := h.svc.IncreasePossession(ctx, 5)
	if res.Applied || res.Pending != 5 {
		t.Fatalf("expected throttled delta, got %+v", res)
	}
	if err := h.svc.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := h.stored(t).Level; got != 15 {
		t.Fatalf("expected stored level 15, got %d", got)
	}

	h.boot(t)
	if got := h.svc.PossessionLevel(ctx); got != 15 {
		t.Fatalf("expected restored level 15, got %d", got)
	}
}

func TestConsumedEndingAcrossRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 70)

	h.lifecycle.fire()
	if _, ok := h.store.Raw(persistence.MarkerKey); !ok {
		t.Fatalf("expected consumed marker before terminate")
	}
	_ = h.svc.Close(ctx)

	h.clock.Advance(time.Hour)
	h.boot(t)
	st := h.svc.State(ctx)
	if st.EndingReached != haunting.EndingConsumed {
		t.Fatalf("expected consumed ending, got %q", st.EndingReached)
	}
	if _, ok := h.store.Raw(persistence.MarkerKey); ok {
		t.Fatalf("expected marker removed after resolution")
	}
}

func TestIncreasePossession_RejectsInvalidAmount(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.IncreasePossession(context.Background(), -5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestClearProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 90)
	_, _ = h.svc.PerformExorcism(ctx, "text", 0)

	if err := h.svc.ClearProgress(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	snap := h.svc.StatisticsSnapshot(ctx)
	if snap.CurrentPossessionLevel != 0 || snap.ExorcismsPerformed != 0 {
		t.Fatalf("expected reset statistics, got %+v", snap)
	}
	if snap.TotalSessions != 1 {
		t.Fatalf("expected session restarted, got %d sessions", snap.TotalSessions)
	}
	if len(snap.Cooldowns) != 0 {
		t.Fatalf("expected cooldowns cleared, got %v", snap.Cooldowns)
	}
}

func TestStatisticsSnapshot_CountsOnlyPlayedTimeAcrossRestarts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 20)

	h.clock.Advance(5 * time.Minute)
	if err := h.svc.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	h.clock.Advance(10 * time.Minute)
	h.boot(t)
	h.clock.Advance(time.Minute)

	snap := h.svc.StatisticsSnapshot(ctx)
	if snap.CurrentSessionSeconds != 60 {
		t.Fatalf("expected current session 60s, got %d", snap.CurrentSessionSeconds)
	}
	if snap.TotalTimeSurvivedSeconds != 360 {
		t.Fatalf("expected total survived 360s, got %d", snap.TotalTimeSurvivedSeconds)
	}
	if snap.TotalSessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", snap.TotalSessions)
	}
}

func TestClearProgress_ForgetsEarlierExorcisms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.SetPossessionLevel(ctx, 90)

	for _, kind := range []string{"text", "file", "puzzle"} {
		if res, err := h.svc.PerformExorcism(ctx, kind, 1); err != nil || !res.Success {
			t.Fatalf("expected %s exorcism to succeed, got %+v err=%v", kind, res, err)
		}
	}
	h.clock.Advance(2 * time.Minute)
	if _, err := h.svc.PerformExorcism(ctx, "text", 1); err != nil {
		t.Fatalf("fourth exorcism: %v", err)
	}

	if err := h.svc.ClearProgress(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	h.svc.SetPossessionLevel(ctx, 50)
	if res, err := h.svc.PerformExorcism(ctx, "file", 1); err != nil || !res.Success {
		t.Fatalf("expected exorcism after clear to succeed, got %+v err=%v", res, err)
	}
	if snap := h.svc.StatisticsSnapshot(ctx); snap.AchievementsUnlocked != 0 {
		t.Fatalf("expected no achievements after clear, got %v", snap.Achievements)
	}
}
