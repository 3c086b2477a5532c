package possession

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"necroos/internal/app/cooldown"
	"necroos/internal/app/ports"
	"necroos/internal/app/schedule"
	"necroos/internal/app/throttle"
	"necroos/internal/domain/haunting"
)

// Mutation sources carried by LevelChange.
const (
	SourceIncrease   = "increase"
	SourceDecrease   = "decrease"
	SourceEscalation = "escalation"
	SourceSet        = "set"
	SourceFlush      = "flush"
	SourceClear      = "clear"
)

type LevelChange struct {
	Previous int
	Current  int
	Source   string
}

// Saver persists a state snapshot.
type Saver interface {
	Save(ctx context.Context, s haunting.State) string
}

type Deps struct {
	Clock     ports.Clock
	Scheduler *schedule.Scheduler
	Saver     Saver
	Metrics   ports.HauntingMetrics
	// Seasonal defaults to haunting.EvaluateSeasonal.
	Seasonal func(time.Time) *haunting.SeasonalEvent
}

// Engine owns the haunting state. It is the only writer; all calls must come
// from the serial loop.
type Engine struct {
	clock     ports.Clock
	scheduler *schedule.Scheduler
	saver     Saver
	metrics   ports.HauntingMetrics
	seasonal  func(time.Time) *haunting.SeasonalEvent

	state     haunting.State
	acc       *throttle.Accumulator
	remainder float64

	sessionActive bool
	segmentStart  time.Time

	observers []func(LevelChange)
}

func New(deps Deps) *Engine {
	seasonal := deps.Seasonal
	if seasonal == nil {
		seasonal = haunting.EvaluateSeasonal
	}
	return &Engine{
		clock:     deps.Clock,
		scheduler: deps.Scheduler,
		saver:     deps.Saver,
		metrics:   deps.Metrics,
		seasonal:  seasonal,
		state:     haunting.NewState(),
		acc:       throttle.New(deps.Clock, haunting.ThrottleInterval, haunting.MinLevel, haunting.MaxLevel),
	}
}

// Load replaces the state wholesale, typically from storage.
func (e *Engine) Load(s haunting.State) {
	e.state = s
	e.state.Level = haunting.ClampLevel(s.Level)
	e.acc.Load(e.state.Level)
	e.remainder = 0
}

// OnChange registers an observer for applied level changes. Observers run in
// registration order.
func (e *Engine) OnChange(fn func(LevelChange)) {
	e.observers = append(e.observers, fn)
}

func (e *Engine) State() haunting.State           { return e.state.Clone() }
func (e *Engine) Level() int                      { return e.state.Level }
func (e *Engine) Difficulty() haunting.Difficulty { return e.state.Difficulty }
func (e *Engine) Ending() haunting.Ending         { return e.state.EndingReached }
func (e *Engine) SessionActive() bool             { return e.sessionActive }
func (e *Engine) PendingDelta() int               { return e.acc.Pending() }

func (e *Engine) Customization() haunting.Customization {
	return e.state.Clone().Customization
}

func (e *Engine) Cooldowns() cooldown.Tracker {
	return cooldown.NewTracker(e.state.ExorcismCooldowns)
}

// SessionElapsed is the time since the first session start.
func (e *Engine) SessionElapsed() (time.Duration, bool) {
	if e.state.SessionStartedAt == nil {
		return 0, false
	}
	return e.clock.Now().Sub(*e.state.SessionStartedAt), true
}

// SegmentElapsed is the time played since this process started or resumed
// the session. It is zero while no session is active.
func (e *Engine) SegmentElapsed() time.Duration {
	if !e.sessionActive {
		return 0
	}
	return e.clock.Now().Sub(e.segmentStart)
}

// Increase routes a positive delta through the throttle.
func (e *Engine) Increase(amount int) throttle.Result {
	return e.apply(amount, SourceIncrease)
}

func (e *Engine) Decrease(amount int) throttle.Result {
	return e.apply(-amount, SourceDecrease)
}

func (e *Engine) apply(delta int, source string) throttle.Result {
	res := e.acc.Apply(delta)
	if e.metrics != nil {
		e.metrics.RecordMutation(res.Applied)
	}
	if res.Applied {
		e.commit(res, source)
		e.scheduleSave()
	}
	return res
}

// SetLevel bypasses the throttle and saves immediately.
func (e *Engine) SetLevel(ctx context.Context, level int, source string) throttle.Result {
	res := e.acc.Set(level)
	e.commit(res, source)
	e.SaveNow(ctx)
	return res
}

func (e *Engine) commit(res throttle.Result, source string) {
	e.state.Level = res.Value
	if !res.Changed() {
		return
	}
	stats := &e.state.Statistics
	if res.Value > res.Previous {
		stats.TotalPossessionIncreases++
	} else {
		stats.TotalPossessionDecreases++
	}
	if res.Value > stats.MaxPossessionReached {
		stats.MaxPossessionReached = res.Value
	}
	if stats.MinPossessionReached == nil || res.Value < *stats.MinPossessionReached {
		lowest := res.Value
		stats.MinPossessionReached = &lowest
	}
	e.recordEvent("possession_change", map[string]any{
		"source":   source,
		"previous": res.Previous,
		"current":  res.Value,
	})
	e.notify(LevelChange{Previous: res.Previous, Current: res.Value, Source: source})
}

func (e *Engine) notify(change LevelChange) {
	for _, fn := range e.observers {
		fn(change)
	}
}

// TickEscalation applies one escalation step. Fractional rates accumulate in
// a remainder so the long-run rate is exact.
func (e *Engine) TickEscalation() {
	if !e.sessionActive || e.state.EndingReached != haunting.EndingNone {
		return
	}
	rate := e.state.Difficulty.Multiplier() * e.seasonal(e.clock.Now()).PossessionFactor()
	e.remainder += rate
	whole := math.Floor(e.remainder)
	if whole < 1 {
		return
	}
	e.remainder -= whole
	e.apply(int(whole), SourceEscalation)
}

// SetDifficulty switches mode. Nightmare lifts a level of exactly 0 to the
// nightmare start level.
func (e *Engine) SetDifficulty(ctx context.Context, raw string) error {
	d, err := haunting.ParseDifficulty(raw)
	if err != nil {
		log.Printf("[possession] rejected difficulty %q: %v", raw, err)
		return fmt.Errorf("%w: %q", err, raw)
	}
	prev := e.state.Difficulty
	e.state.Difficulty = d
	e.recordEvent("difficulty_change", map[string]any{"from": string(prev), "to": string(d)})
	if d == haunting.DifficultyNightmare && e.state.Level == haunting.MinLevel {
		e.SetLevel(ctx, haunting.NightmareStartLevel, SourceSet)
		return nil
	}
	e.SaveNow(ctx)
	return nil
}

// StartSession begins the first session. Later process starts resume it.
func (e *Engine) StartSession(ctx context.Context) {
	now := e.clock.Now()
	if e.state.SessionStartedAt == nil {
		e.state.SessionStartedAt = &now
	}
	e.countSession()
	e.begin(now)
	e.SaveNow(ctx)
}

// ResumeSession counts a new session on top of a previously started one and
// restarts escalation. The first start time is kept for the ending rules.
func (e *Engine) ResumeSession() {
	e.countSession()
	e.begin(e.clock.Now())
	e.scheduleSave()
}

func (e *Engine) countSession() {
	e.state.Statistics.TotalSessions++
	e.recordEvent("session_start", map[string]any{
		"session_number":     e.state.Statistics.TotalSessions,
		"difficulty":         string(e.state.Difficulty),
		"initial_possession": e.state.Level,
	})
}

func (e *Engine) begin(now time.Time) {
	if e.state.Statistics.MinPossessionReached == nil {
		lowest := e.state.Level
		e.state.Statistics.MinPossessionReached = &lowest
	}
	if e.state.Level > e.state.Statistics.MaxPossessionReached {
		e.state.Statistics.MaxPossessionReached = e.state.Level
	}
	e.sessionActive = true
	e.segmentStart = now
	if e.state.EndingReached == haunting.EndingNone {
		e.scheduler.Every(schedule.TaskEscalation, haunting.EscalationInterval, e.TickEscalation)
	}
}

// EndSession adds the survived time, stops escalation and flushes any
// throttled delta.
func (e *Engine) EndSession() {
	if !e.sessionActive {
		return
	}
	if res := e.acc.Flush(); res.Applied {
		e.commit(res, SourceFlush)
	}
	now := e.clock.Now()
	survived := now.Sub(e.segmentStart)
	e.state.Statistics.TotalTimeSurvived += survived
	e.recordEvent("session_end", map[string]any{
		"duration_seconds":    int(survived / time.Second),
		"final_possession":    e.state.Level,
		"exorcisms_performed": e.state.Statistics.ExorcismsPerformed,
		"ending":              string(e.state.EndingReached),
	})
	e.sessionActive = false
	e.scheduler.Cancel(schedule.TaskEscalation)
	e.scheduleSave()
}

// RecordEnding writes the ending once. It reports false when an ending was
// already recorded.
func (e *Engine) RecordEnding(ctx context.Context, ending haunting.Ending) bool {
	if e.state.EndingReached != haunting.EndingNone {
		return false
	}
	e.state.EndingReached = ending
	e.state.Statistics.EndingsReached[ending] = true
	e.recordEvent("ending_reached", map[string]any{"ending": string(ending), "possession": e.state.Level})
	if e.metrics != nil {
		e.metrics.RecordEnding(string(ending))
	}
	e.EndSession()
	e.SaveNow(ctx)
	return true
}

// RecordExorcism stamps the cooldown and counts the exorcism.
func (e *Engine) RecordExorcism(kind haunting.ActionKind, power int) {
	e.Cooldowns().Record(kind, e.clock.Now())
	e.state.Statistics.ExorcismsPerformed++
	e.recordEvent("exorcism_"+string(kind), map[string]any{
		"reduction":            power,
		"remaining_possession": e.state.Level,
	})
	e.scheduleSave()
}

func (e *Engine) UnlockAchievement(id haunting.AchievementID) bool {
	if e.state.Achievements[id] {
		return false
	}
	e.state.Achievements[id] = true
	e.state.Statistics.AchievementsUnlocked++
	e.recordEvent("achievement_unlocked", map[string]any{"achievement": string(id)})
	e.scheduleSave()
	return true
}

func (e *Engine) HasAchievement(id haunting.AchievementID) bool {
	return e.state.Achievements[id]
}

func (e *Engine) DiscoverEasterEgg(id haunting.EggID) bool {
	if e.state.DiscoveredEasterEggs[id] {
		return false
	}
	e.state.DiscoveredEasterEggs[id] = true
	e.state.Statistics.EasterEggsFound++
	e.recordEvent("easter_egg_discovered", map[string]any{"egg": string(id)})
	e.scheduleSave()
	return true
}

func (e *Engine) DiscoveredEasterEggs() map[haunting.EggID]bool {
	return e.state.Clone().DiscoveredEasterEggs
}

// SetCustomization validates and stores player preferences.
func (e *Engine) SetCustomization(ctx context.Context, c haunting.Customization) error {
	if c.ScareIntensity < 0 || c.ScareIntensity > 100 {
		return fmt.Errorf("%w: scare intensity %d", haunting.ErrInvalidSetting, c.ScareIntensity)
	}
	if _, ok := haunting.ParseTheme(string(c.Theme)); !ok {
		return fmt.Errorf("%w: theme %q", haunting.ErrInvalidSetting, c.Theme)
	}
	enabled := make(map[haunting.Behavior]bool, len(haunting.AllBehaviors))
	for _, b := range haunting.AllBehaviors {
		enabled[b] = c.EnabledBehaviors[b]
	}
	c.EnabledBehaviors = enabled
	e.state.Customization = c
	e.recordEvent("customization_change", map[string]any{"scare_intensity": c.ScareIntensity, "theme": string(c.Theme)})
	e.SaveNow(ctx)
	return nil
}

func (e *Engine) SetDetectedUserName(name string) {
	if e.state.DetectedUserName == name {
		return
	}
	e.state.DetectedUserName = name
	e.scheduleSave()
}

func (e *Engine) DetectedUserName() string { return e.state.DetectedUserName }

func (e *Engine) RecordJumpscare(id string) {
	e.state.Statistics.JumpscaresSeen[id] = true
	e.recordEvent("jumpscare_seen", map[string]any{"jumpscare": id})
	e.scheduleSave()
}

// ClearProgress resets the state. An active session restarts from now.
func (e *Engine) ClearProgress() {
	prev := e.state.Level
	e.scheduler.Cancel(schedule.TaskDebounceSave)
	e.state = haunting.NewState()
	e.acc.Load(0)
	e.remainder = 0
	if e.sessionActive {
		now := e.clock.Now()
		e.state.SessionStartedAt = &now
		e.state.Statistics.TotalSessions = 1
		lowest := 0
		e.state.Statistics.MinPossessionReached = &lowest
		e.segmentStart = now
		e.scheduler.Every(schedule.TaskEscalation, haunting.EscalationInterval, e.TickEscalation)
	}
	if prev != 0 {
		e.notify(LevelChange{Previous: prev, Current: 0, Source: SourceClear})
	}
}

// SaveNow writes the snapshot immediately and drops any pending debounced save.
func (e *Engine) SaveNow(ctx context.Context) {
	e.scheduler.Cancel(schedule.TaskDebounceSave)
	e.saver.Save(ctx, e.state.Clone())
}

// Flush runs a pending debounced save now.
func (e *Engine) Flush() bool {
	return e.scheduler.Flush(schedule.TaskDebounceSave)
}

func (e *Engine) scheduleSave() {
	e.scheduler.After(schedule.TaskDebounceSave, haunting.SaveDebounce, func() {
		e.saver.Save(context.Background(), e.state.Clone())
	})
}

func (e *Engine) recordEvent(kind string, data map[string]any) {
	e.state.Statistics.AppendEvent(haunting.Event{Type: kind, Timestamp: e.clock.Now(), Data: data})
}
