package dispatch

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"necroos/internal/app/ports"
	"necroos/internal/app/schedule"
	"necroos/internal/domain/haunting"
)

type Possession interface {
	Level() int
	Customization() haunting.Customization
	DetectedUserName() string
}

type Deps struct {
	Possession Possession
	Visual     ports.EffectCollaborator
	Audio      ports.EffectCollaborator
	Meta       ports.EffectCollaborator
	Ghost      ports.GhostBehaviorSource
	Clock      ports.Clock
	Scheduler  *schedule.Scheduler
	Metrics    ports.HauntingMetrics
	// Roll returns a value in [0,1). Defaults to math/rand/v2.
	Roll     func() float64
	Seasonal func(time.Time) *haunting.SeasonalEvent
}

// Dispatcher turns level changes into effect starts, stops and one-shots.
// Threshold effects fire on crossings only; the active set provides the
// hysteresis.
type Dispatcher struct {
	deps      Deps
	active    map[string]bool
	lastLevel int
}

func New(deps Deps) *Dispatcher {
	if deps.Roll == nil {
		deps.Roll = rand.Float64
	}
	if deps.Seasonal == nil {
		deps.Seasonal = haunting.EvaluateSeasonal
	}
	return &Dispatcher{deps: deps, active: map[string]bool{}, lastLevel: -1}
}

// Evaluate reconciles the active set with level and rolls the probabilistic
// bands.
func (d *Dispatcher) Evaluate(level int) {
	season := d.deps.Seasonal(d.deps.Clock.Now())
	custom := d.deps.Possession.Customization()
	levelChanged := level != d.lastLevel

	for _, th := range haunting.Thresholds {
		should := custom.Enabled(th.Behavior) && level >= th.Level
		was := d.active[th.EffectID]
		switch {
		case should && !was:
			d.active[th.EffectID] = true
			d.enter(th, level, season)
		case !should && was:
			delete(d.active, th.EffectID)
			d.leave(th)
		case should && levelChanged && th.Category == haunting.CategoryAudio:
			// Running audio layers follow the level-based volume.
			d.start(th, level)
		}
	}

	for _, band := range haunting.Bands {
		if !band.Contains(level) || !custom.Enabled(band.Behavior) {
			continue
		}
		p := haunting.ScaledProbability(band.Probability, season.HauntingFactor(), d.ghostLevel(), custom.ScareIntensity)
		if d.deps.Roll() < p {
			d.TriggerOnce(band.Category, band.EffectID, ports.EffectParams{"level": level, "intensity": custom.ScareIntensity})
		}
	}
	d.lastLevel = level
}

func (d *Dispatcher) enter(th haunting.Threshold, level int, season *haunting.SeasonalEvent) {
	switch th.Mode {
	case haunting.ModeContinuous:
		d.start(th, level)
	case haunting.ModeOnce:
		d.TriggerOnce(th.Category, th.EffectID, d.params(th, level))
	case haunting.ModeDelayed:
		delay := haunting.WatchingDelayMin + time.Duration(d.deps.Roll()*float64(haunting.WatchingDelaySpan))
		delay = time.Duration(float64(delay) * season.IntervalFactor())
		d.deps.Scheduler.After(delayedTask(th.EffectID), delay, func() {
			current := d.deps.Possession.Level()
			if !d.active[th.EffectID] || current < th.Level {
				return
			}
			d.TriggerOnce(th.Category, th.EffectID, d.params(th, current))
		})
	}
	for _, id := range th.OnEnter {
		d.TriggerOnce(th.Category, id, d.params(th, level))
	}
}

func (d *Dispatcher) leave(th haunting.Threshold) {
	if th.Mode == haunting.ModeDelayed {
		d.deps.Scheduler.Cancel(delayedTask(th.EffectID))
	}
	d.call(th.Category, "stop", th.EffectID, func(c ports.EffectCollaborator) error {
		return c.Stop(th.EffectID)
	})
}

func (d *Dispatcher) start(th haunting.Threshold, level int) {
	params := d.params(th, level)
	d.call(th.Category, "start", th.EffectID, func(c ports.EffectCollaborator) error {
		return c.Start(th.EffectID, params)
	})
}

func (d *Dispatcher) params(th haunting.Threshold, level int) ports.EffectParams {
	custom := d.deps.Possession.Customization()
	params := ports.EffectParams{
		"level":          level,
		"intensity":      custom.ScareIntensity,
		"reduced_motion": custom.ReducedMotion,
	}
	if th.Category == haunting.CategoryAudio {
		params["volume"] = haunting.AudioVolumeForLevel(level) * float64(custom.ScareIntensity) / 100
		params["visual_cue"] = custom.VisualCuesForAudio
	}
	switch th.EffectID {
	case haunting.EffectWhispers:
		params["user_name"] = d.deps.Possession.DetectedUserName()
	case haunting.EffectHeartbeat:
		params["bpm"] = haunting.HeartbeatBPM
	}
	return params
}

// TriggerOnce fires a one-shot effect on the collaborator for category.
func (d *Dispatcher) TriggerOnce(category haunting.EffectCategory, effectID string, params ports.EffectParams) {
	d.call(category, "trigger", effectID, func(c ports.EffectCollaborator) error {
		return c.TriggerOnce(effectID, params)
	})
}

// StopAll stops every active effect and forgets the active set.
func (d *Dispatcher) StopAll() {
	for _, th := range haunting.Thresholds {
		if d.active[th.EffectID] {
			delete(d.active, th.EffectID)
			d.leave(th)
		}
	}
	d.lastLevel = -1
}

// Active lists active threshold effects in sorted order.
func (d *Dispatcher) Active() []string {
	out := make([]string, 0, len(d.active))
	for id := range d.active {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (d *Dispatcher) ghostLevel() int {
	if d.deps.Ghost == nil {
		return 0
	}
	return d.deps.Ghost.HauntingLevel()
}

func (d *Dispatcher) collaborator(category haunting.EffectCategory) ports.EffectCollaborator {
	switch category {
	case haunting.CategoryVisual:
		return d.deps.Visual
	case haunting.CategoryAudio:
		return d.deps.Audio
	case haunting.CategoryMeta:
		return d.deps.Meta
	}
	return nil
}

// call isolates one collaborator invocation. Errors and panics are logged and
// counted, never propagated.
func (d *Dispatcher) call(category haunting.EffectCategory, op, effectID string, fn func(ports.EffectCollaborator) error) {
	c := d.collaborator(category)
	if c == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.fail(op, effectID, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(c); err != nil {
		d.fail(op, effectID, err)
	}
}

func (d *Dispatcher) fail(op, effectID string, err error) {
	log.Printf("[dispatch] %s %s failed: %v", op, effectID, err)
	if d.deps.Metrics != nil {
		d.deps.Metrics.RecordDispatchFailure(effectID)
	}
}

func delayedTask(effectID string) string {
	return "effect." + effectID
}
