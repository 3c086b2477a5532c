package achievement

import (
	"fmt"
	"log"
	"time"

	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

type Possession interface {
	UnlockAchievement(id haunting.AchievementID) bool
	DiscoveredEasterEggs() map[haunting.EggID]bool
}

// Engine evaluates achievement conditions over a sliding exorcism log. The log
// lives in memory only; conditions are re-derived on every Check.
type Engine struct {
	possession Possession
	clock      ports.Clock
	exorcisms  []time.Time
	observers  []func(haunting.AchievementDefinition)
}

func NewEngine(possession Possession, clock ports.Clock) *Engine {
	return &Engine{possession: possession, clock: clock}
}

func (e *Engine) OnUnlocked(fn func(haunting.AchievementDefinition)) {
	e.observers = append(e.observers, fn)
}

// RecordExorcism appends to the log and drops entries outside the window.
func (e *Engine) RecordExorcism() {
	now := e.clock.Now()
	e.exorcisms = haunting.PruneExorcismLog(append(e.exorcisms, now), now)
}

// Reset drops the exorcism log.
func (e *Engine) Reset() {
	e.exorcisms = nil
}

func (e *Engine) RecentExorcisms() int {
	return len(e.exorcisms)
}

// Check unlocks every achievement whose condition now holds and returns the
// ones unlocked by this call.
func (e *Engine) Check() []haunting.AchievementDefinition {
	var unlocked []haunting.AchievementDefinition
	if haunting.ExorcistEarned(e.exorcisms) {
		if def, ok := e.unlock(haunting.AchievementExorcist); ok {
			unlocked = append(unlocked, def)
		}
	}
	if haunting.InvestigatorEarned(e.possession.DiscoveredEasterEggs()) {
		if def, ok := e.unlock(haunting.AchievementParanormalInvestigator); ok {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}

// Unlock grants an achievement by id. It reports whether this call unlocked it.
func (e *Engine) Unlock(id string) (bool, error) {
	def, err := haunting.LookupAchievement(id)
	if err != nil {
		log.Printf("[achievement] unknown achievement %q", id)
		return false, fmt.Errorf("%w: %q", err, id)
	}
	_, ok := e.unlock(def.ID)
	return ok, nil
}

func (e *Engine) unlock(id haunting.AchievementID) (haunting.AchievementDefinition, bool) {
	def := haunting.Achievements[id]
	if !e.possession.UnlockAchievement(id) {
		return def, false
	}
	log.Printf("[achievement] unlocked %s", def.Name)
	for _, fn := range e.observers {
		fn(def)
	}
	return def, true
}
