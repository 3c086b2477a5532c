package haunting

import "time"

type EffectCategory string

const (
	CategoryVisual EffectCategory = "visual"
	CategoryAudio  EffectCategory = "audio"
	CategoryMeta   EffectCategory = "meta"
)

// EffectMode says what happens on an ascending crossing. Every mode stops the
// effect on the matching descending crossing.
type EffectMode int

const (
	// ModeContinuous starts a long-running effect.
	ModeContinuous EffectMode = iota
	// ModeOnce fires a single trigger.
	ModeOnce
	// ModeDelayed fires a single trigger after a random delay, only if the
	// level still qualifies.
	ModeDelayed
)

const (
	EffectGlitch           = "visual.glitch"
	EffectWallpaperFlicker = "visual.wallpaper_flicker"
	EffectWallpaperReplace = "visual.wallpaper_replace"
	EffectFrequentFlicker  = "visual.frequent_flicker"
	EffectInvert           = "visual.invert"
	EffectExorcismFlash    = "visual.exorcism_flash"
	EffectFootsteps        = "audio.footsteps"
	EffectStatic           = "audio.static"
	EffectWhispers         = "audio.whispers"
	EffectHeartbeat        = "audio.heartbeat"
	EffectOverheating      = "meta.overheating_warning"
	EffectRAMError         = "meta.ram_error"
	EffectScreenCrack      = "meta.screen_crack"
	EffectWatching         = "meta.watching_notification"
	EffectRandomMeta       = "meta.random"
	EffectCleansing        = "meta.cleansing_notification"
	EffectEasterEgg        = "meta.easter_egg_notification"
	EffectAchievement      = "meta.achievement_notification"
	EffectSecretJumpscare  = "meta.secret_jumpscare"
)

const HeartbeatBPM = 100

type Threshold struct {
	EffectID string
	Category EffectCategory
	Behavior Behavior
	Level    int
	Mode     EffectMode
	// OnEnter are one-shot companions fired with the ascending crossing.
	OnEnter []string
}

// Thresholds is ordered by category then level.
var Thresholds = []Threshold{
	{EffectID: EffectGlitch, Category: CategoryVisual, Behavior: BehaviorVisualCorruption, Level: 60, Mode: ModeContinuous,
		OnEnter: []string{EffectWallpaperFlicker, EffectWallpaperReplace}},
	{EffectID: EffectFrequentFlicker, Category: CategoryVisual, Behavior: BehaviorVisualCorruption, Level: 70, Mode: ModeContinuous},
	{EffectID: EffectInvert, Category: CategoryVisual, Behavior: BehaviorVisualCorruption, Level: 80, Mode: ModeContinuous},

	{EffectID: EffectFootsteps, Category: CategoryAudio, Behavior: BehaviorAudioHaunting, Level: 25, Mode: ModeContinuous},
	{EffectID: EffectStatic, Category: CategoryAudio, Behavior: BehaviorAudioHaunting, Level: 50, Mode: ModeContinuous},
	{EffectID: EffectWhispers, Category: CategoryAudio, Behavior: BehaviorAudioHaunting, Level: 70, Mode: ModeContinuous},
	{EffectID: EffectHeartbeat, Category: CategoryAudio, Behavior: BehaviorAudioHaunting, Level: 80, Mode: ModeContinuous},

	{EffectID: EffectOverheating, Category: CategoryMeta, Level: 45, Mode: ModeOnce},
	{EffectID: EffectRAMError, Category: CategoryMeta, Level: 55, Mode: ModeOnce},
	{EffectID: EffectScreenCrack, Category: CategoryMeta, Level: 65, Mode: ModeOnce},
	{EffectID: EffectWatching, Category: CategoryMeta, Level: 75, Mode: ModeDelayed},
}

// WatchingDelayMin and WatchingDelaySpan bound the delayed trigger before the
// seasonal interval multiplier is applied.
const (
	WatchingDelayMin  = 5 * time.Second
	WatchingDelaySpan = 10 * time.Second
)

// Band is a probabilistic one-shot rolled on every evaluation while the level
// lies in [Min, Max).
type Band struct {
	EffectID    string
	Category    EffectCategory
	Behavior    Behavior
	Min         int
	Max         int
	Probability float64
}

var Bands = []Band{
	{EffectID: EffectWallpaperFlicker, Category: CategoryVisual, Behavior: BehaviorVisualCorruption, Min: 70, Max: 80, Probability: 0.1},
	{EffectID: EffectWallpaperFlicker, Category: CategoryVisual, Behavior: BehaviorVisualCorruption, Min: 80, Max: MaxLevel + 1, Probability: 0.3},
	{EffectID: EffectRandomMeta, Category: CategoryMeta, Behavior: BehaviorPossessedApps, Min: 46, Max: MaxLevel + 1, Probability: 0.1},
}

func (b Band) Contains(level int) bool {
	return level >= b.Min && level < b.Max
}

// ScaledProbability folds the seasonal haunting multiplier, the ghost
// contribution and the scare intensity into p, capped at 1.
func ScaledProbability(p, hauntingMultiplier float64, ghostLevel, scareIntensity int) float64 {
	ghost := 1 + float64(ghostLevel*GhostContributionPerLevel)/100
	scaled := p * hauntingMultiplier * ghost * float64(scareIntensity) / 100
	if scaled > 1 {
		return 1
	}
	if scaled < 0 {
		return 0
	}
	return scaled
}
