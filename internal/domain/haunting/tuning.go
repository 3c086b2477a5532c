package haunting

import (
	"math"
	"time"
)

const (
	MinLevel = 0
	MaxLevel = 100

	MaxEventsHistory = 100

	ThrottleInterval   = time.Second
	SaveDebounce       = 5 * time.Second
	EscalationInterval = 60 * time.Second
	EndingPollInterval = 10 * time.Second

	ExorcismCooldown     = 120 * time.Second
	AchievementWindow    = 180 * time.Second
	ExorcistRequiredRuns = 5

	NightmareStartLevel = 40

	PurifiedMinSession = 5 * time.Minute
	SurvivorMinSession = 30 * time.Minute
	SurvivorMaxLevel   = 50
	ConsumedMinLevel   = 60
	ConsumedMarkerTTL  = 24 * time.Hour

	CleansingBelowLevel  = 30
	SecretWallpaperLevel = 66

	GhostContributionPerLevel = 5

	AudioBaseVolume = 0.3
)

// AudioVolumeForLevel raises layer volume by 5dB per 10 possession points,
// capped at unity gain.
func AudioVolumeForLevel(level int) float64 {
	level = ClampLevel(level)
	db := float64(level) / 10 * 5
	return math.Min(1.0, AudioBaseVolume*math.Pow(10, db/20))
}
