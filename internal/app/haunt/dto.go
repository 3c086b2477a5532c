package haunt

import (
	"time"

	"necroos/internal/domain/haunting"
)

type MutationResult struct {
	Level   int  `json:"level"`
	Applied bool `json:"applied"`
	Pending int  `json:"pending"`
}

type ExorcismResult struct {
	Success          bool                `json:"success"`
	Kind             haunting.ActionKind `json:"kind"`
	Reason           string              `json:"reason,omitempty"`
	RemainingSeconds int                 `json:"remaining_seconds,omitempty"`
	Reduction        int                 `json:"reduction,omitempty"`
	Level            int                 `json:"level"`
	Cleansed         bool                `json:"cleansed,omitempty"`
	Unlocked         []string            `json:"unlocked,omitempty"`
}

type TextInputResult struct {
	DetectedName string          `json:"detected_name,omitempty"`
	SecretPhrase bool            `json:"secret_phrase"`
	Exorcism     *ExorcismResult `json:"exorcism,omitempty"`
}

type EventView struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// StatisticsSnapshot is the read model behind the statistics screen.
type StatisticsSnapshot struct {
	TotalSessions            int                 `json:"total_sessions"`
	CurrentSessionSeconds    int64               `json:"current_session_seconds"`
	TotalTimeSurvivedSeconds int64               `json:"total_time_survived_seconds"`
	CurrentPossessionLevel   int                 `json:"current_possession_level"`
	MaxPossessionReached     int                 `json:"max_possession_reached"`
	MinPossessionReached     int                 `json:"min_possession_reached"`
	TotalPossessionIncreases int                 `json:"total_possession_increases"`
	TotalPossessionDecreases int                 `json:"total_possession_decreases"`
	ExorcismsPerformed       int                 `json:"exorcisms_performed"`
	JumpscaresSeen           int                 `json:"jumpscares_seen"`
	AchievementsUnlocked     int                 `json:"achievements_unlocked"`
	Achievements             []string            `json:"achievements"`
	EasterEggsFound          int                 `json:"easter_eggs_found"`
	EndingsReached           []string            `json:"endings_reached"`
	Difficulty               haunting.Difficulty `json:"difficulty"`
	EndingReached            haunting.Ending     `json:"ending_reached,omitempty"`
	Cooldowns                map[string]int      `json:"cooldowns"`
	RecentEvents             []EventView         `json:"recent_events"`
}

type EffectsSnapshot struct {
	Active        []string                `json:"active"`
	GhostLevel    int                     `json:"ghost_level"`
	Seasonal      *haunting.SeasonalEvent `json:"seasonal,omitempty"`
	Customization haunting.Customization  `json:"customization"`
}
