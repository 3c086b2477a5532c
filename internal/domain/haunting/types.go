package haunting

import (
	"errors"
	"time"
)

var (
	ErrInvalidDifficulty  = errors.New("invalid difficulty")
	ErrUnknownActionKind  = errors.New("unknown exorcism kind")
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrUnknownEasterEgg   = errors.New("unknown easter egg")
	ErrInvalidSetting     = errors.New("invalid customization setting")
)

type Difficulty string

const (
	DifficultyTourist    Difficulty = "tourist"
	DifficultyNormal     Difficulty = "normal"
	DifficultyNightmare  Difficulty = "nightmare"
	DifficultyPermadeath Difficulty = "permadeath"
)

func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case DifficultyTourist, DifficultyNormal, DifficultyNightmare, DifficultyPermadeath:
		return d, nil
	}
	return "", ErrInvalidDifficulty
}

// Multiplier is the escalation rate in points per minute. Permadeath shares
// normal's rate; its lethality comes from the ending rules.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyTourist:
		return 0.5
	case DifficultyNightmare:
		return 3.0
	case DifficultyNormal, DifficultyPermadeath:
		return 1.5
	default:
		return 1.5
	}
}

type Ending string

const (
	EndingNone      Ending = ""
	EndingSurvivor  Ending = "survivor"
	EndingConsumed  Ending = "consumed"
	EndingPurified  Ending = "purified"
	EndingPossessed Ending = "possessed"
)

func ParseEnding(raw string) (Ending, bool) {
	switch e := Ending(raw); e {
	case EndingSurvivor, EndingConsumed, EndingPurified, EndingPossessed:
		return e, true
	}
	return EndingNone, false
}

type ActionKind string

const (
	ActionText   ActionKind = "text"
	ActionFile   ActionKind = "file"
	ActionPuzzle ActionKind = "puzzle"
)

func ParseActionKind(raw string) (ActionKind, error) {
	switch k := ActionKind(raw); k {
	case ActionText, ActionFile, ActionPuzzle:
		return k, nil
	}
	return "", ErrUnknownActionKind
}

// ExorcismPower is the default reduction of each exorcism kind.
var ExorcismPower = map[ActionKind]int{
	ActionText:   15,
	ActionFile:   8,
	ActionPuzzle: 20,
}

type AchievementID string

const (
	AchievementExorcist               AchievementID = "exorcist"
	AchievementParanormalInvestigator AchievementID = "paranormal_investigator"
)

type EggID string

const (
	EggKonamiCode       EggID = "konami_code"
	EggSecretPhrase     EggID = "secret_phrase"
	EggSecretCoordinate EggID = "secret_coordinate"
	EggSecretWallpaper  EggID = "secret_wallpaper"
)

// AllEasterEggs is the exhaustive egg catalog.
var AllEasterEggs = []EggID{EggKonamiCode, EggSecretPhrase, EggSecretCoordinate, EggSecretWallpaper}

func ParseEggID(raw string) (EggID, error) {
	for _, id := range AllEasterEggs {
		if string(id) == raw {
			return id, nil
		}
	}
	return "", ErrUnknownEasterEgg
}

type Behavior string

const (
	BehaviorPossessedApps    Behavior = "possessedApps"
	BehaviorAudioHaunting    Behavior = "audioHaunting"
	BehaviorVisualCorruption Behavior = "visualCorruption"
)

var AllBehaviors = []Behavior{BehaviorPossessedApps, BehaviorAudioHaunting, BehaviorVisualCorruption}

type Theme string

const (
	ThemeDefault  Theme = "default"
	ThemeHospital Theme = "hospital"
	ThemeAsylum   Theme = "asylum"
	ThemeCemetery Theme = "cemetery"
)

func ParseTheme(raw string) (Theme, bool) {
	switch t := Theme(raw); t {
	case ThemeDefault, ThemeHospital, ThemeAsylum, ThemeCemetery:
		return t, true
	}
	return "", false
}

type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type Customization struct {
	ScareIntensity     int               `json:"scare_intensity"`
	EnabledBehaviors   map[Behavior]bool `json:"enabled_behaviors"`
	Theme              Theme             `json:"theme"`
	ReducedMotion      bool              `json:"reduced_motion"`
	VisualCuesForAudio bool              `json:"visual_cues_for_audio"`
}

func DefaultCustomization() Customization {
	enabled := make(map[Behavior]bool, len(AllBehaviors))
	for _, b := range AllBehaviors {
		enabled[b] = true
	}
	return Customization{
		ScareIntensity:     100,
		EnabledBehaviors:   enabled,
		Theme:              ThemeDefault,
		VisualCuesForAudio: true,
	}
}

func (c Customization) Enabled(b Behavior) bool {
	if b == "" {
		return true
	}
	return c.EnabledBehaviors[b]
}

type Statistics struct {
	TotalSessions            int             `json:"total_sessions"`
	TotalTimeSurvived        time.Duration   `json:"total_time_survived"`
	ExorcismsPerformed       int             `json:"exorcisms_performed"`
	MaxPossessionReached     int             `json:"max_possession_reached"`
	MinPossessionReached     *int            `json:"min_possession_reached,omitempty"`
	TotalPossessionIncreases int             `json:"total_possession_increases"`
	TotalPossessionDecreases int             `json:"total_possession_decreases"`
	AchievementsUnlocked     int             `json:"achievements_unlocked"`
	EasterEggsFound          int             `json:"easter_eggs_found"`
	EndingsReached           map[Ending]bool `json:"endings_reached"`
	JumpscaresSeen           map[string]bool `json:"jumpscares_seen"`
	EventsHistory            []Event         `json:"events_history"`
}

// State is the root aggregate. Only the possession engine writes it.
type State struct {
	Level                int                      `json:"level"`
	Difficulty           Difficulty               `json:"difficulty"`
	SessionStartedAt     *time.Time               `json:"session_started_at,omitempty"`
	EndingReached        Ending                   `json:"ending_reached,omitempty"`
	ExorcismCooldowns    map[ActionKind]time.Time `json:"exorcism_cooldowns"`
	Achievements         map[AchievementID]bool   `json:"achievements"`
	DiscoveredEasterEggs map[EggID]bool           `json:"discovered_easter_eggs"`
	Customization        Customization            `json:"customization"`
	DetectedUserName     string                   `json:"detected_user_name,omitempty"`
	Statistics           Statistics               `json:"statistics"`
}

func NewState() State {
	return State{
		Level:                0,
		Difficulty:           DifficultyNormal,
		ExorcismCooldowns:    map[ActionKind]time.Time{},
		Achievements:         map[AchievementID]bool{},
		DiscoveredEasterEggs: map[EggID]bool{},
		Customization:        DefaultCustomization(),
		Statistics: Statistics{
			EndingsReached: map[Ending]bool{},
			JumpscaresSeen: map[string]bool{},
		},
	}
}

// Clone returns a deep copy safe to hand to readers outside the engine.
func (s State) Clone() State {
	out := s
	if s.SessionStartedAt != nil {
		at := *s.SessionStartedAt
		out.SessionStartedAt = &at
	}
	out.ExorcismCooldowns = make(map[ActionKind]time.Time, len(s.ExorcismCooldowns))
	for k, v := range s.ExorcismCooldowns {
		out.ExorcismCooldowns[k] = v
	}
	out.Achievements = make(map[AchievementID]bool, len(s.Achievements))
	for k, v := range s.Achievements {
		out.Achievements[k] = v
	}
	out.DiscoveredEasterEggs = make(map[EggID]bool, len(s.DiscoveredEasterEggs))
	for k, v := range s.DiscoveredEasterEggs {
		out.DiscoveredEasterEggs[k] = v
	}
	out.Customization.EnabledBehaviors = make(map[Behavior]bool, len(s.Customization.EnabledBehaviors))
	for k, v := range s.Customization.EnabledBehaviors {
		out.Customization.EnabledBehaviors[k] = v
	}
	if s.Statistics.MinPossessionReached != nil {
		min := *s.Statistics.MinPossessionReached
		out.Statistics.MinPossessionReached = &min
	}
	out.Statistics.EndingsReached = make(map[Ending]bool, len(s.Statistics.EndingsReached))
	for k, v := range s.Statistics.EndingsReached {
		out.Statistics.EndingsReached[k] = v
	}
	out.Statistics.JumpscaresSeen = make(map[string]bool, len(s.Statistics.JumpscaresSeen))
	for k, v := range s.Statistics.JumpscaresSeen {
		out.Statistics.JumpscaresSeen[k] = v
	}
	out.Statistics.EventsHistory = append([]Event(nil), s.Statistics.EventsHistory...)
	return out
}

// AppendEvent adds an event to the bounded history, evicting the oldest.
func (s *Statistics) AppendEvent(e Event) {
	s.EventsHistory = append(s.EventsHistory, e)
	if over := len(s.EventsHistory) - MaxEventsHistory; over > 0 {
		s.EventsHistory = append([]Event(nil), s.EventsHistory[over:]...)
	}
}

func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
