package haunting

import "time"

type AchievementDefinition struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
}

var Achievements = map[AchievementID]AchievementDefinition{
	AchievementExorcist: {
		ID:          AchievementExorcist,
		Name:        "Exorcist",
		Description: "Performed 5 exorcisms within 3 minutes",
	},
	AchievementParanormalInvestigator: {
		ID:          AchievementParanormalInvestigator,
		Name:        "Paranormal Investigator",
		Description: "Discovered all easter eggs",
	},
}

func LookupAchievement(id string) (AchievementDefinition, error) {
	def, ok := Achievements[AchievementID(id)]
	if !ok {
		return AchievementDefinition{}, ErrUnknownAchievement
	}
	return def, nil
}

// PruneExorcismLog keeps entries strictly newer than now minus the window.
func PruneExorcismLog(entries []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-AchievementWindow)
	out := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			out = append(out, ts)
		}
	}
	return out
}

// ExorcistEarned holds when the five most recent exorcisms span at most the
// achievement window. entries must be in chronological order.
func ExorcistEarned(entries []time.Time) bool {
	if len(entries) < ExorcistRequiredRuns {
		return false
	}
	recent := entries[len(entries)-ExorcistRequiredRuns:]
	return recent[len(recent)-1].Sub(recent[0]) <= AchievementWindow
}

func InvestigatorEarned(discovered map[EggID]bool) bool {
	for _, id := range AllEasterEggs {
		if !discovered[id] {
			return false
		}
	}
	return true
}
