package haunting

import (
	"math"
	"time"
)

type SeasonalKind string

const (
	SeasonHalloween    SeasonalKind = "halloween"
	SeasonFriday13     SeasonalKind = "friday13"
	SeasonWitchingHour SeasonalKind = "witchingHour"
	SeasonFullMoon     SeasonalKind = "fullMoon"
)

// SeasonalEvent carries the modifiers of the active calendar condition.
// Zero multipliers mean "not defined" and read back as 1 via the accessors.
type SeasonalEvent struct {
	Kind                     SeasonalKind `json:"type"`
	Name                     string       `json:"name"`
	Description              string       `json:"description"`
	PossessionMultiplier     float64      `json:"possession_multiplier,omitempty"`
	HauntingMultiplier       float64      `json:"haunting_multiplier,omitempty"`
	IntervalMultiplier       float64      `json:"interval_multiplier,omitempty"`
	JumpscareInjectsNumber13 bool         `json:"jumpscare_injects_number_13,omitempty"`
}

const synodicMonth = 29.53059 * 24 * float64(time.Hour)

// referenceFullMoon anchors the lunar phase calculation.
var referenceFullMoon = time.Date(2023, time.January, 6, 0, 0, 0, 0, time.UTC)

const fullMoonTolerance = 0.05

// EvaluateSeasonal returns the active seasonal event at now, or nil. Calendar
// checks use now's location. First match wins.
func EvaluateSeasonal(now time.Time) *SeasonalEvent {
	switch {
	case now.Month() == time.October && now.Day() == 31:
		return &SeasonalEvent{
			Kind:                 SeasonHalloween,
			Name:                 "Halloween",
			Description:          "The veil between worlds is thinnest",
			PossessionMultiplier: 2.0,
		}
	case now.Weekday() == time.Friday && now.Day() == 13:
		return &SeasonalEvent{
			Kind:                     SeasonFriday13,
			Name:                     "Friday the 13th",
			Description:              "Unlucky day brings dark omens",
			JumpscareInjectsNumber13: true,
		}
	case now.Hour() == 3 && now.Minute() == 33:
		return &SeasonalEvent{
			Kind:               SeasonWitchingHour,
			Name:               "Witching Hour",
			Description:        "The hour of dark magic",
			HauntingMultiplier: 1.5,
		}
	}
	if math.Abs(MoonPhase(now)-1) <= fullMoonTolerance {
		return &SeasonalEvent{
			Kind:               SeasonFullMoon,
			Name:               "Full Moon",
			Description:        "Spirits are restless tonight",
			IntervalMultiplier: 0.75,
		}
	}
	return nil
}

// MoonPhase maps t onto [0,2): 0 is new moon, 1 is full moon.
func MoonPhase(t time.Time) float64 {
	cycles := float64(t.Sub(referenceFullMoon)) / synodicMonth
	frac := cycles - math.Floor(cycles)
	// The reference is a full moon, so shift by half a cycle.
	frac += 0.5
	if frac >= 1 {
		frac--
	}
	return frac * 2
}

func (e *SeasonalEvent) PossessionFactor() float64 {
	if e == nil || e.PossessionMultiplier == 0 {
		return 1
	}
	return e.PossessionMultiplier
}

func (e *SeasonalEvent) HauntingFactor() float64 {
	if e == nil || e.HauntingMultiplier == 0 {
		return 1
	}
	return e.HauntingMultiplier
}

func (e *SeasonalEvent) IntervalFactor() float64 {
	if e == nil || e.IntervalMultiplier == 0 {
		return 1
	}
	return e.IntervalMultiplier
}
