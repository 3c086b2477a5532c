package haunting

import "time"

// EvaluateEnding applies the ending rules in priority order. elapsed is the
// time since session start; hasSession is false before the first session.
// Consumed is never produced here: it needs the before-terminate signal.
func EvaluateEnding(level int, elapsed time.Duration, hasSession bool) Ending {
	if level >= MaxLevel {
		return EndingPossessed
	}
	if !hasSession {
		return EndingNone
	}
	if level == MinLevel && elapsed >= PurifiedMinSession {
		return EndingPurified
	}
	if elapsed >= SurvivorMinSession && level < SurvivorMaxLevel {
		return EndingSurvivor
	}
	return EndingNone
}

// QualifiesForConsumed reports whether terminating now should leave a
// consumed marker.
func QualifiesForConsumed(level int, ending Ending) bool {
	return ending == EndingNone && level > ConsumedMinLevel
}

// ConsumedMarker is written on abrupt termination and resolved on the next
// session start.
type ConsumedMarker struct {
	Timestamp       time.Time
	PossessionLevel int
}

func (m ConsumedMarker) Valid(now time.Time) bool {
	age := now.Sub(m.Timestamp)
	return age >= 0 && age < ConsumedMarkerTTL
}
