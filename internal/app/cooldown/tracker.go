package cooldown

import (
	"sort"
	"time"

	"necroos/internal/domain/haunting"
)

// Tracker answers cooldown questions over the persisted last-use timestamps.
// Entries is shared with the owning state; Record writes through it.
type Tracker struct {
	Entries  map[haunting.ActionKind]time.Time
	Duration time.Duration
}

func NewTracker(entries map[haunting.ActionKind]time.Time) Tracker {
	if entries == nil {
		entries = map[haunting.ActionKind]time.Time{}
	}
	return Tracker{Entries: entries, Duration: haunting.ExorcismCooldown}
}

func (t Tracker) Record(kind haunting.ActionKind, now time.Time) {
	t.Entries[kind] = now
}

func (t Tracker) IsOnCooldown(kind haunting.ActionKind, now time.Time) bool {
	return t.Remaining(kind, now) > 0
}

func (t Tracker) Remaining(kind haunting.ActionKind, now time.Time) time.Duration {
	lastAt, ok := t.Entries[kind]
	if !ok || lastAt.IsZero() {
		return 0
	}
	remaining := t.duration() - now.Sub(lastAt)
	if remaining <= 0 {
		return 0
	}
	return remaining
}

func (t Tracker) RemainingMs(kind haunting.ActionKind, now time.Time) int64 {
	return t.Remaining(kind, now).Milliseconds()
}

// RemainingSeconds rounds up so a live cooldown never reports zero.
func (t Tracker) RemainingSeconds(kind haunting.ActionKind, now time.Time) int {
	remaining := t.Remaining(kind, now)
	if remaining <= 0 {
		return 0
	}
	seconds := int((remaining + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// RemainingByKind lists every kind still cooling down, in seconds.
func (t Tracker) RemainingByKind(now time.Time) map[string]int {
	out := map[string]int{}
	kinds := make([]string, 0, len(t.Entries))
	for kind := range t.Entries {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if remaining := t.RemainingSeconds(haunting.ActionKind(kind), now); remaining > 0 {
			out[kind] = remaining
		}
	}
	return out
}

func (t Tracker) duration() time.Duration {
	if t.Duration <= 0 {
		return haunting.ExorcismCooldown
	}
	return t.Duration
}
