// Package journal is an effect collaborator that remembers what it was asked
// to show. The HTTP layer serves it to clients that render the effects.
package journal

import (
	"sort"
	"sync"
	"time"

	"necroos/internal/app/ports"
)

const DefaultCapacity = 50

type Entry struct {
	Seq      uint64         `json:"seq"`
	EffectID string         `json:"effect_id"`
	Op       string         `json:"op"`
	Params   map[string]any `json:"params,omitempty"`
	At       time.Time      `json:"at"`
}

// Journal keeps the set of running effects and a bounded log of recent
// calls. Safe for concurrent use.
type Journal struct {
	mu       sync.Mutex
	clock    ports.Clock
	capacity int
	seq      uint64
	active   map[string]ports.EffectParams
	entries  []Entry
}

func New(clock ports.Clock, capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{clock: clock, capacity: capacity, active: map[string]ports.EffectParams{}}
}

func (j *Journal) Start(effectID string, params ports.EffectParams) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.active[effectID] = params
	j.append(effectID, "start", params)
	return nil
}

func (j *Journal) Stop(effectID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.active[effectID]; !ok {
		return nil
	}
	delete(j.active, effectID)
	j.append(effectID, "stop", nil)
	return nil
}

func (j *Journal) TriggerOnce(effectID string, params ports.EffectParams) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.append(effectID, "trigger", params)
	return nil
}

func (j *Journal) append(effectID, op string, params ports.EffectParams) {
	j.seq++
	j.entries = append(j.entries, Entry{Seq: j.seq, EffectID: effectID, Op: op, Params: params, At: j.clock.Now()})
	if over := len(j.entries) - j.capacity; over > 0 {
		j.entries = append(j.entries[:0], j.entries[over:]...)
	}
}

func (j *Journal) Active() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.active))
	for id := range j.active {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Since returns the entries with Seq greater than after, oldest first.
func (j *Journal) Since(after uint64) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}
