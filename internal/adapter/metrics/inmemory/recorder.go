package inmemory

import (
	"sync"
)

type Snapshot struct {
	MutationTotal     uint64            `json:"mutation_total"`
	MutationThrottled uint64            `json:"mutation_throttled"`
	ExorcismSuccess   uint64            `json:"exorcism_success"`
	ExorcismFailure   uint64            `json:"exorcism_failure"`
	ExorcismByKind    map[string]uint64 `json:"exorcism_by_kind"`
	FailureByReason   map[string]uint64 `json:"failure_by_reason"`
	DispatchFailures  map[string]uint64 `json:"dispatch_failures"`
	Persistence       map[string]uint64 `json:"persistence"`
	Endings           map[string]uint64 `json:"endings"`
}

type Recorder struct {
	mu        sync.Mutex
	applied   uint64
	throttled uint64
	success   uint64
	failure   uint64
	byKind    map[string]uint64
	byReason  map[string]uint64
	dispatch  map[string]uint64
	persist   map[string]uint64
	endings   map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byKind:   map[string]uint64{},
		byReason: map[string]uint64{},
		dispatch: map[string]uint64{},
		persist:  map[string]uint64{},
		endings:  map[string]uint64{},
	}
}

func (r *Recorder) RecordMutation(applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if applied {
		r.applied++
		return
	}
	r.throttled++
}

func (r *Recorder) RecordExorcism(kind string, success bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[kind]++
	if success {
		r.success++
		return
	}
	r.failure++
	r.byReason[reason]++
}

func (r *Recorder) RecordDispatchFailure(effectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatch[effectID]++
}

func (r *Recorder) RecordPersistence(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist[outcome]++
}

func (r *Recorder) RecordEnding(ending string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endings[ending]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		MutationTotal:     r.applied + r.throttled,
		MutationThrottled: r.throttled,
		ExorcismSuccess:   r.success,
		ExorcismFailure:   r.failure,
		ExorcismByKind:    copyCounts(r.byKind),
		FailureByReason:   copyCounts(r.byReason),
		DispatchFailures:  copyCounts(r.dispatch),
		Persistence:       copyCounts(r.persist),
		Endings:           copyCounts(r.endings),
	}
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
