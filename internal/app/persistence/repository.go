package persistence

import (
	"context"
	"errors"
	"log"

	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

// Save outcomes reported to metrics.
const (
	OutcomeFull       = "full"
	OutcomeCompressed = "compressed"
	OutcomeMinimal    = "minimal"
	OutcomeFailed     = "failed"
)

// Repository stores the haunting snapshot and the consumed marker. Failures
// are logged and counted; callers never see them.
type Repository struct {
	Store     ports.SnapshotStore
	TxManager ports.TxManager
	Metrics   ports.HauntingMetrics
}

// Save writes the snapshot, degrading to smaller encodings when the store
// reports a quota error. The previous snapshot stays intact if every attempt
// fails.
func (r Repository) Save(ctx context.Context, s haunting.State) string {
	full, err := Encode(s)
	if err != nil {
		log.Printf("[persistence] encode snapshot failed: %v", err)
		return r.record(OutcomeFailed)
	}
	err = r.Store.Set(ctx, SnapshotKey, full)
	if err == nil {
		return r.record(OutcomeFull)
	}
	if !errors.Is(err, ports.ErrQuotaExceeded) {
		log.Printf("[persistence] save snapshot failed: %v", err)
		return r.record(OutcomeFailed)
	}

	log.Printf("[persistence] quota exceeded, dropping events history")
	compressed, err := Compress(full)
	if err == nil {
		if err = r.Store.Set(ctx, SnapshotKey, compressed); err == nil {
			return r.record(OutcomeCompressed)
		}
	}
	log.Printf("[persistence] compressed save failed: %v", err)

	minimal, err := EncodeMinimal(s)
	if err == nil {
		if err = r.Store.Set(ctx, SnapshotKey, minimal); err == nil {
			return r.record(OutcomeMinimal)
		}
	}
	log.Printf("[persistence] critical: unable to save any snapshot data: %v", err)
	return r.record(OutcomeFailed)
}

// Load returns the stored state, or a fresh state with ok=false when nothing
// usable is stored. A syntactically corrupted snapshot is removed.
func (r Repository) Load(ctx context.Context) (haunting.State, bool) {
	raw, err := r.Store.Get(ctx, SnapshotKey)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			log.Printf("[persistence] load snapshot failed: %v", err)
		}
		return haunting.NewState(), false
	}
	state, ok, err := Decode(raw)
	if errors.Is(err, ErrCorrupt) {
		log.Printf("[persistence] corrupted snapshot detected, clearing")
		if err := r.Store.Delete(ctx, SnapshotKey); err != nil {
			log.Printf("[persistence] clear corrupted snapshot failed: %v", err)
		}
		r.record("corrupted")
		return haunting.NewState(), false
	}
	if !ok {
		log.Printf("[persistence] invalid snapshot structure, ignoring")
		return haunting.NewState(), false
	}
	return state, true
}

func (r Repository) SaveMarker(ctx context.Context, m haunting.ConsumedMarker) error {
	raw, err := EncodeMarker(m)
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, MarkerKey, raw)
}

// LoadMarker reports ok=false when no usable marker is stored.
func (r Repository) LoadMarker(ctx context.Context) (haunting.ConsumedMarker, bool) {
	raw, err := r.Store.Get(ctx, MarkerKey)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			log.Printf("[persistence] load consumed marker failed: %v", err)
		}
		return haunting.ConsumedMarker{}, false
	}
	return DecodeMarker(raw)
}

func (r Repository) DeleteMarker(ctx context.Context) {
	if err := r.Store.Delete(ctx, MarkerKey); err != nil && !errors.Is(err, ports.ErrNotFound) {
		log.Printf("[persistence] delete consumed marker failed: %v", err)
	}
}

// Clear removes the snapshot and the marker together.
func (r Repository) Clear(ctx context.Context) error {
	deleteAll := func(ctx context.Context) error {
		for _, key := range []string{SnapshotKey, MarkerKey} {
			if err := r.Store.Delete(ctx, key); err != nil && !errors.Is(err, ports.ErrNotFound) {
				return err
			}
		}
		return nil
	}
	if r.TxManager == nil {
		return deleteAll(ctx)
	}
	return r.TxManager.RunInTx(ctx, deleteAll)
}

func (r Repository) record(outcome string) string {
	if r.Metrics != nil {
		r.Metrics.RecordPersistence(outcome)
	}
	return outcome
}
