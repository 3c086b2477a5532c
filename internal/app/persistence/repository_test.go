package persistence

import (
	"context"
	"testing"

	"necroos/internal/adapter/repo/memory"
	"necroos/internal/domain/haunting"
)

type countingMetrics struct {
	persistence map[string]int
}

func (m *countingMetrics) RecordMutation(bool)                 {}
func (m *countingMetrics) RecordExorcism(string, bool, string) {}
func (m *countingMetrics) RecordDispatchFailure(string)        {}
func (m *countingMetrics) RecordEnding(string)                 {}
func (m *countingMetrics) RecordPersistence(outcome string)    { m.persistence[outcome]++ }

func newRepo(maxBytes int) (Repository, *memory.Store, *countingMetrics) {
	store := memory.NewStore(maxBytes)
	metrics := &countingMetrics{persistence: map[string]int{}}
	return Repository{
		Store:     memory.NewSnapshotRepo(store),
		TxManager: memory.NewTxManager(store),
		Metrics:   metrics,
	}, store, metrics
}

func heavyState() haunting.State {
	s := sampleState()
	for i := 0; i < haunting.MaxEventsHistory; i++ {
		s.Statistics.AppendEvent(haunting.Event{Type: "possession_increase", Timestamp: s.SessionStartedAt.Add(0), Data: map[string]any{"note": "the walls are breathing"}})
	}
	return s
}

func TestRepository_SaveLoad(t *testing.T) {
	repo, _, metrics := newRepo(0)
	ctx := context.Background()
	if got := repo.Save(ctx, sampleState()); got != OutcomeFull {
		t.Fatalf("expected full save, got %s", got)
	}
	got, ok := repo.Load(ctx)
	if !ok || got.Level != 66 || !got.Achievements[haunting.AchievementExorcist] {
		t.Fatalf("expected saved state restored, got %+v ok=%v", got, ok)
	}
	if metrics.persistence[OutcomeFull] != 1 {
		t.Fatalf("expected full outcome recorded, got %v", metrics.persistence)
	}
}

func TestRepository_QuotaDropsHistory(t *testing.T) {
	s := heavyState()
	full, _ := Encode(s)
	compressed, _ := Compress(full)
	repo, store, _ := newRepo(len(SnapshotKey) + len(compressed) + 10)

	if got := repo.Save(context.Background(), s); got != OutcomeCompressed {
		t.Fatalf("expected compressed save, got %s", got)
	}
	raw, _ := store.Raw(SnapshotKey)
	loaded, _, _ := Decode(raw)
	if len(loaded.Statistics.EventsHistory) != 0 || loaded.Level != 66 {
		t.Fatalf("expected history dropped and level kept, got %+v", loaded)
	}
}

func TestRepository_QuotaFallsBackToMinimal(t *testing.T) {
	s := heavyState()
	minimal, _ := EncodeMinimal(s)
	repo, store, _ := newRepo(len(SnapshotKey) + len(minimal) + 2)

	if got := repo.Save(context.Background(), s); got != OutcomeMinimal {
		t.Fatalf("expected minimal save, got %s", got)
	}
	raw, _ := store.Raw(SnapshotKey)
	if raw != minimal {
		t.Fatalf("expected minimal snapshot stored, got %s", raw)
	}
}

func TestRepository_QuotaGivesUpKeepingPrevious(t *testing.T) {
	repo, store, metrics := newRepo(len(SnapshotKey) + 4)
	store.Seed(SnapshotKey, "{}")
	if got := repo.Save(context.Background(), heavyState()); got != OutcomeFailed {
		t.Fatalf("expected failed save, got %s", got)
	}
	if raw, _ := store.Raw(SnapshotKey); raw != "{}" {
		t.Fatalf("expected previous snapshot intact, got %s", raw)
	}
	if metrics.persistence[OutcomeFailed] != 1 {
		t.Fatalf("expected failure counted, got %v", metrics.persistence)
	}
}

func TestRepository_CorruptedSnapshotCleared(t *testing.T) {
	repo, store, _ := newRepo(0)
	store.Seed(SnapshotKey, `{"possessionLevel": `)
	got, ok := repo.Load(context.Background())
	if ok || got.Level != 0 {
		t.Fatalf("expected fresh state, got %+v ok=%v", got, ok)
	}
	if _, exists := store.Raw(SnapshotKey); exists {
		t.Fatalf("expected corrupted key removed")
	}
}

func TestRepository_ClearRemovesMarker(t *testing.T) {
	repo, store, _ := newRepo(0)
	ctx := context.Background()
	repo.Save(ctx, sampleState())
	if err := repo.SaveMarker(ctx, haunting.ConsumedMarker{Timestamp: *sampleState().SessionStartedAt, PossessionLevel: 70}); err != nil {
		t.Fatalf("save marker: %v", err)
	}
	if _, ok := repo.LoadMarker(ctx); !ok {
		t.Fatalf("expected marker stored")
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, exists := store.Raw(SnapshotKey); exists {
		t.Fatalf("expected snapshot removed")
	}
	if _, ok := repo.LoadMarker(ctx); ok {
		t.Fatalf("expected marker removed")
	}
}
