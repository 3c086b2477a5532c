package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"necroos/internal/app/persistence"
	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

func openTestStore(t *testing.T, maxBytes int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "haunting.db"), maxBytes)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestStore_GetSetDelete(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "k", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", "two"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || got != "two" {
		t.Fatalf("expected two, got %q err=%v", got, err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("expected repeat delete to succeed, got %v", err)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haunting.db")
	ctx := context.Background()
	first, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "k", "kept"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = first.Close()

	second, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if got, err := second.Get(ctx, "k"); err != nil || got != "kept" {
		t.Fatalf("expected kept, got %q err=%v", got, err)
	}
}

func TestStore_Quota(t *testing.T) {
	store := openTestStore(t, 100)
	ctx := context.Background()

	if err := store.Set(ctx, "a", strings.Repeat("a", 60)); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := store.Set(ctx, "b", strings.Repeat("b", 50)); !errors.Is(err, ports.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if err := store.Set(ctx, "a", strings.Repeat("a", 90)); err != nil {
		t.Fatalf("expected overwrite within quota, got %v", err)
	}
}

func TestStore_TxRollback(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		if err := store.Set(ctx, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected rolled back write, got %v", err)
	}
}

func TestStore_BacksPersistenceRepository(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()
	repo := persistence.Repository{Store: store, TxManager: store}

	st := haunting.NewState()
	st.Level = 42
	st.Difficulty = haunting.DifficultyNightmare
	if outcome := repo.Save(ctx, st); outcome != persistence.OutcomeFull {
		t.Fatalf("expected full save, got %s", outcome)
	}
	got, ok := repo.Load(ctx)
	if !ok || got.Level != 42 || got.Difficulty != haunting.DifficultyNightmare {
		t.Fatalf("expected restored state, got ok=%v %+v", ok, got)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := repo.Load(ctx); ok {
		t.Fatalf("expected empty store after clear")
	}
}
