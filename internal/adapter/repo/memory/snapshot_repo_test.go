package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"necroos/internal/app/ports"
)

func TestSnapshotRepo_GetMissing(t *testing.T) {
	repo := NewSnapshotRepo(NewStore(0))
	if _, err := repo.Get(context.Background(), "k"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRepo_Quota(t *testing.T) {
	store := NewStore(20)
	repo := NewSnapshotRepo(store)
	ctx := context.Background()
	if err := repo.Set(ctx, "k", "0123456789"); err != nil {
		t.Fatalf("expected set within quota, got %v", err)
	}
	if err := repo.Set(ctx, "k", strings.Repeat("x", 30)); !errors.Is(err, ports.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	got, err := repo.Get(ctx, "k")
	if err != nil || got != "0123456789" {
		t.Fatalf("expected previous value intact, got %q %v", got, err)
	}
}

func TestSnapshotRepo_QuotaCountsValuesOnly(t *testing.T) {
	repo := NewSnapshotRepo(NewStore(100))
	ctx := context.Background()

	if err := repo.Set(ctx, "necro-os-advanced-haunting", strings.Repeat("a", 60)); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := repo.Set(ctx, "b", strings.Repeat("b", 40)); err != nil {
		t.Fatalf("expected exactly-full quota accepted, got %v", err)
	}
	if err := repo.Set(ctx, "c", "c"); !errors.Is(err, ports.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if err := repo.Set(ctx, "b", strings.Repeat("b", 30)); err != nil {
		t.Fatalf("expected overwrite within quota, got %v", err)
	}
}

func TestTxManager_RunsRepoCallsUnderOneLock(t *testing.T) {
	store := NewStore(0)
	repo := NewSnapshotRepo(store)
	tx := NewTxManager(store)
	store.Seed("a", "1")
	store.Seed("b", "2")
	err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := repo.Delete(ctx, "a"); err != nil {
			return err
		}
		return tx.RunInTx(ctx, func(ctx context.Context) error {
			return repo.Delete(ctx, "b")
		})
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.Raw("a"); ok {
		t.Fatalf("expected a deleted")
	}
	if _, ok := store.Raw("b"); ok {
		t.Fatalf("expected b deleted")
	}
}
