package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"necroos/internal/app/ports"
	"necroos/internal/platform/config"
)

func TestBuildStore_Memory(t *testing.T) {
	store, tx, closeStore, err := buildStore(context.Background(), config.Config{Store: config.StoreMemory})
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	defer closeStore()
	ctx := context.Background()
	err = tx.RunInTx(ctx, func(ctx context.Context) error {
		return store.Set(ctx, "k", "v")
	})
	if err != nil {
		t.Fatalf("set in tx: %v", err)
	}
	if got, err := store.Get(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("expected v, got %q err=%v", got, err)
	}
}

func TestBuildStore_SQLite(t *testing.T) {
	cfg := config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "necroos.db")}
	store, _, closeStore, err := buildStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	defer closeStore()
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuildStore_Unknown(t *testing.T) {
	_, _, _, err := buildStore(context.Background(), config.Config{Store: "redis"})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestNewRand_FixedSeedIsDeterministic(t *testing.T) {
	a, b := newRand(666), newRand(666)
	for i := 0; i < 5; i++ {
		if a.Uint64() != b.Uint64() {
			t.Fatalf("expected identical sequences for the same seed")
		}
	}
}
