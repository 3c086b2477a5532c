package gormrepo

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"necroos/internal/app/ports"
)

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("NECROOS_DB_DSN")
	if dsn == "" {
		t.Skip("NECROOS_DB_DSN is required for integration test")
	}
	return dsn
}

func TestSnapshotRepo_RoundTrip(t *testing.T) {
	dsn := requireDSN(t)
	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	key := "it-snapshot-roundtrip"
	_ = db.Exec("DELETE FROM haunting_snapshots WHERE key = ?", key).Error

	repo := NewSnapshotRepo(db, 0)
	if _, err := repo.Get(ctx, key); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Set(ctx, key, `{"possessionLevel":12}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, key, `{"possessionLevel":34}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `{"possessionLevel":34}` {
		t.Fatalf("expected overwritten value, got %s", got)
	}
	if err := repo.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, key); err != nil {
		t.Fatalf("expected repeat delete to succeed, got %v", err)
	}
	if _, err := repo.Get(ctx, key); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected deleted key to be gone, got %v", err)
	}
}

func TestSnapshotRepo_QuotaInsideTx(t *testing.T) {
	dsn := requireDSN(t)
	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	_ = db.Exec("DELETE FROM haunting_snapshots WHERE key LIKE 'it-quota-%'").Error
	var used int64
	_ = db.Raw("SELECT COALESCE(SUM(LENGTH(value)), 0) FROM haunting_snapshots").Scan(&used).Error

	repo := NewSnapshotRepo(db, int(used)+64)
	tx := NewTxManager(db)
	err = tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := repo.Set(ctx, "it-quota-a", strings.Repeat("a", 40)); err != nil {
			return err
		}
		return repo.Set(ctx, "it-quota-b", strings.Repeat("b", 40))
	})
	if !errors.Is(err, ports.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if _, err := repo.Get(ctx, "it-quota-a"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected rolled back write, got %v", err)
	}
}
