package memory

import (
	"context"

	"necroos/internal/app/ports"
)

type SnapshotRepo struct {
	store *Store
}

func NewSnapshotRepo(store *Store) SnapshotRepo {
	return SnapshotRepo{store: store}
}

func (r SnapshotRepo) Get(ctx context.Context, key string) (string, error) {
	defer r.store.lock(ctx)()
	v, ok := r.store.values[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (r SnapshotRepo) Set(ctx context.Context, key, value string) error {
	defer r.store.lock(ctx)()
	if r.store.maxBytes > 0 && r.store.usedExcept(key)+len(value) > r.store.maxBytes {
		return ports.ErrQuotaExceeded
	}
	r.store.values[key] = value
	return nil
}

func (r SnapshotRepo) Delete(ctx context.Context, key string) error {
	defer r.store.lock(ctx)()
	delete(r.store.values, key)
	return nil
}
