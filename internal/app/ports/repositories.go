package ports

import "context"

// SnapshotStore is a string-valued key-value store. Get returns ErrNotFound for
// absent keys; Set returns ErrQuotaExceeded when the value does not fit.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
