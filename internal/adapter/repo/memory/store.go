package memory

import (
	"context"
	"sync"
)

// Store is an in-process key-value store. MaxBytes > 0 caps the total size of
// stored values, the way a browser storage quota would.
type Store struct {
	mu       sync.RWMutex
	values   map[string]string
	maxBytes int
}

func NewStore(maxBytes int) *Store {
	return &Store{
		values:   make(map[string]string),
		maxBytes: maxBytes,
	}
}

// Seed writes a raw value, bypassing the quota.
func (s *Store) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Raw returns the stored value for inspection.
func (s *Store) Raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// usedExcept sums the value bytes held under every other key. Keys do not
// count toward the quota.
func (s *Store) usedExcept(key string) int {
	total := 0
	for k, v := range s.values {
		if k != key {
			total += len(v)
		}
	}
	return total
}

type inTxKeyType struct{}

var inTxKey = inTxKeyType{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey).(bool)
	return v
}

// lock takes the store lock unless the caller already runs inside RunInTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
