package orphans

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps orphans for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Orphan
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Record(_ context.Context, o *Orphan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *o)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, limit int) ([]Orphan, error) {
	r.mu.Lock()
	out := make([]Orphan, len(r.entries))
	copy(out, r.entries)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
