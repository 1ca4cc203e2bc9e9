package profiles

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

type MemoryRepository struct {
	mu   sync.Mutex
	docs map[string]models.ProfileRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]models.ProfileRecord)}
}

func (r *MemoryRepository) Read(_ context.Context, id string) (*models.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.docs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, id string, fields models.ProfileFields, merge bool) (*models.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.docs[id]
	if !ok {
		rec = models.ProfileRecord{ID: id}
	}
	fields.Apply(&rec, merge)
	r.docs[id] = rec
	return &rec, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}
