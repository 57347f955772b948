package repository

import (
	"context"
	"sync"

	"github.com/evkarev/dailywish/internal/core/domain"
)

var _ domain.RecordRepository = (*InMemoryRecordRepository)(nil)

// InMemoryRecordRepository keeps records in a mutex-guarded map. Used by
// tests and as an ephemeral backend when persistence is disabled.
type InMemoryRecordRepository struct {
	store map[domain.UserID]*domain.UserRecord

	mu sync.RWMutex
}

func NewInMemoryRecordRepository() *InMemoryRecordRepository {
	return &InMemoryRecordRepository{
		store: make(map[domain.UserID]*domain.UserRecord),
	}
}

func (r *InMemoryRecordRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.store[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record.Clone(), nil
}

func (r *InMemoryRecordRepository) Upsert(ctx context.Context, id domain.UserID, record *domain.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[id] = record.Clone()
	return nil
}

func (r *InMemoryRecordRepository) List(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.UserID]*domain.UserRecord, len(r.store))
	for id, record := range r.store {
		out[id] = record.Clone()
	}
	return out, nil
}
