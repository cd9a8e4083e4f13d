package repository

import (
	"context"
	"sync"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/domain/repository"
)

// MemoryEventRepository keeps the notification log in process
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []entity.Event
}

// NewMemoryEventRepository creates an empty event log
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{}
}

var _ repository.EventRepository = (*MemoryEventRepository)(nil)

// Append adds events to the log
func (r *MemoryEventRepository) Append(_ context.Context, events []entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// ListRecent returns up to limit events, newest first
func (r *MemoryEventRepository) ListRecent(_ context.Context, limit int) ([]entity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]entity.Event, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}
