package history

import (
	"context"
	"sync"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

// MemoryRepository keeps histories in a process-local map. It is the default
// driver and the fallback target when a durable driver fails to open.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]conv.History
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]conv.History)}
}

func (r *MemoryRepository) Get(_ context.Context, conversationID string) (conv.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[conversationID].Clone(), nil
}

func (r *MemoryRepository) Put(_ context.Context, conversationID string, history conv.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[conversationID] = history.Clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, conversationID)
	return nil
}

func (r *MemoryRepository) Name() string { return "memory" }

func (r *MemoryRepository) Close() error { return nil }
