package wallet

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMemoryRepository constructs an in-memory name repository for tests and
// development runs without Postgres.
func NewMemoryRepository() NameRepository {
	return &memoryRepository{names: make(map[string]string)}
}

func (r *memoryRepository) GetName(_ context.Context, walletID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[walletID]
	if !ok {
		return "", ErrNameNotFound
	}
	return name, nil
}

func (r *memoryRepository) SetName(_ context.Context, walletID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[walletID] = name
	return nil
}
