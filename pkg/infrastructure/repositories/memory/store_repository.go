package memory

import (
	"fmt"
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// StoreRepository provides in-memory store master storage
type StoreRepository struct {
	mu     sync.RWMutex
	stores map[entities.StoreID]*entities.Store
	order  []entities.StoreID
}

// NewStoreRepository creates a new in-memory store repository
func NewStoreRepository() *StoreRepository {
	return &StoreRepository{stores: make(map[entities.StoreID]*entities.Store)}
}

// Verify interface compliance
var _ repositories.StoreRepository = (*StoreRepository)(nil)

// GetStore returns one store by ID
func (r *StoreRepository) GetStore(id entities.StoreID) (*entities.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %s not found", id)
	}
	return store, nil
}

// GetStores returns all stores in load order
func (r *StoreRepository) GetStores() ([]*entities.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Store, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stores[id])
	}
	return out, nil
}

// LoadStores loads stores into the repository
func (r *StoreRepository) LoadStores(stores []*entities.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range stores {
		if _, exists := r.stores[store.ID]; !exists {
			r.order = append(r.order, store.ID)
		}
		r.stores[store.ID] = store
	}
	return nil
}
