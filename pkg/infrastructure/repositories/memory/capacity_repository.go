package memory

import (
	"fmt"
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// CapacityRepository provides in-memory capacity snapshot storage
type CapacityRepository struct {
	mu        sync.RWMutex
	snapshots map[entities.CapacityKey]*entities.CapacitySnapshot
	order     []entities.CapacityKey
}

// NewCapacityRepository creates a new in-memory capacity repository
func NewCapacityRepository() *CapacityRepository {
	return &CapacityRepository{snapshots: make(map[entities.CapacityKey]*entities.CapacitySnapshot)}
}

// Verify interface compliance
var _ repositories.CapacityRepository = (*CapacityRepository)(nil)

// GetCapacity returns the capacity snapshot for one pool key
func (r *CapacityRepository) GetCapacity(key entities.CapacityKey) (*entities.CapacitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.snapshots[key]
	if !ok {
		return nil, fmt.Errorf("no capacity snapshot for store %s group %s", key.StoreID, key.ProductGroup)
	}
	return snapshot, nil
}

// GetCapacitySnapshots returns all capacity snapshots in load order
func (r *CapacityRepository) GetCapacitySnapshots() ([]*entities.CapacitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.CapacitySnapshot, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.snapshots[key])
	}
	return out, nil
}

// LoadCapacitySnapshots loads capacity snapshots into the repository
func (r *CapacityRepository) LoadCapacitySnapshots(snapshots []*entities.CapacitySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snapshot := range snapshots {
		key := snapshot.Key()
		if _, exists := r.snapshots[key]; !exists {
			r.order = append(r.order, key)
		}
		r.snapshots[key] = snapshot
	}
	return nil
}
