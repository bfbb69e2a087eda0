package memory

import (
	"fmt"
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// SupplyRepository provides in-memory supply snapshot storage
type SupplyRepository struct {
	mu        sync.RWMutex
	snapshots map[entities.ArticleNumber]*entities.SupplySnapshot
	order     []entities.ArticleNumber
}

// NewSupplyRepository creates a new in-memory supply repository
func NewSupplyRepository() *SupplyRepository {
	return &SupplyRepository{snapshots: make(map[entities.ArticleNumber]*entities.SupplySnapshot)}
}

// Verify interface compliance
var _ repositories.SupplyRepository = (*SupplyRepository)(nil)

// GetSupply returns the supply snapshot of one article
func (r *SupplyRepository) GetSupply(number entities.ArticleNumber) (*entities.SupplySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.snapshots[number]
	if !ok {
		return nil, fmt.Errorf("no supply snapshot for article %s", number)
	}
	return snapshot, nil
}

// GetSupplySnapshots returns all supply snapshots in load order
func (r *SupplyRepository) GetSupplySnapshots() ([]*entities.SupplySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.SupplySnapshot, 0, len(r.order))
	for _, number := range r.order {
		out = append(out, r.snapshots[number])
	}
	return out, nil
}

// LoadSupplySnapshots loads supply snapshots into the repository
func (r *SupplyRepository) LoadSupplySnapshots(snapshots []*entities.SupplySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snapshot := range snapshots {
		if _, exists := r.snapshots[snapshot.ArticleNumber]; !exists {
			r.order = append(r.order, snapshot.ArticleNumber)
		}
		r.snapshots[snapshot.ArticleNumber] = snapshot
	}
	return nil
}
