package capacity

import (
	"fmt"
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// Pool is the free-capacity accumulator for one (store, productGroup).
// Pools are the single point of contention between articles competing for
// the same store; all mutation goes through the pool's mutex.
type Pool struct {
	mu        sync.Mutex
	key       entities.CapacityKey
	free      float64
	softSlack float64
	softUsed  float64
}

// Key returns the pool's (store, productGroup) key
func (p *Pool) Key() entities.CapacityKey { return p.key }

// Free returns the remaining hard free capacity
func (p *Pool) Free() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free
}

// SoftUsed returns the space consumed beyond the hard limit
func (p *Pool) SoftUsed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.softUsed
}

// Reserve consumes up to space units and returns how much was granted.
// The hard zone is consumed first; when allowSoft is set the soft zone is
// consumed next and reported via SoftUsed for the solver's penalty term.
func (p *Pool) Reserve(space float64, allowSoft bool) float64 {
	if space <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	granted := space
	if granted > p.free {
		granted = p.free
	}
	p.free -= granted

	if allowSoft && granted < space {
		soft := space - granted
		if soft > p.softSlack {
			soft = p.softSlack
		}
		p.softSlack -= soft
		p.softUsed += soft
		granted += soft
	}
	return granted
}

// Release returns space to the pool, refilling the soft zone first
func (p *Pool) Release(space float64) {
	if space <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.softUsed > 0 {
		back := space
		if back > p.softUsed {
			back = p.softUsed
		}
		p.softUsed -= back
		p.softSlack += back
		space -= back
	}
	p.free += space
}

// PoolSet holds all capacity pools of one run
type PoolSet struct {
	pools map[entities.CapacityKey]*Pool
}

// Get returns the pool for a key, or nil when no snapshot covers it
func (s *PoolSet) Get(key entities.CapacityKey) *Pool {
	return s.pools[key]
}

// Free returns the remaining hard free capacity for a key. Missing pools
// report zero free capacity (the documented data-gap default).
func (s *PoolSet) Free(key entities.CapacityKey) float64 {
	pool := s.pools[key]
	if pool == nil {
		return 0
	}
	return pool.Free()
}

// Size returns the number of pools in the set
func (s *PoolSet) Size() int { return len(s.pools) }

// Provider builds the run's capacity pools from the capacity snapshot
type Provider struct {
	capacityRepo repositories.CapacityRepository
	softZonePct  float64
}

// NewProvider creates a capacity provider. softZonePct > 0 enables the
// soft-zone policy: occupancy may reach soll*(1+softZonePct) at a penalty.
func NewProvider(capacityRepo repositories.CapacityRepository, softZonePct float64) *Provider {
	if softZonePct < 0 {
		softZonePct = 0
	}
	return &Provider{capacityRepo: capacityRepo, softZonePct: softZonePct}
}

// Snapshot converts the capacity snapshot into mutable pools. Raw negative
// SOLL or IST values indicate an upstream data error and abort the run
// with an InfeasibleError rather than being clamped away.
func (p *Provider) Snapshot() (*PoolSet, error) {
	snapshots, err := p.capacityRepo.GetCapacitySnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to load capacity snapshots: %w", err)
	}

	set := &PoolSet{pools: make(map[entities.CapacityKey]*Pool, len(snapshots))}
	for _, snapshot := range snapshots {
		if snapshot.Soll < 0 || snapshot.Ist < 0 {
			return nil, &entities.InfeasibleError{
				StoreID:      snapshot.StoreID,
				ProductGroup: snapshot.ProductGroup,
				Detail:       fmt.Sprintf("negative capacity values soll=%.2f ist=%.2f", snapshot.Soll, snapshot.Ist),
			}
		}
		set.pools[snapshot.Key()] = &Pool{
			key:       snapshot.Key(),
			free:      snapshot.Free(),
			softSlack: snapshot.Soll * p.softZonePct,
		}
	}
	return set, nil
}
