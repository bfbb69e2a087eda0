package solver

import (
	"fmt"

	"github.com/mbanner77/allocengine/pkg/application/services/capacity"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// Line is one store's demand position presented to the solver
type Line struct {
	StoreID  entities.StoreID
	Demand   entities.Quantity
	Coverage float64
	Score    float64
}

// Request is one per-article solve. The capacity pool set is shared across
// articles; the solver mutates it through the pools' own locking.
type Request struct {
	Article *entities.Article
	Supply  entities.Quantity
	Lines   []Line
	Pools   *capacity.PoolSet
}

// Strategy distributes supply to demand under capacity constraints.
// Implementations guarantee conservation (Σallocated <= supply) and the
// demand cap (no line receives more than its demand), and always return a
// feasible, possibly underfilled result.
type Strategy interface {
	Name() string
	Allocate(req *Request) []entities.AllocationLine
}

// New returns the strategy for the configured enum
func New(strategy entities.SolverStrategy, underfillPenalty, overcapPenalty float64) (Strategy, error) {
	switch strategy {
	case entities.Proportional:
		return NewProportional(), nil
	case entities.CostFlow:
		return NewCostFlow(underfillPenalty, overcapPenalty), nil
	default:
		return nil, fmt.Errorf("unknown solver strategy %d", strategy)
	}
}

// reserveCapacity clamps qty to what the store's capacity pool grants and
// returns the granted quantity in whole units
func reserveCapacity(req *Request, storeID entities.StoreID, qty entities.Quantity, allowSoft bool) entities.Quantity {
	if qty <= 0 {
		return 0
	}
	if req.Article.SpacePerUnit <= 0 {
		// Articles without a space footprint are never capacity-bound.
		return qty
	}
	pool := req.Pools.Get(entities.CapacityKey{StoreID: storeID, ProductGroup: req.Article.ProductGroup})
	if pool == nil {
		// Missing capacity snapshot means zero free capacity.
		return 0
	}
	space := req.Article.SpaceDemand(qty)
	granted := pool.Reserve(space, allowSoft)
	if granted >= space {
		return qty
	}
	units := entities.Quantity(granted / req.Article.SpacePerUnit)
	if units < 0 {
		units = 0
	}
	// Return the fractional remainder the integer clamp cannot use.
	pool.Release(granted - req.Article.SpaceDemand(units))
	return units
}
