package supply

import (
	"fmt"
	"time"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// Availability is the clamped, allocatable supply for one article
type Availability struct {
	ArticleNumber entities.ArticleNumber
	Available     entities.Quantity
	Exhausted     bool
}

// Aggregator computes allocatable supply from the supply snapshot
type Aggregator struct {
	supplyRepo repositories.SupplyRepository
}

// NewAggregator creates a new supply aggregator
func NewAggregator(supplyRepo repositories.SupplyRepository) *Aggregator {
	return &Aggregator{supplyRepo: supplyRepo}
}

// Aggregate computes availability for one article:
//
//	available = onHand + confirmedInbound - reservations + external
//
// A negative result is clamped to zero and reported as a SupplyExhausted
// exception instead of propagating downstream.
func (a *Aggregator) Aggregate(number entities.ArticleNumber) (*Availability, *entities.Exception, error) {
	snapshot, err := a.supplyRepo.GetSupply(number)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load supply snapshot for %s: %w", number, err)
	}
	return fromSnapshot(snapshot), exhaustionException(snapshot), nil
}

// AggregateAll computes availability for every article in the snapshot
func (a *Aggregator) AggregateAll() ([]*Availability, []entities.Exception, error) {
	snapshots, err := a.supplyRepo.GetSupplySnapshots()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load supply snapshots: %w", err)
	}

	availabilities := make([]*Availability, 0, len(snapshots))
	var exceptions []entities.Exception
	for _, snapshot := range snapshots {
		availabilities = append(availabilities, fromSnapshot(snapshot))
		if ex := exhaustionException(snapshot); ex != nil {
			exceptions = append(exceptions, *ex)
		}
	}
	return availabilities, exceptions, nil
}

func fromSnapshot(snapshot *entities.SupplySnapshot) *Availability {
	raw := snapshot.RawAvailable()
	availability := &Availability{ArticleNumber: snapshot.ArticleNumber, Available: raw}
	if raw < 0 {
		availability.Available = 0
		availability.Exhausted = true
	}
	return availability
}

func exhaustionException(snapshot *entities.SupplySnapshot) *entities.Exception {
	raw := snapshot.RawAvailable()
	if raw >= 0 {
		return nil
	}
	return &entities.Exception{
		Kind:          entities.SupplyExhausted,
		ArticleNumber: snapshot.ArticleNumber,
		Message:       fmt.Sprintf("supply exhausted: reservations exceed position by %d", -raw),
		At:            time.Now(),
	}
}
