package recipient

import (
	"fmt"
	"sort"
	"time"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// ExclusionReason classifies why a store was excluded from the recipient set
type ExclusionReason int

const (
	ReasonNoListing ExclusionReason = iota
	ReasonStoreClosed
	ReasonTransportBlocked
	ReasonDeliveryBlocked
	ReasonNotSelected
	ReasonNoPlanData
)

// String method for ExclusionReason enum
func (r ExclusionReason) String() string {
	switch r {
	case ReasonNoListing:
		return "NoActiveListing"
	case ReasonStoreClosed:
		return "StoreClosed"
	case ReasonTransportBlocked:
		return "TransportRelationBlocked"
	case ReasonDeliveryBlocked:
		return "TemporaryDeliveryBlock"
	case ReasonNotSelected:
		return "NotInManualSelection"
	case ReasonNoPlanData:
		return "NoPlanData"
	default:
		return "Unknown"
	}
}

// Exclusion records one excluded store together with its reason
type Exclusion struct {
	StoreID entities.StoreID
	Reason  ExclusionReason
}

// Resolution is the outcome of recipient determination. Every store from
// the master is accounted for: either eligible or excluded with a reason.
type Resolution struct {
	Eligible []entities.StoreID
	Excluded []Exclusion
}

// IncludedCount returns the number of eligible stores
func (r *Resolution) IncludedCount() int { return len(r.Eligible) }

// ExcludedCount returns the number of excluded stores
func (r *Resolution) ExcludedCount() int { return len(r.Excluded) }

// Input carries the strategy-specific membership sets
type Input struct {
	Season          entities.Season
	ManualSelection map[entities.StoreID]bool
	PlanDataStores  map[entities.StoreID]bool
	AsOf            time.Time
}

// Resolver determines the eligible store set for an allocation run
type Resolver struct {
	storeRepo repositories.StoreRepository
}

// NewResolver creates a new recipient resolver
func NewResolver(storeRepo repositories.StoreRepository) *Resolver {
	return &Resolver{storeRepo: storeRepo}
}

// Resolve determines eligibility for every store in the master under the
// given planning strategy. The result is deterministic: stores are visited
// and reported in ID order, and no store is silently dropped.
func (r *Resolver) Resolve(strategy entities.PlanningStrategy, input Input) (*Resolution, error) {
	stores, err := r.storeRepo.GetStores()
	if err != nil {
		return nil, fmt.Errorf("failed to load store master: %w", err)
	}

	sorted := make([]*entities.Store, len(stores))
	copy(sorted, stores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	resolution := &Resolution{}
	for _, store := range sorted {
		if reason, excluded := r.exclude(strategy, store, input, asOf); excluded {
			resolution.Excluded = append(resolution.Excluded, Exclusion{StoreID: store.ID, Reason: reason})
			continue
		}
		resolution.Eligible = append(resolution.Eligible, store.ID)
	}
	return resolution, nil
}

func (r *Resolver) exclude(strategy entities.PlanningStrategy, store *entities.Store, input Input, asOf time.Time) (ExclusionReason, bool) {
	// Hard blocks apply under every strategy.
	if store.Closed {
		return ReasonStoreClosed, true
	}
	if store.TransportBlocked {
		return ReasonTransportBlocked, true
	}
	if store.DeliveryBlocked(asOf) {
		return ReasonDeliveryBlocked, true
	}

	switch strategy {
	case entities.PlanData:
		if !input.PlanDataStores[store.ID] {
			return ReasonNoPlanData, true
		}
		if !store.Listed(input.Season) {
			return ReasonNoListing, true
		}
	case entities.ManualSelection:
		if !input.ManualSelection[store.ID] {
			return ReasonNotSelected, true
		}
	case entities.Listing:
		if !store.Listed(input.Season) {
			return ReasonNoListing, true
		}
	case entities.TransportRelations:
		// Transport block already checked above; every open relation is in.
	}
	return 0, false
}
