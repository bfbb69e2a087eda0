package dto

import (
	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// ExclusionRecord reports one store excluded from the recipient set
type ExclusionRecord struct {
	StoreID entities.StoreID `json:"storeId"`
	Reason  string           `json:"reason"`
}

// RunResult is the complete output of one allocation run, including the
// recipient accounting the run was computed over
type RunResult struct {
	Run            *entities.AllocationRun `json:"run"`
	EligibleStores []entities.StoreID      `json:"eligibleStores"`
	Excluded       []ExclusionRecord       `json:"excludedStores"`
}

// IncludedCount returns the number of eligible stores
func (r *RunResult) IncludedCount() int { return len(r.EligibleStores) }

// ExcludedCount returns the number of excluded stores
func (r *RunResult) ExcludedCount() int { return len(r.Excluded) }
