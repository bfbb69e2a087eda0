package entities

import (
	"fmt"
	"time"
)

// VariantID represents a unique variant identifier
type VariantID string

// VariantStatus is the lifecycle state of a variant
type VariantStatus int

const (
	Draft VariantStatus = iota
	Simulated
	Validated
	Released
	Transferred
)

// String method for VariantStatus enum
func (s VariantStatus) String() string {
	switch s {
	case Draft:
		return "Draft"
	case Simulated:
		return "Simulated"
	case Validated:
		return "Validated"
	case Released:
		return "Released"
	case Transferred:
		return "Transferred"
	default:
		return "Unknown"
	}
}

// PlanningStrategy selects how the recipient set is determined
type PlanningStrategy int

const (
	PlanData PlanningStrategy = iota
	ManualSelection
	Listing
	TransportRelations
)

// String method for PlanningStrategy enum
func (s PlanningStrategy) String() string {
	switch s {
	case PlanData:
		return "PlanData"
	case ManualSelection:
		return "ManualSelection"
	case Listing:
		return "Listing"
	case TransportRelations:
		return "TransportRelations"
	default:
		return "Unknown"
	}
}

// SolverStrategy selects the allocation strategy
type SolverStrategy int

const (
	Proportional SolverStrategy = iota
	CostFlow
)

// String method for SolverStrategy enum
func (s SolverStrategy) String() string {
	switch s {
	case Proportional:
		return "Proportional"
	case CostFlow:
		return "CostFlow"
	default:
		return "Unknown"
	}
}

// AllocationMode selects which demand model a run uses
type AllocationMode int

const (
	InitialAllocation AllocationMode = iota
	Replenishment
)

// String method for AllocationMode enum
func (m AllocationMode) String() string {
	switch m {
	case InitialAllocation:
		return "InitialAllocation"
	case Replenishment:
		return "Replenishment"
	default:
		return "Unknown"
	}
}

// PackRepairMode selects how pack-size violations are repaired
type PackRepairMode int

const (
	Strict PackRepairMode = iota
	BestEffort
)

// String method for PackRepairMode enum
func (m PackRepairMode) String() string {
	switch m {
	case Strict:
		return "Strict"
	case BestEffort:
		return "BestEffort"
	default:
		return "Unknown"
	}
}

// PolicyParameters is the full policy configuration a variant carries.
// It is mutable only while the variant is Draft or Simulated.
type PolicyParameters struct {
	Mode              AllocationMode
	Strategy          PlanningStrategy
	Solver            SolverStrategy
	ForecastWeight    float64
	MinFillPct        float64
	FallbackThreshold float64
	SoftZonePct       float64
	UnderfillPenalty  float64
	OvercapPenalty    float64
	RationingCap      int
	PackRepair        PackRepairMode
	MinSizesPerStore  int
	Scores            ScoreWeights
	Replenishment     ReplenishmentPolicy
}

// ReplenishmentPolicy configures the replenishment demand model and the
// store-position terms the priority scorer evaluates
type ReplenishmentPolicy struct {
	ServiceLevelZ   float64
	DemandStdDev    float64
	LeadTimeDays    float64
	PresentationMin Quantity
	UrgencyDays     float64
	TargetService   float64
}

// ValidationChecklist holds the five checks a variant must pass to reach
// Validated. Any single failure keeps the variant at Simulated.
type ValidationChecklist struct {
	RecipientsValid      bool
	DeliveryDatesValid   bool
	CapacityPresent      bool
	ParametersComplete   bool
	NoBlockingExceptions bool
}

// Passed reports whether every check succeeded
func (c ValidationChecklist) Passed() bool {
	return c.RecipientsValid && c.DeliveryDatesValid && c.CapacityPresent &&
		c.ParametersComplete && c.NoBlockingExceptions
}

// Failures lists the names of failed checks
func (c ValidationChecklist) Failures() []string {
	var failures []string
	if !c.RecipientsValid {
		failures = append(failures, "recipient determination invalid")
	}
	if !c.DeliveryDatesValid {
		failures = append(failures, "delivery dates invalid")
	}
	if !c.CapacityPresent {
		failures = append(failures, "capacity snapshot missing")
	}
	if !c.ParametersComplete {
		failures = append(failures, "parameters incomplete")
	}
	if !c.NoBlockingExceptions {
		failures = append(failures, "blocking exceptions present")
	}
	return failures
}

// Variant is a named policy configuration snapshot. Transitions are
// one-directional; Released and Transferred variants are immutable
// append-only audit records.
type Variant struct {
	ID            VariantID
	Name          string
	Season        Season
	Status        VariantStatus
	Policy        PolicyParameters
	DeliveryStart time.Time
	DeliveryEnd   time.Time
	RunID         RunID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DeliveryDatesValid reports whether the delivery window is a proper,
// non-empty interval
func (v *Variant) DeliveryDatesValid() bool {
	return !v.DeliveryStart.IsZero() && !v.DeliveryEnd.IsZero() && v.DeliveryStart.Before(v.DeliveryEnd)
}

// Mutable reports whether the policy configuration may still change
func (v *Variant) Mutable() bool {
	return v.Status == Draft || v.Status == Simulated
}

// Transition advances the variant one step. Validated additionally
// requires a fully passed checklist; a failed checklist returns a
// ValidationFailure and leaves the status untouched.
func (v *Variant) Transition(target VariantStatus, checklist ValidationChecklist) error {
	if target != v.Status+1 {
		return fmt.Errorf("illegal variant transition %s -> %s", v.Status, target)
	}
	if target == Validated && !checklist.Passed() {
		return &ValidationFailure{VariantID: v.ID, Failures: checklist.Failures()}
	}
	v.Status = target
	v.UpdatedAt = time.Now()
	return nil
}
