package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunID represents a unique allocation run identifier
type RunID string

// RunStatus is the terminal state of an allocation run
type RunStatus int

const (
	RunCompleted RunStatus = iota
	RunAborted
)

// String method for RunStatus enum
func (s RunStatus) String() string {
	switch s {
	case RunCompleted:
		return "Completed"
	case RunAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// ExceptionKind classifies run exceptions. DataGap and Underfill are
// accumulated and never halt the run; ConstraintInfeasible aborts it.
type ExceptionKind int

const (
	DataGapWarning ExceptionKind = iota
	UnderfillException
	SupplyExhausted
	ConstraintInfeasible
)

// String method for ExceptionKind enum
func (k ExceptionKind) String() string {
	switch k {
	case DataGapWarning:
		return "DataGapWarning"
	case UnderfillException:
		return "UnderfillException"
	case SupplyExhausted:
		return "SupplyExhausted"
	case ConstraintInfeasible:
		return "ConstraintInfeasible"
	default:
		return "Unknown"
	}
}

// Blocking reports whether this kind of exception aborts the run
func (k ExceptionKind) Blocking() bool {
	return k == ConstraintInfeasible
}

// Exception is one recorded run exception
type Exception struct {
	Kind          ExceptionKind
	ArticleNumber ArticleNumber
	StoreID       StoreID
	Message       string
	At            time.Time
}

// RunKPIs are the run-level rollups consumed by the reporting layer
type RunKPIs struct {
	CoveragePct     decimal.Decimal
	ServiceLevelPct decimal.Decimal
	MinFillPct      decimal.Decimal
	Substitutions   int
	Exceptions      int
}

// AllocationRun is the immutable record of one executed allocation pass
type AllocationRun struct {
	ID         RunID
	VariantID  VariantID
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Lines      []AllocationLine
	Exceptions []Exception
	KPIs       RunKPIs
}

// ExceptionCount returns the number of exceptions of the given kind
func (r *AllocationRun) ExceptionCount(kind ExceptionKind) int {
	count := 0
	for _, ex := range r.Exceptions {
		if ex.Kind == kind {
			count++
		}
	}
	return count
}
