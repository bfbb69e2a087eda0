package entities

// LimitingFactor classifies what capped an allocation line
type LimitingFactor int

const (
	LimitNone LimitingFactor = iota
	LimitSupply
	LimitCapacity
	LimitPack
	LimitSize
	LimitListing
)

// String method for LimitingFactor enum
func (l LimitingFactor) String() string {
	switch l {
	case LimitNone:
		return "None"
	case LimitSupply:
		return "Supply"
	case LimitCapacity:
		return "Capacity"
	case LimitPack:
		return "Pack"
	case LimitSize:
		return "Size"
	case LimitListing:
		return "Listing"
	default:
		return "Unknown"
	}
}

// SizeQuantity is the per-size portion of an allocation line after
// size-curve repair
type SizeQuantity struct {
	Size string
	Qty  Quantity
}

// AllocationLine is the allocation result for one (article, store) pair.
// Lines are created by the solver and mutated in sequence by rationing,
// fallback and repair; they are frozen once the run finalizes.
type AllocationLine struct {
	ArticleNumber  ArticleNumber
	StoreID        StoreID
	Demand         Quantity
	ProposedQty    Quantity
	FinalQty       Quantity
	LimitingFactor LimitingFactor
	Sizes          []SizeQuantity
	MinFillUnmet   bool

	// Substitution links a substitute line back to the article it stands
	// in for. The original line is kept and never overwritten.
	Substitution  bool
	SubstituteFor ArticleNumber
}

// Underfill returns how far the final quantity falls short of demand
func (l *AllocationLine) Underfill() Quantity {
	short := l.Demand - l.FinalQty
	if short < 0 {
		return 0
	}
	return short
}
