package rationing

import (
	"sort"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// DefaultIterationCap bounds the redistribution loop
const DefaultIterationCap = 3

// Line is one store's position entering rationing. CapMax is the most the
// store can take in units before its capacity pool is exhausted.
type Line struct {
	StoreID entities.StoreID
	Need    entities.Quantity
	CapMax  entities.Quantity
}

// Result is the outcome of one rationing pass
type Result struct {
	Lines      []entities.AllocationLine
	Iterations int
}

// Engine redistributes scarce supply. It activates only when aggregate
// need exceeds available supply for an article; callers with enough supply
// never enter rationing.
type Engine struct {
	iterationCap int
	minFillPct   float64
}

// NewEngine creates a rationing engine. minFillPct is the MinFill soft
// threshold as a fraction of need; iterationCap <= 0 selects the default.
func NewEngine(iterationCap int, minFillPct float64) *Engine {
	if iterationCap <= 0 {
		iterationCap = DefaultIterationCap
	}
	return &Engine{iterationCap: iterationCap, minFillPct: minFillPct}
}

// Ration distributes available supply proportionally to need, clipping to
// capacity and redistributing freed units among non-clipped stores until
// nothing more can be placed or the iteration cap is reached. MinFill is a
// soft constraint: stores left below the threshold are flagged as fallback
// candidates, never force-filled, so supply conservation always holds.
func (e *Engine) Ration(article entities.ArticleNumber, available entities.Quantity, lines []Line) *Result {
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StoreID < sorted[j].StoreID })

	allocated := make([]entities.Quantity, len(sorted))
	clipped := make([]bool, len(sorted))
	remaining := available

	iterations := 0
	for iterations < e.iterationCap && remaining > 0 {
		iterations++
		placed := e.distribute(sorted, allocated, clipped, &remaining)
		if placed == 0 {
			// Convergence: no further unit can be placed.
			break
		}
	}

	result := &Result{Iterations: iterations}
	for i, line := range sorted {
		// A store whose full need was met is unconstrained even if its
		// last share landed exactly on the capacity ceiling.
		factor := entities.LimitNone
		switch {
		case allocated[i] >= line.Need:
			factor = entities.LimitNone
		case clipped[i]:
			factor = entities.LimitCapacity
		default:
			factor = entities.LimitSupply
		}

		allocationLine := entities.AllocationLine{
			ArticleNumber:  article,
			StoreID:        line.StoreID,
			Demand:         line.Need,
			ProposedQty:    allocated[i],
			FinalQty:       allocated[i],
			LimitingFactor: factor,
		}
		if e.minFillPct > 0 && float64(allocated[i]) < e.minFillPct*float64(line.Need) {
			allocationLine.MinFillUnmet = true
		}
		result.Lines = append(result.Lines, allocationLine)
	}
	return result
}

// distribute performs one proportional round over the stores that still
// have open need and free capacity, returning how many units it placed
func (e *Engine) distribute(lines []Line, allocated []entities.Quantity, clipped []bool, remaining *entities.Quantity) entities.Quantity {
	var openNeed entities.Quantity
	for i, line := range lines {
		if clipped[i] {
			continue
		}
		openNeed += line.Need - allocated[i]
	}
	if openNeed <= 0 {
		return 0
	}

	pot := *remaining
	var placed entities.Quantity

	type remainder struct {
		index int
		frac  float64
	}
	var remainders []remainder

	for i, line := range lines {
		if clipped[i] {
			continue
		}
		resid := line.Need - allocated[i]
		if resid <= 0 {
			continue
		}

		exact := float64(pot) * float64(resid) / float64(openNeed)
		share := entities.Quantity(exact)
		if share > resid {
			share = resid
		}

		capRoom := line.CapMax - allocated[i]
		if share >= capRoom {
			share = capRoom
			clipped[i] = true
		} else {
			remainders = append(remainders, remainder{index: i, frac: exact - float64(share)})
		}
		if share < 0 {
			share = 0
		}

		allocated[i] += share
		placed += share
	}

	// Hand out flooring leftovers one unit at a time, largest fractional
	// share first, staying inside need and capacity.
	sort.SliceStable(remainders, func(i, j int) bool { return remainders[i].frac > remainders[j].frac })
	leftover := pot - placed
	for _, r := range remainders {
		if leftover <= 0 {
			break
		}
		i := r.index
		if allocated[i] < lines[i].Need && allocated[i] < lines[i].CapMax {
			allocated[i]++
			placed++
			leftover--
		}
	}

	*remaining -= placed
	return placed
}
