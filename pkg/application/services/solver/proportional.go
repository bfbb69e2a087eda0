package solver

import (
	"sort"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// ProportionalStrategy distributes supply in proportion to demand:
//
//	x = min(demand, supply * demand / Σdemand)
//
// Integer remainders left by flooring are handed out one unit at a time by
// descending fractional share so the split stays exact where it can be.
type ProportionalStrategy struct{}

// NewProportional creates the proportional strategy
func NewProportional() *ProportionalStrategy {
	return &ProportionalStrategy{}
}

// Verify interface compliance
var _ Strategy = (*ProportionalStrategy)(nil)

// Name returns the strategy name
func (s *ProportionalStrategy) Name() string { return "proportional" }

// Allocate performs the proportional split, then clamps each line to the
// store's free capacity
func (s *ProportionalStrategy) Allocate(req *Request) []entities.AllocationLine {
	lines := make([]Line, len(req.Lines))
	copy(lines, req.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].StoreID < lines[j].StoreID })

	var totalDemand entities.Quantity
	for _, line := range lines {
		totalDemand += line.Demand
	}

	shares := make([]entities.Quantity, len(lines))
	if totalDemand > 0 && req.Supply > 0 {
		type remainder struct {
			index int
			frac  float64
		}
		var remainders []remainder
		var distributed entities.Quantity

		for i, line := range lines {
			exact := float64(req.Supply) * float64(line.Demand) / float64(totalDemand)
			share := entities.Quantity(exact)
			if share > line.Demand {
				share = line.Demand
			}
			shares[i] = share
			distributed += share
			if share < line.Demand {
				remainders = append(remainders, remainder{index: i, frac: exact - float64(share)})
			}
		}

		// Largest fractional share first; ties go to the lower store ID
		// via the stable pre-sort above.
		sort.SliceStable(remainders, func(i, j int) bool { return remainders[i].frac > remainders[j].frac })
		leftover := req.Supply - distributed
		if leftover > totalDemand-distributed {
			leftover = totalDemand - distributed
		}
		for _, r := range remainders {
			if leftover <= 0 {
				break
			}
			if shares[r.index] < lines[r.index].Demand {
				shares[r.index]++
				leftover--
			}
		}
	}

	result := make([]entities.AllocationLine, 0, len(lines))
	for i, line := range lines {
		proposed := shares[i]
		factor := entities.LimitNone
		if proposed < line.Demand {
			factor = entities.LimitSupply
		}

		granted := reserveCapacity(req, line.StoreID, proposed, false)
		if granted < proposed {
			factor = entities.LimitCapacity
		}

		result = append(result, entities.AllocationLine{
			ArticleNumber:  req.Article.ArticleNumber,
			StoreID:        line.StoreID,
			Demand:         line.Demand,
			ProposedQty:    granted,
			FinalQty:       granted,
			LimitingFactor: factor,
		})
	}
	return result
}
