package solver

import (
	"sort"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// CostFlowStrategy allocates by descending marginal value, approximating
//
//	max Σ(score*x) - μ*Σunderfill - λ*ΣovercapSlack
//
// with soft penalties only: underfill raises a line's marginal value by μ,
// and the capacity soft zone is consumed only while the marginal value
// still beats the per-unit overcapacity cost λ*spacePerUnit. The result is
// always feasible, possibly underfilled.
type CostFlowStrategy struct {
	underfillPenalty float64
	overcapPenalty   float64
}

// NewCostFlow creates the weighted-objective strategy with the configured
// underfill (μ) and overcapacity (λ) penalty weights
func NewCostFlow(underfillPenalty, overcapPenalty float64) *CostFlowStrategy {
	return &CostFlowStrategy{underfillPenalty: underfillPenalty, overcapPenalty: overcapPenalty}
}

// Verify interface compliance
var _ Strategy = (*CostFlowStrategy)(nil)

// Name returns the strategy name
func (s *CostFlowStrategy) Name() string { return "costflow" }

// Allocate fills lines in marginal-value order. Equal marginal values are
// broken toward the line with lower current coverage, then by store ID so
// the order is never arbitrary.
func (s *CostFlowStrategy) Allocate(req *Request) []entities.AllocationLine {
	lines := make([]Line, len(req.Lines))
	copy(lines, req.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		mi := lines[i].Score + s.underfillPenalty
		mj := lines[j].Score + s.underfillPenalty
		if mi != mj {
			return mi > mj
		}
		if lines[i].Coverage != lines[j].Coverage {
			return lines[i].Coverage < lines[j].Coverage
		}
		return lines[i].StoreID < lines[j].StoreID
	})

	remaining := req.Supply
	byStore := make(map[entities.StoreID]entities.AllocationLine, len(lines))
	for _, line := range lines {
		want := line.Demand
		if want > remaining {
			want = remaining
		}

		factor := entities.LimitNone
		if want < line.Demand {
			factor = entities.LimitSupply
		}

		allowSoft := s.softZoneWorthIt(line, req.Article.SpacePerUnit)
		granted := reserveCapacity(req, line.StoreID, want, allowSoft)
		if granted < want {
			factor = entities.LimitCapacity
		}
		remaining -= granted

		byStore[line.StoreID] = entities.AllocationLine{
			ArticleNumber:  req.Article.ArticleNumber,
			StoreID:        line.StoreID,
			Demand:         line.Demand,
			ProposedQty:    granted,
			FinalQty:       granted,
			LimitingFactor: factor,
		}
		if remaining <= 0 {
			break
		}
	}

	// Report lines in store order regardless of fill order.
	ordered := make([]Line, len(req.Lines))
	copy(ordered, req.Lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StoreID < ordered[j].StoreID })

	result := make([]entities.AllocationLine, 0, len(ordered))
	for _, line := range ordered {
		if allocated, ok := byStore[line.StoreID]; ok {
			result = append(result, allocated)
			continue
		}
		result = append(result, entities.AllocationLine{
			ArticleNumber:  req.Article.ArticleNumber,
			StoreID:        line.StoreID,
			Demand:         line.Demand,
			LimitingFactor: entities.LimitSupply,
		})
	}
	return result
}

// softZoneWorthIt applies the λ penalty: the soft zone is only consumed
// while a unit's value (score plus avoided underfill) exceeds its cost.
func (s *CostFlowStrategy) softZoneWorthIt(line Line, spacePerUnit float64) bool {
	if spacePerUnit <= 0 {
		return false
	}
	return line.Score+s.underfillPenalty > s.overcapPenalty*spacePerUnit
}
