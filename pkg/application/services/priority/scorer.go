package priority

import (
	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// Scorer computes replenishment priority scores. Higher score means the
// solver prefers the line; initial allocation runs without a scorer.
type Scorer struct {
	weights       entities.ScoreWeights
	thresholdDays float64
}

// NewScorer creates a scorer with the given term weights and the
// days-of-supply threshold below which a store counts as urgent
func NewScorer(weights entities.ScoreWeights, thresholdDays float64) *Scorer {
	return &Scorer{weights: weights, thresholdDays: thresholdDays}
}

// Score computes
//
//	a*urgency + b*velocity + c*serviceGap - e*overstockRisk
//
// with urgency = max(0, thresholdDays - daysOfSupply) and
// serviceGap = max(0, targetService - coverage).
func (s *Scorer) Score(position *entities.StorePosition) entities.PriorityScore {
	urgency := s.thresholdDays - position.DaysOfSupply()
	if urgency < 0 {
		urgency = 0
	}

	serviceGap := position.TargetService - position.Coverage
	if serviceGap < 0 {
		serviceGap = 0
	}

	score := s.weights.Urgency*urgency +
		s.weights.Velocity*position.AvgDailySales +
		s.weights.ServiceGap*serviceGap -
		s.weights.OverstockRisk*position.OverstockFactor

	return entities.PriorityScore{
		ArticleNumber: position.ArticleNumber,
		StoreID:       position.StoreID,
		Score:         score,
	}
}

// ScoreAll scores a batch of store positions
func (s *Scorer) ScoreAll(positions []*entities.StorePosition) []entities.PriorityScore {
	scores := make([]entities.PriorityScore, 0, len(positions))
	for _, position := range positions {
		scores = append(scores, s.Score(position))
	}
	return scores
}
