package entities

// PriorityScore is the replenishment priority for one (article, store) pair.
// Only the ordering of scores matters to the solver; the range is unbounded.
type PriorityScore struct {
	ArticleNumber ArticleNumber
	StoreID       StoreID
	Score         float64
}

// ScoreWeights configures the priority scoring terms. The weights are not
// required to sum to 1.
type ScoreWeights struct {
	Urgency       float64
	Velocity      float64
	ServiceGap    float64
	OverstockRisk float64
}

// StorePosition is the per-store stock position the scorer evaluates
type StorePosition struct {
	ArticleNumber   ArticleNumber
	StoreID         StoreID
	OnHand          Quantity
	Inbound         Quantity
	AvgDailySales   float64
	TargetService   float64
	Coverage        float64
	OverstockFactor float64
}

// DaysOfSupply returns (onHand+inbound)/avgDailySales, or a large value
// when there are no sales to consume the stock
func (p *StorePosition) DaysOfSupply() float64 {
	if p.AvgDailySales <= 0 {
		return 9999
	}
	return float64(p.OnHand+p.Inbound) / p.AvgDailySales
}
