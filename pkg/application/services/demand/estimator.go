package demand

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// Estimator computes demand per (article, store) line. Initial allocation
// blends net plan demand with forecast; replenishment nets target stock
// against the current position.
type Estimator struct {
	forecastWeight float64
}

// NewEstimator creates an estimator with the given forecast weight in [0,1]
func NewEstimator(forecastWeight float64) *Estimator {
	if forecastWeight < 0 {
		forecastWeight = 0
	}
	if forecastWeight > 1 {
		forecastWeight = 1
	}
	return &Estimator{forecastWeight: forecastWeight}
}

// Result carries the estimated lines plus the count of lines that fell
// back to plan-only demand because no forecast was present
type Result struct {
	Lines            []*entities.DemandLine
	MissingForecasts int
}

// EstimateInitial computes blended initial-allocation demand for every line:
//
//	demand = max(0, plan - (onHand+inbound)) * (1-w) + forecast * w
//
// The plan-net term is clamped to zero before weighting, not after. Lines
// without a forecast are computed with w forced to 0 and counted as a data
// gap, not rejected.
func (e *Estimator) EstimateInitial(lines []*entities.DemandLine) *Result {
	result := &Result{Lines: make([]*entities.DemandLine, 0, len(lines))}
	for _, line := range lines {
		w := e.forecastWeight
		if !line.HasForecast {
			w = 0
			result.MissingForecasts++
		}

		netPlan := line.PlanQty - (line.OnHand + line.Inbound)
		if netPlan < 0 {
			netPlan = 0
		}

		// Decimal blend keeps the weighting exact for fractional weights.
		blended := decimal.NewFromInt(int64(netPlan)).
			Mul(decimal.NewFromFloat(1 - w)).
			Add(decimal.NewFromInt(int64(line.ForecastQty)).Mul(decimal.NewFromFloat(w)))

		estimated := *line
		estimated.ForecastWeight = w
		estimated.Demand = entities.Quantity(blended.Round(0).IntPart())
		if estimated.Demand < 0 {
			estimated.Demand = 0
		}
		result.Lines = append(result.Lines, &estimated)
	}
	return result
}

// SafetyStock computes z * sigma * sqrt(leadTime), rounded up to whole units
func SafetyStock(params entities.ReplenishmentParams) entities.Quantity {
	safety := params.ServiceLevelZ * params.DemandStdDev * math.Sqrt(params.LeadTimeDays)
	if safety < 0 {
		return 0
	}
	return entities.Quantity(math.Ceil(safety))
}

// EstimateReplenishment computes replenishment need for every line:
//
//	need = max(0, (forecast + safety + presentationMin) - (onHand+inbound))
func (e *Estimator) EstimateReplenishment(lines []*entities.ReplenishmentLine) []*entities.ReplenishmentLine {
	out := make([]*entities.ReplenishmentLine, 0, len(lines))
	for _, line := range lines {
		estimated := *line
		need := (line.ForecastDemand + line.SafetyStock + line.PresentationMin) - (line.OnHand + line.Inbound)
		if need < 0 {
			need = 0
		}
		estimated.Need = need
		out = append(out, &estimated)
	}
	return out
}
