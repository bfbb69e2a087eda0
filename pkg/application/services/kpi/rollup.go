package kpi

import (
	"github.com/shopspring/decimal"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

var hundred = decimal.NewFromInt(100)

// Rollup computes the run-level KPIs the reporting layer consumes:
// demand coverage, service-level fulfillment (fully served lines), MinFill
// rate, substitution count and exception count. Substitute lines carry
// their own article and are excluded from the primary-demand ratios.
func Rollup(lines []entities.AllocationLine, exceptions []entities.Exception) entities.RunKPIs {
	var totalDemand, totalAllocated int64
	var primaryLines, fullyServed, minFillMet int64
	substitutions := 0

	for _, line := range lines {
		if line.Substitution {
			substitutions++
			continue
		}
		primaryLines++
		totalDemand += int64(line.Demand)
		totalAllocated += int64(line.FinalQty)
		if line.FinalQty >= line.Demand {
			fullyServed++
		}
		if !line.MinFillUnmet {
			minFillMet++
		}
	}

	kpis := entities.RunKPIs{
		Substitutions: substitutions,
		Exceptions:    len(exceptions),
	}
	if totalDemand > 0 {
		kpis.CoveragePct = decimal.NewFromInt(totalAllocated).
			Div(decimal.NewFromInt(totalDemand)).Mul(hundred).Round(2)
	}
	if primaryLines > 0 {
		kpis.ServiceLevelPct = decimal.NewFromInt(fullyServed).
			Div(decimal.NewFromInt(primaryLines)).Mul(hundred).Round(2)
		kpis.MinFillPct = decimal.NewFromInt(minFillMet).
			Div(decimal.NewFromInt(primaryLines)).Mul(hundred).Round(2)
	}
	return kpis
}
