package montecarlo

import "math"

// EstimateCost returns the number of random draws a request performs across
// scenarioCount scenarios. It saturates at math.MaxInt64.
func EstimateCost(p Params, scenarioCount int) int64 {
	drawsPerPeriod := int64(1)
	if p.Model == ModelHistorical {
		drawsPerPeriod = int64(12 / p.PeriodsPerYear())
	}

	assetCount := int64(len(p.assets))
	if p.Batch() {
		assetCount = 0
		for _, pf := range p.portfolios {
			assetCount += int64(len(pf.Assets))
		}
	}

	factors := []int64{
		int64(p.NumSimulations),
		int64(p.TotalPeriods()),
		drawsPerPeriod,
		assetCount,
		int64(scenarioCount),
	}
	cost := int64(1)
	for _, f := range factors {
		if f <= 0 {
			return 0
		}
		if cost > math.MaxInt64/f {
			return math.MaxInt64
		}
		cost *= f
	}
	return cost
}
