package montecarlo

import (
	"math"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

// sharpeEpsilon is the return volatility below which the Sharpe ratio is
// reported as undefined.
const sharpeEpsilon = 1e-12

// Summarize reduces an ensemble to per-year bands and final-value risk
// statistics. The ensemble is only read.
func Summarize(e *Ensemble, p Params) *types.Summary {
	years := e.Years()
	sum := &types.Summary{
		Percentiles: types.Percentiles{
			P5:  make([]float64, years),
			P25: make([]float64, years),
			P50: make([]float64, years),
			P75: make([]float64, years),
			P95: make([]float64, years),
		},
		Expected: make([]float64, years),
		StdDev:   make([]float64, years),
	}

	for y := 1; y <= years; y++ {
		col := sortedCopy(e.Column(y))
		sum.Percentiles.P5[y-1] = percentileSorted(col, 5)
		sum.Percentiles.P25[y-1] = percentileSorted(col, 25)
		sum.Percentiles.P50[y-1] = percentileSorted(col, 50)
		sum.Percentiles.P75[y-1] = percentileSorted(col, 75)
		sum.Percentiles.P95[y-1] = percentileSorted(col, 95)
		sum.Expected[y-1], sum.StdDev[y-1] = meanStd(col)
	}

	sum.PerformanceMetrics = performanceMetrics(e, p)
	return sum
}

func performanceMetrics(e *Ensemble, p Params) *types.PerformanceMetrics {
	finals := e.Finals()
	sorted := sortedCopy(finals)

	m := &types.PerformanceMetrics{}
	m.MeanFinal, m.StdFinal = meanStd(finals)
	m.MedianFinal = percentileSorted(sorted, 50)

	drawdowns := make([]float64, len(e.Values))
	for i, row := range e.Values {
		drawdowns[i] = maxDrawdown(row)
	}
	m.AvgMaxDrawdown, _ = meanStd(drawdowns)

	m.VaR5 = percentileSorted(sorted, 5)
	tail := 0.0
	count := 0
	for _, v := range sorted {
		if v > m.VaR5 {
			break
		}
		tail += v
		count++
	}
	if count > 0 {
		m.CVaR5 = tail / float64(count)
	}

	annual := make([]float64, len(finals))
	exponent := 1 / float64(p.InvestmentYears)
	for i, v := range finals {
		annual[i] = math.Pow(math.Max(v, 0)/p.InitialAmount, exponent) - 1
	}
	m.AvgAnnualReturn, m.StdAnnualReturn = meanStd(annual)
	if m.StdAnnualReturn >= sharpeEpsilon {
		sharpe := (m.AvgAnnualReturn - p.RiskFreeRate) / m.StdAnnualReturn
		m.SharpeRatio = &sharpe
	}
	return m
}
