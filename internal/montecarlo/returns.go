package montecarlo

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// ReturnGenerator produces the period returns of one path.
type ReturnGenerator interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// PathReturns returns the returns of path, indexed [asset][period]. The
	// result depends only on the generator's seed and path.
	PathReturns(path int) ([][]float64, error)
	// RebalancesEachPeriod reports whether target weights are restored after
	// every period or only at year boundaries.
	RebalancesEachPeriod() bool
}

// GARCH(1,1) constants.
const (
	garchOmegaScale = 0.05
	garchAlpha      = 0.1
	garchBeta       = 0.85
	garchBurnIn     = 500
)

// NewReturnGenerator selects the strategy for p. series holds the monthly
// history of each asset and is only read by the historical model.
func NewReturnGenerator(p Params, series [][]float64) (ReturnGenerator, error) {
	assets := p.Assets()
	switch p.Model {
	case ModelHistorical:
		if len(series) != len(assets) {
			return nil, validationf("assets", "history missing for %d of %d assets", len(assets)-len(series), len(assets))
		}
		return &historicalBootstrap{
			seed:           p.RandomSeed,
			series:         series,
			adjustment:     p.HistoricalAdjustment,
			periods:        p.TotalPeriods(),
			drawsPerPeriod: 12 / p.PeriodsPerYear(),
		}, nil

	case ModelParameterized:
		n := float64(p.PeriodsPerYear())
		return &parametricDistribution{
			seed:         p.RandomSeed,
			assets:       len(assets),
			distribution: p.Distribution,
			mu:           p.Mu / n,
			sigma:        p.Sigma / math.Sqrt(n),
			periods:      p.TotalPeriods(),
			shared:       !p.Rebalancing.SubAnnual(),
		}, nil

	case ModelStatistical:
		switch p.TimeSeries {
		case TimeSeriesNormal:
			return newStatisticalNormal(p, assets)
		case TimeSeriesGARCH:
			return &conditionalVolatility{
				seed:    p.RandomSeed,
				assets:  assets,
				periods: p.TotalPeriods(),
			}, nil
		}
		return nil, &InvalidModelError{Field: "time_series_model", Value: string(p.TimeSeries)}
	}
	return nil, &InvalidModelError{Field: "simulation_model", Value: string(p.Model)}
}

// historicalBootstrap resamples monthly history with replacement. A period
// return compounds 12/periodsPerYear draws, each shifted by the scenario
// adjustment.
type historicalBootstrap struct {
	seed           int64
	series         [][]float64
	adjustment     float64
	periods        int
	drawsPerPeriod int
}

func (g *historicalBootstrap) Name() string { return "historical_bootstrap" }

func (g *historicalBootstrap) RebalancesEachPeriod() bool { return true }

func (g *historicalBootstrap) PathReturns(path int) ([][]float64, error) {
	out := make([][]float64, len(g.series))
	for i, s := range g.series {
		rng := pathStream(g.seed, uint64(path), uint64(i))
		n := len(s)
		row := make([]float64, g.periods)
		for t := range row {
			growth := 1.0
			for k := 0; k < g.drawsPerPeriod; k++ {
				growth *= 1 + s[rng.Intn(n)] + g.adjustment
			}
			row[t] = growth - 1
		}
		out[i] = row
	}
	return out, nil
}

// parametricDistribution draws i.i.d. returns from a single global (mu,
// sigma). In annual mode one draw per year serves the whole portfolio; in
// sub-annual mode every asset draws independently.
type parametricDistribution struct {
	seed         int64
	assets       int
	distribution DistributionType
	mu           float64 // per period
	sigma        float64 // per period
	periods      int
	shared       bool
}

func (g *parametricDistribution) Name() string { return "parametric_" + string(g.distribution) }

func (g *parametricDistribution) RebalancesEachPeriod() bool { return true }

func (g *parametricDistribution) PathReturns(path int) ([][]float64, error) {
	out := make([][]float64, g.assets)
	if g.shared {
		row := g.draw(pathStream(g.seed, uint64(path), sharedAsset))
		for i := range out {
			out[i] = row
		}
		return out, nil
	}
	for i := range out {
		out[i] = g.draw(pathStream(g.seed, uint64(path), uint64(i)))
	}
	return out, nil
}

func (g *parametricDistribution) draw(src rand.Source) []float64 {
	row := make([]float64, g.periods)
	switch g.distribution {
	case DistributionLogNormal:
		d := distuv.LogNormal{Mu: g.mu, Sigma: g.sigma, Src: src}
		for t := range row {
			row[t] = d.Rand() - 1
		}
	default:
		d := distuv.Normal{Mu: g.mu, Sigma: g.sigma, Src: src}
		for t := range row {
			row[t] = d.Rand()
		}
	}
	return row
}

// statisticalNormal draws per-asset normal returns with period-scaled
// moments, jointly through a multivariate normal when a correlation matrix
// is supplied.
type statisticalNormal struct {
	seed    int64
	means   []float64 // per period
	stdDevs []float64 // per period
	cov     *mat.SymDense
	periods int
}

func newStatisticalNormal(p Params, assets []Asset) (*statisticalNormal, error) {
	n := float64(p.PeriodsPerYear())
	g := &statisticalNormal{
		seed:    p.RandomSeed,
		means:   make([]float64, len(assets)),
		stdDevs: make([]float64, len(assets)),
		periods: p.TotalPeriods(),
	}
	for i, a := range assets {
		g.means[i] = a.MeanReturn / n
		g.stdDevs[i] = a.Volatility / math.Sqrt(n)
	}

	corr := p.Correlation()
	if corr == nil {
		return g, nil
	}
	k := len(assets)
	cov := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			cov.SetSym(i, j, g.stdDevs[i]*corr[i][j]*g.stdDevs[j])
		}
	}
	if _, ok := distmv.NewNormal(g.means, cov, rand.NewSource(0)); !ok {
		return nil, validationf("correlation_matrix", "covariance is not positive definite")
	}
	g.cov = cov
	return g, nil
}

func (g *statisticalNormal) Name() string {
	if g.cov != nil {
		return "statistical_mvnormal"
	}
	return "statistical_normal"
}

func (g *statisticalNormal) RebalancesEachPeriod() bool { return true }

func (g *statisticalNormal) PathReturns(path int) ([][]float64, error) {
	k := len(g.means)
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, g.periods)
	}

	if g.cov != nil {
		d, ok := distmv.NewNormal(g.means, g.cov, pathStream(g.seed, uint64(path), sharedAsset))
		if !ok {
			return nil, validationf("correlation_matrix", "covariance is not positive definite")
		}
		x := make([]float64, k)
		for t := 0; t < g.periods; t++ {
			x = d.Rand(x)
			for i := range x {
				out[i][t] = x[i]
			}
		}
		return out, nil
	}

	for i := range out {
		d := distuv.Normal{Mu: g.means[i], Sigma: g.stdDevs[i], Src: pathStream(g.seed, uint64(path), uint64(i))}
		for t := range out[i] {
			out[i][t] = d.Rand()
		}
	}
	return out, nil
}

// conditionalVolatility simulates a constant-mean GARCH(1,1) path per asset
// in one batch with omega = 0.05*vol^2, alpha = 0.1, beta = 0.85.
type conditionalVolatility struct {
	seed    int64
	assets  []Asset
	periods int
}

func (g *conditionalVolatility) Name() string { return "garch" }

// Weights drift between year boundaries.
func (g *conditionalVolatility) RebalancesEachPeriod() bool { return false }

func (g *conditionalVolatility) PathReturns(path int) ([][]float64, error) {
	out := make([][]float64, len(g.assets))
	for i, a := range g.assets {
		omega := garchOmegaScale * a.Volatility * a.Volatility
		out[i] = simulateGARCH(pathStream(g.seed, uint64(path), uint64(i)), a.MeanReturn, omega, garchAlpha, garchBeta, g.periods)
	}
	return out, nil
}

// simulateGARCH starts from the unconditional variance and discards a
// burn-in before recording n observations.
func simulateGARCH(rng *rand.Rand, mu, omega, alpha, beta float64, n int) []float64 {
	variance := omega / (1 - alpha - beta)
	out := make([]float64, n)
	for t := -garchBurnIn; t < n; t++ {
		eps := math.Sqrt(variance) * rng.NormFloat64()
		if t >= 0 {
			out[t] = mu + eps
		}
		variance = omega + alpha*eps*eps + beta*variance
	}
	return out
}
