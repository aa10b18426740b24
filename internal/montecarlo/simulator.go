// Package montecarlo projects portfolio balances over multi-year horizons by
// simulating independent return paths and reducing them to risk statistics.
package montecarlo

import (
	"context"
	"fmt"

	"github.com/atlas-desktop/portfolio-sim/internal/workers"
	"go.uber.org/zap"
)

// Ensemble holds the year-end balances of every path, indexed
// [path][year-1].
type Ensemble struct {
	Values [][]float64
}

// Paths returns the number of simulated paths.
func (e *Ensemble) Paths() int { return len(e.Values) }

// Years returns the horizon length.
func (e *Ensemble) Years() int {
	if len(e.Values) == 0 {
		return 0
	}
	return len(e.Values[0])
}

// Finals returns the last column.
func (e *Ensemble) Finals() []float64 {
	out := make([]float64, len(e.Values))
	for i, row := range e.Values {
		out[i] = row[len(row)-1]
	}
	return out
}

// Column returns the balances of every path at the end of year (1-based).
func (e *Ensemble) Column(year int) []float64 {
	out := make([]float64, len(e.Values))
	for i, row := range e.Values {
		out[i] = row[year-1]
	}
	return out
}

// Simulator drives the period loop of every path of one portfolio
type Simulator struct {
	logger *zap.Logger
	pool   *workers.Pool
}

// NewSimulator creates a simulator that fans paths out over pool. A nil pool
// runs paths sequentially.
func NewSimulator(logger *zap.Logger, pool *workers.Pool) *Simulator {
	if pool == nil {
		cfg := workers.DefaultPoolConfig("paths")
		cfg.NumWorkers = 1
		pool = workers.NewPool(logger, cfg)
	}
	return &Simulator{logger: logger, pool: pool}
}

// Run simulates p.NumSimulations paths of p's single portfolio. Each path
// writes only its own row, and its returns depend only on (seed, path), so
// the ensemble is the same for any worker count.
func (s *Simulator) Run(ctx context.Context, p Params, gen ReturnGenerator) (*Ensemble, error) {
	assets := p.Assets()
	if len(assets) == 0 {
		return nil, validationf("assets", "portfolio has no assets")
	}
	weights := make([]float64, len(assets))
	for i, a := range assets {
		weights[i] = a.Weight()
	}

	ens := &Ensemble{Values: make([][]float64, p.NumSimulations)}
	err := s.pool.Run(ctx, p.NumSimulations, func(_ context.Context, path int) error {
		returns, err := gen.PathReturns(path)
		if err != nil {
			return fmt.Errorf("path %d: %w", path, err)
		}
		ens.Values[path] = simulatePath(p, weights, returns, gen.RebalancesEachPeriod())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("simulated ensemble",
		zap.String("generator", gen.Name()),
		zap.Int("paths", p.NumSimulations),
		zap.Int("years", p.InvestmentYears),
		zap.Int("periods_per_year", p.PeriodsPerYear()),
	)
	return ens, nil
}

// simulatePath compounds one path and records the total after each year's
// cashflow.
func simulatePath(p Params, weights []float64, returns [][]float64, rebalanceEachPeriod bool) []float64 {
	ppy := p.PeriodsPerYear()
	balances := make([]float64, len(weights))
	cash := Rebalance(p.InitialAmount, weights, balances)

	out := make([]float64, p.InvestmentYears)
	for t := 0; t < p.TotalPeriods(); t++ {
		for i := range balances {
			balances[i] *= 1 + returns[i][t]
		}
		if rebalanceEachPeriod {
			cash = Rebalance(portfolioTotal(balances, cash), weights, balances)
		}
		if (t+1)%ppy != 0 {
			continue
		}
		year := (t + 1) / ppy
		total := ApplyCashflow(portfolioTotal(balances, cash), year, p.Cashflow)
		cash = Rebalance(total, weights, balances)
		out[year-1] = total
	}
	return out
}
