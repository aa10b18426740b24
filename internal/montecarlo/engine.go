package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/atlas-desktop/portfolio-sim/internal/telemetry"
	"github.com/atlas-desktop/portfolio-sim/internal/workers"
	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"go.uber.org/zap"
)

// Engine runs full projection requests: every scenario, every portfolio.
type Engine struct {
	logger    *zap.Logger
	config    *types.EngineConfig
	provider  HistoryProvider
	metrics   *telemetry.Metrics
	simulator *Simulator
}

// NewEngine creates a projection engine. provider may be nil, in which case
// the historical model runs on synthetic series. metrics may be nil.
func NewEngine(logger *zap.Logger, config *types.EngineConfig, provider HistoryProvider, metrics *telemetry.Metrics) *Engine {
	if config == nil {
		config = types.DefaultEngineConfig()
	}
	poolCfg := workers.DefaultPoolConfig("paths")
	if config.Workers > 0 {
		poolCfg.NumWorkers = config.Workers
	}

	return &Engine{
		logger:    logger,
		config:    config,
		provider:  provider,
		metrics:   metrics,
		simulator: NewSimulator(logger, workers.NewPool(logger, poolCfg)),
	}
}

// Run validates req and projects it under each requested scenario. Any
// failure aborts the whole request.
func (e *Engine) Run(ctx context.Context, req *types.SimulationRequest) (*types.SimulationResponse, error) {
	p, scenarios, err := e.prepare(req)
	if err != nil {
		e.reject(err)
		return nil, err
	}
	return e.RunParams(ctx, p, scenarios)
}

// Estimate reports the cost of req against the configured bound without
// running it.
func (e *Engine) Estimate(req *types.SimulationRequest) (*types.CostEstimate, error) {
	p, err := BuildParams(req)
	if err != nil {
		return nil, err
	}
	scenarios, err := e.Scenarios(req.Scenarios)
	if err != nil {
		return nil, err
	}
	cost := EstimateCost(p, len(scenarios))
	return &types.CostEstimate{
		Draws:    cost,
		MaxDraws: e.config.MaxCost,
		Allowed:  e.config.MaxCost <= 0 || cost <= e.config.MaxCost,
	}, nil
}

// Scenarios parses scenario tags, falling back to the configured defaults
// when tags is empty. Duplicates are dropped.
func (e *Engine) Scenarios(tags []string) ([]Scenario, error) {
	if len(tags) == 0 {
		tags = e.config.DefaultScenarios
	}
	if len(tags) == 0 {
		tags = []string{string(ScenarioBaseline), string(ScenarioOptimistic), string(ScenarioPessimistic)}
	}

	seen := make(map[Scenario]bool, len(tags))
	out := make([]Scenario, 0, len(tags))
	for _, tag := range tags {
		sc, err := ParseScenario(tag)
		if err != nil {
			return nil, err
		}
		if seen[sc] {
			continue
		}
		seen[sc] = true
		out = append(out, sc)
	}
	return out, nil
}

func (e *Engine) prepare(req *types.SimulationRequest) (Params, []Scenario, error) {
	p, err := BuildParams(req)
	if err != nil {
		return Params{}, nil, err
	}
	scenarios, err := e.Scenarios(req.Scenarios)
	if err != nil {
		return Params{}, nil, err
	}
	if e.config.MaxCost > 0 {
		if cost := EstimateCost(p, len(scenarios)); cost > e.config.MaxCost {
			return Params{}, nil, fmt.Errorf("%w: %d draws exceeds limit of %d", ErrRequestTooLarge, cost, e.config.MaxCost)
		}
	}
	return p, scenarios, nil
}

func (e *Engine) reject(err error) {
	reason := "internal"
	switch {
	case errors.Is(err, ErrValidation):
		reason = "validation"
	case errors.Is(err, ErrInvalidModel):
		reason = "invalid_model"
	case errors.Is(err, ErrRequestTooLarge):
		reason = "too_large"
	}
	e.metrics.RecordRejected(reason)
	e.logger.Warn("rejected simulation request", zap.String("reason", reason), zap.Error(err))
}

// RunParams projects already-built params. History is loaded once, before
// any path is simulated.
func (e *Engine) RunParams(ctx context.Context, p Params, scenarios []Scenario) (*types.SimulationResponse, error) {
	start := time.Now()

	var history *historySet
	if p.Model == ModelHistorical {
		var err error
		history, err = loadHistory(ctx, e.provider, p.RandomSeed, requestTickers(p))
		if err != nil {
			return nil, err
		}
		if len(history.synthetic) > 0 {
			e.metrics.RecordHistoryFallbacks(len(history.synthetic))
			e.logger.Info("using synthetic history",
				zap.Strings("tickers", history.synthetic),
				zap.Int64("seed", p.RandomSeed),
			)
		}
	}

	resp := &types.SimulationResponse{Scenarios: make(map[string]*types.ScenarioResult, len(scenarios))}
	for _, sc := range scenarios {
		adjusted := AdjustForScenario(p, sc)

		if !adjusted.Batch() {
			summary, err := e.runPortfolio(ctx, adjusted, history)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", sc, err)
			}
			resp.Scenarios[string(sc)] = &types.ScenarioResult{Summary: summary}
			continue
		}

		result := &types.ScenarioResult{PortfolioResults: make(map[string]*types.Summary)}
		for i, pf := range adjusted.Portfolios() {
			summary, err := e.runPortfolio(ctx, adjusted.WithAssets(pf.Assets), history)
			if err != nil {
				return nil, fmt.Errorf("scenario %s, portfolio %d: %w", sc, i+1, err)
			}
			result.PortfolioResults[fmt.Sprintf("portfolio_%d", i+1)] = summary
		}
		resp.Scenarios[string(sc)] = result
	}

	e.logger.Info("projection complete",
		zap.String("model", string(p.Model)),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("paths", p.NumSimulations),
		zap.Int("years", p.InvestmentYears),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// Simulate runs one portfolio of p and returns its raw ensemble.
func (e *Engine) Simulate(ctx context.Context, p Params) (*Ensemble, error) {
	var history *historySet
	if p.Model == ModelHistorical {
		var err error
		history, err = loadHistory(ctx, e.provider, p.RandomSeed, requestTickers(p))
		if err != nil {
			return nil, err
		}
	}
	return e.simulate(ctx, p, history)
}

func (e *Engine) runPortfolio(ctx context.Context, p Params, history *historySet) (*types.Summary, error) {
	ens, err := e.simulate(ctx, p, history)
	if err != nil {
		return nil, err
	}
	return Summarize(ens, p), nil
}

func (e *Engine) simulate(ctx context.Context, p Params, history *historySet) (*Ensemble, error) {
	var series [][]float64
	if history != nil {
		series = history.forAssets(p.Assets())
	}
	gen, err := NewReturnGenerator(p, series)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ens, err := e.simulator.Run(ctx, p, gen)
	e.metrics.RecordSimulation(gen.Name(), p.NumSimulations, time.Since(start).Seconds(), err)
	return ens, err
}

// requestTickers returns every distinct ticker of p in lexical order.
func requestTickers(p Params) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(assets []Asset) {
		for _, a := range assets {
			if !seen[a.Ticker] {
				seen[a.Ticker] = true
				out = append(out, a.Ticker)
			}
		}
	}
	add(p.assets)
	for _, pf := range p.portfolios {
		add(pf.Assets)
	}
	sort.Strings(out)
	return out
}
