package montecarlo

import (
	"math"
	"sort"
	"strings"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

// SimulationModel selects the return-generation family
type SimulationModel string

const (
	ModelHistorical    SimulationModel = "historical"
	ModelParameterized SimulationModel = "parameterized"
	ModelStatistical   SimulationModel = "statistical"
)

// TimeSeriesModel selects the statistical model's per-asset process
type TimeSeriesModel string

const (
	TimeSeriesNormal TimeSeriesModel = "normal"
	TimeSeriesGARCH  TimeSeriesModel = "garch"
)

// DistributionType selects the parameterized model's draw distribution
type DistributionType string

const (
	DistributionLogNormal DistributionType = "lognormal"
	DistributionNormal    DistributionType = "normal"
)

// RebalancingFrequency sets the simulation's period granularity
type RebalancingFrequency string

const (
	RebalanceNone         RebalancingFrequency = "none"
	RebalanceAnnually     RebalancingFrequency = "annually"
	RebalanceSemiannually RebalancingFrequency = "semiannually"
	RebalanceQuarterly    RebalancingFrequency = "quarterly"
	RebalanceMonthly      RebalancingFrequency = "monthly"
)

// PeriodsPerYear returns the number of compounding periods in a year.
func (f RebalancingFrequency) PeriodsPerYear() int {
	switch f {
	case RebalanceMonthly:
		return 12
	case RebalanceQuarterly:
		return 4
	case RebalanceSemiannually:
		return 2
	default:
		return 1
	}
}

// SubAnnual reports whether the frequency is finer than a year.
func (f RebalancingFrequency) SubAnnual() bool {
	return f.PeriodsPerYear() > 1
}

// CashflowType selects the cashflow rule applied at year boundaries
type CashflowType string

const (
	CashflowNone               CashflowType = "none"
	CashflowWithdrawFixed      CashflowType = "withdraw_fixed"
	CashflowContributeFixed    CashflowType = "contribute_fixed"
	CashflowWithdrawPercentage CashflowType = "withdraw_percentage"
)

// CashflowFrequency is how often a cashflow occurs within a year
type CashflowFrequency string

const (
	FrequencyAnnually  CashflowFrequency = "annually"
	FrequencyQuarterly CashflowFrequency = "quarterly"
	FrequencyMonthly   CashflowFrequency = "monthly"
)

// Multiplier returns the number of occurrences per year.
func (f CashflowFrequency) Multiplier() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	default:
		return 1
	}
}

// Scenario tags a macro variant of a request
type Scenario string

const (
	ScenarioBaseline    Scenario = "baseline"
	ScenarioOptimistic  Scenario = "optimistic"
	ScenarioPessimistic Scenario = "pessimistic"
)

// Defaults applied by BuildParams.
const (
	DefaultInitialAmount    = 10000.0
	DefaultInvestmentYears  = 10
	DefaultRandomSeed       = 42
	DefaultNumSimulations   = 500
	DefaultInflationPercent = 2.0
	DefaultBaseInterestRate = 3.0
)

// Asset is a resolved holding: allocation in percent, annualized moments.
type Asset struct {
	Ticker     string
	Allocation float64
	MeanReturn float64
	Volatility float64
}

// Weight returns the allocation as a fraction.
func (a Asset) Weight() float64 { return a.Allocation / 100.0 }

// Portfolio is a named asset list in batch mode.
type Portfolio struct {
	Name   string
	Assets []Asset
}

// Cashflow describes the cashflow rule of a request.
type Cashflow struct {
	Type                  CashflowType
	WithdrawalAmount      float64
	WithdrawalFrequency   CashflowFrequency
	ContributionAmount    float64
	ContributionFrequency CashflowFrequency
	Percentage            float64 // annual withdrawal, 0..100
	InflationAdjusted     bool
	InflationRate         float64 // fraction
}

// Params is an immutable simulation configuration. Scalar fields are copied
// with the value; slices are only reachable through copying accessors, so a
// derived Params never shares mutable state with its source.
type Params struct {
	InitialAmount   float64
	InvestmentYears int
	NumSimulations  int
	RandomSeed      int64

	Model        SimulationModel
	TimeSeries   TimeSeriesModel
	Distribution DistributionType
	Rebalancing  RebalancingFrequency
	Cashflow     Cashflow

	Mu                   float64
	Sigma                float64
	RiskFreeRate         float64 // fraction
	HistoricalAdjustment float64

	assets      []Asset
	portfolios  []Portfolio
	correlation [][]float64
}

// Assets returns a copy of the single-portfolio asset list.
func (p Params) Assets() []Asset {
	return append([]Asset(nil), p.assets...)
}

// Portfolios returns a deep copy of the batch portfolios.
func (p Params) Portfolios() []Portfolio {
	if p.portfolios == nil {
		return nil
	}
	out := make([]Portfolio, len(p.portfolios))
	for i, pf := range p.portfolios {
		out[i] = Portfolio{Name: pf.Name, Assets: append([]Asset(nil), pf.Assets...)}
	}
	return out
}

// Correlation returns a copy of the correlation matrix, or nil.
func (p Params) Correlation() [][]float64 {
	return copyMatrix(p.correlation)
}

// Batch reports whether the request carries named portfolios.
func (p Params) Batch() bool { return p.portfolios != nil }

// PeriodsPerYear returns the compounding periods per year.
func (p Params) PeriodsPerYear() int { return p.Rebalancing.PeriodsPerYear() }

// TotalPeriods returns the number of simulated periods per path.
func (p Params) TotalPeriods() int { return p.InvestmentYears * p.PeriodsPerYear() }

// WithAssets returns a single-portfolio copy of p holding assets.
func (p Params) WithAssets(assets []Asset) Params {
	q := p.clone()
	q.assets = append([]Asset(nil), assets...)
	q.portfolios = nil
	return q
}

func (p Params) clone() Params {
	q := p
	q.assets = append([]Asset(nil), p.assets...)
	q.portfolios = p.Portfolios()
	q.correlation = copyMatrix(p.correlation)
	return q
}

func copyMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// ParseSimulationModel parses a simulation_model tag.
func ParseSimulationModel(s string) (SimulationModel, error) {
	switch m := SimulationModel(strings.ToLower(strings.TrimSpace(s))); m {
	case ModelHistorical, ModelParameterized, ModelStatistical:
		return m, nil
	}
	return "", &InvalidModelError{Field: "simulation_model", Value: s}
}

// ParseTimeSeriesModel parses a time_series_model tag; empty means normal.
func ParseTimeSeriesModel(s string) (TimeSeriesModel, error) {
	if strings.TrimSpace(s) == "" {
		return TimeSeriesNormal, nil
	}
	switch m := TimeSeriesModel(strings.ToLower(strings.TrimSpace(s))); m {
	case TimeSeriesNormal, TimeSeriesGARCH:
		return m, nil
	}
	return "", &InvalidModelError{Field: "time_series_model", Value: s}
}

// ParseScenario parses a scenario tag.
func ParseScenario(s string) (Scenario, error) {
	switch sc := Scenario(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScenarioBaseline, ScenarioOptimistic, ScenarioPessimistic:
		return sc, nil
	}
	return "", validationf("scenarios", "unknown scenario %q", s)
}

func parseDistribution(s string) (DistributionType, error) {
	if strings.TrimSpace(s) == "" {
		return DistributionLogNormal, nil
	}
	switch d := DistributionType(strings.ToLower(strings.TrimSpace(s))); d {
	case DistributionLogNormal, DistributionNormal:
		return d, nil
	}
	return "", validationf("distribution_type", "unknown distribution %q", s)
}

func parseRebalancing(s string) (RebalancingFrequency, error) {
	if strings.TrimSpace(s) == "" {
		return RebalanceNone, nil
	}
	switch f := RebalancingFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case RebalanceNone, RebalanceAnnually, RebalanceSemiannually, RebalanceQuarterly, RebalanceMonthly:
		return f, nil
	}
	return "", validationf("rebalancing_frequency", "unknown frequency %q", s)
}

func parseCashflowType(s string) (CashflowType, error) {
	if strings.TrimSpace(s) == "" {
		return CashflowNone, nil
	}
	switch c := CashflowType(strings.ToLower(strings.TrimSpace(s))); c {
	case CashflowNone, CashflowWithdrawFixed, CashflowContributeFixed, CashflowWithdrawPercentage:
		return c, nil
	}
	return "", validationf("cashflow_type", "unknown cashflow type %q", s)
}

func parseCashflowFrequency(field, s string) (CashflowFrequency, error) {
	if strings.TrimSpace(s) == "" {
		return FrequencyAnnually, nil
	}
	switch f := CashflowFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyAnnually, FrequencyQuarterly, FrequencyMonthly:
		return f, nil
	}
	return "", validationf(field, "unknown frequency %q", s)
}

// BuildParams normalizes a raw request into Params, applying defaults and
// validating cross-field constraints. No simulation work happens here.
func BuildParams(req *types.SimulationRequest) (Params, error) {
	if req == nil {
		return Params{}, validationf("", "empty request")
	}
	if strings.TrimSpace(req.SimulationModel) == "" {
		return Params{}, validationf("simulation_model", "missing required parameter")
	}
	model, err := ParseSimulationModel(req.SimulationModel)
	if err != nil {
		return Params{}, err
	}
	timeSeries, err := ParseTimeSeriesModel(req.TimeSeriesModel)
	if err != nil {
		return Params{}, err
	}
	dist, err := parseDistribution(req.DistributionType)
	if err != nil {
		return Params{}, err
	}
	rebalancing, err := parseRebalancing(req.RebalancingFrequency)
	if err != nil {
		return Params{}, err
	}

	muDefault, sigmaDefault := 0.07, 0.15
	if model == ModelParameterized {
		muDefault, sigmaDefault = 0.05, 0.10
	}

	p := Params{
		InitialAmount:   floatOr(req.InitialAmount, DefaultInitialAmount),
		InvestmentYears: intOr(req.InvestmentYears, DefaultInvestmentYears),
		NumSimulations:  intOr(req.NumSimulations, DefaultNumSimulations),
		RandomSeed:      DefaultRandomSeed,
		Model:           model,
		TimeSeries:      timeSeries,
		Distribution:    dist,
		Rebalancing:     rebalancing,
		Mu:              floatOr(req.Mu, muDefault),
		Sigma:           floatOr(req.Sigma, sigmaDefault),
		RiskFreeRate:    floatOr(req.BaseInterestRate, DefaultBaseInterestRate) / 100.0,
	}
	if req.RandomSeed != nil {
		p.RandomSeed = *req.RandomSeed
	}

	if p.InitialAmount <= 0 || !isFinite(p.InitialAmount) {
		return Params{}, validationf("initial_amount", "must be a positive number, got %v", p.InitialAmount)
	}
	if p.InvestmentYears <= 0 {
		return Params{}, validationf("investment_years", "must be positive, got %d", p.InvestmentYears)
	}
	if p.NumSimulations <= 0 {
		return Params{}, validationf("num_simulations", "must be positive, got %d", p.NumSimulations)
	}
	if p.Sigma < 0 || !isFinite(p.Sigma) || !isFinite(p.Mu) {
		return Params{}, validationf("sigma", "must be a non-negative number, got %v", p.Sigma)
	}

	if p.Cashflow, err = buildCashflow(req); err != nil {
		return Params{}, err
	}

	switch {
	case req.Portfolios != nil:
		portfolios, err := buildPortfolios(req.Portfolios, p.Mu, p.Sigma)
		if err != nil {
			return Params{}, err
		}
		p.portfolios = portfolios
	case req.Assets != nil:
		assets, err := buildAssets(req.Assets, p.Mu, p.Sigma)
		if err != nil {
			return Params{}, err
		}
		p.assets = assets
	default:
		return Params{}, validationf("assets", "missing or invalid 'assets' array")
	}

	if model == ModelStatistical && req.CorrelationMatrix != nil {
		if err := validateCorrelation(req.CorrelationMatrix, p); err != nil {
			return Params{}, err
		}
		p.correlation = copyMatrix(req.CorrelationMatrix)
	}

	return p, nil
}

func buildCashflow(req *types.SimulationRequest) (Cashflow, error) {
	ct, err := parseCashflowType(req.CashflowType)
	if err != nil {
		return Cashflow{}, err
	}
	wf, err := parseCashflowFrequency("withdrawal_frequency", req.WithdrawalFrequency)
	if err != nil {
		return Cashflow{}, err
	}
	cf, err := parseCashflowFrequency("contribution_frequency", req.ContributionFrequency)
	if err != nil {
		return Cashflow{}, err
	}

	cashflowAmount := floatOr(req.CashflowAmount, 0)
	c := Cashflow{
		Type:                  ct,
		WithdrawalAmount:      floatOr(req.WithdrawalAmount, cashflowAmount),
		WithdrawalFrequency:   wf,
		ContributionAmount:    floatOr(req.ContributionAmount, cashflowAmount),
		ContributionFrequency: cf,
		Percentage:            cashflowAmount,
		InflationAdjusted:     req.InflationAdjusted,
		InflationRate:         floatOr(req.InflationRate, DefaultInflationPercent) / 100.0,
	}

	if ct == CashflowWithdrawPercentage {
		if c.Percentage > 100 {
			return Cashflow{}, validationf("cashflow_amount", "Withdrawal Percentage cannot exceed 100%%")
		}
		if c.Percentage < 0 {
			return Cashflow{}, validationf("cashflow_amount", "Withdrawal Percentage cannot be negative")
		}
	}
	return c, nil
}

func buildAssets(specs []types.AssetSpec, mu, sigma float64) ([]Asset, error) {
	if len(specs) == 0 {
		return nil, validationf("assets", "missing or invalid 'assets' array")
	}
	assets := make([]Asset, len(specs))
	for i, spec := range specs {
		if strings.TrimSpace(spec.Ticker) == "" {
			return nil, validationf("assets", "asset %d has no ticker", i)
		}
		if spec.Allocation < 0 || !isFinite(spec.Allocation) {
			return nil, validationf("assets", "asset %s has invalid allocation %v", spec.Ticker, spec.Allocation)
		}
		assets[i] = Asset{
			Ticker:     spec.Ticker,
			Allocation: spec.Allocation,
			MeanReturn: floatOr(spec.MeanReturn, mu),
			Volatility: floatOr(spec.Volatility, sigma),
		}
		if assets[i].Volatility < 0 {
			return nil, validationf("assets", "asset %s has negative volatility", spec.Ticker)
		}
	}
	return assets, nil
}

func buildPortfolios(specs []types.PortfolioSpec, mu, sigma float64) ([]Portfolio, error) {
	if len(specs) == 0 {
		return nil, validationf("portfolios", "at least one portfolio is required")
	}
	portfolios := make([]Portfolio, len(specs))
	for i, spec := range specs {
		if len(spec.Weights) == 0 {
			return nil, validationf("portfolios", "portfolio %d has no weights", i+1)
		}
		tickers := make([]string, 0, len(spec.Weights))
		for ticker := range spec.Weights {
			tickers = append(tickers, ticker)
		}
		sort.Strings(tickers)

		assets := make([]types.AssetSpec, len(tickers))
		for j, ticker := range tickers {
			assets[j] = types.AssetSpec{Ticker: ticker, Allocation: spec.Weights[ticker]}
		}
		resolved, err := buildAssets(assets, mu, sigma)
		if err != nil {
			return nil, err
		}
		portfolios[i] = Portfolio{Name: spec.Name, Assets: resolved}
	}
	return portfolios, nil
}

func validateCorrelation(m [][]float64, p Params) error {
	sizes := []int{len(p.assets)}
	if p.portfolios != nil {
		sizes = sizes[:0]
		for _, pf := range p.portfolios {
			sizes = append(sizes, len(pf.Assets))
		}
	}
	for _, n := range sizes {
		if len(m) != n {
			return validationf("correlation_matrix", "expected %dx%d matrix, got %d rows", n, n, len(m))
		}
	}
	for i, row := range m {
		if len(row) != len(m) {
			return validationf("correlation_matrix", "row %d has %d columns, expected %d", i, len(row), len(m))
		}
	}
	for i, row := range m {
		for j, v := range row {
			if !isFinite(v) || v < -1 || v > 1 {
				return validationf("correlation_matrix", "entry (%d,%d)=%v outside [-1, 1]", i, j, v)
			}
			if m[j][i] != v {
				return validationf("correlation_matrix", "matrix is not symmetric at (%d,%d)", i, j)
			}
		}
		if row[i] != 1 {
			return validationf("correlation_matrix", "diagonal entry %d must be 1", i)
		}
	}
	return nil
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
