// Package types provides shared type definitions for the projection service.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SimulationRequest is the raw body of a projection request.
// Optional numeric fields are pointers so an absent value can be told apart
// from an explicit zero.
type SimulationRequest struct {
	SimulationModel string `json:"simulation_model"`
	TimeSeriesModel string `json:"time_series_model,omitempty"`

	InitialAmount   *float64 `json:"initial_amount,omitempty"`
	InvestmentYears *int     `json:"investment_years,omitempty"`
	NumSimulations  *int     `json:"num_simulations,omitempty"`
	RandomSeed      *int64   `json:"random_seed,omitempty"`

	RebalancingFrequency string `json:"rebalancing_frequency,omitempty"`

	CashflowType          string   `json:"cashflow_type,omitempty"`
	CashflowAmount        *float64 `json:"cashflow_amount,omitempty"`
	WithdrawalAmount      *float64 `json:"withdrawal_amount,omitempty"`
	WithdrawalFrequency   string   `json:"withdrawal_frequency,omitempty"`
	ContributionAmount    *float64 `json:"contribution_amount,omitempty"`
	ContributionFrequency string   `json:"contribution_frequency,omitempty"`

	InflationAdjusted bool     `json:"inflation_adjusted,omitempty"`
	InflationRate     *float64 `json:"inflation_rate,omitempty"` // percent

	DistributionType  string      `json:"distribution_type,omitempty"`
	Mu                *float64    `json:"mu,omitempty"`
	Sigma             *float64    `json:"sigma,omitempty"`
	CorrelationMatrix [][]float64 `json:"correlation_matrix,omitempty"`
	BaseInterestRate  *float64    `json:"base_interest_rate,omitempty"` // percent

	Scenarios  []string        `json:"scenarios,omitempty"`
	Assets     []AssetSpec     `json:"assets,omitempty"`
	Portfolios []PortfolioSpec `json:"portfolios,omitempty"`
}

// AssetSpec is one holding of a single-portfolio request.
type AssetSpec struct {
	Ticker     string   `json:"ticker"`
	Allocation float64  `json:"allocation"` // percent of portfolio
	MeanReturn *float64 `json:"mean_return,omitempty"`
	Volatility *float64 `json:"volatility,omitempty"`
}

// PortfolioSpec is a named weight map used in batch mode.
type PortfolioSpec struct {
	Name    string             `json:"name,omitempty"`
	Weights map[string]float64 `json:"weights"`
}

// SimulationResponse is the result of a projection request.
type SimulationResponse struct {
	Scenarios map[string]*ScenarioResult `json:"scenarios"`
}

// ScenarioResult holds either a single summary (promoted fields) or, in
// batch mode, one summary per portfolio.
type ScenarioResult struct {
	*Summary
	PortfolioResults map[string]*Summary `json:"portfolioResults,omitempty"`
}

// Summary is the reduced view of one ensemble.
type Summary struct {
	Percentiles        Percentiles         `json:"percentiles"`
	Expected           []float64           `json:"expected"`
	StdDev             []float64           `json:"std_dev"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics"`
}

// Percentiles holds year-indexed percentile bands.
type Percentiles struct {
	P5  []float64 `json:"p5"`
	P25 []float64 `json:"p25"`
	P50 []float64 `json:"p50"`
	P75 []float64 `json:"p75"`
	P95 []float64 `json:"p95"`
}

// PerformanceMetrics contains ensemble risk statistics
type PerformanceMetrics struct {
	MeanFinal       float64  `json:"mean_final"`
	MedianFinal     float64  `json:"median_final"`
	StdFinal        float64  `json:"std_final"`
	AvgMaxDrawdown  float64  `json:"avg_max_drawdown"`
	VaR5            float64  `json:"VaR_5"`
	CVaR5           float64  `json:"CVaR_5"`
	AvgAnnualReturn float64  `json:"avg_annual_return"`
	StdAnnualReturn float64  `json:"std_annual_return"`
	SharpeRatio     *float64 `json:"sharpe_ratio"` // nil when return volatility is ~0
}

// CostEstimate describes the work a request would perform.
type CostEstimate struct {
	Draws    int64 `json:"cost"`
	MaxDraws int64 `json:"max_cost"`
	Allowed  bool  `json:"allowed"`
}

// PricePoint is one observed close for a ticker.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}
