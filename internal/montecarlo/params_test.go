package montecarlo_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-desktop/portfolio-sim/internal/montecarlo"
	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }
func i64(v int64) *int64      { return &v }

func singleAsset(ticker string) []types.AssetSpec {
	return []types.AssetSpec{{Ticker: ticker, Allocation: 100}}
}

func TestBuildParamsDefaults(t *testing.T) {
	p, err := montecarlo.BuildParams(&types.SimulationRequest{
		SimulationModel: "parameterized",
		Assets:          singleAsset("SPY"),
	})
	require.NoError(t, err)

	assert.Equal(t, 10000.0, p.InitialAmount)
	assert.Equal(t, 10, p.InvestmentYears)
	assert.Equal(t, 500, p.NumSimulations)
	assert.Equal(t, int64(42), p.RandomSeed)
	assert.Equal(t, montecarlo.RebalanceNone, p.Rebalancing)
	assert.Equal(t, montecarlo.DistributionLogNormal, p.Distribution)
	assert.Equal(t, montecarlo.TimeSeriesNormal, p.TimeSeries)
	assert.Equal(t, montecarlo.CashflowNone, p.Cashflow.Type)
	assert.InDelta(t, 0.02, p.Cashflow.InflationRate, 1e-12)
	assert.InDelta(t, 0.03, p.RiskFreeRate, 1e-12)
	assert.Equal(t, 0.05, p.Mu)
	assert.Equal(t, 0.10, p.Sigma)
	assert.Equal(t, 1, p.PeriodsPerYear())
	assert.False(t, p.Batch())

	assets := p.Assets()
	require.Len(t, assets, 1)
	assert.Equal(t, 0.05, assets[0].MeanReturn)
	assert.Equal(t, 0.10, assets[0].Volatility)
}

func TestBuildParamsStatisticalDefaults(t *testing.T) {
	p, err := montecarlo.BuildParams(&types.SimulationRequest{
		SimulationModel: "statistical",
		Assets: []types.AssetSpec{
			{Ticker: "AAA", Allocation: 60, MeanReturn: f64(0.08)},
			{Ticker: "BBB", Allocation: 40, Volatility: f64(0.2)},
		},
	})
	require.NoError(t, err)

	assets := p.Assets()
	assert.Equal(t, 0.08, assets[0].MeanReturn)
	assert.Equal(t, 0.15, assets[0].Volatility)
	assert.Equal(t, 0.07, assets[1].MeanReturn)
	assert.Equal(t, 0.2, assets[1].Volatility)
}

func TestBuildParamsCashflowAmounts(t *testing.T) {
	p, err := montecarlo.BuildParams(&types.SimulationRequest{
		SimulationModel:     "parameterized",
		Assets:              singleAsset("SPY"),
		CashflowType:        "withdraw_fixed",
		CashflowAmount:      f64(500),
		WithdrawalFrequency: "monthly",
		InflationAdjusted:   true,
		InflationRate:       f64(3),
	})
	require.NoError(t, err)

	assert.Equal(t, montecarlo.CashflowWithdrawFixed, p.Cashflow.Type)
	assert.Equal(t, 500.0, p.Cashflow.WithdrawalAmount)
	assert.Equal(t, montecarlo.FrequencyMonthly, p.Cashflow.WithdrawalFrequency)
	assert.True(t, p.Cashflow.InflationAdjusted)
	assert.InDelta(t, 0.03, p.Cashflow.InflationRate, 1e-12)
}

func TestBuildParamsErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   *types.SimulationRequest
		want  error
		field string
	}{
		{
			name:  "nil request",
			req:   nil,
			want:  montecarlo.ErrValidation,
			field: "",
		},
		{
			name:  "missing model",
			req:   &types.SimulationRequest{Assets: singleAsset("SPY")},
			want:  montecarlo.ErrValidation,
			field: "simulation_model",
		},
		{
			name: "unknown model",
			req:  &types.SimulationRequest{SimulationModel: "quantum", Assets: singleAsset("SPY")},
			want: montecarlo.ErrInvalidModel,
		},
		{
			name: "unknown time series model",
			req:  &types.SimulationRequest{SimulationModel: "statistical", TimeSeriesModel: "arima", Assets: singleAsset("SPY")},
			want: montecarlo.ErrInvalidModel,
		},
		{
			name:  "missing assets",
			req:   &types.SimulationRequest{SimulationModel: "historical"},
			want:  montecarlo.ErrValidation,
			field: "assets",
		},
		{
			name: "withdrawal percentage above 100",
			req: &types.SimulationRequest{
				SimulationModel: "parameterized",
				Assets:          singleAsset("SPY"),
				CashflowType:    "withdraw_percentage",
				CashflowAmount:  f64(150),
			},
			want:  montecarlo.ErrValidation,
			field: "cashflow_amount",
		},
		{
			name: "non-positive years",
			req: &types.SimulationRequest{
				SimulationModel: "parameterized",
				Assets:          singleAsset("SPY"),
				InvestmentYears: intp(0),
			},
			want:  montecarlo.ErrValidation,
			field: "investment_years",
		},
		{
			name: "non-positive simulations",
			req: &types.SimulationRequest{
				SimulationModel: "parameterized",
				Assets:          singleAsset("SPY"),
				NumSimulations:  intp(-1),
			},
			want:  montecarlo.ErrValidation,
			field: "num_simulations",
		},
		{
			name: "negative initial amount",
			req: &types.SimulationRequest{
				SimulationModel: "parameterized",
				Assets:          singleAsset("SPY"),
				InitialAmount:   f64(-5),
			},
			want:  montecarlo.ErrValidation,
			field: "initial_amount",
		},
		{
			name: "zero initial amount",
			req: &types.SimulationRequest{
				SimulationModel: "parameterized",
				Assets:          singleAsset("SPY"),
				InitialAmount:   f64(0),
			},
			want:  montecarlo.ErrValidation,
			field: "initial_amount",
		},
		{
			name: "unknown rebalancing frequency",
			req: &types.SimulationRequest{
				SimulationModel:      "parameterized",
				Assets:               singleAsset("SPY"),
				RebalancingFrequency: "weekly",
			},
			want:  montecarlo.ErrValidation,
			field: "rebalancing_frequency",
		},
		{
			name: "correlation size mismatch",
			req: &types.SimulationRequest{
				SimulationModel:   "statistical",
				Assets:            singleAsset("SPY"),
				CorrelationMatrix: [][]float64{{1, 0}, {0, 1}},
			},
			want:  montecarlo.ErrValidation,
			field: "correlation_matrix",
		},
		{
			name: "ragged correlation",
			req: &types.SimulationRequest{
				SimulationModel: "statistical",
				Assets: []types.AssetSpec{
					{Ticker: "A", Allocation: 50},
					{Ticker: "B", Allocation: 50},
				},
				CorrelationMatrix: [][]float64{{1}, {0, 1}},
			},
			want:  montecarlo.ErrValidation,
			field: "correlation_matrix",
		},
		{
			name: "empty portfolio weights",
			req: &types.SimulationRequest{
				SimulationModel: "parameterized",
				Portfolios:      []types.PortfolioSpec{{Weights: map[string]float64{}}},
			},
			want:  montecarlo.ErrValidation,
			field: "portfolios",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := montecarlo.BuildParams(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var verr *montecarlo.ValidationError
			if errors.As(err, &verr) {
				assert.Equal(t, tt.field, verr.Field)
			}
		})
	}
}

func TestBuildParamsPortfoliosSortTickers(t *testing.T) {
	p, err := montecarlo.BuildParams(&types.SimulationRequest{
		SimulationModel: "parameterized",
		Portfolios: []types.PortfolioSpec{
			{Name: "growth", Weights: map[string]float64{"QQQ": 70, "BND": 30}},
		},
	})
	require.NoError(t, err)
	require.True(t, p.Batch())

	pfs := p.Portfolios()
	require.Len(t, pfs, 1)
	assert.Equal(t, "growth", pfs[0].Name)
	require.Len(t, pfs[0].Assets, 2)
	assert.Equal(t, "BND", pfs[0].Assets[0].Ticker)
	assert.Equal(t, "QQQ", pfs[0].Assets[1].Ticker)
}

func TestParamsAccessorsReturnCopies(t *testing.T) {
	p, err := montecarlo.BuildParams(&types.SimulationRequest{
		SimulationModel:   "statistical",
		Assets:            []types.AssetSpec{{Ticker: "A", Allocation: 50}, {Ticker: "B", Allocation: 50}},
		CorrelationMatrix: [][]float64{{1, 0.3}, {0.3, 1}},
	})
	require.NoError(t, err)

	assets := p.Assets()
	assets[0].Allocation = 99
	corr := p.Correlation()
	corr[0][1] = 0.9

	assert.Equal(t, 50.0, p.Assets()[0].Allocation)
	assert.Equal(t, 0.3, p.Correlation()[0][1])
}
