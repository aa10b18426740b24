package montecarlo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/portfolio-sim/internal/montecarlo"
)

func TestApplyCashflow(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		year    int
		cf      montecarlo.Cashflow
		want    float64
	}{
		{
			name:    "none is identity",
			balance: 1234,
			year:    3,
			cf:      montecarlo.Cashflow{Type: montecarlo.CashflowNone},
			want:    1234,
		},
		{
			name:    "fixed withdrawal monthly",
			balance: 10000,
			year:    1,
			cf: montecarlo.Cashflow{
				Type:                montecarlo.CashflowWithdrawFixed,
				WithdrawalAmount:    100,
				WithdrawalFrequency: montecarlo.FrequencyMonthly,
			},
			want: 8800,
		},
		{
			name:    "fixed withdrawal inflation adjusted",
			balance: 10000,
			year:    2,
			cf: montecarlo.Cashflow{
				Type:                montecarlo.CashflowWithdrawFixed,
				WithdrawalAmount:    100,
				WithdrawalFrequency: montecarlo.FrequencyAnnually,
				InflationAdjusted:   true,
				InflationRate:       0.1,
			},
			want: 10000 - 121,
		},
		{
			name:    "fixed withdrawal floors at zero",
			balance: 500,
			year:    1,
			cf: montecarlo.Cashflow{
				Type:                montecarlo.CashflowWithdrawFixed,
				WithdrawalAmount:    1000,
				WithdrawalFrequency: montecarlo.FrequencyQuarterly,
			},
			want: 0,
		},
		{
			name:    "fixed contribution quarterly",
			balance: 1000,
			year:    5,
			cf: montecarlo.Cashflow{
				Type:                  montecarlo.CashflowContributeFixed,
				ContributionAmount:    250,
				ContributionFrequency: montecarlo.FrequencyQuarterly,
			},
			want: 2000,
		},
		{
			name:    "percentage withdrawal annual",
			balance: 10000,
			year:    1,
			cf: montecarlo.Cashflow{
				Type:                montecarlo.CashflowWithdrawPercentage,
				Percentage:          4,
				WithdrawalFrequency: montecarlo.FrequencyAnnually,
			},
			want: 9600,
		},
		{
			name:    "percentage withdrawal monthly takes one effective slice",
			balance: 10000,
			year:    1,
			cf: montecarlo.Cashflow{
				Type:                montecarlo.CashflowWithdrawPercentage,
				Percentage:          4,
				WithdrawalFrequency: montecarlo.FrequencyMonthly,
			},
			want: 10000 * math.Pow(0.96, 1.0/12),
		},
		{
			name:    "full percentage withdrawal empties balance",
			balance: 10000,
			year:    1,
			cf: montecarlo.Cashflow{
				Type:                montecarlo.CashflowWithdrawPercentage,
				Percentage:          100,
				WithdrawalFrequency: montecarlo.FrequencyQuarterly,
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := montecarlo.ApplyCashflow(tt.balance, tt.year, tt.cf)
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestEffectivePeriodRate(t *testing.T) {
	assert.Equal(t, 0.05, montecarlo.EffectivePeriodRate(0.05, 1))

	r := montecarlo.EffectivePeriodRate(0.12, 12)
	assert.InDelta(t, 0.88, math.Pow(1-r, 12), 1e-12)
	assert.Equal(t, 1.0, montecarlo.EffectivePeriodRate(1, 4))
}

func TestRebalance(t *testing.T) {
	balances := make([]float64, 2)
	cash := montecarlo.Rebalance(1000, []float64{0.6, 0.3}, balances)

	assert.InDelta(t, 600, balances[0], 1e-9)
	assert.InDelta(t, 300, balances[1], 1e-9)
	assert.InDelta(t, 100, cash, 1e-9)

	cash = montecarlo.Rebalance(1000, []float64{0.7, 0.5}, balances)
	assert.InDelta(t, -200, cash, 1e-9)
}

func TestPercentile(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}

	assert.Equal(t, 1.0, montecarlo.Percentile(values, 0))
	assert.Equal(t, 3.0, montecarlo.Percentile(values, 50))
	assert.Equal(t, 5.0, montecarlo.Percentile(values, 100))
	assert.InDelta(t, 1.2, montecarlo.Percentile(values, 5), 1e-12)
	assert.InDelta(t, 4.8, montecarlo.Percentile(values, 95), 1e-12)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)

	assert.Equal(t, 0.0, montecarlo.Percentile(nil, 50))
	assert.Equal(t, 7.0, montecarlo.Percentile([]float64{7}, 5))
}
