package montecarlo

import "math"

// ApplyCashflow applies one year's cashflow to balance at the end of year
// (1-based). Fixed amounts are multiplied by the frequency's occurrences per
// year; a percentage withdrawal takes one effective-rate slice per call.
// Withdrawals never leave a negative balance.
func ApplyCashflow(balance float64, year int, c Cashflow) float64 {
	switch c.Type {
	case CashflowWithdrawFixed:
		amount := inflate(c.WithdrawalAmount, year, c) * float64(c.WithdrawalFrequency.Multiplier())
		return math.Max(balance-amount, 0)

	case CashflowContributeFixed:
		amount := inflate(c.ContributionAmount, year, c) * float64(c.ContributionFrequency.Multiplier())
		return balance + amount

	case CashflowWithdrawPercentage:
		rate := EffectivePeriodRate(c.Percentage/100.0, c.WithdrawalFrequency.Multiplier())
		return math.Max(balance-balance*rate, 0)
	}
	return balance
}

// EffectivePeriodRate returns the per-occurrence rate that compounds to
// annualRate over n occurrences.
func EffectivePeriodRate(annualRate float64, n int) float64 {
	if n <= 1 {
		return annualRate
	}
	return 1 - math.Pow(1-annualRate, 1/float64(n))
}

func inflate(amount float64, year int, c Cashflow) float64 {
	if !c.InflationAdjusted {
		return amount
	}
	return amount * math.Pow(1+c.InflationRate, float64(year))
}
