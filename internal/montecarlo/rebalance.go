package montecarlo

// Rebalance writes total*weight into balances for each asset and returns the
// unallocated residual. Weights are fractions used exactly as supplied: when
// they sum below one the remainder is held as cash earning nothing, above
// one the excess is carried as a negative cash position.
func Rebalance(total float64, weights, balances []float64) (cash float64) {
	cash = total
	for i, w := range weights {
		balances[i] = total * w
		cash -= balances[i]
	}
	return cash
}

func portfolioTotal(balances []float64, cash float64) float64 {
	total := cash
	for _, b := range balances {
		total += b
	}
	return total
}
