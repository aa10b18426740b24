package montecarlo

// Scenario perturbation constants.
const (
	scenarioReturnShift = 0.01
	optimisticVolScale  = 0.9
	pessimisticVolScale = 1.1
)

// AdjustForScenario returns a copy of p perturbed for the scenario. The input
// is never modified.
//
//	historical:    resampled returns shifted by +/-0.01
//	parameterized: mu +/- 0.01, sigma scaled by 0.9 / 1.1
//	statistical:   per-asset mean_return +/- 0.01, volatility scaled by 0.9 / 1.1
func AdjustForScenario(p Params, scenario Scenario) Params {
	q := p.clone()

	var shift, volScale float64
	switch scenario {
	case ScenarioOptimistic:
		shift, volScale = scenarioReturnShift, optimisticVolScale
	case ScenarioPessimistic:
		shift, volScale = -scenarioReturnShift, pessimisticVolScale
	default:
		shift, volScale = 0, 1
	}

	switch q.Model {
	case ModelHistorical:
		q.HistoricalAdjustment = shift
	case ModelParameterized:
		q.Mu += shift
		q.Sigma *= volScale
	case ModelStatistical:
		if scenario == ScenarioBaseline {
			break
		}
		for i := range q.assets {
			q.assets[i] = shiftAsset(q.assets[i], shift, volScale)
		}
		for i := range q.portfolios {
			for j := range q.portfolios[i].Assets {
				q.portfolios[i].Assets[j] = shiftAsset(q.portfolios[i].Assets[j], shift, volScale)
			}
		}
	}
	return q
}

func shiftAsset(a Asset, shift, volScale float64) Asset {
	a.MeanReturn += shift
	a.Volatility *= volScale
	return a
}
