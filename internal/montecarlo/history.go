package montecarlo

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// HistoryProvider supplies monthly return series for tickers. Implementations
// may return fewer than MinHistoryObservations values (or none) for unknown
// tickers; the engine substitutes a synthetic series in that case.
type HistoryProvider interface {
	PeriodReturns(ctx context.Context, ticker string) ([]float64, error)
}

// Synthetic history parameters.
const (
	MinHistoryObservations = 12
	syntheticLength        = 120
	syntheticMean          = 0.07
	syntheticStdDev        = 0.05
)

// SyntheticSeries returns the Normal(0.07, 0.05) stand-in series used when a
// ticker lacks history. It depends only on (seed, ticker).
func SyntheticSeries(seed int64, ticker string) []float64 {
	dist := distuv.Normal{
		Mu:    syntheticMean,
		Sigma: syntheticStdDev,
		Src:   newStream(seed, streamSynthetic, tickerKey(ticker)),
	}
	out := make([]float64, syntheticLength)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// historySet is the fully materialized history of one request.
type historySet struct {
	series    map[string][]float64
	synthetic []string
}

// loadHistory fetches every ticker once, before any simulation starts.
func loadHistory(ctx context.Context, provider HistoryProvider, seed int64, tickers []string) (*historySet, error) {
	hs := &historySet{series: make(map[string][]float64, len(tickers))}
	for _, ticker := range tickers {
		if _, ok := hs.series[ticker]; ok {
			continue
		}
		var series []float64
		if provider != nil {
			var err error
			series, err = provider.PeriodReturns(ctx, ticker)
			if err != nil {
				return nil, fmt.Errorf("failed to load history for %s: %w", ticker, err)
			}
		}
		if len(series) < MinHistoryObservations {
			series = SyntheticSeries(seed, ticker)
			hs.synthetic = append(hs.synthetic, ticker)
		}
		hs.series[ticker] = series
	}
	return hs, nil
}

func (hs *historySet) forAssets(assets []Asset) [][]float64 {
	out := make([][]float64, len(assets))
	for i, a := range assets {
		out[i] = hs.series[a.Ticker]
	}
	return out
}
