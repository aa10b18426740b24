package montecarlo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// percentileSorted returns the q-th percentile (0..100) of sorted values by
// linear interpolation between closest ranks.
func percentileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Percentile returns the q-th percentile of values without modifying them.
func Percentile(values []float64, q float64) float64 {
	return percentileSorted(sortedCopy(values), q)
}

func sortedCopy(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (mean, std float64) {
	n := len(values)
	switch n {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, variance := stat.MeanVariance(values, nil)
	variance *= float64(n-1) / float64(n)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// maxDrawdown returns the largest peak-to-trough decline of a series as a
// fraction of the running peak. Non-positive peaks contribute nothing.
func maxDrawdown(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	peak := series[0]
	worst := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}
