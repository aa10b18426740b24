package data

import (
	"sort"
	"time"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

const dateLayout = "2006-01-02"

// MonthlyReturns resamples closes to month-end (last observation of each
// calendar month) and returns the simple returns between consecutive months.
// Months without an observation carry the previous close forward, so they
// contribute a zero return. Non-positive closes are skipped.
func MonthlyReturns(points []types.PricePoint) []float64 {
	if len(points) == 0 {
		return nil
	}
	sorted := append([]types.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	type monthKey struct {
		year  int
		month time.Month
	}
	var (
		months []monthKey
		closes = make(map[monthKey]float64)
	)
	for _, p := range sorted {
		c := p.Close.InexactFloat64()
		if c <= 0 {
			continue
		}
		d := p.Date.UTC()
		k := monthKey{d.Year(), d.Month()}
		if _, ok := closes[k]; !ok {
			months = append(months, k)
		}
		closes[k] = c
	}
	if len(months) < 2 {
		return nil
	}

	first, last := months[0], months[len(months)-1]
	cursor := time.Date(first.year, first.month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last.year, last.month, 1, 0, 0, 0, 0, time.UTC)

	prev := closes[first]
	var out []float64
	for cursor = cursor.AddDate(0, 1, 0); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		cur, ok := closes[monthKey{cursor.Year(), cursor.Month()}]
		if !ok {
			cur = prev
		}
		out = append(out, cur/prev-1)
		prev = cur
	}
	return out
}
